package cmd

import (
	"fmt"
	"strconv"

	"github.com/prompthash/marketplace/pkg/identity"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdBuy = &cobra.Command{
	Use:   "buy <buyer> <id>",
	Short: "Buy a listed record.",
	Long:  "Buy a listed record.",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) < 2 {
			return errors.New("Missing buyer or id")
		}

		buyer, err := identity.Decode(args[0])
		if err != nil {
			return err
		}

		id, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return errors.Wrap(err, "Invalid id")
		}

		e := newEnv()

		if err := e.market().Buy(e.ctx, buyer, id); err != nil {
			return err
		}

		fmt.Printf("record %d bought by %s\n", id, buyer)

		return nil
	},
}
