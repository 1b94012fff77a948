package cmd

import (
	"fmt"
	"strconv"

	"github.com/prompthash/marketplace/pkg/identity"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdSell = &cobra.Command{
	Use:   "sell <owner> <id> <price>",
	Short: "List a record for sale at a price.",
	Long:  "List a record for sale at a price.",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) < 3 {
			return errors.New("Missing owner, id or price")
		}

		owner, err := identity.Decode(args[0])
		if err != nil {
			return err
		}

		id, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return errors.Wrap(err, "Invalid id")
		}

		price, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return errors.Wrap(err, "Invalid price")
		}

		e := newEnv()

		if err := e.market().ListForSale(e.ctx, owner, id, price); err != nil {
			return err
		}

		fmt.Printf("record %d listed at %d\n", id, price)

		return nil
	},
}
