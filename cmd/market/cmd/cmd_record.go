package cmd

import (
	"fmt"
	"strconv"

	"github.com/prompthash/marketplace/internal/record"
	"github.com/prompthash/marketplace/pkg/nft"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdRecord = &cobra.Command{
	Use:   "record <id>",
	Short: "Load and print a record with its live token holder.",
	Long:  "Load and print a record with its live token holder.",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("Missing id")
		}

		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return errors.Wrap(err, "Invalid id")
		}

		e := newEnv()

		r, err := record.Retrieve(e.ctx, e.masterDB, id)
		if err != nil {
			return err
		}

		if err := dumpJSON(r); err != nil {
			return err
		}

		holder, err := e.tokens.OwnerOf(e.ctx, id)
		if errors.Cause(err) == nft.ErrNotFound {
			fmt.Printf("token = burned\n")
			return nil
		} else if err != nil {
			return err
		}

		fmt.Printf("token holder = %s\n", holder)
		if !holder.Equal(r.Owner) {
			fmt.Printf("recorded owner diverges : %s\n", r.Owner)
		}

		return nil
	},
}
