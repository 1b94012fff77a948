package cmd

import (
	"fmt"

	"github.com/prompthash/marketplace/internal/authority"
	"github.com/prompthash/marketplace/internal/market"
	"github.com/prompthash/marketplace/internal/record"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

var cmdState = &cobra.Command{
	Use:   "state",
	Short: "Load and print the marketplace state.",
	Long:  "Load and print the marketplace state.",
	RunE: func(c *cobra.Command, args []string) error {
		e := newEnv()

		fees, err := market.FetchFeeConfig(e.ctx, e.masterDB)
		if err != nil {
			return err
		}

		fmt.Printf("# Fees\n\n")
		spew.Dump(fees)

		auth, err := authority.Fetch(e.ctx, e.masterDB)
		if err != nil {
			return err
		}

		fmt.Printf("# Authority\n\n")
		spew.Dump(auth)

		next, err := record.NextID(e.ctx, e.masterDB)
		if err != nil {
			return err
		}

		fmt.Printf("# Records\n\nnext id = %d\n", next)

		return nil
	},
}
