package cmd

import (
	"github.com/prompthash/marketplace/internal/record"

	"github.com/spf13/cobra"
)

var cmdRecords = &cobra.Command{
	Use:   "records",
	Short: "List every stored record.",
	Long:  "List every stored record.",
	RunE: func(c *cobra.Command, args []string) error {
		e := newEnv()

		records, err := record.List(e.ctx, e.masterDB)
		if err != nil {
			return err
		}

		return dumpJSON(records)
	},
}
