package cmd

import (
	"fmt"

	"github.com/prompthash/marketplace/internal/record"

	"github.com/spf13/cobra"
)

var cmdNextID = &cobra.Command{
	Use:   "nextid",
	Short: "Print the id the next create will be assigned.",
	Long:  "Print the id the next create will be assigned.",
	RunE: func(c *cobra.Command, args []string) error {
		e := newEnv()

		next, err := record.NextID(e.ctx, e.masterDB)
		if err != nil {
			return err
		}

		fmt.Printf("%d\n", next)

		return nil
	},
}
