package cmd

import (
	"github.com/spf13/cobra"
)

var cmdInit = &cobra.Command{
	Use:   "init",
	Short: "Initialize the marketplace state with the configured admin and fees.",
	Long:  "Initialize the marketplace state with the configured admin and fees.",
	RunE: func(c *cobra.Command, args []string) error {
		e := newEnv()

		// Constructing the engine runs its bootstrap.
		m := e.market()

		fees, err := m.FeeConfig(e.ctx)
		if err != nil {
			return err
		}

		return dumpJSON(fees)
	},
}
