package cmd

import (
	"github.com/spf13/cobra"
)

var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Marketplace CLI",
}

func Execute() {
	marketCmd.AddCommand(cmdInit)
	marketCmd.AddCommand(cmdState)
	marketCmd.AddCommand(cmdRecords)
	marketCmd.AddCommand(cmdRecord)
	marketCmd.AddCommand(cmdNextID)
	marketCmd.AddCommand(cmdCreate)
	marketCmd.AddCommand(cmdSell)
	marketCmd.AddCommand(cmdBuy)
	marketCmd.AddCommand(cmdFund)
	marketCmd.Execute()
}
