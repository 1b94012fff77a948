package cmd

import (
	"fmt"
	"strconv"

	"github.com/prompthash/marketplace/pkg/identity"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdFund = &cobra.Command{
	Use:   "fund <address> <amount>",
	Short: "Credit a balance and approve the operator to spend it. Test mode only.",
	Long:  "Credit a balance and approve the operator to spend it. Test mode only.",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) < 2 {
			return errors.New("Missing address or amount")
		}

		addr, err := identity.Decode(args[0])
		if err != nil {
			return err
		}

		amount, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return errors.Wrap(err, "Invalid amount")
		}

		e := newEnv()

		if !e.cfg.Market.IsTest {
			return errors.New("Funding is only available in test mode")
		}

		operator, err := identity.Decode(e.cfg.Market.OperatorAddress)
		if err != nil {
			return err
		}

		if err := e.payments.Credit(e.ctx, addr, amount); err != nil {
			return err
		}
		if err := e.payments.Approve(e.ctx, addr, operator, amount); err != nil {
			return err
		}

		balance, err := e.payments.Balance(e.ctx, addr)
		if err != nil {
			return err
		}

		fmt.Printf("balance for %s = %d\n", addr, balance)

		return nil
	},
}
