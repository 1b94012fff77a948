package cmd

import (
	"fmt"
	"strconv"

	"github.com/prompthash/marketplace/internal/record"
	"github.com/prompthash/marketplace/pkg/identity"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	FlagCategory    = "category"
	FlagMediaURL    = "media"
	FlagDescription = "description"
)

var cmdCreate = &cobra.Command{
	Use:   "create <creator> <price> <title>",
	Short: "Mint a token and store its record, unlisted.",
	Long:  "Mint a token and store its record, unlisted.",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) < 3 {
			return errors.New("Missing creator, price or title")
		}

		creator, err := identity.Decode(args[0])
		if err != nil {
			return err
		}

		price, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return errors.Wrap(err, "Invalid price")
		}

		category, _ := c.Flags().GetString(FlagCategory)
		mediaURL, _ := c.Flags().GetString(FlagMediaURL)
		description, _ := c.Flags().GetString(FlagDescription)

		e := newEnv()

		id, err := e.market().Create(e.ctx, creator, &record.NewRecord{
			Price:       price,
			Title:       args[2],
			Category:    category,
			MediaURL:    mediaURL,
			Description: description,
		})
		if err != nil {
			return err
		}

		fmt.Printf("created record %d\n", id)

		return nil
	},
}

func init() {
	cmdCreate.Flags().String(FlagCategory, "", "record category")
	cmdCreate.Flags().String(FlagMediaURL, "", "media url")
	cmdCreate.Flags().String(FlagDescription, "", "record description")
}
