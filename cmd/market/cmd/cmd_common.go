package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prompthash/marketplace/cmd/marketd/bootstrap"
	"github.com/prompthash/marketplace/internal/events"
	"github.com/prompthash/marketplace/internal/market"
	"github.com/prompthash/marketplace/internal/platform/config"
	"github.com/prompthash/marketplace/internal/platform/db"
	"github.com/prompthash/marketplace/pkg/funds"
	"github.com/prompthash/marketplace/pkg/nft"
)

// env holds everything a command needs, built from the same environment
// variables the daemon reads. Queries work on a half built env; only the
// mutating commands construct the engine, since that runs its bootstrap.
type env struct {
	ctx      context.Context
	cfg      *config.Config
	masterDB *db.DB
	tokens   *nft.Ledger
	payments *funds.Ledger
}

func newEnv() *env {
	ctx := bootstrap.NewContextWithDevelopmentLogger()
	cfg := bootstrap.NewConfigFromEnv(ctx)
	store := bootstrap.NewStorage(ctx, cfg)

	return &env{
		ctx:      ctx,
		cfg:      cfg,
		masterDB: bootstrap.NewMasterDB(ctx, store),
		tokens:   bootstrap.NewTokenLedger(store),
		payments: bootstrap.NewPaymentLedger(store),
	}
}

func (e *env) market() *market.Market {
	return bootstrap.NewMarket(e.ctx, e.cfg, e.masterDB, e.tokens, e.payments,
		events.NewBus())
}

func dumpJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", b)

	return nil
}
