package bootstrap

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/prompthash/marketplace/internal/events"
	"github.com/prompthash/marketplace/internal/market"
	"github.com/prompthash/marketplace/internal/platform/config"
	"github.com/prompthash/marketplace/internal/platform/db"
	"github.com/prompthash/marketplace/internal/platform/node"
	"github.com/prompthash/marketplace/pkg/funds"
	"github.com/prompthash/marketplace/pkg/identity"
	"github.com/prompthash/marketplace/pkg/nft"
	"github.com/prompthash/marketplace/pkg/storage"

	"github.com/tokenized/pkg/logger"
)

func NewContextWithDevelopmentLogger() context.Context {
	ctx := context.Background()

	format := os.Getenv("LOG_FORMAT")
	if len(format) == 0 {
		format = "TEXT"
	}
	logPath := os.Getenv("LOG_FILE_PATH")

	return node.ContextWithLogger(ctx,
		strings.ToUpper(os.Getenv("DEVELOPMENT")) == "TRUE", format, logPath)
}

func NewConfigFromEnv(ctx context.Context) *config.Config {
	cfg, err := config.Environment()
	if err != nil {
		logger.Fatal(ctx, "Parsing Config : %s", err)
	}

	// Mask sensitive values
	cfgSafe := config.SafeConfig(*cfg)
	cfgJSON, err := json.MarshalIndent(cfgSafe, "", "    ")
	if err != nil {
		logger.Fatal(ctx, "Marshalling Config to JSON : %s", err)
	}
	logger.Info(ctx, "Config : %v", string(cfgJSON))

	return cfg
}

// NewStorage selects the document store backend from the bucket name:
// "standalone" for the local filesystem, "sqlite" for a local sqlite file,
// anything else is treated as an S3 bucket.
func NewStorage(ctx context.Context, cfg *config.Config) storage.Storage {
	storeConfig := storage.NewConfig(cfg.AWS.Region, cfg.AWS.AccessKeyID,
		cfg.AWS.SecretAccessKey, cfg.Storage.Bucket, cfg.Storage.Root)
	if cfg.AWS.MaxRetries > 0 {
		storeConfig.MaxRetries = cfg.AWS.MaxRetries
	}

	switch strings.ToLower(cfg.Storage.Bucket) {
	case "standalone":
		return storage.NewFilesystemStorage(storeConfig)
	case "sqlite":
		store, err := storage.NewSQLiteStorage(storeConfig)
		if err != nil {
			logger.Fatal(ctx, "Open sqlite storage : %s", err)
		}
		return store
	default:
		return storage.NewS3Storage(storeConfig)
	}
}

func NewMasterDB(ctx context.Context, store storage.Storage) *db.DB {
	masterDB := db.NewWithStorage(store)

	if err := masterDB.StatusCheck(ctx); err != nil {
		logger.Fatal(ctx, "Storage status check : %s", err)
	}

	return masterDB
}

func NewTokenLedger(store storage.Storage) *nft.Ledger {
	return nft.NewLedger(store)
}

func NewPaymentLedger(store storage.Storage) *funds.Ledger {
	return funds.NewLedger(store)
}

// NewMarket wires the settlement engine over the shared store and runs its
// bootstrap with the configured administrator and fee settings.
func NewMarket(ctx context.Context, cfg *config.Config, masterDB *db.DB,
	tokens *nft.Ledger, payments *funds.Ledger, bus *events.Bus) *market.Market {

	operator, err := identity.Decode(cfg.Market.OperatorAddress)
	if err != nil {
		logger.Fatal(ctx, "Invalid operator address : %s", err)
	}

	admin, err := identity.Decode(cfg.Market.AdminAddress)
	if err != nil {
		logger.Fatal(ctx, "Invalid admin address : %s", err)
	}

	feeRecipient, err := identity.Decode(cfg.Market.FeeAddress)
	if err != nil {
		logger.Fatal(ctx, "Invalid fee address : %s", err)
	}

	m := market.New(masterDB, tokens, payments, bus, operator)

	if err := m.Bootstrap(ctx, admin, feeRecipient, cfg.Market.FeeRate); err != nil {
		logger.Fatal(ctx, "Bootstrap market : %s", err)
	}

	return m
}
