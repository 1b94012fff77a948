package market

import (
	"context"
	"encoding/json"

	"github.com/prompthash/marketplace/internal/platform/db"
	"github.com/prompthash/marketplace/internal/platform/state"

	"github.com/pkg/errors"
)

const feeStorageKey = "market/fees"

// FetchFeeConfig reads the persisted fee configuration.
func FetchFeeConfig(ctx context.Context, dbConn *db.DB) (*state.FeeConfig, error) {
	b, err := dbConn.Fetch(ctx, feeStorageKey)
	if err != nil {
		if err == db.ErrNotFound {
			return nil, ErrFeesNotConfigured
		}

		return nil, errors.Wrap(err, "Failed to fetch fee config")
	}

	fees := state.FeeConfig{}
	if err := json.Unmarshal(b, &fees); err != nil {
		return nil, errors.Wrap(err, "Failed to unmarshal fee config")
	}

	return &fees, nil
}

func saveFeeConfig(ctx context.Context, dbConn *db.DB, fees *state.FeeConfig) error {
	data, err := json.Marshal(fees)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal fee config")
	}

	return dbConn.Put(ctx, feeStorageKey, data)
}
