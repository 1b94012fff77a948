package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config is used to hold all runtime configuration.
type Config struct {
	Market struct {
		OperatorAddress string `default:"marketplace" envconfig:"OPERATOR_ADDRESS"`
		AdminAddress    string `envconfig:"ADMIN_ADDRESS"`
		FeeAddress      string `envconfig:"FEE_ADDRESS"`
		FeeRate         uint64 `default:"500" envconfig:"FEE_RATE"` // basis points
		Version         string `envconfig:"VERSION"`
		IsTest          bool   `default:"true" envconfig:"IS_TEST"`
	}
	HTTP struct {
		Address string `default:":8080" envconfig:"HTTP_ADDRESS"`
	}
	AWS struct {
		Region          string `default:"ap-southeast-2" envconfig:"AWS_REGION" json:"AWS_REGION"`
		AccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID" json:"AWS_ACCESS_KEY_ID"`
		SecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY" json:"AWS_SECRET_ACCESS_KEY"`
		MaxRetries      int    `default:"4" envconfig:"AWS_MAX_RETRIES"`
	}
	Storage struct {
		Bucket string `default:"standalone" envconfig:"MARKET_STORAGE_BUCKET"`
		Root   string `default:"./tmp" envconfig:"MARKET_STORAGE_ROOT"`
	}
}

// SafeConfig masks sensitive config values
func SafeConfig(cfg Config) *Config {
	cfgSafe := cfg

	if len(cfgSafe.AWS.AccessKeyID) > 0 {
		cfgSafe.AWS.AccessKeyID = "*** Masked ***"
	}
	if len(cfgSafe.AWS.SecretAccessKey) > 0 {
		cfgSafe.AWS.SecretAccessKey = "*** Masked ***"
	}

	return &cfgSafe
}

// Environment returns configuration sourced from environment variables
func Environment() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("MARKET", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
