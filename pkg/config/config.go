package config

// Package config provides a reusable loader for BlueShare configuration
// files and environment variables. It is versioned so that applications
// can depend on a stable API contract.
//
// Version: v0.1.0

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/obinexus/blueshare/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config represents the unified configuration for a BlueShare node. It
// mirrors the structure of the YAML files under config/.
type Config struct {
	Identity struct {
		AlgorithmTag    string `mapstructure:"algorithm_tag" json:"algorithm_tag"`
		KeyLifetimeDays int    `mapstructure:"key_lifetime_days" json:"key_lifetime_days"`
		StoreDir        string `mapstructure:"store_dir" json:"store_dir"`
	} `mapstructure:"identity" json:"identity"`

	Consensus struct {
		VoteTimeoutMS int `mapstructure:"vote_timeout_ms" json:"vote_timeout_ms"`
	} `mapstructure:"consensus" json:"consensus"`

	Payment struct {
		RateUSDPerBTC       float64 `mapstructure:"rate_usd_per_btc" json:"rate_usd_per_btc"`
		InvoiceExpirySec    int     `mapstructure:"invoice_expiry_seconds" json:"invoice_expiry_seconds"`
	} `mapstructure:"payment" json:"payment"`

	Network struct {
		MaxNetworks     int `mapstructure:"max_networks" json:"max_networks"`
		MaxDevices      int `mapstructure:"max_devices" json:"max_devices"`
		MaxTransactions int `mapstructure:"max_transactions" json:"max_transactions"`
	} `mapstructure:"network" json:"network"`

	API struct {
		ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
	} `mapstructure:"api" json:"api"`

	Logging struct {
		Level      string `mapstructure:"level" json:"level"`
		File       string `mapstructure:"file" json:"file"`
		HealthFile string `mapstructure:"health_file" json:"health_file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and
// returned.
//
// The function uses the provided environment name to merge additional
// config files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.SetEnvPrefix("blueshare")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // picks up BLUESHARE_* overrides, including from .env

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the BLUESHARE_ENV environment
// variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("BLUESHARE_ENV", ""))
}
