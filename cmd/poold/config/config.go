package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Owner       string
	Vault       string
	EventLog    string
	MetricsAddr string
	LogLevel    string

	Fee       uint32
	Liquidity int64
	Swaps     int
	SwapSize  int64
	Seed      int64
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("POOLD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("owner", "0x00000000000000000000000000000000000000ad")
	v.SetDefault("vault", "0x00000000000000000000000000000000000000fe")
	v.SetDefault("event-log", "./data/events.jsonl")
	v.SetDefault("metrics-addr", "")
	v.SetDefault("log-level", "info")
	v.SetDefault("fee", 3000)
	v.SetDefault("liquidity", int64(10_000_000))
	v.SetDefault("swaps", 50)
	v.SetDefault("swap-size", int64(1000))
	v.SetDefault("seed", int64(1))

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Owner:       v.GetString("owner"),
		Vault:       v.GetString("vault"),
		EventLog:    v.GetString("event-log"),
		MetricsAddr: v.GetString("metrics-addr"),
		LogLevel:    v.GetString("log-level"),
		Fee:         v.GetUint32("fee"),
		Liquidity:   v.GetInt64("liquidity"),
		Swaps:       v.GetInt("swaps"),
		SwapSize:    v.GetInt64("swap-size"),
		Seed:        v.GetInt64("seed"),
	}

	return cfg, nil
}
