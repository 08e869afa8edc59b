package main

import (
	"os"

	"github.com/rs/zerolog"
	"go.dedis.ch/capvm"
	"go.dedis.ch/capvm/cli"
	"go.dedis.ch/capvm/core/execution"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

const (
	defaultDB      = "capvm.db"
	defaultAccount = "default"
	defaultGas     = execution.DefaultBudget
)

// config is the configuration of the host. Every field can be overridden by
// the flag of the same name.
type config struct {
	DB       string `yaml:"db"`
	Account  string `yaml:"account"`
	Gas      uint64 `yaml:"gas"`
	Cache    int    `yaml:"cache"`
	LogLevel string `yaml:"loglevel"`
}

func defaultConfig() config {
	return config{
		DB:      defaultDB,
		Account: defaultAccount,
		Gas:     defaultGas,
	}
}

// loadConfig returns the configuration of the file if any, overridden by the
// flags.
func loadConfig(flags cli.Flags) (config, error) {
	cfg := defaultConfig()

	path := flags.Path("config")
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, xerrors.Errorf("failed to read config: %v", err)
		}

		err = yaml.UnmarshalStrict(data, &cfg)
		if err != nil {
			return cfg, xerrors.Errorf("failed to parse config: %v", err)
		}
	}

	if flags.String("db") != "" {
		cfg.DB = flags.String("db")
	}

	if flags.String("account") != "" {
		cfg.Account = flags.String("account")
	}

	if flags.Uint64("gas") != 0 {
		cfg.Gas = flags.Uint64("gas")
	}

	if flags.Int("cache") != 0 {
		cfg.Cache = flags.Int("cache")
	}

	if cfg.LogLevel != "" {
		level, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			return cfg, xerrors.Errorf("invalid log level: %v", err)
		}

		capvm.Logger = capvm.Logger.Level(level)
	}

	return cfg, nil
}
