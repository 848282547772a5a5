package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"vaultQuote/internal/config"
	"vaultQuote/internal/router"
)

func main() {
	root := &cobra.Command{
		Use:          "vaultquote",
		Short:        "PLP vault read client",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("account", "", "account address for balances and allowances")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newRefreshCmd())
	root.AddCommand(newTokensCmd())
	root.AddCommand(newStateCmd())
	root.AddCommand(newQuoteCmd())
	root.AddCommand(newPlpPriceCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadRouter builds a Router from the config flag, applying the account
// override when given.
func loadRouter(cmd *cobra.Command) (*router.Router, *config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	r, err := router.New(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	if account, _ := cmd.Flags().GetString("account"); account != "" {
		if err := r.SetAccount(account); err != nil {
			return nil, nil, nil, err
		}
	}
	return r, cfg, logger, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
