// Package cmd provides CLI commands for storectl.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/catalinamedinaleal/store/pkg/api"
	"github.com/catalinamedinaleal/store/pkg/config"
	"github.com/catalinamedinaleal/store/pkg/identity"
	"github.com/catalinamedinaleal/store/pkg/storage"
)

var (
	cfgFile  string
	logLevel string
	log      *logrus.Logger
)

func init() {
	log = logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

var rootCmd = &cobra.Command{
	Use:   "storectl",
	Short: "Command-line client for the store inventory backend",
	Long: `storectl talks to the spreadsheet-backed store RPC endpoint: it manages
the session token, retries once on expired authorization, coalesces
identical in-flight requests and keeps a local durable snapshot of the
catalog, inventory and sales data.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(strings.ToLower(logLevel))
		if err != nil {
			return err
		}
		log.SetLevel(level)
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: CONFIG_PATH env var or config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
}

// buildProvider constructs the configured identity provider.
func buildProvider(cfg *config.Config) (identity.Provider, error) {
	switch cfg.Identity.Provider {
	case "static":
		user := &identity.User{
			ID:    cfg.Identity.UserID,
			Email: cfg.Identity.Email,
		}
		if user.ID == "" {
			user.ID = "local"
		}

		return identity.NewStaticProvider(user, cfg.Identity.Token), nil
	case "token_endpoint":
		return identity.NewTokenEndpointProvider(log, cfg.Identity.TokenEndpoint), nil
	default:
		return nil, fmt.Errorf("unsupported identity provider %q", cfg.Identity.Provider)
	}
}

// buildBackend constructs the configured cache backend.
func buildBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Cache.Backend {
	case "file":
		return storage.NewFileBackend(log, cfg.Cache.Path), nil
	case "memory":
		return storage.NewMemoryBackend(), nil
	case "redis":
		return storage.NewRedisBackend(log, cfg.Cache.Redis, cfg.Cache.GetTTL())
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Cache.Backend)
	}
}

// buildClient loads configuration and assembles the transport client.
func buildClient() (*config.Config, api.Client, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, nil, err
	}

	client, err := api.New(log, cfg.API, provider)
	if err != nil {
		return nil, nil, fmt.Errorf("creating API client: %w", err)
	}

	return cfg, client, nil
}
