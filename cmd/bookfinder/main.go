// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the bookfinder CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bookfinder/internal/catalog"
	"github.com/pdiddy/bookfinder/internal/logging"
	"github.com/pdiddy/bookfinder/internal/secrets"
	"github.com/pdiddy/bookfinder/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// creds holds the provider credentials loaded from .secrets/ at startup.
var creds secrets.Credentials

// rootCmd is the base command for the bookfinder CLI.
var rootCmd = &cobra.Command{
	Use:   "bookfinder",
	Short: "Search a book catalog and recommend similar books",
	Long: `bookfinder searches a local SQLite book catalog, falling back to OpenLibrary
and Google Books when the catalog cannot fill a page, and ranks similar books
by shared authors, categories and description keywords.

Load a catalog with "bookfinder ingest", then use "search" and "similar".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(logging.Config{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
			Caller: viper.GetBool("log.caller"),
		})

		c, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		creds = c
		if names := c.Names(); len(names) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded credentials: %v\n", names)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("metrics")
		if path == "" {
			return nil
		}
		return writeMetrics(path)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./bookfinder.yaml or ~/.config/bookfinder/config.yaml)")
	pf.String("data-dir", "data", "directory holding catalog.db")
	pf.String("log-level", "warn", "log level: trace, debug, info, warn, error, disabled")
	pf.String("log-format", "console", "log format: console or json")
	pf.String("metrics", "", "write Prometheus metrics in text format to this file on exit")

	_ = viper.BindPFlag("catalog.data_dir", pf.Lookup("data-dir"))
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", pf.Lookup("log-format"))

	viper.SetDefault("search.enable_openlibrary", true)
	viper.SetDefault("search.provider_cache_size", 256)
	viper.SetDefault("persist.max_concurrent", 4)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bookfinder")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bookfinder"))
		}
	}

	viper.SetEnvPrefix("BOOKFINDER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the merged viper settings. A Google Books key from
// .secrets/ enables that provider unless the config says otherwise.
func loadConfig() (types.AppConfig, error) {
	var cfg types.AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.Search.GoogleBooksAPIKey == "" {
		cfg.Search.GoogleBooksAPIKey = creds.GoogleBooksAPIKey
	}
	if cfg.Search.GoogleBooksAPIKey != "" && !viper.IsSet("search.enable_google_books") {
		cfg.Search.EnableGoogleBooks = true
	}
	return cfg, nil
}

func openCatalog(cfg types.AppConfig) (*catalog.Store, error) {
	store, err := catalog.NewStore(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	return store, nil
}

// writeMetrics dumps the default registry in the Prometheus text format.
func writeMetrics(path string) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return f.Close()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
