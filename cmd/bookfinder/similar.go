// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bookfinder/internal/recommend"
	"github.com/pdiddy/bookfinder/internal/search"
)

var similarCmd = &cobra.Command{
	Use:   "similar <book-id-or-slug>",
	Short: "Recommend books similar to a catalog book",
	Long: `Similar ranks catalog books that share an author, categories or description
keywords with the given book. Rankings are cached on the book; --regenerate
discards the cached ranking and computes a fresh one.

Books missing from the catalog are answered by the external provider when
one is enabled.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	similarCmd.Flags().Int("count", 0, "number of books to return (default from config, 6)")
	similarCmd.Flags().Bool("regenerate", false, "ignore the cached ranking and recompute")
	similarCmd.Flags().Bool("offline", false, "do not consult external providers")
	similarCmd.Flags().Bool("json", false, "output books as JSON")
	similarCmd.Flags().Bool("yaml", false, "output books as YAML")

	rootCmd.AddCommand(similarCmd)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	count, _ := cmd.Flags().GetInt("count")
	regenerate, _ := cmd.Flags().GetBool("regenerate")
	offline, _ := cmd.Flags().GetBool("offline")

	store, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := recommend.Options{Recommendations: store}
	if !offline {
		client := search.NewHTTPClient(cfg.Search.HTTPConfig)
		opts.ExternalFallback, _ = search.NewProviders(cfg.Search, client, creds.OpenLibraryContactEmail)
	}
	engine := recommend.NewEngine(store, cfg.Recommend, opts)

	ctx := context.Background()
	get := engine.GetSimilarBooks
	if regenerate {
		get = engine.Regenerate
	}
	books, err := get(ctx, args[0], count)
	if errors.Is(err, recommend.ErrNoCanonicalBook) {
		return err
	}
	if err != nil {
		if len(books) == 0 {
			return err
		}
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	return writeOutput(cmd, books, func() {
		if len(books) == 0 {
			fmt.Println("No similar books found.")
			return
		}
		search.FormatBooks(books, 0, os.Stdout)
	})
}
