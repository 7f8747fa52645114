// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bookfinder/internal/logging"
	"github.com/pdiddy/bookfinder/internal/persist"
	"github.com/pdiddy/bookfinder/internal/search"
	"github.com/pdiddy/bookfinder/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalog, falling back to external providers",
	Long: `Search runs a paginated query against the catalog. Editions of the same work
are collapsed into one result. When the catalog cannot fill the requested
window, or the first page lacks covers or descriptions, OpenLibrary and
Google Books are consulted and new books are written back to the catalog.

Query syntax:
  isbn:9780143127741            exact ISBN-10 or ISBN-13
  author:"Ursula K. Le Guin"    author name
  category:fantasy              category or subject
  intitle:dune                  title words
  a OR b                        either alternative
  *                             every book`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("start", 0, "zero-based index of the first result")
	searchCmd.Flags().Int("max-results", 0, "page size (default from config, 20)")
	searchCmd.Flags().String("order-by", "relevance", "result order: relevance or newest")
	searchCmd.Flags().String("cover", "any", "cover filter: any or required")
	searchCmd.Flags().String("resolution", "any", "minimum cover quality: any, medium, high")
	searchCmd.Flags().Int("year", 0, "keep only books published in this year")
	searchCmd.Flags().Bool("offline", false, "do not consult external providers")
	searchCmd.Flags().Bool("json", false, "output the page as JSON")
	searchCmd.Flags().Bool("yaml", false, "output the page as YAML")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	start, _ := cmd.Flags().GetInt("start")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	orderBy, _ := cmd.Flags().GetString("order-by")
	cover, _ := cmd.Flags().GetString("cover")
	resolution, _ := cmd.Flags().GetString("resolution")
	year, _ := cmd.Flags().GetInt("year")
	offline, _ := cmd.Flags().GetBool("offline")

	store, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	dispatcher := persist.NewDispatcher(store, cfg.Persist.MaxConcurrent, logging.Logger())
	opts := search.Options{Persister: dispatcher}
	if !offline {
		client := search.NewHTTPClient(cfg.Search.HTTPConfig)
		contact := creds.OpenLibraryContactEmail
		opts.Primary, opts.Secondary = search.NewProviders(cfg.Search, client, contact)
	}

	orchestrator := search.NewOrchestrator(store, store, cfg.Search, opts)
	ctx := context.Background()

	page, tasks, err := orchestrator.SearchAndTrack(ctx, types.SearchRequest{
		Query:            strings.Join(args, " "),
		StartIndex:       start,
		MaxResults:       maxResults,
		OrderBy:          types.OrderBy(strings.ToLower(orderBy)),
		CoverFilter:      types.CoverFilter(strings.ToLower(cover)),
		ResolutionFilter: types.ResolutionFilter(strings.ToLower(resolution)),
		PublishedYear:    year,
	})
	if err != nil {
		return err
	}

	// The catalog closes on return; let the write-backs land first.
	for _, t := range tasks {
		if err := t.Wait(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		} else if t.Count > 0 {
			fmt.Fprintf(os.Stderr, "Saved %d book(s) to the catalog (%s)\n", t.Count, t.Tag)
		}
	}

	return writeOutput(cmd, page, func() { search.FormatTable(page, os.Stdout) })
}

// writeOutput prints v as JSON or YAML when the matching flag is set and
// falls back to table otherwise.
func writeOutput(cmd *cobra.Command, v any, table func()) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return search.FormatJSON(v, os.Stdout)
	}
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		return search.FormatYAML(v, os.Stdout)
	}
	table()
	return nil
}
