// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// --- ingest ---

var ingestCmd = &cobra.Command{
	Use:   "ingest <seed.yaml>...",
	Short: "Load books and edition clusters from YAML seed files",
	Long: `Ingest upserts the books of each seed file into the catalog and replaces the
membership of every cluster the file lists. Each file is loaded in a single
transaction.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var failed int
	for _, path := range args {
		stats, err := store.IngestFile(context.Background(), path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			failed++
			continue
		}
		fmt.Printf("%s: %d books, %d clusters, %d cluster members\n",
			path, stats.Books, stats.Clusters, stats.Members)
	}
	if failed > 0 {
		return fmt.Errorf("%d seed file(s) failed", failed)
	}
	return nil
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the catalog as a YAML seed document",
	Long: `Export writes every book and cluster in the catalog as a seed document that
ingest can load again. Output goes to stdout unless --out is given.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")

	store, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	w := os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}
	if err := store.ExportYAML(context.Background(), w); err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintf(os.Stderr, "Exported catalog to %s\n", out)
	}
	return nil
}

func init() {
	exportCmd.Flags().String("out", "", "output file (default stdout)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(exportCmd)
}
