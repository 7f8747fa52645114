// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bookfinder/pkg/types"
)

// Seed is the YAML document read by Ingest and written by Export.
type Seed struct {
	Books    []types.Book  `yaml:"books"`
	Clusters []SeedCluster `yaml:"clusters,omitempty"`
}

// SeedCluster groups the editions of one work.
type SeedCluster struct {
	ID      string       `yaml:"id"`
	Primary string       `yaml:"primary,omitempty"`
	Members []SeedMember `yaml:"members"`
}

// SeedMember is one edition in a cluster.
type SeedMember struct {
	BookID     string  `yaml:"book_id"`
	Confidence float64 `yaml:"confidence,omitempty"`
}

// IngestStats reports what Ingest wrote.
type IngestStats struct {
	Books    int
	Clusters int
	Members  int
}

// IngestFile reads a seed file and loads it with Ingest.
func (s *Store) IngestFile(ctx context.Context, path string) (IngestStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return IngestStats{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return IngestStats{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s.Ingest(ctx, seed)
}

// Ingest upserts the seed's books and replaces the membership of each
// listed cluster in a single transaction.
func (s *Store) Ingest(ctx context.Context, seed Seed) (IngestStats, error) {
	var stats IngestStats

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, b := range seed.Books {
		if b.ID == "" {
			return stats, fmt.Errorf("book %q has no id", b.Title)
		}
		if err := upsertBook(ctx, tx, b, "ingest"); err != nil {
			return stats, err
		}
		stats.Books++
	}

	for _, c := range seed.Clusters {
		if c.ID == "" {
			return stats, fmt.Errorf("cluster with %d members has no id", len(c.Members))
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM book_clusters WHERE cluster_id = ?`, c.ID); err != nil {
			return stats, fmt.Errorf("clearing cluster %s: %w", c.ID, err)
		}
		for _, m := range c.Members {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO book_clusters (book_id, cluster_id, is_primary, confidence) VALUES (?, ?, ?, ?)
				ON CONFLICT(book_id) DO UPDATE SET
					cluster_id=excluded.cluster_id, is_primary=excluded.is_primary, confidence=excluded.confidence`,
				m.BookID, c.ID, boolInt(m.BookID == c.Primary), m.Confidence)
			if err != nil {
				return stats, fmt.Errorf("adding %s to cluster %s: %w", m.BookID, c.ID, err)
			}
			stats.Members++
		}
		stats.Clusters++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing ingest: %w", err)
	}
	return stats, nil
}

// Export returns the full catalog as a Seed.
func (s *Store) Export(ctx context.Context) (Seed, error) {
	var seed Seed

	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books b ORDER BY b.id`)
	if err != nil {
		return seed, fmt.Errorf("querying books: %w", err)
	}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			rows.Close()
			return seed, fmt.Errorf("scanning book: %w", err)
		}
		seed.Books = append(seed.Books, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return seed, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT cluster_id, book_id, is_primary, confidence FROM book_clusters ORDER BY cluster_id, book_id`)
	if err != nil {
		return seed, fmt.Errorf("querying clusters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			clusterID, bookID string
			primary           int
			confidence        float64
		)
		if err := rows.Scan(&clusterID, &bookID, &primary, &confidence); err != nil {
			return seed, fmt.Errorf("scanning cluster: %w", err)
		}
		if n := len(seed.Clusters); n == 0 || seed.Clusters[n-1].ID != clusterID {
			seed.Clusters = append(seed.Clusters, SeedCluster{ID: clusterID})
		}
		c := &seed.Clusters[len(seed.Clusters)-1]
		if primary != 0 {
			c.Primary = bookID
		}
		c.Members = append(c.Members, SeedMember{BookID: bookID, Confidence: confidence})
	}
	return seed, rows.Err()
}

// ExportYAML writes the catalog to w as a seed document.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	seed, err := s.Export(ctx)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&seed); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}
