// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads provider credentials from a directory holding one
// plain-text file per credential.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/bookfinder/internal/logging"
)

// Credential file names.
const (
	GoogleBooksAPIKey       = "google-books-api-key"
	OpenLibraryContactEmail = "openlibrary-contact-email"
)

// Credentials are the provider settings found on disk. Empty fields were not configured.
type Credentials struct {
	GoogleBooksAPIKey       string
	OpenLibraryContactEmail string
}

// Names lists the credential files that supplied a value.
func (c Credentials) Names() []string {
	var names []string
	if c.GoogleBooksAPIKey != "" {
		names = append(names, GoogleBooksAPIKey)
	}
	if c.OpenLibraryContactEmail != "" {
		names = append(names, OpenLibraryContactEmail)
	}
	return names
}

// Load reads the credential files in dir. A missing directory or file
// leaves the field empty. A file that cannot be read is logged and skipped.
func Load(dir string) (Credentials, error) {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Credentials{}, nil
	case err != nil:
		return Credentials{}, fmt.Errorf("reading credentials directory %s: %w", dir, err)
	case !info.IsDir():
		return Credentials{}, fmt.Errorf("credentials path %s is not a directory", dir)
	}

	return Credentials{
		GoogleBooksAPIKey:       readValue(dir, GoogleBooksAPIKey),
		OpenLibraryContactEmail: readValue(dir, OpenLibraryContactEmail),
	}, nil
}

func readValue(dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log := logging.Component("secrets")
			log.Warn().Err(err).Str("file", name).Msg("skipping unreadable credential")
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}
