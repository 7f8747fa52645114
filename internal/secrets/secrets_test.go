// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  Credentials
	}{
		{
			name: "trims both credentials",
			files: map[string]string{
				GoogleBooksAPIKey:       "  AIza_abc123  \n",
				OpenLibraryContactEmail: "reader@example.com\n",
			},
			want: Credentials{GoogleBooksAPIKey: "AIza_abc123", OpenLibraryContactEmail: "reader@example.com"},
		},
		{
			name:  "whitespace-only file counts as unset",
			files: map[string]string{GoogleBooksAPIKey: "   \n\t"},
			want:  Credentials{},
		},
		{
			name: "unrelated files are ignored",
			files: map[string]string{
				"arxiv-token":           "x",
				OpenLibraryContactEmail: "ops@example.com",
			},
			want: Credentials{OpenLibraryContactEmail: "ops@example.com"},
		},
		{
			name: "empty directory",
			want: Credentials{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}
			got, err := Load(dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, got.Names())
}

func TestLoadRejectsFilePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds")
	writeFile(t, filepath.Dir(path), "creds", "x")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	dir := t.TempDir()
	writeFile(t, dir, OpenLibraryContactEmail, "reader@example.com")
	bad := filepath.Join(dir, GoogleBooksAPIKey)
	require.NoError(t, os.WriteFile(bad, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(bad, 0o644) })

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Credentials{OpenLibraryContactEmail: "reader@example.com"}, got)
}

func TestNames(t *testing.T) {
	c := Credentials{GoogleBooksAPIKey: "k", OpenLibraryContactEmail: "e"}
	assert.Equal(t, []string{GoogleBooksAPIKey, OpenLibraryContactEmail}, c.Names())
	assert.Nil(t, Credentials{}.Names())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
