//go:build !cgo_sqlite

package catalog

// Pure Go SQLite, no C toolchain required. This is the default build.
//
//	go build ./...

import (
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

func dsn(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}
