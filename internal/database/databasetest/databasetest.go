// Package databasetest opens throwaway in-memory SQLite connections for tests.
package databasetest

import (
	"testing"
	"time"

	"github.com/Additional-Code/logistics/internal/config"
	"github.com/Additional-Code/logistics/internal/database"
)

// Config returns a sqlite database config backed by a private in-memory database.
// One open connection keeps the memory database alive for the pool's lifetime.
func Config() config.Database {
	return config.Database{
		Driver:       "sqlite",
		WriterDSN:    "file::memory:?_pragma=foreign_keys(1)",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		QueryTimeout: 5 * time.Second,
	}
}

// New opens a fresh in-memory database and closes it when the test ends.
func New(tb testing.TB) *database.Connections {
	tb.Helper()

	conns, err := database.Open(Config())
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() {
		_ = conns.Close()
	})
	return conns
}
