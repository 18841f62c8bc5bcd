// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package badger provides factory functions and lifecycle management for
// the BadgerDB instance backing the family graph store.
//
// BadgerDB gives the store the two properties the relationship engine
// depends on:
//
//   - Multi-record read-write transactions with serializable snapshot
//     isolation, so a mirrored relationship update (both sides of an edge)
//     commits atomically or not at all.
//   - Cheap read-only snapshot transactions, so a traversal observes one
//     consistent view of the graph with no torn reads.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// DefaultUpdateRetries is how many times a read-write transaction is
// retried after a badger.ErrConflict before giving up. Conflicts occur
// when two concurrent mutations touch an overlapping set of person
// records; retrying re-reads the records and reapplies the mutation.
const DefaultUpdateRetries = 5

// Config holds configuration for a BadgerDB instance.
type Config struct {
	// Path is the directory for BadgerDB files.
	// Required unless InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Used by tests and the seeder dry-run mode.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's own log output.
	// If nil, BadgerDB internal logging is disabled.
	Logger *slog.Logger

	// GCInterval is how often to run value log garbage collection.
	// Zero disables the GC runner.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of discardable data before GC.
	GCDiscardRatio float64
}

// DefaultConfig returns production defaults: durable writes and a
// five-minute GC cadence.
func DefaultConfig() Config {
	return Config{
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns a configuration for tests: no disk I/O, no GC.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// DB wraps a BadgerDB instance with lifecycle management and the
// transaction helpers used by the graph store.
type DB struct {
	*badger.DB
	gcRunner *gcRunner
	path     string
	inMemory bool
}

// Open opens a BadgerDB instance with the given configuration and starts
// the GC runner if one is configured.
//
// # Inputs
//
//   - cfg: Database configuration. Path is required unless InMemory is true.
//
// # Outputs
//
//   - *DB: The managed database. Caller must call Close() when done.
//   - error: Non-nil if the path is invalid or the database cannot open.
//
// # Thread Safety
//
// The returned *DB is safe for concurrent use.
func Open(cfg Config) (*DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	wrapped := &DB{
		DB:       db,
		path:     cfg.Path,
		inMemory: cfg.InMemory,
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		wrapped.gcRunner = newGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger)
		wrapped.gcRunner.start()
	}

	return wrapped, nil
}

// OpenInMemory opens an in-memory database for testing. Data is lost on
// Close.
func OpenInMemory() (*DB, error) {
	return Open(InMemoryConfig())
}

// Close stops the GC runner (if running) and closes the database.
func (d *DB) Close() error {
	if d.gcRunner != nil {
		d.gcRunner.stop()
	}
	return d.DB.Close()
}

// Path returns the database path, or empty string for in-memory databases.
func (d *DB) Path() string {
	return d.path
}

// InMemory returns true if this is an in-memory database.
func (d *DB) InMemory() bool {
	return d.inMemory
}

// Update executes fn within a read-write transaction, retrying on
// transaction conflicts.
//
// # Description
//
// Opens a read-write transaction and commits if fn returns nil. If the
// commit fails with badger.ErrConflict (another transaction wrote an
// overlapping key set first), the whole function is re-executed against a
// fresh snapshot, up to DefaultUpdateRetries times. fn must therefore be
// idempotent and re-read every record it modifies.
//
// # Inputs
//
//   - ctx: Context for cancellation and deadlines. Checked before every
//     attempt; an expired context aborts without running fn.
//   - fn: Function executed within the transaction.
//
// # Outputs
//
//   - error: fn's error, ctx.Err() wrapped, or the final commit error.
//
// # Thread Safety
//
// Safe for concurrent use. Concurrent Update calls on disjoint key sets
// never conflict.
func (d *DB) Update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var lastErr error
	for attempt := 0; attempt < DefaultUpdateRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("transaction aborted: %w", err)
		}

		txn := d.DB.NewTransaction(true)
		if err := fn(txn); err != nil {
			txn.Discard()
			return err
		}
		err := txn.Commit()
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("transaction conflict persisted after %d retries: %w",
		DefaultUpdateRetries, lastErr)
}

// View executes fn within a read-only transaction. The transaction is a
// consistent snapshot: reads inside fn all observe the same version of
// the database.
func (d *DB) View(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("read aborted: %w", err)
	}

	txn := d.DB.NewTransaction(false)
	defer txn.Discard()

	return fn(txn)
}

// IsConflict reports whether err is a badger transaction conflict.
func IsConflict(err error) bool {
	return errors.Is(err, badger.ErrConflict)
}

// gcRunner runs periodic value log garbage collection.
type gcRunner struct {
	db       *badger.DB
	interval time.Duration
	ratio    float64
	stopCh   chan struct{}
	doneCh   chan struct{}
	logger   *slog.Logger
}

func newGCRunner(db *badger.DB, interval time.Duration, ratio float64, logger *slog.Logger) *gcRunner {
	if ratio <= 0 || ratio > 1 {
		ratio = 0.5
	}
	return &gcRunner{
		db:       db,
		interval: interval,
		ratio:    ratio,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (r *gcRunner) start() {
	go r.run()
}

func (r *gcRunner) stop() {
	close(r.stopCh)
	<-r.doneCh
}

func (r *gcRunner) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.runGC()
		}
	}
}

func (r *gcRunner) runGC() {
	// RunValueLogGC returns ErrNoRewrite when there is nothing to collect.
	err := r.db.RunValueLogGC(r.ratio)
	if err == nil {
		if r.logger != nil {
			r.logger.Debug("badger value log GC completed")
		}
	} else if !errors.Is(err, badger.ErrNoRewrite) {
		if r.logger != nil {
			r.logger.Warn("badger value log GC error", slog.String("error", err.Error()))
		}
	}
}
