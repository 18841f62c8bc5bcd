// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package badger

import (
	"context"
	"errors"
	"testing"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestInMemoryRoundTrip(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	err = db.Update(ctx, func(txn *badgerdb.Txn) error {
		return txn.Set([]byte("k"), []byte("v"))
	})
	require.NoError(t, err)

	var got []byte
	err = db.View(ctx, func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte("k"))
		if err != nil {
			return err
		}
		got, err = item.ValueCopy(nil)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	assert.True(t, db.InMemory())
	assert.Empty(t, db.Path())
}

func TestUpdateRollsBackOnError(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	boom := errors.New("boom")

	err = db.Update(ctx, func(txn *badgerdb.Txn) error {
		if err := txn.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = db.View(ctx, func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte("k"))
		return err
	})
	assert.ErrorIs(t, err, badgerdb.ErrKeyNotFound)
}

func TestUpdateAbortsOnCancelledContext(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err = db.Update(ctx, func(txn *badgerdb.Txn) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called, "fn must not run after cancellation")
}

func TestPersistentOpenCreatesDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/db"

	db, err := Open(Config{Path: dir})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, dir, db.Path())
	assert.False(t, db.InMemory())
}
