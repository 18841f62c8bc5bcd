// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/silsila-app/silsila/services/family/datatypes"
)

// Counter returns the current tasbeeh counter value. A counter that was
// never incremented reads as zero.
func (s *Store) Counter(ctx context.Context) (datatypes.CounterState, error) {
	var state datatypes.CounterState
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(counterKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return fmt.Errorf("read counter: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &state)
		})
	})
	if err != nil {
		return datatypes.CounterState{}, wrapStoreErr(ctx, err)
	}
	return state, nil
}

// IncrementCounter adds delta to the tasbeeh counter and returns the new
// value. The read-modify-write runs in a single transaction; concurrent
// increments conflict and retry, so no update is lost. The counter never
// goes below zero.
func (s *Store) IncrementCounter(ctx context.Context, delta int64) (datatypes.CounterState, error) {
	var state datatypes.CounterState
	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		state = datatypes.CounterState{}
		item, err := txn.Get([]byte(counterKey))
		if err == nil {
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &state)
			})
			if err != nil {
				return fmt.Errorf("decode counter: %w", err)
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("read counter: %w", err)
		}

		state.Count += delta
		if state.Count < 0 {
			state.Count = 0
		}
		state.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

		data, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("encode counter: %w", err)
		}
		return txn.Set([]byte(counterKey), data)
	})
	if err != nil {
		return datatypes.CounterState{}, wrapStoreErr(ctx, err)
	}
	return state, nil
}
