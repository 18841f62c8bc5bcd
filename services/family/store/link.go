// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Symmetric relation linking and explicit parent/child attachment. Every
// operation here touches exactly two records and commits them in one
// transaction, so a reader never observes a half-mirrored edge.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/silsila-app/silsila/services/family/datatypes"
)

// Link establishes a mirrored relation of the given kind between two
// existing persons.
//
// # Description
//
// Writes kind onto a's record and kind.Inverse() onto b's. The operation
// is idempotent: linking an already-linked pair is a no-op success.
// Self-references and unknown kinds are ErrInvalidRelation; a missing
// person is ErrNotFound and nothing is written.
//
// # Inputs
//
//   - ctx: Cancellation.
//   - kind: One of the fixed relation kinds.
//   - aID, bID: The two person ids. Order matters for asymmetric kinds:
//     step_parent makes a the step-parent of b.
//
// # Outputs
//
//   - error: nil on success (including the idempotent case).
func (s *Store) Link(ctx context.Context, kind datatypes.RelationKind, aID, bID string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: kind %q", datatypes.ErrInvalidRelation, kind)
	}
	if aID == bID {
		return fmt.Errorf("%w: self-reference", datatypes.ErrInvalidRelation)
	}

	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		a, err := getPerson(txn, aID)
		if err != nil {
			return err
		}
		b, err := getPerson(txn, bID)
		if err != nil {
			return err
		}

		changedA := a.AddRelation(kind, bID)
		changedB := b.AddRelation(kind.Inverse(), aID)
		if !changedA && !changedB {
			return nil
		}

		now := time.Now().UTC()
		a.UpdatedAt = now
		b.UpdatedAt = now
		if err := putPerson(txn, a); err != nil {
			return err
		}
		return putPerson(txn, b)
	})
	return wrapStoreErr(ctx, err)
}

// Unlink removes a mirrored relation of the given kind between two
// persons. Both sides are scrubbed even if only one was present.
// Unlinking an unlinked pair is a no-op success.
func (s *Store) Unlink(ctx context.Context, kind datatypes.RelationKind, aID, bID string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: kind %q", datatypes.ErrInvalidRelation, kind)
	}
	if aID == bID {
		return fmt.Errorf("%w: self-reference", datatypes.ErrInvalidRelation)
	}

	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		a, err := getPerson(txn, aID)
		if err != nil {
			return err
		}
		b, err := getPerson(txn, bID)
		if err != nil {
			return err
		}

		changedA := a.RemoveRelation(kind, bID)
		changedB := b.RemoveRelation(kind.Inverse(), aID)
		if !changedA && !changedB {
			return nil
		}

		now := time.Now().UTC()
		a.UpdatedAt = now
		b.UpdatedAt = now
		if err := putPerson(txn, a); err != nil {
			return err
		}
		return putPerson(txn, b)
	})
	return wrapStoreErr(ctx, err)
}

// AddChildByID attaches an existing child to an existing parent.
//
// The parent's gender decides which slot the child's record uses: a male
// parent becomes the father, a female parent the mother. A child that
// already has a different person in that slot is ErrInvalidRelation (a
// child has at most one father and one mother). Re-attaching the same
// pair is a no-op success.
func (s *Store) AddChildByID(ctx context.Context, parentID, childID string) (*datatypes.Person, error) {
	if parentID == childID {
		return nil, fmt.Errorf("%w: self-reference", datatypes.ErrInvalidRelation)
	}

	var child *datatypes.Person
	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		parent, err := getPerson(txn, parentID)
		if err != nil {
			return err
		}
		c, err := getPerson(txn, childID)
		if err != nil {
			return err
		}

		switch parent.Gender {
		case datatypes.GenderMale:
			if c.Father != "" && c.Father != parentID {
				return fmt.Errorf("%w: child %s already has a father", datatypes.ErrInvalidRelation, childID)
			}
			c.Father = parentID
		case datatypes.GenderFemale:
			if c.Mother != "" && c.Mother != parentID {
				return fmt.Errorf("%w: child %s already has a mother", datatypes.ErrInvalidRelation, childID)
			}
			c.Mother = parentID
		default:
			return fmt.Errorf("%w: parent gender %q", datatypes.ErrInvalidRelation, parent.Gender)
		}

		addUnique(&parent.Children, childID)

		now := time.Now().UTC()
		parent.UpdatedAt = now
		c.UpdatedAt = now
		if err := putPerson(txn, parent); err != nil {
			return err
		}
		if err := putPerson(txn, c); err != nil {
			return err
		}
		child = c
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr(ctx, err)
	}
	return child, nil
}

// AddSpouse is Link specialised to the spouse relation.
func (s *Store) AddSpouse(ctx context.Context, aID, bID string) error {
	return s.Link(ctx, datatypes.RelationSpouse, aID, bID)
}
