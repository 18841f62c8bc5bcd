// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store implements the family graph persistence layer on
// BadgerDB.
//
// Every person record lives at key "person/<id>" as JSON. All mutations
// that touch relationships run inside a single read-write transaction so
// the mirroring invariants hold after every commit: if A lists B as a
// spouse then B lists A; if A is in B's children then B is A's father or
// mother. Concurrent mutations on overlapping records are serialized by
// BadgerDB's conflict detection and retried by the DB wrapper.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/silsila-app/silsila/pkg/logging"
	storage "github.com/silsila-app/silsila/pkg/storage/badger"
	"github.com/silsila-app/silsila/services/family/datatypes"
)

const (
	personPrefix = "person/"
	counterKey   = "counter/tasbeeh"
)

// Store provides transactional access to the family graph.
type Store struct {
	db     *storage.DB
	logger *logging.Logger
}

// New creates a Store backed by the given database.
func New(db *storage.DB, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{db: db, logger: logger}
}

func personKey(id string) []byte {
	return []byte(personPrefix + id)
}

// getPerson reads and decodes one person record inside txn.
func getPerson(txn *badger.Txn, id string) (*datatypes.Person, error) {
	item, err := txn.Get(personKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("person %s: %w", id, datatypes.ErrNotFound)
		}
		return nil, fmt.Errorf("read person %s: %w", id, err)
	}

	var person datatypes.Person
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &person)
	})
	if err != nil {
		return nil, fmt.Errorf("decode person %s: %w", id, err)
	}
	return &person, nil
}

// putPerson encodes and writes one person record inside txn.
func putPerson(txn *badger.Txn, person *datatypes.Person) error {
	data, err := json.Marshal(person)
	if err != nil {
		return fmt.Errorf("encode person %s: %w", person.ID, err)
	}
	if err := txn.Set(personKey(person.ID), data); err != nil {
		return fmt.Errorf("write person %s: %w", person.ID, err)
	}
	return nil
}

// forEachPerson iterates every person record in txn in key order.
func forEachPerson(txn *badger.Txn, fn func(p *datatypes.Person) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(personPrefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		var person datatypes.Person
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &person)
		})
		if err != nil {
			return fmt.Errorf("decode person %s: %w", it.Item().Key(), err)
		}
		if err := fn(&person); err != nil {
			return err
		}
	}
	return nil
}

// wrapStoreErr maps context expiry onto the retryable error class so
// handlers can answer 503 instead of 500.
func wrapStoreErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", datatypes.ErrStoreUnavailable, err)
	}
	return err
}

// Create inserts a new person and mirrors every supplied relationship
// onto the counterparty records in the same transaction.
//
// # Description
//
// All referenced ids are resolved first; any missing reference fails the
// whole operation with ErrNotFound and nothing is written. Parents are
// assigned to the father or mother slot by the referenced person's
// gender; two parents of the same gender is ErrInvalidRelation. A
// referenced child that already has a parent of the new person's gender
// is ErrInvalidRelation (a child cannot gain a second father).
//
// # Inputs
//
//   - ctx: Cancellation; an expired context maps to ErrStoreUnavailable.
//   - attrs: Scalar attributes. Status defaults to pending when unset.
//   - relations: Existing person ids to link, per category.
//
// # Outputs
//
//   - *datatypes.Person: The stored record, relations applied.
//   - error: ErrNotFound, ErrInvalidRelation, or a storage error.
func (s *Store) Create(ctx context.Context, attrs datatypes.PersonAttrs, relations datatypes.InitialRelations) (*datatypes.Person, error) {
	if strings.TrimSpace(attrs.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", datatypes.ErrInvalidRelation)
	}
	if !attrs.Gender.Valid() {
		return nil, fmt.Errorf("%w: gender %q", datatypes.ErrInvalidRelation, attrs.Gender)
	}

	status := attrs.Status
	if status == "" {
		status = datatypes.StatusPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: status %q", datatypes.ErrInvalidRelation, attrs.Status)
	}

	now := time.Now().UTC()
	person := &datatypes.Person{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(attrs.Name),
		Gender:      attrs.Gender,
		DateOfBirth: attrs.DateOfBirth,
		DateOfDeath: attrs.DateOfDeath,
		Biography:   attrs.Biography,
		Status:      status,
		Public:      attrs.Public,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		touched := make(map[string]*datatypes.Person)

		load := func(id string) (*datatypes.Person, error) {
			if id == person.ID {
				return nil, fmt.Errorf("%w: self-reference", datatypes.ErrInvalidRelation)
			}
			if p, ok := touched[id]; ok {
				return p, nil
			}
			p, err := getPerson(txn, id)
			if err != nil {
				return nil, err
			}
			touched[id] = p
			return p, nil
		}

		for _, parentID := range relations.Parents {
			parent, err := load(parentID)
			if err != nil {
				return err
			}
			switch parent.Gender {
			case datatypes.GenderMale:
				if person.Father != "" && person.Father != parent.ID {
					return fmt.Errorf("%w: two fathers", datatypes.ErrInvalidRelation)
				}
				person.Father = parent.ID
			case datatypes.GenderFemale:
				if person.Mother != "" && person.Mother != parent.ID {
					return fmt.Errorf("%w: two mothers", datatypes.ErrInvalidRelation)
				}
				person.Mother = parent.ID
			}
			addUnique(&parent.Children, person.ID)
			parent.UpdatedAt = now
		}

		for _, childID := range relations.Children {
			child, err := load(childID)
			if err != nil {
				return err
			}
			switch person.Gender {
			case datatypes.GenderMale:
				if child.Father != "" && child.Father != person.ID {
					return fmt.Errorf("%w: child %s already has a father", datatypes.ErrInvalidRelation, childID)
				}
				child.Father = person.ID
			case datatypes.GenderFemale:
				if child.Mother != "" && child.Mother != person.ID {
					return fmt.Errorf("%w: child %s already has a mother", datatypes.ErrInvalidRelation, childID)
				}
				child.Mother = person.ID
			}
			addUnique(&person.Children, childID)
			child.UpdatedAt = now
		}

		mirrored := []struct {
			kind datatypes.RelationKind
			ids  []string
		}{
			{datatypes.RelationSpouse, relations.Spouses},
			{datatypes.RelationSibling, relations.Siblings},
			{datatypes.RelationStepParent, relations.StepParents},
			{datatypes.RelationStepChild, relations.StepChildren},
			{datatypes.RelationHalfSibling, relations.HalfSiblings},
		}
		for _, group := range mirrored {
			for _, otherID := range group.ids {
				other, err := load(otherID)
				if err != nil {
					return err
				}
				person.AddRelation(group.kind, otherID)
				other.AddRelation(group.kind.Inverse(), person.ID)
				other.UpdatedAt = now
			}
		}

		for _, p := range touched {
			if err := putPerson(txn, p); err != nil {
				return err
			}
		}
		return putPerson(txn, person)
	})
	if err != nil {
		return nil, wrapStoreErr(ctx, err)
	}

	s.logger.Info("person created",
		"person_id", person.ID,
		"status", string(person.Status))
	return person, nil
}

// Get returns one person by id.
func (s *Store) Get(ctx context.Context, id string) (*datatypes.Person, error) {
	var person *datatypes.Person
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		p, err := getPerson(txn, id)
		if err != nil {
			return err
		}
		person = p
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr(ctx, err)
	}
	return person, nil
}

// List returns every person with the given status, or every person when
// status is empty. Order follows the key order (person id).
func (s *Store) List(ctx context.Context, status datatypes.Status) ([]*datatypes.Person, error) {
	var persons []*datatypes.Person
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		return forEachPerson(txn, func(p *datatypes.Person) error {
			if status != "" && p.Status != status {
				return nil
			}
			persons = append(persons, p)
			return nil
		})
	})
	if err != nil {
		return nil, wrapStoreErr(ctx, err)
	}
	return persons, nil
}

// Snapshot loads every person record into memory in one read-only
// transaction. Traversals operate on the returned map so the whole walk
// observes a single consistent version of the graph.
func (s *Store) Snapshot(ctx context.Context) (map[string]*datatypes.Person, error) {
	snapshot := make(map[string]*datatypes.Person)
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		return forEachPerson(txn, func(p *datatypes.Person) error {
			snapshot[p.ID] = p
			return nil
		})
	})
	if err != nil {
		return nil, wrapStoreErr(ctx, err)
	}
	return snapshot, nil
}

// Update applies scalar attribute changes to one person. Relationship
// fields are not touched here; those go through Link/Unlink and the
// child operations.
func (s *Store) Update(ctx context.Context, id string, req datatypes.UpdatePersonRequest) (*datatypes.Person, error) {
	var updated *datatypes.Person
	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		person, err := getPerson(txn, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return fmt.Errorf("%w: name cannot be blank", datatypes.ErrInvalidRelation)
			}
			person.Name = name
		}
		if req.Gender != nil {
			gender := datatypes.Gender(*req.Gender)
			if !gender.Valid() {
				return fmt.Errorf("%w: gender %q", datatypes.ErrInvalidRelation, *req.Gender)
			}
			person.Gender = gender
		}
		if req.DateOfBirth != nil {
			person.DateOfBirth = req.DateOfBirth
		}
		if req.DateOfDeath != nil {
			person.DateOfDeath = req.DateOfDeath
		}
		if req.Biography != nil {
			person.Biography = *req.Biography
		}
		if req.IsPublic != nil {
			person.Public = *req.IsPublic
		}
		person.UpdatedAt = time.Now().UTC()

		if err := putPerson(txn, person); err != nil {
			return err
		}
		updated = person
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr(ctx, err)
	}
	return updated, nil
}

// Delete removes a person and scrubs every reference to them from every
// counterparty record, all in one transaction.
//
// The person's own record names every counterparty (mirroring invariant),
// so the cascade reads only the related records, not the whole table. A
// dangling reference to an already-missing counterparty is skipped.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		person, err := getPerson(txn, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, relatedID := range person.RelatedIDs() {
			related, err := getPerson(txn, relatedID)
			if err != nil {
				if errors.Is(err, datatypes.ErrNotFound) {
					continue
				}
				return err
			}

			if related.Father == id {
				related.Father = ""
			}
			if related.Mother == id {
				related.Mother = ""
			}
			removeAll(&related.Children, id)
			related.RemoveRelation(datatypes.RelationSpouse, id)
			related.RemoveRelation(datatypes.RelationSibling, id)
			related.RemoveRelation(datatypes.RelationStepParent, id)
			related.RemoveRelation(datatypes.RelationStepChild, id)
			related.RemoveRelation(datatypes.RelationHalfSibling, id)
			related.UpdatedAt = now

			if err := putPerson(txn, related); err != nil {
				return err
			}
		}

		if err := txn.Delete(personKey(id)); err != nil {
			return fmt.Errorf("delete person %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return wrapStoreErr(ctx, err)
	}

	s.logger.Info("person deleted", "person_id", id)
	return nil
}

// Moderate applies a moderation decision to a pending record.
//
// Only pending records can transition; approving or rejecting a record
// in any other state is ErrInvalidTransition. Rejected is terminal: the
// record is kept (auditable) but excluded from filtered queries.
func (s *Store) Moderate(ctx context.Context, id string, decision datatypes.Status) (*datatypes.Person, error) {
	if decision != datatypes.StatusApproved && decision != datatypes.StatusRejected {
		return nil, fmt.Errorf("%w: decision %q", datatypes.ErrInvalidTransition, decision)
	}

	var moderated *datatypes.Person
	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		person, err := getPerson(txn, id)
		if err != nil {
			return err
		}
		if person.Status != datatypes.StatusPending {
			return fmt.Errorf("%w: person %s is %s", datatypes.ErrInvalidTransition, id, person.Status)
		}

		person.Status = decision
		person.UpdatedAt = time.Now().UTC()
		if err := putPerson(txn, person); err != nil {
			return err
		}
		moderated = person
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr(ctx, err)
	}

	s.logger.Info("moderation decision applied",
		"person_id", id,
		"decision", string(decision))
	return moderated, nil
}

// ListPending returns every record awaiting moderation.
func (s *Store) ListPending(ctx context.Context) ([]*datatypes.Person, error) {
	return s.List(ctx, datatypes.StatusPending)
}

// SetProminent flags or unflags a person as a prominent figure.
func (s *Store) SetProminent(ctx context.Context, id string, prominent bool) (*datatypes.Person, error) {
	var updated *datatypes.Person
	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		person, err := getPerson(txn, id)
		if err != nil {
			return err
		}
		person.ProminentFigure = prominent
		person.UpdatedAt = time.Now().UTC()
		if err := putPerson(txn, person); err != nil {
			return err
		}
		updated = person
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr(ctx, err)
	}
	return updated, nil
}

// ListProminent returns every approved prominent figure.
func (s *Store) ListProminent(ctx context.Context) ([]*datatypes.Person, error) {
	var persons []*datatypes.Person
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		return forEachPerson(txn, func(p *datatypes.Person) error {
			if p.ProminentFigure && p.Status == datatypes.StatusApproved {
				persons = append(persons, p)
			}
			return nil
		})
	})
	if err != nil {
		return nil, wrapStoreErr(ctx, err)
	}
	return persons, nil
}

// addUnique appends id to set if absent.
func addUnique(set *[]string, id string) {
	for _, existing := range *set {
		if existing == id {
			return
		}
	}
	*set = append(*set, id)
}

// removeAll pulls every occurrence of id from set.
func removeAll(set *[]string, id string) {
	out := (*set)[:0]
	for _, existing := range *set {
		if existing != id {
			out = append(out, existing)
		}
	}
	*set = out
}
