// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Name-based person resolution and the addChild flow.
//
// Resolution walks a fixed ladder: explicit id, then exact name match,
// then a date-of-birth filter over the namesakes. Anything still
// ambiguous after the ladder comes back as an AmbiguousError carrying
// the candidate summaries, so the caller can present a choice and
// re-submit with an id.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/silsila-app/silsila/services/family/datatypes"
)

// resolveRef resolves a PersonRef to exactly one person inside txn.
//
// Ladder: an explicit id is looked up directly. Otherwise all persons
// with an exactly matching name are collected; a single match wins. With
// multiple matches and a date of birth on the ref, candidates are
// narrowed to those born on that calendar day. Zero matches at any rung
// is ErrNotFound; more than one after the last rung is an AmbiguousError
// naming subject.
func resolveRef(txn *badger.Txn, ref datatypes.PersonRef, subject string) (*datatypes.Person, error) {
	if ref.ID != "" {
		return getPerson(txn, ref.ID)
	}
	if ref.Name == "" {
		return nil, fmt.Errorf("%w: %s reference is empty", datatypes.ErrInvalidRelation, subject)
	}

	var matches []*datatypes.Person
	err := forEachPerson(txn, func(p *datatypes.Person) error {
		if p.Name == ref.Name {
			clone := *p
			matches = append(matches, &clone)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%s %q: %w", subject, ref.Name, datatypes.ErrNotFound)
	}
	if len(matches) == 1 {
		return matches[0], nil
	}

	if ref.DateOfBirth != nil {
		var narrowed []*datatypes.Person
		for _, candidate := range matches {
			if candidate.DateOfBirth != nil && sameDay(*candidate.DateOfBirth, *ref.DateOfBirth) {
				narrowed = append(narrowed, candidate)
			}
		}
		if len(narrowed) == 0 {
			return nil, fmt.Errorf("%s %q: %w", subject, ref.Name, datatypes.ErrNotFound)
		}
		if len(narrowed) == 1 {
			return narrowed[0], nil
		}
		matches = narrowed
	}

	return nil, ambiguous(subject, matches)
}

func ambiguous(subject string, matches []*datatypes.Person) error {
	candidates := make([]datatypes.Summary, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, m.Summarize())
	}
	return &datatypes.AmbiguousError{Subject: subject, Candidates: candidates}
}

// sameDay compares two timestamps on the calendar date in UTC.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// AddChild creates a new child under a father referenced by name or id,
// inferring the mother from the father's spouse set when no explicit
// mother id is supplied.
//
// # Description
//
// The father is resolved via the disambiguation ladder. Mother
// selection: an explicit MotherID wins; otherwise one spouse on the
// father's record is used; zero spouses is ErrNoMotherCandidate and
// multiple spouses is an AmbiguousError listing them. The child is
// created pending and attached to both parents' children sets, all in
// one transaction.
//
// # Inputs
//
//   - ctx: Cancellation.
//   - req: Father reference, optional mother id, child attributes.
//
// # Outputs
//
//   - *datatypes.Person: The created child, parents set.
//   - error: ErrNotFound, ErrNoMotherCandidate, *AmbiguousError, or a
//     storage error.
func (s *Store) AddChild(ctx context.Context, req datatypes.AddChildRequest) (*datatypes.Person, error) {
	attrs := req.ChildAttrs()
	if !attrs.Gender.Valid() {
		return nil, fmt.Errorf("%w: child gender %q", datatypes.ErrInvalidRelation, attrs.Gender)
	}

	now := time.Now().UTC()
	child := &datatypes.Person{
		ID:          uuid.NewString(),
		Name:        attrs.Name,
		Gender:      attrs.Gender,
		DateOfBirth: attrs.DateOfBirth,
		Status:      datatypes.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		father, err := resolveRef(txn, req.FatherRef(), "parent")
		if err != nil {
			return err
		}
		if father.Gender != datatypes.GenderMale {
			return fmt.Errorf("%w: parent %s is not male", datatypes.ErrInvalidRelation, father.ID)
		}

		var mother *datatypes.Person
		if req.MotherID != "" {
			mother, err = getPerson(txn, req.MotherID)
			if err != nil {
				return err
			}
		} else {
			switch len(father.Spouses) {
			case 0:
				return fmt.Errorf("father %s: %w", father.ID, datatypes.ErrNoMotherCandidate)
			case 1:
				mother, err = getPerson(txn, father.Spouses[0])
				if err != nil {
					return err
				}
			default:
				spouses := make([]*datatypes.Person, 0, len(father.Spouses))
				for _, spouseID := range father.Spouses {
					spouse, err := getPerson(txn, spouseID)
					if err != nil {
						return err
					}
					spouses = append(spouses, spouse)
				}
				return ambiguous("mother", spouses)
			}
		}
		if mother.ID == father.ID {
			return fmt.Errorf("%w: mother and father are the same person", datatypes.ErrInvalidRelation)
		}

		child.Father = father.ID
		child.Mother = mother.ID
		addUnique(&father.Children, child.ID)
		addUnique(&mother.Children, child.ID)
		father.UpdatedAt = now
		mother.UpdatedAt = now

		if err := putPerson(txn, father); err != nil {
			return err
		}
		if err := putPerson(txn, mother); err != nil {
			return err
		}
		return putPerson(txn, child)
	})
	if err != nil {
		return nil, wrapStoreErr(ctx, err)
	}

	s.logger.Info("child added",
		"child_id", child.ID,
		"father_id", child.Father,
		"mother_id", child.Mother)
	return child, nil
}

// Resolve runs the disambiguation ladder against the current state and
// returns the single matching person. Exposed for the search handler.
func (s *Store) Resolve(ctx context.Context, ref datatypes.PersonRef) (*datatypes.Person, error) {
	var person *datatypes.Person
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		p, err := resolveRef(txn, ref, "person")
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
