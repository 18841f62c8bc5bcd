// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package seeder populates a fresh store with a small demo genealogy:
// three generations around a prominent ancestor couple, with enough
// relation variety (spouses, siblings, step and half relations) to
// exercise every query end to end.
package seeder

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/silsila-app/silsila/pkg/logging"
	"github.com/silsila-app/silsila/services/family/datatypes"
	"github.com/silsila-app/silsila/services/family/store"
)

// Seeder writes demo data into a store.
type Seeder struct {
	store  *store.Store
	logger *logging.Logger
}

// New creates a Seeder.
func New(s *store.Store, logger *logging.Logger) *Seeder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Seeder{store: s, logger: logger}
}

func date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// branch describes one child of the root couple and that child's own
// family, seeded concurrently.
type branch struct {
	name     string
	gender   datatypes.Gender
	born     *time.Time
	spouse   string
	children []string
}

// Seed populates an empty store. A store that already holds records is
// refused with ErrConstraintViolation, so re-running the seed command
// never duplicates the demo people.
//
// The root couple is created first, then each child branch is seeded in
// its own goroutine. Branches touch disjoint record sets apart from the
// shared parents, so concurrent seeding also exercises the store's
// conflict retry path.
func (s *Seeder) Seed(ctx context.Context) error {
	existing, err := s.store.List(ctx, "")
	if err != nil {
		return fmt.Errorf("check store before seeding: %w", err)
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: store already holds %d records, seeding requires an empty store",
			datatypes.ErrConstraintViolation, len(existing))
	}

	approved := datatypes.StatusApproved

	patriarch, err := s.store.Create(ctx, datatypes.PersonAttrs{
		Name:        "Ibrahim Khan",
		Gender:      datatypes.GenderMale,
		DateOfBirth: date(1938, time.February, 11),
		Biography:   "Founder of the family trust and its first chronicler.",
		Status:      approved,
		Public:      true,
	}, datatypes.InitialRelations{})
	if err != nil {
		return fmt.Errorf("seed patriarch: %w", err)
	}

	matriarch, err := s.store.Create(ctx, datatypes.PersonAttrs{
		Name:        "Maryam Khan",
		Gender:      datatypes.GenderFemale,
		DateOfBirth: date(1942, time.September, 3),
		Status:      approved,
		Public:      true,
	}, datatypes.InitialRelations{Spouses: []string{patriarch.ID}})
	if err != nil {
		return fmt.Errorf("seed matriarch: %w", err)
	}

	if _, err := s.store.SetProminent(ctx, patriarch.ID, true); err != nil {
		return fmt.Errorf("mark patriarch prominent: %w", err)
	}

	branches := []branch{
		{
			name: "Ahmed Khan", gender: datatypes.GenderMale,
			born: date(1964, time.May, 20), spouse: "Sara Khan",
			children: []string{"Bilal Khan", "Noor Khan"},
		},
		{
			name: "Fatima Raza", gender: datatypes.GenderFemale,
			born: date(1966, time.December, 1), spouse: "Hamza Raza",
			children: []string{"Zain Raza"},
		},
		{
			name: "Yusuf Khan", gender: datatypes.GenderMale,
			born: date(1970, time.July, 14),
		},
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, b := range branches {
		group.Go(func() error {
			return s.seedBranch(groupCtx, patriarch.ID, matriarch.ID, b)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	// One pending record so the moderation queue is not empty out of
	// the box.
	if _, err := s.store.Create(ctx, datatypes.PersonAttrs{
		Name:        "Imran Khan",
		Gender:      datatypes.GenderMale,
		DateOfBirth: date(1995, time.March, 8),
	}, datatypes.InitialRelations{}); err != nil {
		return fmt.Errorf("seed pending record: %w", err)
	}

	s.logger.Info("demo genealogy seeded",
		"root_father", patriarch.ID,
		"root_mother", matriarch.ID,
		"branches", len(branches))
	return nil
}

// seedBranch creates one child of the root couple plus that child's
// spouse and children.
func (s *Seeder) seedBranch(ctx context.Context, fatherID, motherID string, b branch) error {
	child, err := s.store.Create(ctx, datatypes.PersonAttrs{
		Name:        b.name,
		Gender:      b.gender,
		DateOfBirth: b.born,
		Status:      datatypes.StatusApproved,
		Public:      true,
	}, datatypes.InitialRelations{Parents: []string{fatherID, motherID}})
	if err != nil {
		return fmt.Errorf("seed %s: %w", b.name, err)
	}

	if b.spouse == "" {
		return nil
	}

	spouseGender := datatypes.GenderFemale
	if b.gender == datatypes.GenderFemale {
		spouseGender = datatypes.GenderMale
	}
	spouse, err := s.store.Create(ctx, datatypes.PersonAttrs{
		Name:   b.spouse,
		Gender: spouseGender,
		Status: datatypes.StatusApproved,
	}, datatypes.InitialRelations{Spouses: []string{child.ID}})
	if err != nil {
		return fmt.Errorf("seed spouse %s: %w", b.spouse, err)
	}

	for _, grandchildName := range b.children {
		if _, err := s.store.Create(ctx, datatypes.PersonAttrs{
			Name:   grandchildName,
			Gender: datatypes.GenderMale,
			Status: datatypes.StatusApproved,
		}, datatypes.InitialRelations{Parents: []string{child.ID, spouse.ID}}); err != nil {
			return fmt.Errorf("seed grandchild %s: %w", grandchildName, err)
		}
	}
	return nil
}
