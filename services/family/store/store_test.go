// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silsila-app/silsila/pkg/logging"
	storage "github.com/silsila-app/silsila/pkg/storage/badger"
	"github.com/silsila-app/silsila/services/family/datatypes"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(db, logging.New(logging.Config{Quiet: true}))
}

func mustCreate(t *testing.T, s *Store, attrs datatypes.PersonAttrs, relations datatypes.InitialRelations) *datatypes.Person {
	t.Helper()

	person, err := s.Create(context.Background(), attrs, relations)
	require.NoError(t, err)
	return person
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestCreateMirrorsParentChild(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ali := mustCreate(t, s, datatypes.PersonAttrs{
		Name: "Ali", Gender: datatypes.GenderMale,
	}, datatypes.InitialRelations{})
	fatima := mustCreate(t, s, datatypes.PersonAttrs{
		Name: "Fatima", Gender: datatypes.GenderFemale,
	}, datatypes.InitialRelations{})

	hassan := mustCreate(t, s, datatypes.PersonAttrs{
		Name: "Hassan", Gender: datatypes.GenderMale,
	}, datatypes.InitialRelations{Parents: []string{ali.ID, fatima.ID}})

	assert.Equal(t, ali.ID, hassan.Father)
	assert.Equal(t, fatima.ID, hassan.Mother)

	gotAli, err := s.Get(ctx, ali.ID)
	require.NoError(t, err)
	assert.Contains(t, gotAli.Children, hassan.ID)

	gotFatima, err := s.Get(ctx, fatima.ID)
	require.NoError(t, err)
	assert.Contains(t, gotFatima.Children, hassan.ID)
}

func TestCreateRejectsTwoFathers(t *testing.T) {
	s := newTestStore(t)

	a := mustCreate(t, s, datatypes.PersonAttrs{Name: "A", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})
	b := mustCreate(t, s, datatypes.PersonAttrs{Name: "B", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})

	_, err := s.Create(context.Background(),
		datatypes.PersonAttrs{Name: "C", Gender: datatypes.GenderMale},
		datatypes.InitialRelations{Parents: []string{a.ID, b.ID}})
	assert.ErrorIs(t, err, datatypes.ErrInvalidRelation)
}

func TestCreateMissingReferenceWritesNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ali := mustCreate(t, s, datatypes.PersonAttrs{Name: "Ali", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})

	_, err := s.Create(ctx,
		datatypes.PersonAttrs{Name: "Orphan", Gender: datatypes.GenderMale},
		datatypes.InitialRelations{
			Parents: []string{ali.ID},
			Spouses: []string{"no-such-id"},
		})
	require.ErrorIs(t, err, datatypes.ErrNotFound)

	// Atomicity: the valid parent reference must not have been applied.
	gotAli, err := s.Get(ctx, ali.ID)
	require.NoError(t, err)
	assert.Empty(t, gotAli.Children)
}

func TestLinkSpouseIsSymmetricAndIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreate(t, s, datatypes.PersonAttrs{Name: "A", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})
	b := mustCreate(t, s, datatypes.PersonAttrs{Name: "B", Gender: datatypes.GenderFemale}, datatypes.InitialRelations{})

	require.NoError(t, s.Link(ctx, datatypes.RelationSpouse, a.ID, b.ID))
	require.NoError(t, s.Link(ctx, datatypes.RelationSpouse, a.ID, b.ID))

	gotA, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	gotB, err := s.Get(ctx, b.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{b.ID}, gotA.Spouses)
	assert.Equal(t, []string{a.ID}, gotB.Spouses)
}

func TestLinkStepParentMirrorsStepChild(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	parent := mustCreate(t, s, datatypes.PersonAttrs{Name: "P", Gender: datatypes.GenderFemale}, datatypes.InitialRelations{})
	child := mustCreate(t, s, datatypes.PersonAttrs{Name: "C", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})

	require.NoError(t, s.Link(ctx, datatypes.RelationStepParent, parent.ID, child.ID))

	gotParent, err := s.Get(ctx, parent.ID)
	require.NoError(t, err)
	gotChild, err := s.Get(ctx, child.ID)
	require.NoError(t, err)

	assert.Contains(t, gotParent.StepParents, child.ID)
	assert.Contains(t, gotChild.StepChildren, parent.ID)
}

func TestLinkRejectsSelfReference(t *testing.T) {
	s := newTestStore(t)

	a := mustCreate(t, s, datatypes.PersonAttrs{Name: "A", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})

	err := s.Link(context.Background(), datatypes.RelationSibling, a.ID, a.ID)
	assert.ErrorIs(t, err, datatypes.ErrInvalidRelation)
}

func TestUnlinkRemovesBothSides(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreate(t, s, datatypes.PersonAttrs{Name: "A", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})
	b := mustCreate(t, s, datatypes.PersonAttrs{Name: "B", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})

	require.NoError(t, s.Link(ctx, datatypes.RelationHalfSibling, a.ID, b.ID))
	require.NoError(t, s.Unlink(ctx, datatypes.RelationHalfSibling, a.ID, b.ID))

	gotA, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	gotB, err := s.Get(ctx, b.ID)
	require.NoError(t, err)

	assert.Empty(t, gotA.HalfSiblings)
	assert.Empty(t, gotB.HalfSiblings)

	// Unlinking again is a no-op, not an error.
	assert.NoError(t, s.Unlink(ctx, datatypes.RelationHalfSibling, a.ID, b.ID))
}

func TestDeleteCascadesAllCategories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	target := mustCreate(t, s, datatypes.PersonAttrs{Name: "T", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})
	father := mustCreate(t, s, datatypes.PersonAttrs{Name: "F", Gender: datatypes.GenderMale}, datatypes.InitialRelations{Children: []string{target.ID}})
	spouse := mustCreate(t, s, datatypes.PersonAttrs{Name: "S", Gender: datatypes.GenderFemale}, datatypes.InitialRelations{Spouses: []string{target.ID}})
	sibling := mustCreate(t, s, datatypes.PersonAttrs{Name: "Sib", Gender: datatypes.GenderFemale}, datatypes.InitialRelations{Siblings: []string{target.ID}})
	child := mustCreate(t, s, datatypes.PersonAttrs{Name: "Ch", Gender: datatypes.GenderFemale}, datatypes.InitialRelations{Parents: []string{target.ID}})
	stepParent := mustCreate(t, s, datatypes.PersonAttrs{Name: "SP", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})
	stepChild := mustCreate(t, s, datatypes.PersonAttrs{Name: "SC", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})
	halfSibling := mustCreate(t, s, datatypes.PersonAttrs{Name: "HS", Gender: datatypes.GenderFemale}, datatypes.InitialRelations{})

	require.NoError(t, s.Link(ctx, datatypes.RelationStepParent, target.ID, stepParent.ID))
	require.NoError(t, s.Link(ctx, datatypes.RelationStepChild, target.ID, stepChild.ID))
	require.NoError(t, s.Link(ctx, datatypes.RelationHalfSibling, target.ID, halfSibling.ID))

	require.NoError(t, s.Delete(ctx, target.ID))

	_, err := s.Get(ctx, target.ID)
	assert.ErrorIs(t, err, datatypes.ErrNotFound)

	gotFather, err := s.Get(ctx, father.ID)
	require.NoError(t, err)
	assert.NotContains(t, gotFather.Children, target.ID)

	gotSpouse, err := s.Get(ctx, spouse.ID)
	require.NoError(t, err)
	assert.Empty(t, gotSpouse.Spouses)

	gotSibling, err := s.Get(ctx, sibling.ID)
	require.NoError(t, err)
	assert.Empty(t, gotSibling.Siblings)

	gotChild, err := s.Get(ctx, child.ID)
	require.NoError(t, err)
	assert.Empty(t, gotChild.Father, "child's father slot must be cleared")

	gotStepParent, err := s.Get(ctx, stepParent.ID)
	require.NoError(t, err)
	assert.Empty(t, gotStepParent.StepChildren)

	gotStepChild, err := s.Get(ctx, stepChild.ID)
	require.NoError(t, err)
	assert.Empty(t, gotStepChild.StepParents)

	gotHalfSibling, err := s.Get(ctx, halfSibling.ID)
	require.NoError(t, err)
	assert.Empty(t, gotHalfSibling.HalfSiblings)
}

func TestDeleteMissingPersonIsNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.Delete(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, datatypes.ErrNotFound)
}

func TestUpdateScalarsOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreate(t, s, datatypes.PersonAttrs{Name: "Before", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})

	name := "After"
	bio := "a life"
	updated, err := s.Update(ctx, p.ID, datatypes.UpdatePersonRequest{
		Name:      &name,
		Biography: &bio,
	})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, "a life", updated.Biography)
	assert.Equal(t, datatypes.GenderMale, updated.Gender)
}

func TestModerationTransitions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreate(t, s, datatypes.PersonAttrs{Name: "P", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})
	require.Equal(t, datatypes.StatusPending, p.Status)

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	approved, err := s.Moderate(ctx, p.ID, datatypes.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, datatypes.StatusApproved, approved.Status)

	// Approved is not pending anymore; a second decision must fail.
	_, err = s.Moderate(ctx, p.ID, datatypes.StatusRejected)
	assert.ErrorIs(t, err, datatypes.ErrInvalidTransition)

	pending, err = s.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestModerateRejectsPendingDecision(t *testing.T) {
	s := newTestStore(t)

	p := mustCreate(t, s, datatypes.PersonAttrs{Name: "P", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})

	_, err := s.Moderate(context.Background(), p.ID, datatypes.StatusPending)
	assert.ErrorIs(t, err, datatypes.ErrInvalidTransition)
}

func TestProminentListing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreate(t, s, datatypes.PersonAttrs{
		Name: "P", Gender: datatypes.GenderMale, Status: datatypes.StatusApproved,
	}, datatypes.InitialRelations{})
	q := mustCreate(t, s, datatypes.PersonAttrs{
		Name: "Q", Gender: datatypes.GenderMale,
	}, datatypes.InitialRelations{})

	_, err := s.SetProminent(ctx, p.ID, true)
	require.NoError(t, err)
	_, err = s.SetProminent(ctx, q.ID, true)
	require.NoError(t, err)

	// Only approved prominent figures are listed; q is still pending.
	prominent, err := s.ListProminent(ctx)
	require.NoError(t, err)
	require.Len(t, prominent, 1)
	assert.Equal(t, p.ID, prominent[0].ID)
}

func TestAddChildByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	omar := mustCreate(t, s, datatypes.PersonAttrs{Name: "Omar", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})
	zainab := mustCreate(t, s, datatypes.PersonAttrs{Name: "Zainab", Gender: datatypes.GenderFemale}, datatypes.InitialRelations{})
	require.NoError(t, s.AddSpouse(ctx, omar.ID, zainab.ID))

	child, err := s.AddChild(ctx, datatypes.AddChildRequest{
		ParentName:  "Omar",
		ChildName:   "Yusuf",
		ChildGender: "male",
	})
	require.NoError(t, err)

	assert.Equal(t, omar.ID, child.Father)
	assert.Equal(t, zainab.ID, child.Mother, "single spouse must be inferred as mother")
	assert.Equal(t, datatypes.StatusPending, child.Status)

	gotOmar, err := s.Get(ctx, omar.ID)
	require.NoError(t, err)
	assert.Contains(t, gotOmar.Children, child.ID)

	gotZainab, err := s.Get(ctx, zainab.ID)
	require.NoError(t, err)
	assert.Contains(t, gotZainab.Children, child.ID)
}

func TestAddChildAmbiguousParent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Two Omars, no date of birth supplied: the ladder cannot choose.
	omar1 := mustCreate(t, s, datatypes.PersonAttrs{
		Name: "Omar", Gender: datatypes.GenderMale, DateOfBirth: datePtr(1960, time.March, 1),
	}, datatypes.InitialRelations{})
	mustCreate(t, s, datatypes.PersonAttrs{
		Name: "Omar", Gender: datatypes.GenderMale, DateOfBirth: datePtr(1985, time.July, 9),
	}, datatypes.InitialRelations{})

	_, err := s.AddChild(ctx, datatypes.AddChildRequest{
		ParentName:  "Omar",
		ChildName:   "Yusuf",
		ChildGender: "male",
	})
	ambiguousErr, ok := datatypes.AsAmbiguous(err)
	require.True(t, ok, "expected ambiguous error, got %v", err)
	assert.Equal(t, "parent", ambiguousErr.Subject)
	assert.Len(t, ambiguousErr.Candidates, 2)

	// A date of birth narrows to exactly one namesake.
	wife := mustCreate(t, s, datatypes.PersonAttrs{Name: "W", Gender: datatypes.GenderFemale}, datatypes.InitialRelations{})
	require.NoError(t, s.AddSpouse(ctx, omar1.ID, wife.ID))

	child, err := s.AddChild(ctx, datatypes.AddChildRequest{
		ParentName:        "Omar",
		ParentDateOfBirth: datePtr(1960, time.March, 1),
		ChildName:         "Yusuf",
		ChildGender:       "male",
	})
	require.NoError(t, err)
	assert.Equal(t, omar1.ID, child.Father)
}

func TestAddChildNoMotherCandidate(t *testing.T) {
	s := newTestStore(t)

	mustCreate(t, s, datatypes.PersonAttrs{Name: "Bachelor", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})

	_, err := s.AddChild(context.Background(), datatypes.AddChildRequest{
		ParentName:  "Bachelor",
		ChildName:   "X",
		ChildGender: "female",
	})
	assert.ErrorIs(t, err, datatypes.ErrNoMotherCandidate)
}

func TestAddChildAmbiguousMother(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	father := mustCreate(t, s, datatypes.PersonAttrs{Name: "F", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})
	w1 := mustCreate(t, s, datatypes.PersonAttrs{Name: "W1", Gender: datatypes.GenderFemale}, datatypes.InitialRelations{})
	w2 := mustCreate(t, s, datatypes.PersonAttrs{Name: "W2", Gender: datatypes.GenderFemale}, datatypes.InitialRelations{})
	require.NoError(t, s.AddSpouse(ctx, father.ID, w1.ID))
	require.NoError(t, s.AddSpouse(ctx, father.ID, w2.ID))

	_, err := s.AddChild(ctx, datatypes.AddChildRequest{
		ParentID:    father.ID,
		ChildName:   "X",
		ChildGender: "male",
	})
	ambiguousErr, ok := datatypes.AsAmbiguous(err)
	require.True(t, ok, "expected ambiguous mother, got %v", err)
	assert.Equal(t, "mother", ambiguousErr.Subject)
	assert.Len(t, ambiguousErr.Candidates, 2)

	// An explicit mother id bypasses inference entirely.
	child, err := s.AddChild(ctx, datatypes.AddChildRequest{
		ParentID:    father.ID,
		MotherID:    w2.ID,
		ChildName:   "X",
		ChildGender: "male",
	})
	require.NoError(t, err)
	assert.Equal(t, w2.ID, child.Mother)
}

func TestAddChildByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	parent := mustCreate(t, s, datatypes.PersonAttrs{Name: "P", Gender: datatypes.GenderFemale}, datatypes.InitialRelations{})
	child := mustCreate(t, s, datatypes.PersonAttrs{Name: "C", Gender: datatypes.GenderMale}, datatypes.InitialRelations{})

	got, err := s.AddChildByID(ctx, parent.ID, child.ID)
	require.NoError(t, err)
	assert.Equal(t, parent.ID, got.Mother)

	// Re-attaching the same pair is idempotent.
	_, err = s.AddChildByID(ctx, parent.ID, child.ID)
	require.NoError(t, err)

	gotParent, err := s.Get(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{child.ID}, gotParent.Children)

	// A second mother is contradictory.
	other := mustCreate(t, s, datatypes.PersonAttrs{Name: "O", Gender: datatypes.GenderFemale}, datatypes.InitialRelations{})
	_, err = s.AddChildByID(ctx, other.ID, child.ID)
	assert.ErrorIs(t, err, datatypes.ErrInvalidRelation)
}

func TestCounter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state, err := s.Counter(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), state.Count)

	state, err = s.IncrementCounter(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), state.Count)

	state, err = s.IncrementCounter(ctx, -10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), state.Count, "counter clamps at zero")

	state, err = s.Counter(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), state.Count)
}
