// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silsila-app/silsila/services/family/datatypes"
)

func person(id, name string, gender datatypes.Gender) *datatypes.Person {
	return &datatypes.Person{
		ID:     id,
		Name:   name,
		Gender: gender,
		Status: datatypes.StatusApproved,
	}
}

func snapshotOf(persons ...*datatypes.Person) map[string]*datatypes.Person {
	snapshot := make(map[string]*datatypes.Person, len(persons))
	for _, p := range persons {
		snapshot[p.ID] = p
	}
	return snapshot
}

func TestAncestorChainThreeGenerations(t *testing.T) {
	ggf := person("ggf", "Great Grandfather", datatypes.GenderMale)
	gf := person("gf", "Grandfather", datatypes.GenderMale)
	f := person("f", "Father", datatypes.GenderMale)
	me := person("me", "Me", datatypes.GenderMale)

	gf.Father = "ggf"
	f.Father = "gf"
	me.Father = "f"

	view, err := AncestorChain(snapshotOf(ggf, gf, f, me), "me", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"ggf", "gf", "f", "me"}, view.IDs(),
		"most distant ancestor first, queried person last")
	assert.False(t, view.Truncated)

	assert.Equal(t, -3, view.Entries[0].Generation)
	assert.Equal(t, 0, view.Entries[3].Generation)
	assert.Equal(t, datatypes.LineSelf, view.Entries[3].Line)
}

func TestAncestorChainBothLinesAndChildren(t *testing.T) {
	gf := person("gf", "GF", datatypes.GenderMale)
	gm := person("gm", "GM", datatypes.GenderFemale)
	f := person("f", "F", datatypes.GenderMale)
	m := person("m", "M", datatypes.GenderFemale)
	me := person("me", "Me", datatypes.GenderFemale)
	kid := person("kid", "Kid", datatypes.GenderMale)

	f.Father = "gf"
	m.Mother = "gm"
	me.Father = "f"
	me.Mother = "m"
	me.Children = []string{"kid", "missing-child"}

	view, err := AncestorChain(snapshotOf(gf, gm, f, m, me, kid), "me", 0)
	require.NoError(t, err)

	// Paternal line, then maternal, then self, then children. The
	// dangling child id is skipped.
	assert.Equal(t, []string{"gf", "f", "gm", "m", "me", "kid"}, view.IDs())
	assert.Equal(t, datatypes.LineMaternal, view.Entries[2].Line)
	assert.Equal(t, 1, view.Entries[5].Generation)
}

func TestAncestorChainCycleTerminates(t *testing.T) {
	a := person("a", "A", datatypes.GenderMale)
	b := person("b", "B", datatypes.GenderMale)
	a.Father = "b"
	b.Father = "a"

	view, err := AncestorChain(snapshotOf(a, b), "a", 0)
	require.NoError(t, err)

	// The line is b then a, emitted most distant first, and a's self
	// entry dedupes away: each record appears exactly once.
	assert.Equal(t, []string{"a", "b"}, view.IDs())
}

func TestAncestorChainDepthCap(t *testing.T) {
	gf := person("gf", "GF", datatypes.GenderMale)
	f := person("f", "F", datatypes.GenderMale)
	me := person("me", "Me", datatypes.GenderMale)
	f.Father = "gf"
	me.Father = "f"

	view, err := AncestorChain(snapshotOf(gf, f, me), "me", 1)
	require.NoError(t, err)

	assert.True(t, view.Truncated)
	assert.Equal(t, []string{"f", "me"}, view.IDs())
}

func TestAncestorChainUnknownPerson(t *testing.T) {
	_, err := AncestorChain(snapshotOf(), "nope", 0)
	assert.ErrorIs(t, err, datatypes.ErrNotFound)
}

func TestSubtreeSkipsDanglingReferences(t *testing.T) {
	f := person("f", "F", datatypes.GenderMale)
	me := person("me", "Me", datatypes.GenderMale)
	spouse := person("sp", "Sp", datatypes.GenderFemale)

	me.Father = "f"
	me.Mother = "gone"
	me.Spouses = []string{"sp", "also-gone"}

	view, err := Subtree(snapshotOf(f, me, spouse), "me", nil)
	require.NoError(t, err)

	require.NotNil(t, view.Father)
	assert.Equal(t, "f", view.Father.ID)
	assert.Nil(t, view.Mother)
	require.Len(t, view.Spouses, 1)
	assert.Equal(t, "sp", view.Spouses[0].ID)
}

func TestSubtreeCategoryFilter(t *testing.T) {
	f := person("f", "F", datatypes.GenderMale)
	me := person("me", "Me", datatypes.GenderMale)
	spouse := person("sp", "Sp", datatypes.GenderFemale)
	sib := person("sib", "Sib", datatypes.GenderFemale)

	me.Father = "f"
	me.Spouses = []string{"sp"}
	me.Siblings = []string{"sib"}
	snapshot := snapshotOf(f, me, spouse, sib)

	view, err := Subtree(snapshot, "me", []datatypes.RelationCategory{datatypes.CategorySpouses})
	require.NoError(t, err)

	require.Len(t, view.Spouses, 1)
	assert.Equal(t, "sp", view.Spouses[0].ID)
	assert.Nil(t, view.Father, "unrequested parents must not be expanded")
	assert.Empty(t, view.Siblings)

	view, err = Subtree(snapshot, "me", []datatypes.RelationCategory{
		datatypes.CategoryParents, datatypes.CategorySiblings,
	})
	require.NoError(t, err)
	require.NotNil(t, view.Father)
	require.Len(t, view.Siblings, 1)
	assert.Empty(t, view.Spouses)
}

func TestSubtreeUnknownCategory(t *testing.T) {
	me := person("me", "Me", datatypes.GenderMale)

	_, err := Subtree(snapshotOf(me), "me", []datatypes.RelationCategory{"cousins"})
	assert.ErrorIs(t, err, datatypes.ErrInvalidRelation)
}

func TestFullTraversalVisitsCycleOnce(t *testing.T) {
	a := person("a", "A", datatypes.GenderMale)
	b := person("b", "B", datatypes.GenderFemale)
	c := person("c", "C", datatypes.GenderMale)

	// a and b reference each other; c hangs off b.
	a.Spouses = []string{"b"}
	b.Spouses = []string{"a"}
	b.Children = []string{"c"}
	c.Mother = "b"

	result, err := FullTraversal(snapshotOf(a, b, c), "a", "")
	require.NoError(t, err)

	require.Len(t, result.Persons, 3)
	seen := map[string]int{}
	for _, p := range result.Persons {
		seen[p.ID]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "person %s visited more than once", id)
	}
}

func TestFullTraversalStatusFilterStillTraverses(t *testing.T) {
	a := person("a", "A", datatypes.GenderMale)
	b := person("b", "B", datatypes.GenderFemale)
	c := person("c", "C", datatypes.GenderMale)

	// b is pending but sits between a and c.
	b.Status = datatypes.StatusPending
	a.Spouses = []string{"b"}
	b.Spouses = []string{"a"}
	b.Children = []string{"c"}
	c.Mother = "b"

	result, err := FullTraversal(snapshotOf(a, b, c), "a", datatypes.StatusApproved)
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, p := range result.Persons {
		ids[p.ID] = true
	}
	assert.True(t, ids["a"])
	assert.True(t, ids["c"], "approved record behind a pending one must still be reached")
	assert.False(t, ids["b"])
}

func TestSearchSingleMatchExpandsFamily(t *testing.T) {
	f := person("f", "Ibrahim", datatypes.GenderMale)
	me := person("me", "Yusuf", datatypes.GenderMale)
	me.Father = "f"
	f.Children = []string{"me"}

	result, err := Search(snapshotOf(f, me), datatypes.SearchCriteria{Name: "yusuf"})
	require.NoError(t, err)

	require.NotNil(t, result.Match)
	assert.Empty(t, result.Candidates)
	assert.Equal(t, "me", result.Match.Person.ID)
	require.NotNil(t, result.Match.Father)
	assert.Equal(t, "f", result.Match.Father.ID)
}

func TestSearchMultipleMatchesReturnCandidates(t *testing.T) {
	a := person("a", "Omar", datatypes.GenderMale)
	b := person("b", "Omar", datatypes.GenderMale)

	result, err := Search(snapshotOf(a, b), datatypes.SearchCriteria{Name: "Omar"})
	require.NoError(t, err)

	assert.Nil(t, result.Match)
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "a", result.Candidates[0].ID, "candidates ordered by name then id")
}

func TestSearchAncestorNamesNarrow(t *testing.T) {
	gf1 := person("gf1", "Khalid", datatypes.GenderMale)
	f1 := person("f1", "Ibrahim", datatypes.GenderMale)
	f1.Father = "gf1"
	omar1 := person("omar1", "Omar", datatypes.GenderMale)
	omar1.Father = "f1"

	f2 := person("f2", "Tariq", datatypes.GenderMale)
	omar2 := person("omar2", "Omar", datatypes.GenderMale)
	omar2.Father = "f2"

	snapshot := snapshotOf(gf1, f1, omar1, f2, omar2)

	result, err := Search(snapshot, datatypes.SearchCriteria{
		Name:          "Omar",
		AncestorNames: []string{"ibrahim", "khalid"},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Match)
	assert.Equal(t, "omar1", result.Match.Person.ID)
}

func TestSearchDateOfBirth(t *testing.T) {
	dob := time.Date(1990, time.May, 4, 13, 30, 0, 0, time.UTC)
	a := person("a", "Omar", datatypes.GenderMale)
	a.DateOfBirth = &dob
	b := person("b", "Omar", datatypes.GenderMale)

	// Matching is on the calendar day, not the timestamp.
	query := time.Date(1990, time.May, 4, 0, 0, 0, 0, time.UTC)
	result, err := Search(snapshotOf(a, b), datatypes.SearchCriteria{
		Name:        "Omar",
		DateOfBirth: &query,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Match)
	assert.Equal(t, "a", result.Match.Person.ID)
}

func TestSearchExcludesUnapproved(t *testing.T) {
	a := person("a", "Omar", datatypes.GenderMale)
	a.Status = datatypes.StatusPending

	_, err := Search(snapshotOf(a), datatypes.SearchCriteria{Name: "Omar"})
	assert.ErrorIs(t, err, datatypes.ErrNotFound)
}

func TestSearchEmptyCriteria(t *testing.T) {
	_, err := Search(snapshotOf(), datatypes.SearchCriteria{})
	assert.ErrorIs(t, err, datatypes.ErrInvalidRelation)
}
