// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tree

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/silsila-app/silsila/services/family/datatypes"
)

// Search finds approved persons matching all supplied criteria.
//
// # Description
//
// Name and biography match as case-insensitive substrings; date of birth
// matches on the calendar day; gender matches exactly. AncestorNames
// narrows by the paternal line, one generation per entry: the candidate's
// father must match AncestorNames[0], the grandfather AncestorNames[1],
// and so on (case-insensitive exact names). Only approved records are
// searchable.
//
// A single hit comes back expanded to its one-hop family view; multiple
// hits come back as a candidate list ordered by name then id; zero hits
// is ErrNotFound.
//
// # Inputs
//
//   - snapshot: The full person map from Store.Snapshot.
//   - criteria: At least one criterion must be set.
//
// # Outputs
//
//   - *datatypes.SearchResult: Match or Candidates, never both.
//   - error: ErrNotFound, or ErrInvalidRelation for empty criteria.
func Search(snapshot map[string]*datatypes.Person, criteria datatypes.SearchCriteria) (*datatypes.SearchResult, error) {
	if criteria.Empty() {
		return nil, fmt.Errorf("%w: no search criteria", datatypes.ErrInvalidRelation)
	}

	var matches []*datatypes.Person
	for _, person := range snapshot {
		if person.Status != datatypes.StatusApproved {
			continue
		}
		if matchesCriteria(snapshot, person, criteria) {
			matches = append(matches, person)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("search: %w", datatypes.ErrNotFound)
	case 1:
		view, err := Subtree(snapshot, matches[0].ID, nil)
		if err != nil {
			return nil, err
		}
		return &datatypes.SearchResult{Match: view}, nil
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Name != matches[j].Name {
			return matches[i].Name < matches[j].Name
		}
		return matches[i].ID < matches[j].ID
	})

	candidates := make([]datatypes.Summary, 0, len(matches))
	for _, match := range matches {
		candidates = append(candidates, match.Summarize())
	}
	return &datatypes.SearchResult{Candidates: candidates}, nil
}

func matchesCriteria(snapshot map[string]*datatypes.Person, person *datatypes.Person, criteria datatypes.SearchCriteria) bool {
	if criteria.Name != "" &&
		!strings.Contains(strings.ToLower(person.Name), strings.ToLower(criteria.Name)) {
		return false
	}
	if criteria.DateOfBirth != nil {
		if person.DateOfBirth == nil || !sameDay(*person.DateOfBirth, *criteria.DateOfBirth) {
			return false
		}
	}
	if criteria.Gender != "" && person.Gender != criteria.Gender {
		return false
	}
	if criteria.Biography != "" &&
		!strings.Contains(strings.ToLower(person.Biography), strings.ToLower(criteria.Biography)) {
		return false
	}
	return matchesAncestors(snapshot, person, criteria.AncestorNames)
}

// matchesAncestors checks the paternal line against the expected names,
// nearest ancestor first. A line that runs out before the names do, or a
// dangling father id, is a non-match.
func matchesAncestors(snapshot map[string]*datatypes.Person, person *datatypes.Person, names []string) bool {
	current := person
	for _, name := range names {
		father, ok := snapshot[current.Father]
		if !ok {
			return false
		}
		if !strings.EqualFold(father.Name, name) {
			return false
		}
		current = father
	}
	return true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
