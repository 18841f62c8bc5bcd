// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tree

import (
	"fmt"

	"github.com/silsila-app/silsila/services/family/datatypes"
)

// Subtree builds the one-hop family view around a person: the full
// record plus summaries of directly related records. Dangling ids are
// skipped.
//
// categories selects which relation groups to expand; nil or empty
// means all of them. An unknown category is ErrInvalidRelation.
func Subtree(snapshot map[string]*datatypes.Person, id string, categories []datatypes.RelationCategory) (*datatypes.FamilyView, error) {
	person, ok := snapshot[id]
	if !ok {
		return nil, fmt.Errorf("person %s: %w", id, datatypes.ErrNotFound)
	}

	if len(categories) == 0 {
		categories = datatypes.AllRelationCategories()
	}
	wanted := make(map[datatypes.RelationCategory]bool, len(categories))
	for _, category := range categories {
		if !category.Valid() {
			return nil, fmt.Errorf("%w: unknown relation category %q", datatypes.ErrInvalidRelation, category)
		}
		wanted[category] = true
	}

	view := &datatypes.FamilyView{Person: person}

	if wanted[datatypes.CategoryParents] {
		if father, ok := snapshot[person.Father]; ok {
			summary := father.Summarize()
			view.Father = &summary
		}
		if mother, ok := snapshot[person.Mother]; ok {
			summary := mother.Summarize()
			view.Mother = &summary
		}
	}
	if wanted[datatypes.CategoryChildren] {
		view.Children = summarize(snapshot, person.Children)
	}
	if wanted[datatypes.CategorySpouses] {
		view.Spouses = summarize(snapshot, person.Spouses)
	}
	if wanted[datatypes.CategorySiblings] {
		view.Siblings = summarize(snapshot, person.Siblings)
	}
	if wanted[datatypes.CategoryStepParents] {
		view.StepParents = summarize(snapshot, person.StepParents)
	}
	if wanted[datatypes.CategoryStepChildren] {
		view.StepChildren = summarize(snapshot, person.StepChildren)
	}
	if wanted[datatypes.CategoryHalfSiblings] {
		view.HalfSiblings = summarize(snapshot, person.HalfSiblings)
	}

	return view, nil
}

func summarize(snapshot map[string]*datatypes.Person, ids []string) []datatypes.Summary {
	var summaries []datatypes.Summary
	for _, id := range ids {
		if person, ok := snapshot[id]; ok {
			summaries = append(summaries, person.Summarize())
		}
	}
	return summaries
}

// FullTraversal walks the entire connected component reachable from
// root, across every relation category in both stored directions.
//
// # Description
//
// Iterative depth-first walk with an explicit stack. Ids are marked seen
// when pushed, not when popped, so mutually referencing records (A
// spouse of B, B spouse of A) are each visited exactly once and the walk
// terminates on any cycle. When status is non-empty only matching
// records appear in the result, but the walk still traverses through
// non-matching ones so a pending record does not hide the approved
// family behind it.
//
// # Inputs
//
//   - snapshot: The full person map from Store.Snapshot.
//   - rootID: The person to start from.
//   - status: Output filter; empty includes everyone.
//
// # Outputs
//
//   - *datatypes.TraversalResult: Reachable persons in visit order.
//   - error: ErrNotFound when rootID has no record.
func FullTraversal(snapshot map[string]*datatypes.Person, rootID string, status datatypes.Status) (*datatypes.TraversalResult, error) {
	if _, ok := snapshot[rootID]; !ok {
		return nil, fmt.Errorf("person %s: %w", rootID, datatypes.ErrNotFound)
	}

	result := &datatypes.TraversalResult{RootID: rootID}
	seen := map[string]bool{rootID: true}
	stack := []string{rootID}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		person, ok := snapshot[id]
		if !ok {
			continue
		}
		if status == "" || person.Status == status {
			result.Persons = append(result.Persons, person)
		}

		for _, relatedID := range person.RelatedIDs() {
			if seen[relatedID] {
				continue
			}
			seen[relatedID] = true
			stack = append(stack, relatedID)
		}
	}

	return result, nil
}
