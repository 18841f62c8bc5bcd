// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tree implements the read-side graph traversals: ancestor
// chains, one-hop family views, full connected-component walks, and
// search.
//
// Every traversal runs over a snapshot map loaded by the store in a
// single read-only transaction, so a walk never observes a half-applied
// mutation. Dangling references (an id with no record in the snapshot)
// are skipped, never errors: the store's cascade makes them transient at
// worst.
package tree

import (
	"fmt"

	"github.com/silsila-app/silsila/services/family/datatypes"
)

// DefaultMaxDepth caps how many generations an ancestor chain ascends.
// Deep enough for any real genealogy; a cycle introduced by bad data
// terminates here instead of spinning.
const DefaultMaxDepth = 128

// AncestorChain builds the ancestry view for one person: the paternal
// line from most distant ancestor down to the father, then the maternal
// line, then the person, then the person's children.
//
// # Description
//
// Each line ascends one parent pointer at a time (Father for the
// paternal line, Mother for the maternal) with a per-line seen set, so a
// cyclic parent reference terminates after visiting each record once.
// Across the whole view every person appears at most once; when the
// lines converge the first occurrence wins. Truncated is set when a line
// hit maxDepth.
//
// # Inputs
//
//   - snapshot: The full person map from Store.Snapshot.
//   - id: The person to build the chain for.
//   - maxDepth: Generation cap per line; <= 0 uses DefaultMaxDepth.
//
// # Outputs
//
//   - *datatypes.ChainView: Ordered entries, most distant ancestor first.
//   - error: ErrNotFound when id has no record.
func AncestorChain(snapshot map[string]*datatypes.Person, id string, maxDepth int) (*datatypes.ChainView, error) {
	person, ok := snapshot[id]
	if !ok {
		return nil, fmt.Errorf("person %s: %w", id, datatypes.ErrNotFound)
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	view := &datatypes.ChainView{PersonID: id}
	added := map[string]bool{}

	add := func(p *datatypes.Person, line string, generation int) {
		if added[p.ID] {
			return
		}
		added[p.ID] = true
		view.Entries = append(view.Entries, datatypes.ChainEntry{
			Person:     p,
			Line:       line,
			Generation: generation,
		})
	}

	paternal, truncP := ascend(snapshot, person.Father, fatherOf, maxDepth)
	maternal, truncM := ascend(snapshot, person.Mother, motherOf, maxDepth)
	view.Truncated = truncP || truncM

	// ascend returns nearest-first; entries go in most-distant-first.
	for i := len(paternal) - 1; i >= 0; i-- {
		add(paternal[i], datatypes.LinePaternal, -(i + 1))
	}
	for i := len(maternal) - 1; i >= 0; i-- {
		add(maternal[i], datatypes.LineMaternal, -(i + 1))
	}

	add(person, datatypes.LineSelf, 0)

	for _, childID := range person.Children {
		if child, ok := snapshot[childID]; ok {
			add(child, datatypes.LineChild, 1)
		}
	}

	return view, nil
}

func fatherOf(p *datatypes.Person) string { return p.Father }
func motherOf(p *datatypes.Person) string { return p.Mother }

// ascend walks one parent line starting at startID, nearest ancestor
// first. Stops at a missing record, a revisit (cycle), or maxDepth; the
// second return reports whether the depth cap cut the line short.
func ascend(snapshot map[string]*datatypes.Person, startID string, next func(*datatypes.Person) string, maxDepth int) ([]*datatypes.Person, bool) {
	var line []*datatypes.Person
	seen := map[string]bool{}

	current := startID
	for current != "" {
		if len(line) >= maxDepth {
			return line, true
		}
		if seen[current] {
			break
		}
		seen[current] = true

		person, ok := snapshot[current]
		if !ok {
			break
		}
		line = append(line, person)
		current = next(person)
	}
	return line, false
}
