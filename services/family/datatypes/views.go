// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Read-side view types returned by the traversal queries. These are
// shaped for JSON responses; they never feed back into the store.

package datatypes

// ChainEntry is one person in an ancestor chain, annotated with how the
// entry relates to the queried person.
type ChainEntry struct {
	Person *Person `json:"person"`

	// Line is "paternal", "maternal", "self", or "child".
	Line string `json:"line"`

	// Generation is the distance from the queried person: negative for
	// ancestors (most distant first), zero for the person, positive for
	// children.
	Generation int `json:"generation"`
}

const (
	LinePaternal = "paternal"
	LineMaternal = "maternal"
	LineSelf     = "self"
	LineChild    = "child"
)

// ChainView is the ancestry query result: the paternal chain from most
// distant ancestor down, then the maternal chain, then the person, then
// the person's children. Each person appears at most once; when the two
// lines converge the first occurrence wins.
type ChainView struct {
	PersonID string       `json:"personId"`
	Entries  []ChainEntry `json:"entries"`

	// Truncated is set when an ancestor chain hit the depth cap.
	Truncated bool `json:"truncated,omitempty"`
}

// IDs returns the entry person ids in order. Test helper and pagination
// cursor material.
func (v *ChainView) IDs() []string {
	ids := make([]string, 0, len(v.Entries))
	for _, e := range v.Entries {
		ids = append(ids, e.Person.ID)
	}
	return ids
}

// FamilyView is the one-hop subtree around a person: the person's full
// record plus summaries of every directly related record, grouped by
// relation category. Missing counterparties (dangling ids) are skipped,
// not errors.
type FamilyView struct {
	Person       *Person   `json:"person"`
	Father       *Summary  `json:"father,omitempty"`
	Mother       *Summary  `json:"mother,omitempty"`
	Children     []Summary `json:"children,omitempty"`
	Spouses      []Summary `json:"spouses,omitempty"`
	Siblings     []Summary `json:"siblings,omitempty"`
	StepParents  []Summary `json:"stepParents,omitempty"`
	StepChildren []Summary `json:"stepChildren,omitempty"`
	HalfSiblings []Summary `json:"halfSiblings,omitempty"`
}

// TraversalResult is the full connected-component walk from a root:
// every reachable person, each exactly once, in visit order.
type TraversalResult struct {
	RootID  string    `json:"rootId"`
	Persons []*Person `json:"persons"`
}

// SearchResult is the GET /v1/search response. Exactly one of Match and
// Candidates is populated: a single hit comes back with its one-hop
// family expansion, multiple hits come back as a candidate list for the
// caller to disambiguate.
type SearchResult struct {
	Match      *FamilyView `json:"match,omitempty"`
	Candidates []Summary   `json:"candidates,omitempty"`
}

// CounterState is the persistent tasbeeh counter value.
type CounterState struct {
	Count     int64  `json:"count"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}
