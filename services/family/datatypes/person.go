// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides data structures for the family service.
//
// This file contains the Person entity and the relation-kind vocabulary.
// Person is the sole entity in the family graph; every relationship is a
// set of person ids (or a single optional id for father/mother) mirrored
// on the counterparty record by the store.
package datatypes

import (
	"time"
)

// Gender is a closed enumeration matching the original schema.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is one of the allowed gender values.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Status is the moderation lifecycle state of a Person.
//
// pending represents a proposed addition awaiting moderator approval;
// approved is the default visible state for filtered queries; rejected
// marks a declined proposal that is retained, not deleted. Transitions
// are pending→approved and pending→rejected only.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the allowed status values.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// RelationKind identifies a symmetric or mirrored set relationship
// between two persons. Parent/child is not a RelationKind; it is carried
// by the father/mother fields and the children set and handled by
// dedicated store operations.
type RelationKind string

const (
	RelationSpouse      RelationKind = "spouse"
	RelationSibling     RelationKind = "sibling"
	RelationStepParent  RelationKind = "step_parent"
	RelationStepChild   RelationKind = "step_child"
	RelationHalfSibling RelationKind = "half_sibling"
)

// Valid reports whether k is one of the fixed relation kinds.
func (k RelationKind) Valid() bool {
	switch k {
	case RelationSpouse, RelationSibling, RelationStepParent,
		RelationStepChild, RelationHalfSibling:
		return true
	}
	return false
}

// Inverse returns the kind stored on the counterparty record.
//
// Spouse, sibling and half-sibling are symmetric (their own inverse);
// step-parent and step-child mirror each other: A step-parent of B
// implies B step-child of A.
func (k RelationKind) Inverse() RelationKind {
	switch k {
	case RelationStepParent:
		return RelationStepChild
	case RelationStepChild:
		return RelationStepParent
	default:
		return k
	}
}

// RelationCategory names one group of references on a Person record for
// read-side expansion. Unlike RelationKind it also covers the links that
// are not mirrored sets: "parents" selects the father and mother slots
// and "children" the children set.
type RelationCategory string

const (
	CategoryParents      RelationCategory = "parents"
	CategoryChildren     RelationCategory = "children"
	CategorySpouses      RelationCategory = "spouses"
	CategorySiblings     RelationCategory = "siblings"
	CategoryStepParents  RelationCategory = "step_parents"
	CategoryStepChildren RelationCategory = "step_children"
	CategoryHalfSiblings RelationCategory = "half_siblings"
)

// Valid reports whether c is one of the fixed relation categories.
func (c RelationCategory) Valid() bool {
	switch c {
	case CategoryParents, CategoryChildren, CategorySpouses, CategorySiblings,
		CategoryStepParents, CategoryStepChildren, CategoryHalfSiblings:
		return true
	}
	return false
}

// AllRelationCategories returns every category, the default expansion
// set for family views.
func AllRelationCategories() []RelationCategory {
	return []RelationCategory{
		CategoryParents, CategoryChildren, CategorySpouses, CategorySiblings,
		CategoryStepParents, CategoryStepChildren, CategoryHalfSiblings,
	}
}

// Person is the single entity type representing one family member.
//
// The father/mother fields hold at most one person id each; every other
// relationship is an unordered set of ids. The store guarantees the
// mirroring invariants (if A lists B as spouse, B lists A; if A is in
// B.Children, B is A's father or mother) on every mutation.
type Person struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Gender      Gender     `json:"gender"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	DateOfDeath *time.Time `json:"dateOfDeath,omitempty"`
	Biography   string     `json:"biography,omitempty"`

	// Status is the moderation state. New records default to pending.
	Status Status `json:"status"`

	// ProminentFigure marks notable people surfaced by the prominent
	// figures listing.
	ProminentFigure bool `json:"isProminentFigure"`

	// Public controls whether the record is visible without auth.
	Public bool `json:"isPublic"`

	Father string `json:"father,omitempty"`
	Mother string `json:"mother,omitempty"`

	Children     []string `json:"children"`
	Spouses      []string `json:"spouseIds"`
	Siblings     []string `json:"siblings"`
	StepParents  []string `json:"stepParents"`
	StepChildren []string `json:"stepChildren"`
	HalfSiblings []string `json:"halfSiblings"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// relationSet returns a pointer to the id set for the given kind.
func (p *Person) relationSet(kind RelationKind) *[]string {
	switch kind {
	case RelationSpouse:
		return &p.Spouses
	case RelationSibling:
		return &p.Siblings
	case RelationStepParent:
		return &p.StepParents
	case RelationStepChild:
		return &p.StepChildren
	case RelationHalfSibling:
		return &p.HalfSiblings
	default:
		return nil
	}
}

// AddRelation inserts id into the set for kind. Returns false if the id
// was already present or the kind is unknown (set semantics, idempotent).
func (p *Person) AddRelation(kind RelationKind, id string) bool {
	set := p.relationSet(kind)
	if set == nil {
		return false
	}
	for _, existing := range *set {
		if existing == id {
			return false
		}
	}
	*set = append(*set, id)
	return true
}

// RemoveRelation pulls id from the set for kind. Returns false if the id
// was not present or the kind is unknown.
func (p *Person) RemoveRelation(kind RelationKind, id string) bool {
	set := p.relationSet(kind)
	if set == nil {
		return false
	}
	for i, existing := range *set {
		if existing == id {
			*set = append((*set)[:i], (*set)[i+1:]...)
			return true
		}
	}
	return false
}

// HasRelation reports whether id is in the set for kind.
func (p *Person) HasRelation(kind RelationKind, id string) bool {
	set := p.relationSet(kind)
	if set == nil {
		return false
	}
	for _, existing := range *set {
		if existing == id {
			return true
		}
	}
	return false
}

// RelatedIDs returns every id this person references across all seven
// relation categories, father and mother included. Used by the cascade
// delete to find counterparty records.
func (p *Person) RelatedIDs() []string {
	var ids []string
	if p.Father != "" {
		ids = append(ids, p.Father)
	}
	if p.Mother != "" {
		ids = append(ids, p.Mother)
	}
	ids = append(ids, p.Children...)
	ids = append(ids, p.Spouses...)
	ids = append(ids, p.Siblings...)
	ids = append(ids, p.StepParents...)
	ids = append(ids, p.StepChildren...)
	ids = append(ids, p.HalfSiblings...)
	return dedupe(ids)
}

// Summary is the compact person view used for candidate lists and
// one-hop family expansions: exactly the fields a caller needs to pick
// between namesakes.
type Summary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Gender      Gender     `json:"gender"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
}

// Summarize returns the Summary view of p.
func (p *Person) Summarize() Summary {
	return Summary{
		ID:          p.ID,
		Name:        p.Name,
		Gender:      p.Gender,
		DateOfBirth: p.DateOfBirth,
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
