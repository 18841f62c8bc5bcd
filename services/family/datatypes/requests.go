// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Request types for the family REST surface, plus the attribute/relation
// bundles the store's create path takes. Gin binds and validates these
// via the binding tags; the extra notblank rule is registered on a shared
// validator instance.

package datatypes

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// MaxInitialRelations caps how many relationship references a single
// create request may carry per category. Unbounded lists would let one
// request fan out into arbitrarily many mirrored writes. The binding
// tags below carry the same limit for requests arriving through gin;
// Validate re-enforces it for direct callers.
const MaxInitialRelations = 64

// familyValidate is the validator instance for family datatypes.
// Initialized in init() with custom validators.
var familyValidate *validator.Validate

func init() {
	familyValidate = validator.New()
	_ = familyValidate.RegisterValidation("notblank", validateNotBlank)
}

// validateNotBlank rejects strings that are empty after trimming. The
// stock "required" rule accepts all-whitespace names.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// PersonAttrs is the scalar attribute bundle for create and update.
type PersonAttrs struct {
	Name        string
	Gender      Gender
	DateOfBirth *time.Time
	DateOfDeath *time.Time
	Biography   string
	Status      Status
	Public      bool
}

// InitialRelations carries the relationship references supplied at
// creation time. Parents holds up to two existing person ids; the store
// assigns each to the father or mother slot by the referenced person's
// gender.
type InitialRelations struct {
	Parents      []string
	Spouses      []string
	Children     []string
	Siblings     []string
	StepParents  []string
	StepChildren []string
	HalfSiblings []string
}

// Empty reports whether no relationship references were supplied.
func (r InitialRelations) Empty() bool {
	return len(r.Parents) == 0 && len(r.Spouses) == 0 && len(r.Children) == 0 &&
		len(r.Siblings) == 0 && len(r.StepParents) == 0 &&
		len(r.StepChildren) == 0 && len(r.HalfSiblings) == 0
}

// PersonRef identifies an existing person either by explicit id or by
// name with an optional date of birth used to narrow namesakes. The
// explicit id always wins when both are present.
type PersonRef struct {
	ID          string
	Name        string
	DateOfBirth *time.Time
}

// CreatePersonRequest is the POST /v1/members body.
type CreatePersonRequest struct {
	Name         string     `json:"name" binding:"required" validate:"notblank"`
	Gender       string     `json:"gender" binding:"required,oneof=male female"`
	DateOfBirth  *time.Time `json:"dateOfBirth"`
	DateOfDeath  *time.Time `json:"dateOfDeath"`
	Biography    string     `json:"biography"`
	IsPublic     bool       `json:"isPublic"`
	Parents      []string   `json:"parents" binding:"omitempty,max=2"`
	Spouses      []string   `json:"spouseIds" binding:"omitempty,max=64"`
	Children     []string   `json:"children" binding:"omitempty,max=64"`
	Siblings     []string   `json:"siblings" binding:"omitempty,max=64"`
	StepParents  []string   `json:"stepParents" binding:"omitempty,max=64"`
	StepChildren []string   `json:"stepChildren" binding:"omitempty,max=64"`
	HalfSiblings []string   `json:"halfSiblings" binding:"omitempty,max=64"`
}

// Validate applies the rules gin's binding layer cannot express, and
// re-enforces the per-category relation cap for callers that build the
// request directly instead of going through gin's binding.
func (r *CreatePersonRequest) Validate() error {
	if err := familyValidate.Struct(r); err != nil {
		return err
	}
	sets := map[string][]string{
		"spouseIds":    r.Spouses,
		"children":     r.Children,
		"siblings":     r.Siblings,
		"stepParents":  r.StepParents,
		"stepChildren": r.StepChildren,
		"halfSiblings": r.HalfSiblings,
	}
	for field, set := range sets {
		if len(set) > MaxInitialRelations {
			return fmt.Errorf("%w: %s exceeds %d entries", ErrInvalidRelation, field, MaxInitialRelations)
		}
	}
	return nil
}

// Attrs converts the request into the store's attribute bundle.
func (r *CreatePersonRequest) Attrs() PersonAttrs {
	return PersonAttrs{
		Name:        strings.TrimSpace(r.Name),
		Gender:      Gender(r.Gender),
		DateOfBirth: r.DateOfBirth,
		DateOfDeath: r.DateOfDeath,
		Biography:   r.Biography,
		Public:      r.IsPublic,
	}
}

// Relations converts the request into the store's relation bundle.
func (r *CreatePersonRequest) Relations() InitialRelations {
	return InitialRelations{
		Parents:      r.Parents,
		Spouses:      r.Spouses,
		Children:     r.Children,
		Siblings:     r.Siblings,
		StepParents:  r.StepParents,
		StepChildren: r.StepChildren,
		HalfSiblings: r.HalfSiblings,
	}
}

// UpdatePersonRequest is the PUT /v1/members/:id body. All fields are
// optional; only scalar attributes can be updated this way. Relationship
// changes go through the link/unlink and child/spouse operations so the
// mirroring invariants stay enforced.
type UpdatePersonRequest struct {
	Name        *string    `json:"name" binding:"omitempty"`
	Gender      *string    `json:"gender" binding:"omitempty,oneof=male female"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	DateOfDeath *time.Time `json:"dateOfDeath"`
	Biography   *string    `json:"biography"`
	IsPublic    *bool      `json:"isPublic"`
}

// AddChildRequest is the POST /v1/members/addChild body. The father is
// referenced by name (plus optional date of birth and id disambiguators)
// or directly by id. When MotherID is empty the store infers the mother
// from the father's spouse set.
type AddChildRequest struct {
	ParentName        string     `json:"parentName"`
	ParentDateOfBirth *time.Time `json:"parentDateOfBirth"`
	ParentID          string     `json:"parentId"`
	MotherID          string     `json:"motherId"`

	ChildName        string     `json:"childName" binding:"required" validate:"notblank"`
	ChildGender      string     `json:"childGender" binding:"required,oneof=male female"`
	ChildDateOfBirth *time.Time `json:"childDateOfBirth"`
}

// Validate applies the rules gin's binding layer cannot express.
func (r *AddChildRequest) Validate() error {
	if err := familyValidate.Struct(r); err != nil {
		return err
	}
	return nil
}

// FatherRef returns the father lookup reference from the request.
func (r *AddChildRequest) FatherRef() PersonRef {
	return PersonRef{
		ID:          r.ParentID,
		Name:        strings.TrimSpace(r.ParentName),
		DateOfBirth: r.ParentDateOfBirth,
	}
}

// ChildAttrs returns the attribute bundle for the child to create.
func (r *AddChildRequest) ChildAttrs() PersonAttrs {
	return PersonAttrs{
		Name:        strings.TrimSpace(r.ChildName),
		Gender:      Gender(r.ChildGender),
		DateOfBirth: r.ChildDateOfBirth,
	}
}

// AddSpouseRequest is the POST /v1/members/addSpouse body.
type AddSpouseRequest struct {
	PersonID string `json:"personId" binding:"required"`
	SpouseID string `json:"spouseId" binding:"required"`
}

// LinkRequest is the POST and DELETE /v1/relations body.
type LinkRequest struct {
	Kind    string `json:"kind" binding:"required,oneof=spouse sibling step_parent step_child half_sibling"`
	PersonA string `json:"personA" binding:"required"`
	PersonB string `json:"personB" binding:"required"`
}

// ModerateRequest is the POST /v1/moderation/:id body.
type ModerateRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
}

// ProminentRequest is the POST /v1/members/:id/prominent body.
type ProminentRequest struct {
	Prominent bool `json:"prominent"`
}

// SearchCriteria is the parsed GET /v1/search query. Name is a
// case-insensitive substring; DateOfBirth matches on the calendar date;
// AncestorNames narrows by paternal line, nearest ancestor first
// (AncestorNames[0] is the father's name, [1] the grandfather's).
type SearchCriteria struct {
	Name          string
	DateOfBirth   *time.Time
	Gender        Gender
	Biography     string
	AncestorNames []string
}

// Empty reports whether no criterion was supplied.
func (c SearchCriteria) Empty() bool {
	return c.Name == "" && c.DateOfBirth == nil && c.Gender == "" &&
		c.Biography == "" && len(c.AncestorNames) == 0
}
