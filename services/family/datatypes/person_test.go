// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelationKindInverse(t *testing.T) {
	assert.Equal(t, RelationStepChild, RelationStepParent.Inverse())
	assert.Equal(t, RelationStepParent, RelationStepChild.Inverse())
	assert.Equal(t, RelationSpouse, RelationSpouse.Inverse())
	assert.Equal(t, RelationSibling, RelationSibling.Inverse())
	assert.Equal(t, RelationHalfSibling, RelationHalfSibling.Inverse())
}

func TestRelationKindValid(t *testing.T) {
	assert.True(t, RelationSpouse.Valid())
	assert.False(t, RelationKind("cousin").Valid())
}

func TestAddRelationSetSemantics(t *testing.T) {
	p := &Person{}

	assert.True(t, p.AddRelation(RelationSibling, "x"))
	assert.False(t, p.AddRelation(RelationSibling, "x"), "duplicate add must be a no-op")
	assert.Equal(t, []string{"x"}, p.Siblings)

	assert.False(t, p.AddRelation(RelationKind("cousin"), "x"), "unknown kind must be rejected")
}

func TestRemoveRelation(t *testing.T) {
	p := &Person{Spouses: []string{"a", "b"}}

	assert.True(t, p.RemoveRelation(RelationSpouse, "a"))
	assert.False(t, p.RemoveRelation(RelationSpouse, "a"))
	assert.Equal(t, []string{"b"}, p.Spouses)
}

func TestRelatedIDsDeduplicates(t *testing.T) {
	p := &Person{
		Father:   "f",
		Mother:   "m",
		Children: []string{"c"},
		Spouses:  []string{"m"}, // also the mother of a child
		Siblings: []string{"s"},
	}

	ids := p.RelatedIDs()
	assert.ElementsMatch(t, []string{"f", "m", "c", "s"}, ids)
}

func TestStatusAndGenderValidation(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusRejected.Valid())
	assert.False(t, Status("archived").Valid())

	assert.True(t, GenderFemale.Valid())
	assert.False(t, Gender("unknown").Valid())
}

func TestCreatePersonRequestValidate(t *testing.T) {
	req := &CreatePersonRequest{Name: "  ", Gender: "male"}
	assert.Error(t, req.Validate(), "blank name must fail the notblank rule")

	req = &CreatePersonRequest{Name: "Ali", Gender: "male"}
	assert.NoError(t, req.Validate())
	assert.Equal(t, "Ali", req.Attrs().Name)
}

func TestCreatePersonRequestRelationCap(t *testing.T) {
	spouses := make([]string, MaxInitialRelations+1)
	for i := range spouses {
		spouses[i] = "id"
	}

	req := &CreatePersonRequest{Name: "Ali", Gender: "male", Spouses: spouses}
	err := req.Validate()
	assert.ErrorIs(t, err, ErrInvalidRelation)

	req.Spouses = spouses[:MaxInitialRelations]
	assert.NoError(t, req.Validate())
}

func TestRelationCategoryValid(t *testing.T) {
	for _, category := range AllRelationCategories() {
		assert.True(t, category.Valid(), "category %s", category)
	}
	assert.False(t, RelationCategory("cousins").Valid())
	assert.Len(t, AllRelationCategories(), 7)
}
