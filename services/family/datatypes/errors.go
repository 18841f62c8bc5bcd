// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Error taxonomy for the family graph core.
//
// Every store and traversal operation returns one of these, wrapped with
// context via %w. Ambiguous is not a failure from the caller's point of
// view: it is a normal control-flow outcome carrying the candidate list
// the caller needs to re-submit with a disambiguator. StoreUnavailable is
// the only retryable class.

package datatypes

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a referenced person id or name does not exist.
	ErrNotFound = errors.New("person not found")

	// ErrInvalidRelation means the requested relation is contradictory:
	// a self-reference, an unknown relation kind, or two fathers.
	ErrInvalidRelation = errors.New("invalid relation")

	// ErrConstraintViolation means a mirrored update could not be applied
	// consistently and the whole operation was rolled back.
	ErrConstraintViolation = errors.New("relationship constraint violated")

	// ErrStoreUnavailable means the backing store timed out or is down.
	// Callers may retry.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNoMotherCandidate means mother inference was requested but the
	// resolved father has no spouses to infer from. Distinct from
	// ErrNotFound (the father exists) and from Ambiguous (there is
	// nothing to choose between).
	ErrNoMotherCandidate = errors.New("no mother candidate")

	// ErrInvalidTransition means a moderation decision was applied to a
	// record that is not pending.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// AmbiguousError reports that a name-based lookup matched more than one
// person and the supplied disambiguators (date of birth, explicit id)
// did not narrow it to exactly one. Candidates carries what the caller
// needs to present a choice and re-submit.
type AmbiguousError struct {
	// Subject names what was being resolved: "parent", "mother".
	Subject string

	Candidates []Summary
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous %s: %d candidates", e.Subject, len(e.Candidates))
}

// AsAmbiguous unwraps err into an *AmbiguousError if it is one.
func AsAmbiguous(err error) (*AmbiguousError, bool) {
	var ambiguous *AmbiguousError
	if errors.As(err, &ambiguous) {
		return ambiguous, true
	}
	return nil, false
}
