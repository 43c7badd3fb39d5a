package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrConflict,
		ErrValidation,
		ErrForbidden,
		ErrUnavailable,
		ErrLoadFailure,
		ErrEmptyCollection,
		ErrPersistence,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.NotErrorIs(t, a, b, "sentinels should be distinct: %v vs %v", a, b)
			}
		}
	}
}

func TestTypedErrors_Messages(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	tests := []struct {
		name     string
		err      error
		sentinel error
		expected string
	}{
		{"not found with id", NewNotFoundError("quote", "q-1"), ErrNotFound, `quote with id "q-1" not found`},
		{"not found without id", NewNotFoundError("session", ""), ErrNotFound, "session not found"},
		{"conflict", NewConflictError("session", "load already in flight"), ErrConflict, "session conflict: load already in flight"},
		{"conflict with details", NewConflictError("quote", "duplicate id", "q-1"), ErrConflict, "quote conflict: duplicate id (q-1)"},
		{"validation with field", NewValidationError("quotes", "must not be empty"), ErrValidation, "validation failed for quotes: must not be empty"},
		{"validation without field", NewValidationError("", "bad input"), ErrValidation, "validation failed: bad input"},
		{"forbidden", NewForbiddenError("next", "session is not ready"), ErrForbidden, `operation "next" forbidden: session is not ready`},
		{"forbidden without reason", NewForbiddenError("like", ""), ErrForbidden, `operation "like" forbidden`},
		{"unavailable", NewUnavailableError("quote-api", "circuit open"), ErrUnavailable, `service "quote-api" unavailable: circuit open`},
		{"load failure full", NewLoadFailureError("remote", "fetch failed", cause), ErrLoadFailure, `load from "remote" failed: fetch failed: dial tcp: refused`},
		{"load failure bare", NewLoadFailureError("", "", nil), ErrLoadFailure, "load failure"},
		{"persistence with cause", NewPersistenceError("set", "liked/anonymous", cause), ErrPersistence, `persistence set "liked/anonymous": dial tcp: refused`},
		{"persistence without cause", NewPersistenceError("get", "quotes/u1", nil), ErrPersistence, `persistence get "quotes/u1" failed`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			require.ErrorIs(t, tt.err, tt.sentinel)
		})
	}
}

func TestLoadFailureError_UnwrapsCause(t *testing.T) {
	cause := NewUnavailableError("quote-api", "timeout")
	err := fmt.Errorf("chain: %w", NewLoadFailureError("remote", "", cause))

	assert.True(t, IsLoadFailure(err))
	assert.True(t, IsUnavailable(err))

	var lf *LoadFailureError
	require.ErrorAs(t, err, &lf)
	assert.Equal(t, "remote", lf.Source)
}

func TestPersistenceError_UnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewPersistenceError("set", "quotes/u1", cause)

	assert.True(t, IsPersistence(err))
	require.ErrorIs(t, err, cause)

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "quotes/u1", pe.Key)
}

func TestSessionCommandErrors(t *testing.T) {
	assert.True(t, IsForbidden(ErrNotReady))
	assert.True(t, IsConflict(ErrLoadInFlight))
	assert.True(t, IsConflict(ErrStaleLoad))
	assert.NotErrorIs(t, ErrLoadInFlight, ErrStaleLoad)
}

func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		isFunc   func(error) bool
		expected bool
	}{
		{"IsNotFound wrapped", fmt.Errorf("wrapped: %w", ErrNotFound), IsNotFound, true},
		{"IsNotFound other", ErrConflict, IsNotFound, false},
		{"IsConflict typed", NewConflictError("session", "x"), IsConflict, true},
		{"IsValidation typed", NewValidationError("id", "empty"), IsValidation, true},
		{"IsForbidden nil", nil, IsForbidden, false},
		{"IsUnavailable typed", NewUnavailableError("store", ""), IsUnavailable, true},
		{"IsLoadFailure sentinel", ErrLoadFailure, IsLoadFailure, true},
		{"IsLoadFailure empty collection", ErrEmptyCollection, IsLoadFailure, false},
		{"IsEmptyCollection wrapped", fmt.Errorf("source: %w", ErrEmptyCollection), IsEmptyCollection, true},
		{"IsPersistence typed", NewPersistenceError("set", "k", nil), IsPersistence, true},
		{"IsPersistence nil", nil, IsPersistence, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.isFunc(tt.err))
		})
	}
}
