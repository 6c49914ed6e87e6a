/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package engine

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownConditionType  = errors.New("unknown condition type")
	ErrMissingField          = errors.New("missing required field")
	ErrInvalidDate           = errors.New("invalid date")
	ErrInvalidBounds         = errors.New("lower bound exceeds upper bound")
	ErrInvalidNumber         = errors.New("invalid number")
	ErrMissingCollectionDate = errors.New("observation has no collection date")
	ErrVariantMismatch       = errors.New("condition payload does not match its type")
	ErrDuplicateRuleID       = errors.New("rule id repeated within disease")
)

// ValidationError rejects a single rule, condition, or observation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}

	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// RuleLoadError reports a stored disease rule that could not be constructed.
type RuleLoadError struct {
	ID   string
	Code string
	Err  error
}

func (e *RuleLoadError) Error() string {
	return fmt.Sprintf("disease rule %s (%s): %v", e.Code, e.ID, e.Err)
}

func (e *RuleLoadError) Unwrap() error {
	return e.Err
}
