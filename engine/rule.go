/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package engine

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// RuleEntry is one sufficient diagnostic pattern: all conditions must hold.
type RuleEntry struct {
	ID         int
	Conditions []Condition
}

// Matches reports whether every condition holds, stopping at the first that
// does not. A condition that errors counts as not met. An entry with no
// conditions matches vacuously.
func (e RuleEntry) Matches(in Input, logger *log.Logger) bool {
	for i, c := range e.Conditions {
		ok, err := c.Holds(in)
		if err != nil {
			if logger != nil {
				logger.Warn("Condition could not be evaluated",
					"rule_id", e.ID, "condition", i, "parameter", c.Parameter, "kind", c.Kind, "error", err)
			}

			return false
		}

		if logger != nil {
			logger.Debug("Condition evaluated",
				"rule_id", e.ID, "condition", i, "parameter", c.Parameter, "kind", c.Kind, "result", ok)
		}

		if !ok {
			return false
		}
	}

	return true
}

// DiseaseRule is a named disease holding an ordered disjunction of entries.
type DiseaseRule struct {
	ID       uuid.UUID
	Category string
	Name     string
	Code     string
	Entries  []RuleEntry
}

// FirstMatch returns the first entry, in stored order, that matches.
func (d DiseaseRule) FirstMatch(in Input, logger *log.Logger) (RuleEntry, bool) {
	if logger != nil {
		logger = logger.With("disease_code", d.Code)
	}

	for _, e := range d.Entries {
		if e.Matches(in, logger) {
			return e, true
		}
	}

	return RuleEntry{}, false
}

// Validate checks the disease identity and every condition.
func (d DiseaseRule) Validate() error {
	if d.Code == "" {
		return invalid("disease_code", ErrMissingField)
	}

	if d.Name == "" {
		return invalid("disease_name", ErrMissingField)
	}

	seen := make(map[int]bool, len(d.Entries))

	for _, e := range d.Entries {
		if seen[e.ID] {
			return invalid("rule_id", fmt.Errorf("%w: %d", ErrDuplicateRuleID, e.ID))
		}

		seen[e.ID] = true

		for _, c := range e.Conditions {
			if err := c.Validate(); err != nil {
				return err
			}
		}
	}

	return nil
}

// RuleSet is the collection of disease rules evaluated against a patient,
// plus stored rules that failed to load.
type RuleSet struct {
	Rules    []DiseaseRule
	Rejected []*RuleLoadError
}
