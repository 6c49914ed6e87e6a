/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package engine

import (
	"strings"
	"time"
)

// Profile identifies a patient and the demographics used for gating.
type Profile struct {
	PatientID string `json:"patient_id"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
}

// Observation is one recorded lab measurement.
type Observation struct {
	Parameter   string  `json:"parameter_name"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	ValidUntil  Date    `json:"valid_until"`
	CollectedOn Date    `json:"time"`
}

// ValidOn reports whether the observation is still within its validity
// window on day.
func (o Observation) ValidOn(day Date) bool {
	if o.ValidUntil.IsZero() {
		return false
	}

	return !o.ValidUntil.Before(day)
}

// Validate checks an observation before it is stored.
func (o Observation) Validate() error {
	if strings.TrimSpace(o.Parameter) == "" {
		return invalid("parameter_name", ErrMissingField)
	}

	if o.ValidUntil.IsZero() {
		return invalid("valid_until", ErrMissingField)
	}

	if o.CollectedOn.IsZero() {
		return invalid("time", ErrMissingField)
	}

	return nil
}

// Patient is a profile with its append-only observation history.
type Patient struct {
	Profile
	Observations []Observation `json:"lab_values"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Parameters returns the distinct parameter names in first-seen order.
func (p Patient) Parameters() []string {
	seen := make(map[string]bool)

	var names []string

	for _, o := range p.Observations {
		key := strings.ToLower(o.Parameter)
		if seen[key] {
			continue
		}

		seen[key] = true
		names = append(names, o.Parameter)
	}

	return names
}
