/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"fmt"

	"github.com/humaidq/rulebase/engine"
)

// SubmitInput is a lab submission to store and evaluate.
type SubmitInput = AppendInput

// Submission is a patient's stored history and the diseases it matches.
type Submission struct {
	Patient  *engine.Patient
	Results  []engine.MatchResult
	Rejected []*engine.RuleLoadError
}

// SubmitLabValues appends the submitted lab values and evaluates the full
// stored history against the current rule set.
func SubmitLabValues(ctx context.Context, e *engine.Engine, in SubmitInput) (*Submission, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	rules, err := LoadRuleSet(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule set: %w", err)
	}

	patient, err := AppendObservations(ctx, in)
	if err != nil {
		return nil, err
	}

	return evaluate(e, patient, rules), nil
}

// EvaluatePatient re-evaluates a stored patient without adding lab values.
func EvaluatePatient(ctx context.Context, e *engine.Engine, patientID string) (*Submission, error) {
	patient, err := GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	rules, err := LoadRuleSet(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule set: %w", err)
	}

	return evaluate(e, patient, rules), nil
}

func evaluate(e *engine.Engine, patient *engine.Patient, rules engine.RuleSet) *Submission {
	results := e.Evaluate(patient.Profile, patient.Observations, rules.Rules)

	logger.Info("Evaluated patient",
		"patient_id", patient.PatientID,
		"observations", len(patient.Observations),
		"rules", len(rules.Rules),
		"matches", len(results),
	)

	return &Submission{Patient: patient, Results: results, Rejected: rules.Rejected}
}
