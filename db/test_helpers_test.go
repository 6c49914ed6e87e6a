// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/rulebase/engine"
)

func testContext() context.Context {
	return context.Background()
}

func testEngine() *engine.Engine {
	return engine.New(engine.WithClock(func() time.Time {
		return time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	}))
}

func observation(parameter string, value float64, validUntil, collected string) engine.Observation {
	return engine.Observation{
		Parameter:   parameter,
		Value:       value,
		Unit:        "mg/dL",
		ValidUntil:  engine.MustParseDate(validUntil),
		CollectedOn: engine.MustParseDate(collected),
	}
}

func must(t *testing.T) func(engine.Condition, error) engine.Condition {
	return func(c engine.Condition, err error) engine.Condition {
		t.Helper()

		if err != nil {
			t.Fatalf("failed to build condition: %v", err)
		}

		return c
	}
}

func diabetesRule(t *testing.T) engine.DiseaseRule {
	t.Helper()

	gate := engine.Gate{Parameter: "glucose", Unit: "mg/dL", AgeMin: 18, AgeMax: 120, Gender: engine.GenderAll}
	hba1c := engine.Gate{Parameter: "hba1c", Unit: "%", AgeMin: 18, AgeMax: 120, Gender: engine.GenderAll}

	return engine.DiseaseRule{
		Category: "Endocrine",
		Name:     "Type 2 diabetes mellitus",
		Code:     "E11",
		Entries: []engine.RuleEntry{
			{ID: 1, Conditions: []engine.Condition{
				must(t)(engine.NewComparison(gate, engine.Comparison{Operator: engine.OpGreaterOrEqual, Value: 126})),
			}},
			{ID: 2, Conditions: []engine.Condition{
				must(t)(engine.NewTimeDependent(hba1c, engine.TimeDependent{Operator: engine.OpGreaterOrEqual, Value: 6.5, MinDays: 90})),
			}},
		},
	}
}

func anaemiaRule(t *testing.T) engine.DiseaseRule {
	t.Helper()

	gate := engine.Gate{Parameter: "hemoglobin", Unit: "g/dL", AgeMin: 18, AgeMax: 120, Gender: "female"}

	return engine.DiseaseRule{
		Category: "Blood",
		Name:     "Anaemia",
		Code:     "D64.9",
		Entries: []engine.RuleEntry{
			{ID: 1, Conditions: []engine.Condition{
				must(t)(engine.NewRange(gate, engine.Range{Min: 0, Max: 11.9})),
			}},
		},
	}
}

func mustSaveRule(t *testing.T, d engine.DiseaseRule) uuid.UUID {
	t.Helper()

	id, err := SaveRule(testContext(), d)
	if err != nil {
		t.Fatalf("failed to save rule %s: %v", d.Code, err)
	}

	return id
}
