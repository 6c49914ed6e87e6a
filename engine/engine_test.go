// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"io"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2024, time.June, 15, 23, 30, 0, 0, time.UTC)
	}
}

func testDiseases(t *testing.T) []DiseaseRule {
	t.Helper()

	highGlucose := mustCondition(t)(NewComparison(gate("glucose"), Comparison{Operator: OpGreaterOrEqual, Value: 126}))
	highHbA1c := mustCondition(t)(NewComparison(gate("hba1c"), Comparison{Operator: OpGreaterOrEqual, Value: 6.5}))
	persistentHbA1c := mustCondition(t)(NewTimeDependent(gate("hba1c"), TimeDependent{Operator: OpGreaterOrEqual, Value: 6.5, MinDays: 90}))
	lowHemoglobin := mustCondition(t)(NewRange(Gate{Parameter: "hemoglobin", AgeMin: 18, AgeMax: 120, Gender: "female"}, Range{Min: 0, Max: 11.9}))

	return []DiseaseRule{
		{
			Category: "Endocrine",
			Name:     "Type 2 diabetes mellitus",
			Code:     "E11",
			Entries: []RuleEntry{
				{ID: 1, Conditions: []Condition{highGlucose, highHbA1c}},
				{ID: 2, Conditions: []Condition{persistentHbA1c}},
			},
		},
		{
			Category: "Blood",
			Name:     "Anaemia",
			Code:     "D64.9",
			Entries: []RuleEntry{
				{ID: 1, Conditions: []Condition{lowHemoglobin}},
			},
		},
	}
}

func TestEvaluateReportsFirstSatisfiedEntry(t *testing.T) {
	t.Parallel()

	e := New(WithClock(fixedClock()))
	profile := Profile{PatientID: "p-1", Age: 55, Gender: "male"}

	// Only the second entry holds: glucose is normal, HbA1c stays high.
	history := []Observation{
		obs("glucose", 95, "2024-12-31", "2024-06-01"),
		obs("hba1c", 7.1, "2024-03-01", "2024-01-05"),
		obs("hba1c", 6.9, "2024-12-31", "2024-06-01"),
	}

	results := e.Evaluate(profile, history, testDiseases(t))
	if len(results) != 1 {
		t.Fatalf("expected 1 match, got %d: %#v", len(results), results)
	}

	got := results[0]
	if got.DiseaseCode != "E11" || got.DiseaseName != "Type 2 diabetes mellitus" || got.Category != "Endocrine" {
		t.Fatalf("unexpected match: %#v", got)
	}

	if got.MatchingRule.RuleID != 2 {
		t.Fatalf("expected rule_id 2, got %d", got.MatchingRule.RuleID)
	}

	if len(got.MatchingRule.Conditions) != 1 || got.MatchingRule.Conditions[0].Type != string(KindTimeDependent) {
		t.Fatalf("unexpected matching rule conditions: %#v", got.MatchingRule.Conditions)
	}
}

func TestEvaluateShortCircuitsOnFirstEntry(t *testing.T) {
	t.Parallel()

	e := New(WithClock(fixedClock()))
	profile := Profile{PatientID: "p-2", Age: 40, Gender: "female"}
	history := []Observation{
		obs("glucose", 140, "2024-12-31", "2024-06-01"),
		obs("hba1c", 7.0, "2024-12-31", "2024-01-01"),
		obs("hba1c", 7.4, "2024-12-31", "2024-06-01"),
		obs("hemoglobin", 10.5, "2024-12-31", "2024-06-01"),
	}

	results := e.Evaluate(profile, history, testDiseases(t))
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(results))
	}

	if results[0].DiseaseCode != "E11" || results[0].MatchingRule.RuleID != 1 {
		t.Fatalf("expected E11 via rule 1 first, got %#v", results[0])
	}

	if results[1].DiseaseCode != "D64.9" {
		t.Fatalf("expected rule set order to be preserved, got %#v", results[1])
	}
}

func TestEvaluateNoMatchesReturnsEmptyList(t *testing.T) {
	t.Parallel()

	e := New(WithClock(fixedClock()))
	results := e.Evaluate(Profile{PatientID: "p-3", Age: 30, Gender: "male"}, nil, testDiseases(t))

	if results == nil || len(results) != 0 {
		t.Fatalf("expected empty non-nil result list, got %#v", results)
	}
}

func TestEvaluateUsesFullHistory(t *testing.T) {
	t.Parallel()

	e := New(WithClock(fixedClock()))
	profile := Profile{PatientID: "p-4", Age: 60, Gender: "male"}
	prior := []Observation{obs("hba1c", 6.8, "2024-01-31", "2024-01-01")}
	submitted := []Observation{obs("hba1c", 7.2, "2024-12-31", "2024-06-01")}

	if got := e.Evaluate(profile, submitted, testDiseases(t)); len(got) != 0 {
		t.Fatalf("expected no match from the new batch alone, got %#v", got)
	}

	got := e.EvaluateSubmission(profile, prior, submitted, testDiseases(t))
	if len(got) != 1 || got[0].DiseaseCode != "E11" || got[0].MatchingRule.RuleID != 2 {
		t.Fatalf("expected E11 via rule 2 using prior history, got %#v", got)
	}
}

func TestEvaluateIsolatesMalformedCondition(t *testing.T) {
	t.Parallel()

	e := New(WithClock(fixedClock()), WithLogger(log.New(io.Discard)))
	profile := Profile{PatientID: "p-5", Age: 40, Gender: "female"}
	history := []Observation{
		{Parameter: "hba1c", Value: 7, ValidUntil: MustParseDate("2024-12-31")},
		obs("hba1c", 7.5, "2024-12-31", "2024-06-01"),
		obs("hemoglobin", 10.5, "2024-12-31", "2024-06-01"),
	}

	results := e.Evaluate(profile, history, testDiseases(t))
	if len(results) != 1 || results[0].DiseaseCode != "D64.9" {
		t.Fatalf("expected anaemia to still match, got %#v", results)
	}
}

func TestEmptyRuleEntryMatchesVacuously(t *testing.T) {
	t.Parallel()

	entry := RuleEntry{ID: 7}
	if !entry.Matches(input(30, "male"), nil) {
		t.Fatalf("expected empty entry to match")
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	t.Parallel()

	e := New(WithClock(fixedClock()))
	profile := Profile{PatientID: "p-6", Age: 40, Gender: "female"}
	history := []Observation{
		obs("glucose", 140, "2024-12-31", "2024-06-01"),
		obs("hba1c", 7.0, "2024-12-31", "2024-01-01"),
		obs("hemoglobin", 10.5, "2024-12-31", "2024-06-01"),
	}
	rules := testDiseases(t)

	first := e.Evaluate(profile, history, rules)
	second := e.Evaluate(profile, history, rules)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("non-deterministic results:\n%#v\n%#v", first, second)
	}
}

func TestEvaluateConcurrentUse(t *testing.T) {
	t.Parallel()

	e := New(WithClock(fixedClock()))
	rules := testDiseases(t)
	history := []Observation{obs("hemoglobin", 10.5, "2024-12-31", "2024-06-01")}

	var wg sync.WaitGroup

	errs := make(chan string, 16)

	for i := 0; i < 16; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			got := e.Evaluate(Profile{PatientID: "p-7", Age: 33, Gender: "female"}, history, rules)
			if len(got) != 1 || got[0].DiseaseCode != "D64.9" {
				errs <- "unexpected result"
			}
		}()
	}

	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Fatal(msg)
	}
}

func TestEngineClockTruncatesToDay(t *testing.T) {
	t.Parallel()

	// Clock is late on 2024-06-15; an observation valid until that day is
	// still usable.
	e := New(WithClock(fixedClock()))
	history := []Observation{obs("hemoglobin", 10.5, "2024-06-15", "2024-06-01")}

	got := e.Evaluate(Profile{PatientID: "p-8", Age: 33, Gender: "female"}, history, testDiseases(t))
	if len(got) != 1 {
		t.Fatalf("expected observation valid through today to count, got %#v", got)
	}
}
