// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"errors"
	"math"
	"testing"
)

var testToday = MustParseDate("2024-06-15")

func gate(parameter string) Gate {
	return Gate{Parameter: parameter, Unit: "mg/dL", AgeMin: 18, AgeMax: 65, Gender: GenderAll}
}

func obs(parameter string, value float64, validUntil, collected string) Observation {
	o := Observation{Parameter: parameter, Value: value, Unit: "mg/dL"}
	if validUntil != "" {
		o.ValidUntil = MustParseDate(validUntil)
	}

	if collected != "" {
		o.CollectedOn = MustParseDate(collected)
	}

	return o
}

func input(age int, gender string, observations ...Observation) Input {
	return Input{Age: age, Gender: gender, Observations: observations, Today: testToday}
}

func mustCondition(t *testing.T) func(Condition, error) Condition {
	return func(c Condition, err error) Condition {
		t.Helper()

		if err != nil {
			t.Fatalf("failed to build condition: %v", err)
		}

		return c
	}
}

func mustHold(t *testing.T, c Condition, in Input) bool {
	t.Helper()

	ok, err := c.Holds(in)
	if err != nil {
		t.Fatalf("unexpected evaluation error: %v", err)
	}

	return ok
}

func TestGateRejectsAgeOutsideBounds(t *testing.T) {
	t.Parallel()

	valid := obs("glucose", 100, "2024-12-31", "2024-06-01")
	conditions := map[string]Condition{
		"range":          mustCondition(t)(NewRange(gate("glucose"), Range{Min: 0, Max: 1000})),
		"comparison":     mustCondition(t)(NewComparison(gate("glucose"), Comparison{Operator: OpGreater, Value: 0})),
		"time-dependent": mustCondition(t)(NewTimeDependent(gate("glucose"), TimeDependent{Operator: OpGreater, Value: 0})),
	}

	for name, c := range conditions {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			second := obs("glucose", 120, "2024-12-31", "2024-06-10")

			for _, age := range []int{0, 17, 66, 120} {
				if mustHold(t, c, input(age, "male", valid, second)) {
					t.Fatalf("expected age %d to be rejected", age)
				}
			}

			for _, age := range []int{18, 40, 65} {
				if !mustHold(t, c, input(age, "male", valid, second)) {
					t.Fatalf("expected age %d to be admitted", age)
				}
			}
		})
	}
}

func TestGateGender(t *testing.T) {
	t.Parallel()

	g := gate("hemoglobin")
	g.Gender = "female"
	c := mustCondition(t)(NewRange(g, Range{Min: 10, Max: 12}))
	o := obs("hemoglobin", 11, "2024-12-31", "2024-06-01")

	if !mustHold(t, c, input(30, "female", o)) {
		t.Fatalf("expected exact gender to match")
	}

	for _, gender := range []string{"male", "Female", "all", ""} {
		if mustHold(t, c, input(30, gender, o)) {
			t.Fatalf("expected gender %q to be rejected", gender)
		}
	}

	wildcard := mustCondition(t)(NewRange(gate("hemoglobin"), Range{Min: 10, Max: 12}))
	for _, gender := range []string{"male", "female", "other"} {
		if !mustHold(t, wildcard, input(30, gender, o)) {
			t.Fatalf("expected wildcard to admit %q", gender)
		}
	}
}

func TestRangeCondition(t *testing.T) {
	t.Parallel()

	c := mustCondition(t)(NewRange(gate("Glucose"), Range{Min: 70, Max: 99}))

	tests := []struct {
		name string
		obs  []Observation
		want bool
	}{
		{name: "at minimum", obs: []Observation{obs("glucose", 70, "2024-12-31", "")}, want: true},
		{name: "at maximum", obs: []Observation{obs("GLUCOSE", 99, "2024-12-31", "")}, want: true},
		{name: "below minimum", obs: []Observation{obs("glucose", 69.9, "2024-12-31", "")}, want: false},
		{name: "above maximum", obs: []Observation{obs("glucose", 99.1, "2024-12-31", "")}, want: false},
		{name: "valid until today", obs: []Observation{obs("glucose", 80, "2024-06-15", "")}, want: true},
		{name: "expired", obs: []Observation{obs("glucose", 80, "2024-06-14", "")}, want: false},
		{name: "no validity date", obs: []Observation{obs("glucose", 80, "", "")}, want: false},
		{name: "other parameter", obs: []Observation{obs("sodium", 80, "2024-12-31", "")}, want: false},
		{
			name: "one of many",
			obs: []Observation{
				obs("glucose", 150, "2024-12-31", ""),
				obs("glucose", 80, "2024-01-01", ""),
				obs("glucose", 85, "2024-12-31", ""),
			},
			want: true,
		},
		{name: "no observations", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := mustHold(t, c, input(30, "male", tt.obs...)); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestComparisonOperatorsAtThreshold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		op    Operator
		below bool
		at    bool
		above bool
	}{
		{op: OpGreater, below: false, at: false, above: true},
		{op: OpLess, below: true, at: false, above: false},
		{op: OpEqual, below: false, at: true, above: false},
		{op: OpGreaterOrEqual, below: false, at: true, above: true},
		{op: OpLessOrEqual, below: true, at: true, above: false},
		{op: Operator("between"), below: false, at: false, above: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			t.Parallel()

			c := mustCondition(t)(NewComparison(gate("ldl"), Comparison{Operator: tt.op, Value: 130}))

			cases := []struct {
				value float64
				want  bool
			}{
				{value: 129, want: tt.below},
				{value: 130, want: tt.at},
				{value: 131, want: tt.above},
			}

			for _, cs := range cases {
				o := obs("ldl", cs.value, "2024-12-31", "")
				if got := mustHold(t, c, input(40, "male", o)); got != cs.want {
					t.Fatalf("%s %v: expected %v, got %v", tt.op, cs.value, cs.want, got)
				}
			}
		})
	}
}

func TestComparisonIgnoresExpiredObservations(t *testing.T) {
	t.Parallel()

	c := mustCondition(t)(NewComparison(gate("ldl"), Comparison{Operator: OpGreater, Value: 130}))

	if mustHold(t, c, input(40, "male", obs("ldl", 200, "2024-06-14", ""))) {
		t.Fatalf("expected expired observation to be ignored")
	}
}

func TestTimeDependentCondition(t *testing.T) {
	t.Parallel()

	series := []Observation{
		obs("hba1c", 10, "2024-01-02", "2024-01-01"),
		obs("hba1c", 20, "2024-01-11", "2024-01-10"),
	}

	tests := []struct {
		name    string
		minDays int
		obs     []Observation
		want    bool
	}{
		{name: "gap satisfied", minDays: 5, obs: series, want: true},
		{name: "gap exactly met", minDays: 9, obs: series, want: true},
		{name: "gap too short", minDays: 10, obs: series, want: false},
		{name: "single observation", minDays: 0, obs: series[:1], want: false},
		{name: "no observations", minDays: 0, want: false},
		{
			name:    "unsorted input",
			minDays: 5,
			obs:     []Observation{series[1], series[0]},
			want:    true,
		},
		{
			name:    "one value fails operator",
			minDays: 5,
			obs: []Observation{
				obs("hba1c", 9, "2024-01-02", "2024-01-01"),
				obs("hba1c", 20, "2024-01-11", "2024-01-10"),
			},
			want: false,
		},
		{
			name:    "non adjacent pair qualifies",
			minDays: 30,
			obs: []Observation{
				obs("hba1c", 12, "", "2024-01-01"),
				obs("hba1c", 3, "", "2024-01-15"),
				obs("hba1c", 14, "", "2024-02-05"),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := mustCondition(t)(NewTimeDependent(gate("HbA1c"), TimeDependent{
				Operator: OpGreaterOrEqual,
				Value:    10,
				MinDays:  tt.minDays,
			}))

			if got := mustHold(t, c, input(50, "female", tt.obs...)); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTimeDependentIgnoresValidityUnlessStrict(t *testing.T) {
	t.Parallel()

	c := mustCondition(t)(NewTimeDependent(gate("hba1c"), TimeDependent{Operator: OpGreater, Value: 6.5, MinDays: 90}))
	expired := []Observation{
		obs("hba1c", 7.0, "2023-02-01", "2023-01-01"),
		obs("hba1c", 7.2, "2023-06-01", "2023-05-01"),
	}

	lenient := input(50, "male", expired...)
	if !mustHold(t, c, lenient) {
		t.Fatalf("expected lenient evaluation to use expired observations")
	}

	strict := lenient
	strict.StrictValidity = true

	if mustHold(t, c, strict) {
		t.Fatalf("expected strict evaluation to drop expired observations")
	}
}

func TestTimeDependentMissingCollectionDate(t *testing.T) {
	t.Parallel()

	c := mustCondition(t)(NewTimeDependent(gate("hba1c"), TimeDependent{Operator: OpGreater, Value: 6.5, MinDays: 1}))
	in := input(50, "male",
		obs("hba1c", 7.0, "2024-12-31", "2024-01-01"),
		obs("hba1c", 7.5, "2024-12-31", ""),
		obs("hba1c", 8.0, "2024-12-31", "2024-03-01"),
	)

	ok, err := c.Holds(in)
	if ok {
		t.Fatalf("expected condition not met")
	}

	if !errors.Is(err, ErrMissingCollectionDate) {
		t.Fatalf("expected ErrMissingCollectionDate, got %v", err)
	}
}

func TestTimeDependentDoesNotReorderInput(t *testing.T) {
	t.Parallel()

	c := mustCondition(t)(NewTimeDependent(gate("hba1c"), TimeDependent{Operator: OpGreater, Value: 0, MinDays: 1}))
	observations := []Observation{
		obs("hba1c", 2, "", "2024-02-01"),
		obs("hba1c", 1, "", "2024-01-01"),
	}

	mustHold(t, c, input(50, "male", observations...))

	if observations[0].Value != 2 || observations[1].Value != 1 {
		t.Fatalf("input observations were reordered: %#v", observations)
	}
}

func TestConditionValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func() (Condition, error)
		want  error
	}{
		{
			name:  "missing parameter",
			build: func() (Condition, error) { return NewRange(Gate{AgeMax: 10, Gender: GenderAll}, Range{Max: 1}) },
			want:  ErrMissingField,
		},
		{
			name: "missing gender",
			build: func() (Condition, error) {
				return NewRange(Gate{Parameter: "x", AgeMax: 10}, Range{Max: 1})
			},
			want: ErrMissingField,
		},
		{
			name: "inverted ages",
			build: func() (Condition, error) {
				return NewRange(Gate{Parameter: "x", AgeMin: 20, AgeMax: 10, Gender: GenderAll}, Range{Max: 1})
			},
			want: ErrInvalidBounds,
		},
		{
			name:  "inverted range",
			build: func() (Condition, error) { return NewRange(gate("x"), Range{Min: 5, Max: 1}) },
			want:  ErrInvalidBounds,
		},
		{
			name: "negative days",
			build: func() (Condition, error) {
				return NewTimeDependent(gate("x"), TimeDependent{Operator: OpLess, MinDays: -1})
			},
			want: ErrInvalidNumber,
		},
		{
			name:  "NaN range bound",
			build: func() (Condition, error) { return NewRange(gate("x"), Range{Min: math.NaN(), Max: 1}) },
			want:  ErrInvalidNumber,
		},
		{
			name:  "infinite range bound",
			build: func() (Condition, error) { return NewRange(gate("x"), Range{Min: 0, Max: math.Inf(1)}) },
			want:  ErrInvalidNumber,
		},
		{
			name: "NaN comparison value",
			build: func() (Condition, error) {
				return NewComparison(gate("x"), Comparison{Operator: OpGreater, Value: math.NaN()})
			},
			want: ErrInvalidNumber,
		},
		{
			name: "infinite time-dependent value",
			build: func() (Condition, error) {
				return NewTimeDependent(gate("x"), TimeDependent{Operator: OpLess, Value: math.Inf(-1), MinDays: 30})
			},
			want: ErrInvalidNumber,
		},
		{
			name: "payload mismatch",
			build: func() (Condition, error) {
				c := Condition{Kind: KindComparison, Gate: gate("x"), Range: &Range{Max: 1}}
				return c, c.Validate()
			},
			want: ErrVariantMismatch,
		},
		{
			name: "two payloads",
			build: func() (Condition, error) {
				c := Condition{Kind: KindRange, Gate: gate("x"), Range: &Range{Max: 1}, Comparison: &Comparison{}}
				return c, c.Validate()
			},
			want: ErrVariantMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.build()
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
		})
	}
}
