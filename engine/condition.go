/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Kind discriminates the condition variants.
type Kind string

// Kind values are the stored `type` discriminants.
const (
	KindRange         Kind = "range"
	KindComparison    Kind = "comparison"
	KindTimeDependent Kind = "time-dependent"
)

// GenderAll matches any patient gender.
const GenderAll = "all"

// ParseKind normalises a stored discriminant. The legacy "timedependent"
// spelling maps to KindTimeDependent.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "range":
		return KindRange, nil
	case "comparison":
		return KindComparison, nil
	case "time-dependent", "timedependent":
		return KindTimeDependent, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownConditionType, s)
}

// Gate holds the fields shared by every condition kind.
type Gate struct {
	Parameter string
	Unit      string
	AgeMin    int
	AgeMax    int
	Gender    string
}

// Admits reports whether the patient passes the age and gender gate.
func (g Gate) Admits(age int, gender string) bool {
	if age < g.AgeMin || age > g.AgeMax {
		return false
	}

	return g.Gender == GenderAll || g.Gender == gender
}

func (g Gate) validate() error {
	if strings.TrimSpace(g.Parameter) == "" {
		return invalid("parameter", ErrMissingField)
	}

	if g.Gender == "" {
		return invalid("gender", ErrMissingField)
	}

	if g.AgeMin > g.AgeMax {
		return invalid("age_min", ErrInvalidBounds)
	}

	return nil
}

// Range holds when a valid observation lies in [Min, Max].
type Range struct {
	Min float64
	Max float64
}

// Comparison holds when a valid observation satisfies Operator against Value.
type Comparison struct {
	Operator Operator
	Value    float64
}

// TimeDependent holds when two observations at least MinDays apart both
// satisfy Operator against Value.
type TimeDependent struct {
	Operator Operator
	Value    float64
	MinDays  int
}

// Condition is one testable predicate over a lab parameter. Exactly one of
// the variant payloads is set, matching Kind.
type Condition struct {
	Kind Kind
	Gate

	Range         *Range
	Comparison    *Comparison
	TimeDependent *TimeDependent
}

// NewRange builds a validated range condition.
func NewRange(g Gate, r Range) (Condition, error) {
	c := Condition{Kind: KindRange, Gate: g, Range: &r}
	return c, c.Validate()
}

// NewComparison builds a validated comparison condition.
func NewComparison(g Gate, cmp Comparison) (Condition, error) {
	c := Condition{Kind: KindComparison, Gate: g, Comparison: &cmp}
	return c, c.Validate()
}

// NewTimeDependent builds a validated time-dependent condition.
func NewTimeDependent(g Gate, td TimeDependent) (Condition, error) {
	c := Condition{Kind: KindTimeDependent, Gate: g, TimeDependent: &td}
	return c, c.Validate()
}

// Validate checks the shared fields and that the payload matches Kind.
func (c Condition) Validate() error {
	if err := c.Gate.validate(); err != nil {
		return err
	}

	set := 0
	for _, present := range []bool{c.Range != nil, c.Comparison != nil, c.TimeDependent != nil} {
		if present {
			set++
		}
	}

	if set != 1 {
		return invalid("type", ErrVariantMismatch)
	}

	switch c.Kind {
	case KindRange:
		if c.Range == nil {
			return invalid("type", ErrVariantMismatch)
		}

		if !finite(c.Range.Min) {
			return invalid("min_value", ErrInvalidNumber)
		}

		if !finite(c.Range.Max) {
			return invalid("max_value", ErrInvalidNumber)
		}

		if c.Range.Min > c.Range.Max {
			return invalid("min_value", ErrInvalidBounds)
		}
	case KindComparison:
		if c.Comparison == nil {
			return invalid("type", ErrVariantMismatch)
		}

		if !finite(c.Comparison.Value) {
			return invalid("comparison_value", ErrInvalidNumber)
		}
	case KindTimeDependent:
		if c.TimeDependent == nil {
			return invalid("type", ErrVariantMismatch)
		}

		if !finite(c.TimeDependent.Value) {
			return invalid("comparison_time_value", ErrInvalidNumber)
		}

		if c.TimeDependent.MinDays < 0 {
			return invalid("time", ErrInvalidNumber)
		}
	default:
		return invalid("type", fmt.Errorf("%w: %q", ErrUnknownConditionType, c.Kind))
	}

	return nil
}

// finite rejects NaN and infinities, which cannot be stored as JSON.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Input is the patient snapshot a condition is tested against.
type Input struct {
	Age          int
	Gender       string
	Observations []Observation
	Today        Date

	// StrictValidity applies the valid_until window to time-dependent
	// conditions as well.
	StrictValidity bool
}

// Holds evaluates the condition. The error is non-nil only when a
// time-dependent condition meets an observation without a collection date;
// the result is then false.
func (c Condition) Holds(in Input) (bool, error) {
	if !c.Admits(in.Age, in.Gender) {
		return false, nil
	}

	switch c.Kind {
	case KindRange:
		for _, o := range in.Observations {
			if c.measures(o) && o.ValidOn(in.Today) &&
				c.Range.Min <= o.Value && o.Value <= c.Range.Max {
				return true, nil
			}
		}

		return false, nil
	case KindComparison:
		for _, o := range in.Observations {
			if c.measures(o) && o.ValidOn(in.Today) && c.Comparison.Operator.Compare(o.Value, c.Comparison.Value) {
				return true, nil
			}
		}

		return false, nil
	case KindTimeDependent:
		return c.holdsOverTime(in)
	}

	return false, nil
}

func (c Condition) measures(o Observation) bool {
	return strings.EqualFold(o.Parameter, c.Parameter)
}

func (c Condition) holdsOverTime(in Input) (bool, error) {
	td := c.TimeDependent

	series := make([]Observation, 0, len(in.Observations))
	for _, o := range in.Observations {
		if !c.measures(o) {
			continue
		}

		if in.StrictValidity && !o.ValidOn(in.Today) {
			continue
		}

		if o.CollectedOn.IsZero() {
			return false, fmt.Errorf("%w: parameter %s", ErrMissingCollectionDate, o.Parameter)
		}

		series = append(series, o)
	}

	if len(series) < 2 {
		return false, nil
	}

	sort.SliceStable(series, func(i, j int) bool {
		return series[i].CollectedOn.Before(series[j].CollectedOn)
	})

	for i := 0; i < len(series)-1; i++ {
		for j := i + 1; j < len(series); j++ {
			if series[j].CollectedOn.DaysSince(series[i].CollectedOn) < td.MinDays {
				continue
			}

			if td.Operator.Compare(series[i].Value, td.Value) && td.Operator.Compare(series[j].Value, td.Value) {
				return true, nil
			}
		}
	}

	return false, nil
}

// Threshold returns the numeric bound(s) of the condition for display.
func (c Condition) Threshold() string {
	switch c.Kind {
	case KindRange:
		return fmt.Sprintf("%g–%g", c.Range.Min, c.Range.Max)
	case KindComparison:
		return fmt.Sprintf("%s %g", c.Comparison.Operator.Symbol(), c.Comparison.Value)
	case KindTimeDependent:
		return fmt.Sprintf("%s %g over %dd", c.TimeDependent.Operator.Symbol(), c.TimeDependent.Value, c.TimeDependent.MinDays)
	}

	return ""
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %s (age %d-%d, gender %s)", c.Kind, c.Parameter, c.Threshold(), c.AgeMin, c.AgeMax, c.Gender)
}
