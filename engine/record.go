/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ConditionRecord is the persisted shape of a condition.
type ConditionRecord struct {
	Type      string `json:"type"`
	Parameter string `json:"parameter"`
	Unit      string `json:"unit"`
	AgeMin    *int   `json:"age_min"`
	AgeMax    *int   `json:"age_max"`
	Gender    string `json:"gender"`

	MinValue *float64 `json:"min_value,omitempty"`
	MaxValue *float64 `json:"max_value,omitempty"`

	Operator            string   `json:"operator,omitempty"`
	ComparisonValue     *float64 `json:"comparison_value,omitempty"`
	ComparisonTimeValue *float64 `json:"comparison_time_value,omitempty"`
	Time                *Days    `json:"time,omitempty"`
}

// RuleEntryRecord is the persisted shape of a rule entry.
type RuleEntryRecord struct {
	RuleID     int               `json:"rule_id"`
	Conditions []ConditionRecord `json:"conditions"`
}

// DiseaseRecord is the persisted shape of a disease rule.
type DiseaseRecord struct {
	ID          string            `json:"id,omitempty"`
	Category    string            `json:"category"`
	DiseaseName string            `json:"disease_name"`
	DiseaseCode string            `json:"disease_code"`
	Rules       []RuleEntryRecord `json:"rules"`
}

// maxDays bounds Days well inside int range; no clinical window spans it.
const maxDays = 1_000_000

// Days is a whole number of days. It decodes from a JSON number or a
// numeric string, which is how authoring forms submitted it.
type Days int

func (d *Days) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}

		raw = []byte(strings.TrimSpace(s))
	}

	n, err := strconv.Atoi(string(raw))
	if err != nil {
		f, ferr := strconv.ParseFloat(string(raw), 64)
		if ferr != nil || f != math.Trunc(f) || math.Abs(f) > maxDays {
			return fmt.Errorf("%w: time %s", ErrInvalidNumber, string(b))
		}

		n = int(f)
	}

	if n > maxDays || n < -maxDays {
		return fmt.Errorf("%w: time %s", ErrInvalidNumber, string(b))
	}

	*d = Days(n)

	return nil
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func daysPtr(v int) *Days {
	d := Days(v)
	return &d
}

// Record returns the persisted shape of c.
func (c Condition) Record() ConditionRecord {
	r := ConditionRecord{
		Type:      string(c.Kind),
		Parameter: c.Parameter,
		Unit:      c.Unit,
		AgeMin:    intPtr(c.AgeMin),
		AgeMax:    intPtr(c.AgeMax),
		Gender:    c.Gender,
	}

	switch c.Kind {
	case KindRange:
		r.MinValue = floatPtr(c.Range.Min)
		r.MaxValue = floatPtr(c.Range.Max)
	case KindComparison:
		r.Operator = string(c.Comparison.Operator)
		r.ComparisonValue = floatPtr(c.Comparison.Value)
	case KindTimeDependent:
		r.Operator = string(c.TimeDependent.Operator)
		r.ComparisonTimeValue = floatPtr(c.TimeDependent.Value)
		r.Time = daysPtr(c.TimeDependent.MinDays)
	}

	return r
}

// ConditionFromRecord constructs a condition, rejecting unknown types and
// missing variant fields.
func ConditionFromRecord(r ConditionRecord) (Condition, error) {
	kind, err := ParseKind(r.Type)
	if err != nil {
		return Condition{}, invalid("type", err)
	}

	if r.AgeMin == nil {
		return Condition{}, invalid("age_min", ErrMissingField)
	}

	if r.AgeMax == nil {
		return Condition{}, invalid("age_max", ErrMissingField)
	}

	g := Gate{
		Parameter: strings.TrimSpace(r.Parameter),
		Unit:      r.Unit,
		AgeMin:    *r.AgeMin,
		AgeMax:    *r.AgeMax,
		Gender:    r.Gender,
	}

	switch kind {
	case KindRange:
		if r.MinValue == nil {
			return Condition{}, invalid("min_value", ErrMissingField)
		}

		if r.MaxValue == nil {
			return Condition{}, invalid("max_value", ErrMissingField)
		}

		return NewRange(g, Range{Min: *r.MinValue, Max: *r.MaxValue})
	case KindComparison:
		if r.Operator == "" {
			return Condition{}, invalid("operator", ErrMissingField)
		}

		if r.ComparisonValue == nil {
			return Condition{}, invalid("comparison_value", ErrMissingField)
		}

		return NewComparison(g, Comparison{Operator: ParseOperator(r.Operator), Value: *r.ComparisonValue})
	case KindTimeDependent:
		if r.Operator == "" {
			return Condition{}, invalid("operator", ErrMissingField)
		}

		if r.ComparisonTimeValue == nil {
			return Condition{}, invalid("comparison_time_value", ErrMissingField)
		}

		if r.Time == nil {
			return Condition{}, invalid("time", ErrMissingField)
		}

		return NewTimeDependent(g, TimeDependent{
			Operator: ParseOperator(r.Operator),
			Value:    *r.ComparisonTimeValue,
			MinDays:  int(*r.Time),
		})
	}

	return Condition{}, invalid("type", fmt.Errorf("%w: %q", ErrUnknownConditionType, r.Type))
}

// Record returns the persisted shape of e.
func (e RuleEntry) Record() RuleEntryRecord {
	conds := make([]ConditionRecord, 0, len(e.Conditions))
	for _, c := range e.Conditions {
		conds = append(conds, c.Record())
	}

	return RuleEntryRecord{RuleID: e.ID, Conditions: conds}
}

// RuleEntryFromRecord constructs an entry, failing on the first bad condition.
func RuleEntryFromRecord(r RuleEntryRecord) (RuleEntry, error) {
	entry := RuleEntry{ID: r.RuleID, Conditions: make([]Condition, 0, len(r.Conditions))}

	for i, cr := range r.Conditions {
		c, err := ConditionFromRecord(cr)
		if err != nil {
			return RuleEntry{}, fmt.Errorf("rule %d condition %d: %w", r.RuleID, i+1, err)
		}

		entry.Conditions = append(entry.Conditions, c)
	}

	return entry, nil
}

// Record returns the persisted shape of d.
func (d DiseaseRule) Record() DiseaseRecord {
	r := DiseaseRecord{
		Category:    d.Category,
		DiseaseName: d.Name,
		DiseaseCode: d.Code,
		Rules:       make([]RuleEntryRecord, 0, len(d.Entries)),
	}

	if d.ID != uuid.Nil {
		r.ID = d.ID.String()
	}

	for _, e := range d.Entries {
		r.Rules = append(r.Rules, e.Record())
	}

	return r
}

// DiseaseFromRecord constructs a disease rule. Any invalid condition aborts
// construction of the whole disease.
func DiseaseFromRecord(r DiseaseRecord) (DiseaseRule, error) {
	d := DiseaseRule{
		Category: r.Category,
		Name:     r.DiseaseName,
		Code:     strings.TrimSpace(r.DiseaseCode),
		Entries:  make([]RuleEntry, 0, len(r.Rules)),
	}

	if r.ID != "" {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return DiseaseRule{}, invalid("id", err)
		}

		d.ID = id
	}

	for _, er := range r.Rules {
		entry, err := RuleEntryFromRecord(er)
		if err != nil {
			return DiseaseRule{}, err
		}

		d.Entries = append(d.Entries, entry)
	}

	if err := d.Validate(); err != nil {
		return DiseaseRule{}, err
	}

	return d, nil
}

// ParseDiseaseRecords decodes a JSON array of disease records.
func ParseDiseaseRecords(data []byte) ([]DiseaseRecord, error) {
	var records []DiseaseRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode disease records: %w", err)
	}

	return records, nil
}
