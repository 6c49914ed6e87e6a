/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/humaidq/rulebase/db"
	"github.com/humaidq/rulebase/engine"
)

// indexedKey builds the authoring form key for a rule entry, e.g.
// "parameters[2][]".
func indexedKey(name string, ruleIndex int) string {
	return fmt.Sprintf("%s[%d][]", name, ruleIndex)
}

func formValueAt(form url.Values, key string, i int) string {
	values := form[key]
	if i >= len(values) {
		return ""
	}

	return strings.TrimSpace(values[i])
}

func parseOptionalInt(field, raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &engine.ValidationError{Field: field, Err: fmt.Errorf("%w: %q", engine.ErrInvalidNumber, raw)}
	}

	return &n, nil
}

func parseOptionalFloat(field, raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &engine.ValidationError{Field: field, Err: fmt.Errorf("%w: %q", engine.ErrInvalidNumber, raw)}
	}

	return &f, nil
}

func parseOptionalDays(raw string) (*engine.Days, error) {
	n, err := parseOptionalInt("time", raw)
	if err != nil || n == nil {
		return nil, err
	}

	d := engine.Days(*n)

	return &d, nil
}

// parseConditionFields reads the jth condition of a rule entry from the
// authoring form.
func parseConditionFields(form url.Values, ruleIndex, j int) (engine.ConditionRecord, error) {
	get := func(name string) string {
		return formValueAt(form, indexedKey(name, ruleIndex), j)
	}

	r := engine.ConditionRecord{
		Type:      get("conditions"),
		Parameter: get("parameters"),
		Unit:      get("units"),
		Gender:    get("genders"),
	}

	var err error

	if r.AgeMin, err = parseOptionalInt("age_min", get("age_min")); err != nil {
		return r, err
	}

	if r.AgeMax, err = parseOptionalInt("age_max", get("age_max")); err != nil {
		return r, err
	}

	kind, err := engine.ParseKind(r.Type)
	if err != nil {
		return r, &engine.ValidationError{Field: "type", Err: err}
	}

	switch kind {
	case engine.KindRange:
		if r.MinValue, err = parseOptionalFloat("min_value", get("min_values")); err != nil {
			return r, err
		}

		if r.MaxValue, err = parseOptionalFloat("max_value", get("max_values")); err != nil {
			return r, err
		}
	case engine.KindComparison:
		r.Operator = get("operators")
		if r.ComparisonValue, err = parseOptionalFloat("comparison_value", get("comparison_values")); err != nil {
			return r, err
		}
	case engine.KindTimeDependent:
		r.Operator = get("operators")
		if r.ComparisonTimeValue, err = parseOptionalFloat("comparison_time_value", get("comparison_time_values")); err != nil {
			return r, err
		}

		if r.Time, err = parseOptionalDays(get("time_values")); err != nil {
			return r, err
		}
	}

	return r, nil
}

// parseRulebaseForm builds disease rules from the authoring form. Every
// disease named in one submission shares the same rule entries, numbered
// from 1 in form order.
func parseRulebaseForm(form url.Values) ([]engine.DiseaseRule, error) {
	category := strings.TrimSpace(form.Get("category"))
	names := form["disease_names[]"]
	codes := form["disease_codes[]"]

	if len(names) == 0 {
		return nil, errNoDiseases
	}

	if len(codes) != len(names) {
		return nil, errDiseaseCodeCount
	}

	var entries []engine.RuleEntryRecord

	for ruleIndex := 1; ; ruleIndex++ {
		types, ok := form[indexedKey("conditions", ruleIndex)]
		if !ok {
			break
		}

		entry := engine.RuleEntryRecord{RuleID: ruleIndex}

		for j := range types {
			cond, err := parseConditionFields(form, ruleIndex, j)
			if err != nil {
				return nil, fmt.Errorf("rule %d condition %d: %w", ruleIndex, j+1, err)
			}

			entry.Conditions = append(entry.Conditions, cond)
		}

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, errNoRuleEntries
	}

	rules := make([]engine.DiseaseRule, 0, len(names))

	for i := range names {
		d, err := engine.DiseaseFromRecord(engine.DiseaseRecord{
			Category:    category,
			DiseaseName: strings.TrimSpace(names[i]),
			DiseaseCode: strings.TrimSpace(codes[i]),
			Rules:       entries,
		})
		if err != nil {
			return nil, fmt.Errorf("disease %q: %w", strings.TrimSpace(names[i]), err)
		}

		rules = append(rules, d)
	}

	return rules, nil
}

// parseLabValuesForm reads a lab submission. The per-value fields are
// parallel lists in form order.
func parseLabValuesForm(form url.Values) (db.SubmitInput, error) {
	var in db.SubmitInput

	in.Profile.PatientID = strings.TrimSpace(form.Get("patient-id"))
	if in.Profile.PatientID == "" {
		return in, errPatientIDRequired
	}

	age, err := strconv.Atoi(strings.TrimSpace(form.Get("age")))
	if err != nil {
		return in, &engine.ValidationError{Field: "age", Err: fmt.Errorf("%w: %q", engine.ErrInvalidNumber, form.Get("age"))}
	}

	in.Profile.Age = age
	in.Profile.Gender = strings.TrimSpace(form.Get("gender"))

	parameters := form["parameter-name"]
	values := form["value"]
	validUntils := form["valid-until"]
	collected := form["time-lab-value"]

	if len(values) != len(parameters) || len(validUntils) != len(parameters) || len(collected) != len(parameters) {
		return in, errLabValueCount
	}

	for i, parameter := range parameters {
		value, err := strconv.ParseFloat(strings.TrimSpace(values[i]), 64)
		if err != nil {
			return in, fmt.Errorf("lab value %d: %w", i+1, &engine.ValidationError{Field: "value", Err: fmt.Errorf("%w: %q", engine.ErrInvalidNumber, values[i])})
		}

		validUntil, err := engine.ParseDate(validUntils[i])
		if err != nil {
			return in, fmt.Errorf("lab value %d: %w", i+1, &engine.ValidationError{Field: "valid_until", Err: err})
		}

		collectedOn, err := engine.ParseDate(collected[i])
		if err != nil {
			return in, fmt.Errorf("lab value %d: %w", i+1, &engine.ValidationError{Field: "time", Err: err})
		}

		in.Observations = append(in.Observations, engine.Observation{
			Parameter:   strings.TrimSpace(parameter),
			Value:       value,
			Unit:        formValueAt(form, "unit", i),
			ValidUntil:  validUntil,
			CollectedOn: collectedOn,
		})
	}

	return in, nil
}
