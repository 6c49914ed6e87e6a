/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package engine

import (
	"time"

	"github.com/charmbracelet/log"
)

// MatchResult reports a matched disease and the entry that satisfied it.
type MatchResult struct {
	DiseaseCode  string          `json:"disease_code"`
	DiseaseName  string          `json:"disease_name"`
	Category     string          `json:"category"`
	MatchingRule RuleEntryRecord `json:"matching_rule"`
}

// Engine matches patients against disease rules. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	now            func() time.Time
	strictValidity bool
	logger         *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the source of "today" for validity windows.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithStrictValidity makes time-dependent conditions honour valid_until.
func WithStrictValidity(strict bool) Option {
	return func(e *Engine) {
		e.strictValidity = strict
	}
}

// WithLogger sets the trace logger. A nil logger disables tracing.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New returns an Engine using the wall clock and no tracing by default.
func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// StrictValidity reports whether strict validity is enabled.
func (e *Engine) StrictValidity() bool {
	return e.strictValidity
}

// Evaluate matches the patient's full observation history against every
// rule, in rule order. Each disease contributes at most one result.
func (e *Engine) Evaluate(profile Profile, observations []Observation, rules []DiseaseRule) []MatchResult {
	in := Input{
		Age:            profile.Age,
		Gender:         profile.Gender,
		Observations:   observations,
		Today:          DateOf(e.now().UTC()),
		StrictValidity: e.strictValidity,
	}

	logger := e.logger
	if logger != nil {
		logger = logger.With("patient_id", profile.PatientID)
	}

	results := []MatchResult{}

	for _, rule := range rules {
		entry, ok := rule.FirstMatch(in, logger)
		if !ok {
			continue
		}

		if logger != nil {
			logger.Debug("Disease matched", "disease_code", rule.Code, "rule_id", entry.ID)
		}

		results = append(results, MatchResult{
			DiseaseCode:  rule.Code,
			DiseaseName:  rule.Name,
			Category:     rule.Category,
			MatchingRule: entry.Record(),
		})
	}

	if logger != nil {
		logger.Debug("Evaluation finished", "rules", len(rules), "matches", len(results))
	}

	return results
}

// EvaluateSubmission evaluates newly submitted observations together with
// the patient's prior history.
func (e *Engine) EvaluateSubmission(profile Profile, history, submitted []Observation, rules []DiseaseRule) []MatchResult {
	all := make([]Observation, 0, len(history)+len(submitted))
	all = append(all, history...)
	all = append(all, submitted...)

	return e.Evaluate(profile, all, rules)
}
