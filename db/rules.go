/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/humaidq/rulebase/engine"
)

const uniqueViolation = "23505"

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDiseaseRow(row rowScanner) (engine.DiseaseRecord, []byte, error) {
	var (
		id        uuid.UUID
		record    engine.DiseaseRecord
		rulesJSON []byte
	)

	if err := row.Scan(&id, &record.Category, &record.DiseaseName, &record.DiseaseCode, &rulesJSON); err != nil {
		return engine.DiseaseRecord{}, nil, err
	}

	record.ID = id.String()

	return record, rulesJSON, nil
}

// buildDisease decodes the stored entries and constructs the rule.
func buildDisease(record engine.DiseaseRecord, rulesJSON []byte) (engine.DiseaseRule, error) {
	if err := json.Unmarshal(rulesJSON, &record.Rules); err != nil {
		return engine.DiseaseRule{}, &engine.RuleLoadError{ID: record.ID, Code: record.DiseaseCode, Err: err}
	}

	d, err := engine.DiseaseFromRecord(record)
	if err != nil {
		return engine.DiseaseRule{}, &engine.RuleLoadError{ID: record.ID, Code: record.DiseaseCode, Err: err}
	}

	return d, nil
}

func encodeEntries(d engine.DiseaseRule) ([]byte, error) {
	rules := d.Record().Rules

	data, err := json.Marshal(rules)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rule entries: %w", err)
	}

	return data, nil
}

// LoadRuleSet loads every stored disease rule in insertion order. Rules that
// fail to construct are reported in Rejected and skipped.
func LoadRuleSet(ctx context.Context) (engine.RuleSet, error) {
	if pool == nil {
		return engine.RuleSet{}, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT id, category, disease_name, disease_code, rules
		FROM disease_rules
		ORDER BY seq ASC
	`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return engine.RuleSet{}, fmt.Errorf("failed to list disease rules: %w", err)
	}
	defer rows.Close()

	set := engine.RuleSet{Rules: []engine.DiseaseRule{}}

	for rows.Next() {
		record, rulesJSON, err := scanDiseaseRow(rows)
		if err != nil {
			return engine.RuleSet{}, fmt.Errorf("failed to scan disease rule: %w", err)
		}

		d, err := buildDisease(record, rulesJSON)
		if err != nil {
			var loadErr *engine.RuleLoadError
			if errors.As(err, &loadErr) {
				logger.Warn("Skipping invalid stored rule", "disease_code", record.DiseaseCode, "id", record.ID, "error", loadErr.Err)
				set.Rejected = append(set.Rejected, loadErr)
			}

			continue
		}

		set.Rules = append(set.Rules, d)
	}

	if err := rows.Err(); err != nil {
		return engine.RuleSet{}, fmt.Errorf("error iterating disease rules: %w", err)
	}

	return set, nil
}

// GetRule returns a single disease rule by id.
func GetRule(ctx context.Context, id uuid.UUID) (*engine.DiseaseRule, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT id, category, disease_name, disease_code, rules
		FROM disease_rules
		WHERE id = $1
	`

	record, rulesJSON, err := scanDiseaseRow(pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}

		return nil, fmt.Errorf("failed to get disease rule: %w", err)
	}

	d, err := buildDisease(record, rulesJSON)
	if err != nil {
		return nil, err
	}

	return &d, nil
}

// SaveRule stores a disease rule keyed by its code. Saving a code that
// already exists replaces the stored rule.
func SaveRule(ctx context.Context, d engine.DiseaseRule) (uuid.UUID, error) {
	if pool == nil {
		return uuid.Nil, ErrDatabaseConnectionNotInitialized
	}

	if err := d.Validate(); err != nil {
		return uuid.Nil, err
	}

	rules, err := encodeEntries(d)
	if err != nil {
		return uuid.Nil, err
	}

	query := `
		INSERT INTO disease_rules (category, disease_name, disease_code, rules)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (disease_code) DO UPDATE
		SET category = EXCLUDED.category,
			disease_name = EXCLUDED.disease_name,
			rules = EXCLUDED.rules
		RETURNING id
	`

	var id uuid.UUID
	if err := pool.QueryRow(ctx, query, d.Category, d.Name, d.Code, rules).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("failed to save disease rule: %w", err)
	}

	logger.Info("Saved disease rule", "disease_code", d.Code, "id", id, "entries", len(d.Entries))

	return id, nil
}

// ReplaceRule overwrites the rule stored under id.
func ReplaceRule(ctx context.Context, id uuid.UUID, d engine.DiseaseRule) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	if err := d.Validate(); err != nil {
		return err
	}

	rules, err := encodeEntries(d)
	if err != nil {
		return err
	}

	query := `
		UPDATE disease_rules
		SET category = $1, disease_name = $2, disease_code = $3, rules = $4
		WHERE id = $5
	`

	tag, err := pool.Exec(ctx, query, d.Category, d.Name, d.Code, rules, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateDiseaseCode, d.Code)
		}

		return fmt.Errorf("failed to update disease rule: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}

	return nil
}

// DeleteRuleByCode removes the rule for a disease code.
func DeleteRuleByCode(ctx context.Context, code string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	tag, err := pool.Exec(ctx, `DELETE FROM disease_rules WHERE disease_code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to delete disease rule: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}

	logger.Info("Deleted disease rule", "disease_code", code)

	return nil
}

// ImportSummary reports the outcome of a bulk rule import.
type ImportSummary struct {
	Saved    []string
	Rejected []*engine.RuleLoadError
}

// ImportRules validates and saves each record independently. A record that
// fails validation is reported and does not stop the others.
func ImportRules(ctx context.Context, records []engine.DiseaseRecord) (*ImportSummary, error) {
	summary := &ImportSummary{}

	for _, record := range records {
		d, err := engine.DiseaseFromRecord(record)
		if err != nil {
			summary.Rejected = append(summary.Rejected, &engine.RuleLoadError{ID: record.ID, Code: record.DiseaseCode, Err: err})
			continue
		}

		if _, err := SaveRule(ctx, d); err != nil {
			return summary, err
		}

		summary.Saved = append(summary.Saved, d.Code)
	}

	return summary, nil
}
