/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/humaidq/rulebase/engine"
)

// querier is satisfied by the pool and by a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AppendInput is one lab submission for a patient.
type AppendInput struct {
	Profile      engine.Profile
	Observations []engine.Observation
}

// Validate checks the profile and every observation before anything is written.
func (in AppendInput) Validate() error {
	if strings.TrimSpace(in.Profile.PatientID) == "" {
		return &engine.ValidationError{Field: "patient_id", Err: engine.ErrMissingField}
	}

	if in.Profile.Age < 0 {
		return &engine.ValidationError{Field: "age", Err: engine.ErrInvalidNumber}
	}

	if strings.TrimSpace(in.Profile.Gender) == "" {
		return &engine.ValidationError{Field: "gender", Err: engine.ErrMissingField}
	}

	if len(in.Observations) == 0 {
		return ErrNoObservations
	}

	for i, o := range in.Observations {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("lab value %d: %w", i+1, err)
		}
	}

	return nil
}

var observationColumns = []string{"patient_id", "parameter_name", "value", "unit", "valid_until", "collected_on"}

// AppendObservations upserts the patient and appends the observations in a
// single transaction, returning the full stored history. Demographics are
// refreshed to the submitted values. The upsert holds the patient row lock, so
// concurrent submissions for one patient are serialised.
func AppendObservations(ctx context.Context, in AppendInput) (*engine.Patient, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	if err := in.Validate(); err != nil {
		return nil, err
	}

	patientID := strings.TrimSpace(in.Profile.PatientID)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("Failed to roll back lab submission", "patient_id", patientID, "error", err)
		}
	}()

	upsert := `
		INSERT INTO patients (patient_id, age, gender)
		VALUES ($1, $2, $3)
		ON CONFLICT (patient_id) DO UPDATE
		SET age = EXCLUDED.age, gender = EXCLUDED.gender
	`

	if _, err := tx.Exec(ctx, upsert, patientID, in.Profile.Age, in.Profile.Gender); err != nil {
		return nil, fmt.Errorf("failed to upsert patient: %w", err)
	}

	copied, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"lab_observations"},
		observationColumns,
		pgx.CopyFromSlice(len(in.Observations), func(i int) ([]any, error) {
			o := in.Observations[i]
			return []any{
				patientID,
				strings.TrimSpace(o.Parameter),
				o.Value,
				o.Unit,
				o.ValidUntil.Time(),
				o.CollectedOn.Time(),
			}, nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store lab values: %w", err)
	}

	patient, err := loadPatient(ctx, tx, patientID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit lab submission: %w", err)
	}

	logger.Info("Stored lab values", "patient_id", patientID, "count", copied, "history", len(patient.Observations))

	return patient, nil
}

// GetPatient returns a patient with the full observation history.
func GetPatient(ctx context.Context, patientID string) (*engine.Patient, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	return loadPatient(ctx, pool, strings.TrimSpace(patientID))
}

func loadPatient(ctx context.Context, q querier, patientID string) (*engine.Patient, error) {
	query := `
		SELECT patient_id, age, gender, created_at, updated_at
		FROM patients
		WHERE patient_id = $1
	`

	var p engine.Patient

	err := q.QueryRow(ctx, query, patientID).Scan(&p.PatientID, &p.Age, &p.Gender, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}

		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	byPatient, err := queryObservations(ctx, q, `
		SELECT patient_id, parameter_name, value, unit, valid_until, collected_on
		FROM lab_observations
		WHERE patient_id = $1
		ORDER BY id ASC
	`, patientID)
	if err != nil {
		return nil, err
	}

	p.Observations = byPatient[patientID]
	if p.Observations == nil {
		p.Observations = []engine.Observation{}
	}

	return &p, nil
}

// ListPatients returns every patient with history, ordered by patient id.
func ListPatients(ctx context.Context) ([]engine.Patient, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT patient_id, age, gender, created_at, updated_at
		FROM patients
		ORDER BY patient_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	var patients []engine.Patient

	for rows.Next() {
		var p engine.Patient
		if err := rows.Scan(&p.PatientID, &p.Age, &p.Gender, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}

		patients = append(patients, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patients: %w", err)
	}

	byPatient, err := queryObservations(ctx, pool, `
		SELECT patient_id, parameter_name, value, unit, valid_until, collected_on
		FROM lab_observations
		ORDER BY patient_id ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}

	for i := range patients {
		patients[i].Observations = byPatient[patients[i].PatientID]
		if patients[i].Observations == nil {
			patients[i].Observations = []engine.Observation{}
		}
	}

	return patients, nil
}

// ObservationsForParameter returns one parameter's history ordered by
// collection date, for charting.
func ObservationsForParameter(ctx context.Context, patientID, parameter string) ([]engine.Observation, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var exists bool
	if err := pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM patients WHERE patient_id = $1)`, patientID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check patient: %w", err)
	}

	if !exists {
		return nil, ErrPatientNotFound
	}

	byPatient, err := queryObservations(ctx, pool, `
		SELECT patient_id, parameter_name, value, unit, valid_until, collected_on
		FROM lab_observations
		WHERE patient_id = $1 AND lower(parameter_name) = lower($2)
		ORDER BY collected_on ASC, id ASC
	`, patientID, parameter)
	if err != nil {
		return nil, err
	}

	return byPatient[patientID], nil
}

func queryObservations(ctx context.Context, q querier, query string, args ...any) (map[string][]engine.Observation, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lab values: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]engine.Observation)

	for rows.Next() {
		var (
			patientID   string
			o           engine.Observation
			validUntil  time.Time
			collectedOn time.Time
		)

		if err := rows.Scan(&patientID, &o.Parameter, &o.Value, &o.Unit, &validUntil, &collectedOn); err != nil {
			return nil, fmt.Errorf("failed to scan lab value: %w", err)
		}

		o.ValidUntil = engine.DateOf(validUntil)
		o.CollectedOn = engine.DateOf(collectedOn)
		out[patientID] = append(out[patientID], o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lab values: %w", err)
	}

	return out, nil
}
