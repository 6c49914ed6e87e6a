/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import "errors"

var (
	ErrDatabaseConnectionNotInitialized = errors.New("database connection not initialized")
	ErrDatabaseURLEnvVarNotSet          = errors.New("DATABASE_URL environment variable is not set")
	ErrDatabaseNameNotSpecified         = errors.New("database name not specified in DATABASE_URL")
	ErrInvalidSessionConfig             = errors.New("invalid PostgresSessionConfig")

	ErrRuleNotFound         = errors.New("disease rule not found")
	ErrDuplicateDiseaseCode = errors.New("disease code already exists")
	ErrPatientNotFound      = errors.New("patient not found")
	ErrNoObservations       = errors.New("no lab values submitted")

	ErrWebDAVURLRequired = errors.New("webdav url is required")
	ErrFetchFileFailed   = errors.New("failed to fetch file")
)
