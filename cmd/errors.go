/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import "errors"

var (
	errDatabaseURLRequired   = errors.New("database-url is required (set via --database-url or DATABASE_URL env var)")
	errMigrationNameRequired = errors.New("migration name is required")
	errCSRFSecretRequired    = errors.New("CSRF_SECRET is required")
	errRulebaseSourceMissing = errors.New("one of --file or --webdav-url is required")
	errRulebaseSourceBoth    = errors.New("--file and --webdav-url are mutually exclusive")
)
