/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "errors"

var (
	errNoDiseases        = errors.New("at least one disease name is required")
	errDiseaseCodeCount  = errors.New("each disease name needs a disease code")
	errNoRuleEntries     = errors.New("at least one rule entry is required")
	errPatientIDRequired = errors.New("patient ID is required")
	errLabValueCount     = errors.New("each lab value needs a value, valid-until date and collection date")
	errInvalidRuleID     = errors.New("invalid rule id")
)
