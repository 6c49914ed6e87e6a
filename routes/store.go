/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "github.com/humaidq/rulebase/db"

// Store calls made by handlers. Tests replace them.
var (
	loadRuleSetFn      = db.LoadRuleSet
	saveRuleFn         = db.SaveRule
	getRuleFn          = db.GetRule
	replaceRuleFn      = db.ReplaceRule
	deleteRuleByCodeFn = db.DeleteRuleByCode
	importRulesFn      = db.ImportRules

	listPatientsFn             = db.ListPatients
	getPatientFn               = db.GetPatient
	observationsForParameterFn = db.ObservationsForParameter

	submitLabValuesFn = db.SubmitLabValues
	evaluatePatientFn = db.EvaluatePatient
)
