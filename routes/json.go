/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flamego/flamego"

	"github.com/humaidq/rulebase/db"
	"github.com/humaidq/rulebase/engine"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// StatusReply is the reply shape of the form endpoints.
type StatusReply struct {
	Status  string               `json:"status"`
	Message string               `json:"message"`
	Results []engine.MatchResult `json:"results,omitempty"`
}

func writeJSON(c flamego.Context, status int, v interface{}) {
	c.ResponseWriter().Header().Set("Content-Type", "application/json")
	c.ResponseWriter().WriteHeader(status)

	if err := json.NewEncoder(c.ResponseWriter()).Encode(v); err != nil {
		logger.Warn("Failed to encode JSON reply", "path", c.Request().URL.Path, "error", err)
	}
}

func writeError(c flamego.Context, status int, message string) {
	writeJSON(c, status, StatusReply{Status: statusError, Message: message})
}

// errorStatus maps store and validation errors to an HTTP status.
func errorStatus(err error) int {
	var validationErr *engine.ValidationError

	switch {
	case errors.Is(err, db.ErrRuleNotFound), errors.Is(err, db.ErrPatientNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrDuplicateDiseaseCode):
		return http.StatusConflict
	case errors.As(err, &validationErr),
		errors.Is(err, db.ErrNoObservations),
		errors.Is(err, errNoDiseases),
		errors.Is(err, errDiseaseCodeCount),
		errors.Is(err, errNoRuleEntries),
		errors.Is(err, errPatientIDRequired),
		errors.Is(err, errLabValueCount),
		errors.Is(err, errInvalidRuleID):
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

// errorMessage hides internal failures from clients.
func errorMessage(err error) string {
	if errorStatus(err) == http.StatusInternalServerError {
		return "internal error"
	}

	return err.Error()
}
