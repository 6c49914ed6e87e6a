/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/flamego/flamego"
	"github.com/google/uuid"

	"github.com/humaidq/rulebase/db"
	"github.com/humaidq/rulebase/engine"
)

const apiMaxBodyBytes = 1 << 20

// ruleSetReply is the GET /api/rules reply.
type ruleSetReply struct {
	Rules    []engine.DiseaseRecord `json:"rules"`
	Rejected []rejectedRule         `json:"rejected,omitempty"`
}

type rejectedRule struct {
	ID          string `json:"id"`
	DiseaseCode string `json:"disease_code"`
	Error       string `json:"error"`
}

type importReply struct {
	Status   string         `json:"status"`
	Saved    []string       `json:"saved"`
	Rejected []rejectedRule `json:"rejected,omitempty"`
}

type labValuesRequest struct {
	engine.Profile
	LabValues []engine.Observation `json:"lab_values"`
}

func rejectedRules(errs []*engine.RuleLoadError) []rejectedRule {
	out := make([]rejectedRule, 0, len(errs))
	for _, e := range errs {
		out = append(out, rejectedRule{ID: e.ID, DiseaseCode: e.Code, Error: e.Err.Error()})
	}

	return out
}

// decodeBody reads a size-limited JSON request body into v.
func decodeBody(c flamego.Context, v interface{}) bool {
	body := http.MaxBytesReader(c.ResponseWriter(), c.Request().Body().ReadCloser(), apiMaxBodyBytes)

	defer func() {
		_ = body.Close()
	}()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			writeError(c, http.StatusRequestEntityTooLarge, "request payload too large")
			return false
		}

		writeError(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))

		return false
	}

	return true
}

func ruleIDParam(c flamego.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, errInvalidRuleID.Error())
		return uuid.Nil, false
	}

	return id, true
}

// APIListRules returns the loadable rules in evaluation order, plus the
// stored rules that failed to load.
func APIListRules(c flamego.Context) {
	set, err := loadRuleSetFn(c.Request().Context())
	if err != nil {
		logger.Error("Failed to load rule set", "error", err)
		writeError(c, http.StatusInternalServerError, errorMessage(err))

		return
	}

	reply := ruleSetReply{
		Rules:    make([]engine.DiseaseRecord, 0, len(set.Rules)),
		Rejected: rejectedRules(set.Rejected),
	}
	for _, d := range set.Rules {
		reply.Rules = append(reply.Rules, d.Record())
	}

	writeJSON(c, http.StatusOK, reply)
}

// APIImportRules stores a JSON array of disease records. Invalid records
// are reported and skipped.
func APIImportRules(c flamego.Context) {
	var records []engine.DiseaseRecord
	if !decodeBody(c, &records) {
		return
	}

	if len(records) == 0 {
		writeError(c, http.StatusBadRequest, errNoDiseases.Error())
		return
	}

	summary, err := importRulesFn(c.Request().Context(), records)
	if err != nil {
		logger.Error("Failed to import rules", "error", err)
		writeError(c, errorStatus(err), errorMessage(err))

		return
	}

	status, label := http.StatusOK, statusSuccess
	if len(summary.Saved) == 0 {
		status, label = http.StatusBadRequest, statusError
	}

	writeJSON(c, status, importReply{
		Status:   label,
		Saved:    summary.Saved,
		Rejected: rejectedRules(summary.Rejected),
	})
}

// APIGetRule returns one stored rule by id.
func APIGetRule(c flamego.Context) {
	id, ok := ruleIDParam(c)
	if !ok {
		return
	}

	d, err := getRuleFn(c.Request().Context(), id)
	if err != nil {
		if errorStatus(err) == http.StatusInternalServerError {
			logger.Error("Failed to load rule", "id", id, "error", err)
		}

		writeError(c, errorStatus(err), errorMessage(err))

		return
	}

	writeJSON(c, http.StatusOK, d.Record())
}

// APIReplaceRule overwrites a stored rule by id.
func APIReplaceRule(c flamego.Context) {
	id, ok := ruleIDParam(c)
	if !ok {
		return
	}

	var record engine.DiseaseRecord
	if !decodeBody(c, &record) {
		return
	}

	record.ID = ""

	d, err := engine.DiseaseFromRecord(record)
	if err != nil {
		writeError(c, errorStatus(err), errorMessage(err))
		return
	}

	if err := replaceRuleFn(c.Request().Context(), id, d); err != nil {
		if errorStatus(err) == http.StatusInternalServerError {
			logger.Error("Failed to replace rule", "id", id, "error", err)
		}

		writeError(c, errorStatus(err), errorMessage(err))

		return
	}

	d.ID = id
	writeJSON(c, http.StatusOK, d.Record())
}

// APIDeleteRule removes a stored rule by disease code.
func APIDeleteRule(c flamego.Context) {
	code := strings.TrimSpace(c.Param("code"))

	if err := deleteRuleByCodeFn(c.Request().Context(), code); err != nil {
		if errorStatus(err) == http.StatusInternalServerError {
			logger.Error("Failed to delete rule", "disease_code", code, "error", err)
		}

		writeError(c, errorStatus(err), errorMessage(err))

		return
	}

	writeJSON(c, http.StatusOK, StatusReply{Status: statusSuccess, Message: fmt.Sprintf("Deleted rule %s", code)})
}

// APIListPatients returns every patient with their history.
func APIListPatients(c flamego.Context) {
	patients, err := listPatientsFn(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list patients", "error", err)
		writeError(c, http.StatusInternalServerError, errorMessage(err))

		return
	}

	writeJSON(c, http.StatusOK, patients)
}

// APIGetPatient returns one patient with their history.
func APIGetPatient(c flamego.Context) {
	patient, err := getPatientFn(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errorStatus(err) == http.StatusInternalServerError {
			logger.Error("Failed to load patient", "patient_id", c.Param("id"), "error", err)
		}

		writeError(c, errorStatus(err), errorMessage(err))

		return
	}

	writeJSON(c, http.StatusOK, patient)
}

// APIEvaluatePatient re-evaluates a stored patient without adding
// observations.
func APIEvaluatePatient(c flamego.Context, e *engine.Engine) {
	sub, err := evaluatePatientFn(c.Request().Context(), e, c.Param("id"))
	if err != nil {
		if errorStatus(err) == http.StatusInternalServerError {
			logger.Error("Failed to evaluate patient", "patient_id", c.Param("id"), "error", err)
		}

		writeError(c, errorStatus(err), errorMessage(err))

		return
	}

	writeJSON(c, http.StatusOK, StatusReply{
		Status:  statusSuccess,
		Message: fmt.Sprintf("%d disease match(es) found.", len(sub.Results)),
		Results: sub.Results,
	})
}

// APISubmitLabValues is the JSON counterpart of SubmitLabValues.
func APISubmitLabValues(c flamego.Context, e *engine.Engine) {
	var req labValuesRequest
	if !decodeBody(c, &req) {
		return
	}

	req.PatientID = strings.TrimSpace(req.PatientID)
	if req.PatientID == "" {
		writeError(c, http.StatusBadRequest, errPatientIDRequired.Error())
		return
	}

	sub, err := submitLabValuesFn(c.Request().Context(), e, db.SubmitInput{
		Profile:      req.Profile,
		Observations: req.LabValues,
	})
	if err != nil {
		if errorStatus(err) == http.StatusInternalServerError {
			logger.Error("Failed to submit lab values", "patient_id", req.PatientID, "error", err)
		}

		writeError(c, errorStatus(err), errorMessage(err))

		return
	}

	writeJSON(c, http.StatusOK, submissionReply(sub))
}
