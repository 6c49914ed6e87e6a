/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"fmt"
	"net/http"

	"github.com/flamego/flamego"
	"github.com/flamego/template"

	"github.com/humaidq/rulebase/db"
	"github.com/humaidq/rulebase/engine"
)

const (
	msgLabValuesMatched   = "Lab values saved and evaluated successfully!"
	msgLabValuesUnmatched = "Lab values saved successfully! No disease match found."
)

// LabValuesForm renders the lab value submission form.
func LabValuesForm(t template.Template, data template.Data) {
	data["IsLabValues"] = true
	setPageTitle(data, "Lab values")
	data["Genders"] = []string{"male", "female"}

	t.HTML(http.StatusOK, "lab_values")
}

// submissionReply builds the JSON reply for a stored and evaluated submission.
func submissionReply(sub *db.Submission) StatusReply {
	reply := StatusReply{Status: statusSuccess, Message: msgLabValuesUnmatched}
	if len(sub.Results) > 0 {
		reply.Message = msgLabValuesMatched
		reply.Results = sub.Results
	}

	return reply
}

// SubmitLabValues appends the submitted observations to the patient's
// history and evaluates the full history against the rulebase.
func SubmitLabValues(c flamego.Context, e *engine.Engine) {
	if err := c.Request().ParseForm(); err != nil {
		writeError(c, http.StatusBadRequest, "failed to parse form")
		return
	}

	in, err := parseLabValuesForm(c.Request().PostForm)
	if err != nil {
		logger.Warn("Rejected lab value submission", "error", err)
		writeError(c, errorStatus(err), fmt.Sprintf("Error saving lab values: %s", errorMessage(err)))

		return
	}

	sub, err := submitLabValuesFn(c.Request().Context(), e, in)
	if err != nil {
		logger.Error("Failed to submit lab values", "patient_id", in.Profile.PatientID, "error", err)
		writeError(c, errorStatus(err), fmt.Sprintf("Error saving lab values: %s", errorMessage(err)))

		return
	}

	writeJSON(c, http.StatusOK, submissionReply(sub))
}
