/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"encoding/base64"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/flamego/flamego"
	"github.com/flamego/template"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/humaidq/rulebase/db"
	"github.com/humaidq/rulebase/engine"
)

// patientView is a patient prepared for display.
type patientView struct {
	engine.Patient
	Parameters []string
	QRCode     string
}

func generateQRCodeBase64(value string) (string, error) {
	png, err := qrcode.Encode(value, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("failed to generate qr code: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}

// patientURL is the address encoded in a patient's QR code.
func patientURL(r *http.Request, patientID string) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s/api/patients/%s", scheme, r.Host, url.PathEscape(patientID))
}

// ViewPatientData lists every patient, or a single patient when a
// patient_id is posted.
func ViewPatientData(c flamego.Context, t template.Template, data template.Data) {
	ctx := c.Request().Context()
	data["IsPatients"] = true
	setPageTitle(data, "Patients")

	if c.Request().Method == http.MethodPost {
		if err := c.Request().ParseForm(); err != nil {
			data["Message"] = "Failed to parse form"
			t.HTML(http.StatusBadRequest, "view_patient_data")

			return
		}

		patientID := strings.TrimSpace(c.Request().PostForm.Get("patient_id"))
		data["PatientID"] = patientID

		if patientID == "" {
			data["Message"] = "Please enter a patient ID."
			t.HTML(http.StatusOK, "view_patient_data")

			return
		}

		patient, err := getPatientFn(ctx, patientID)
		if errors.Is(err, db.ErrPatientNotFound) {
			data["Message"] = fmt.Sprintf("Patient with ID %s not found.", patientID)
			t.HTML(http.StatusOK, "view_patient_data")

			return
		}

		if err != nil {
			logger.Error("Failed to load patient", "patient_id", patientID, "error", err)
			data["Message"] = "Failed to load patient data."
			t.HTML(http.StatusInternalServerError, "view_patient_data")

			return
		}

		view := patientView{Patient: *patient, Parameters: patient.Parameters()}

		qr, err := generateQRCodeBase64(patientURL(c.Request().Request, patientID))
		if err != nil {
			logger.Warn("Failed to generate patient QR code", "patient_id", patientID, "error", err)
		} else {
			view.QRCode = qr
		}

		data["Patients"] = []patientView{view}
		data["Single"] = true
		t.HTML(http.StatusOK, "view_patient_data")

		return
	}

	patients, err := listPatientsFn(ctx)
	if err != nil {
		logger.Error("Failed to list patients", "error", err)
		data["Message"] = "Failed to load patient data."
		t.HTML(http.StatusInternalServerError, "view_patient_data")

		return
	}

	views := make([]patientView, 0, len(patients))
	for _, p := range patients {
		views = append(views, patientView{Patient: p, Parameters: p.Parameters()})
	}

	data["Patients"] = views
	t.HTML(http.StatusOK, "view_patient_data")
}

// PatientChart plots one parameter of a patient's history against the
// thresholds the rulebase places on it.
func PatientChart(c flamego.Context, t template.Template, data template.Data) {
	ctx := c.Request().Context()
	patientID := c.Param("id")
	parameter := c.Param("parameter")

	data["IsPatients"] = true
	data["PatientID"] = patientID
	data["Parameter"] = parameter
	setPageTitle(data, parameter+" trend")

	history, err := observationsForParameterFn(ctx, patientID, parameter)
	if errors.Is(err, db.ErrPatientNotFound) {
		data["Message"] = fmt.Sprintf("Patient with ID %s not found.", patientID)
		t.HTML(http.StatusNotFound, "patient_chart")

		return
	}

	if err != nil {
		logger.Error("Failed to load observations", "patient_id", patientID, "parameter", parameter, "error", err)
		data["Message"] = "Failed to load observations."
		t.HTML(http.StatusInternalServerError, "patient_chart")

		return
	}

	set, err := loadRuleSetFn(ctx)
	if err != nil {
		logger.Warn("Failed to load rule thresholds", "error", err)
	}

	chart, err := generateObservationChart(parameter, history, ruleThresholds(set.Rules, parameter))
	if err != nil {
		logger.Error("Failed to render chart", "patient_id", patientID, "parameter", parameter, "error", err)
		data["Message"] = "Failed to render chart."
		t.HTML(http.StatusInternalServerError, "patient_chart")

		return
	}

	if chart == "" {
		data["Message"] = fmt.Sprintf("No %s observations recorded.", parameter)
	} else {
		data["Chart"] = htmltemplate.HTML(chart)
	}

	data["Observations"] = history
	t.HTML(http.StatusOK, "patient_chart")
}
