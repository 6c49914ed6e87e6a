/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/humaidq/rulebase/db"
	"github.com/humaidq/rulebase/engine"
)

// RulebaseForm renders the rule authoring form.
func RulebaseForm(t template.Template, data template.Data) {
	data["IsRulebase"] = true
	setPageTitle(data, "Author rules")
	data["Operators"] = engine.Operators()
	data["Kinds"] = []engine.Kind{engine.KindRange, engine.KindComparison, engine.KindTimeDependent}
	data["Genders"] = []string{engine.GenderAll, "male", "female"}

	t.HTML(http.StatusOK, "rulebase")
}

// SubmitRulebase stores the diseases described by the authoring form and
// replies with a JSON status.
func SubmitRulebase(c flamego.Context) {
	if err := c.Request().ParseForm(); err != nil {
		writeError(c, http.StatusBadRequest, "failed to parse form")
		return
	}

	rules, err := parseRulebaseForm(c.Request().PostForm)
	if err != nil {
		logger.Warn("Rejected rulebase submission", "error", err)
		writeError(c, errorStatus(err), fmt.Sprintf("Error adding data: %s", errorMessage(err)))

		return
	}

	ctx := c.Request().Context()
	codes := make([]string, 0, len(rules))

	for _, d := range rules {
		if _, err := saveRuleFn(ctx, d); err != nil {
			logger.Error("Failed to save disease rule", "disease_code", d.Code, "error", err)
			writeError(c, errorStatus(err), fmt.Sprintf("Error adding data: %s", errorMessage(err)))

			return
		}

		codes = append(codes, d.Code)
	}

	writeJSON(c, http.StatusOK, StatusReply{
		Status:  statusSuccess,
		Message: fmt.Sprintf("Rulebase saved successfully! (%s)", strings.Join(codes, ", ")),
	})
}

// ruleView is a disease rule prepared for display.
type ruleView struct {
	engine.DiseaseRule
	Entries []entryView
}

type entryView struct {
	ID         int
	Conditions []conditionView
}

type conditionView struct {
	Kind      engine.Kind
	Parameter string
	Unit      string
	Threshold string
	AgeMin    int
	AgeMax    int
	Gender    string
}

func newRuleView(d engine.DiseaseRule) ruleView {
	v := ruleView{DiseaseRule: d}

	for _, e := range d.Entries {
		ev := entryView{ID: e.ID}
		for _, c := range e.Conditions {
			ev.Conditions = append(ev.Conditions, conditionView{
				Kind:      c.Kind,
				Parameter: c.Parameter,
				Unit:      c.Unit,
				Threshold: c.Threshold(),
				AgeMin:    c.AgeMin,
				AgeMax:    c.AgeMax,
				Gender:    c.Gender,
			})
		}

		v.Entries = append(v.Entries, ev)
	}

	return v
}

// ViewRulebase lists every stored disease rule grouped in insertion order.
func ViewRulebase(c flamego.Context, t template.Template, data template.Data) {
	set, err := loadRuleSetFn(c.Request().Context())
	if err != nil {
		logger.Error("Failed to load rule set", "error", err)
		writeError(c, http.StatusInternalServerError, errorMessage(err))

		return
	}

	views := make([]ruleView, 0, len(set.Rules))
	for _, d := range set.Rules {
		views = append(views, newRuleView(d))
	}

	data["IsViewRulebase"] = true
	setPageTitle(data, "Rulebase")
	data["Rules"] = views
	data["Rejected"] = set.Rejected

	t.HTML(http.StatusOK, "view_rulebase")
}

// DeleteRule removes a disease rule by code and returns to the rulebase view.
func DeleteRule(c flamego.Context, s session.Session) {
	code := strings.TrimSpace(c.Param("code"))

	err := deleteRuleByCodeFn(c.Request().Context(), code)

	switch {
	case errors.Is(err, db.ErrRuleNotFound):
		SetWarningFlash(s, fmt.Sprintf("No rule found for disease code %s", code))
	case err != nil:
		logger.Error("Failed to delete disease rule", "disease_code", code, "error", err)
		SetErrorFlash(s, "Failed to delete rule")
	default:
		SetSuccessFlash(s, fmt.Sprintf("Deleted rule %s", code))
	}

	c.Redirect("/view_rulebase", http.StatusSeeOther)
}
