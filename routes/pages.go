/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	htmltemplate "html/template"
	"io/fs"
	"net/http"
	"sync"

	"github.com/flamego/flamego"
	"github.com/flamego/template"

	"github.com/humaidq/rulebase/templates"
	"github.com/humaidq/rulebase/utils"
)

// Home renders the landing page with rulebase totals.
func Home(c flamego.Context, t template.Template, data template.Data) {
	data["IsHome"] = true

	set, err := loadRuleSetFn(c.Request().Context())
	if err != nil {
		logger.Error("Failed to load rule set", "error", err)
		data["Error"] = "Failed to load the rulebase"
	} else {
		data["RuleCount"] = len(set.Rules)
		data["RejectedCount"] = len(set.Rejected)
	}

	t.HTML(http.StatusOK, "index")
}

type renderedDoc struct {
	title string
	body  htmltemplate.HTML
	err   error
}

var (
	aboutOnce sync.Once
	aboutDoc  renderedDoc
)

func renderDoc(docs fs.FS, name string) renderedDoc {
	content, err := fs.ReadFile(docs, name)
	if err != nil {
		return renderedDoc{err: err}
	}

	body, err := utils.RenderOrg(string(content))
	if err != nil {
		return renderedDoc{err: err}
	}

	return renderedDoc{
		title: utils.ExtractTitle(string(content)),
		body:  htmltemplate.HTML(body),
	}
}

// About renders the embedded about document.
func About(t template.Template, data template.Data) {
	aboutOnce.Do(func() {
		aboutDoc = renderDoc(templates.Docs, "about.org")
	})

	data["IsAbout"] = true
	setPageTitle(data, "About")

	if aboutDoc.err != nil {
		logger.Error("Failed to render about page", "error", aboutDoc.err)
		data["Error"] = "Failed to render the about page"
	} else {
		data["DocTitle"] = aboutDoc.title
		data["DocHTML"] = aboutDoc.body
	}

	t.HTML(http.StatusOK, "about")
}
