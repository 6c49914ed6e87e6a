/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"os"
	"strings"

	"github.com/flamego/template"
)

const (
	defaultSiteTitle = "Rulebase"
	siteTitleEnvVar  = "SITE_TITLE"
)

func siteTitle() string {
	title := strings.TrimSpace(os.Getenv(siteTitleEnvVar))
	if title == "" {
		return defaultSiteTitle
	}

	return title
}

func setPageTitle(data template.Data, title string) {
	data["PageTitle"] = title
}
