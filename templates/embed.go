/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package templates

import "embed"

// Templates contains embedded HTML templates from this directory.
//
//go:embed *.html
var Templates embed.FS

// Docs contains the org-mode documents rendered as pages.
//
//go:embed *.org
var Docs embed.FS
