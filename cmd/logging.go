/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import "github.com/humaidq/rulebase/logging"

var (
	appLogger        = logging.Logger(logging.SourceApp)
	engineLogger     = logging.Logger(logging.SourceEngine)
	requestStdLogger = logging.StdLogger(logging.SourceWebRequest)
)
