/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/rulebase/cmd"
	"github.com/humaidq/rulebase/logging"
)

func main() {
	logging.Init()

	logger := logging.Logger(logging.SourceApp)

	app := &cli.Command{
		Name:  "rulebase",
		Usage: "Rulebase - clinical rule matching for lab results",
		Commands: []*cli.Command{
			cmd.CmdStart,
			cmd.CmdMigrate,
			cmd.CmdRules,
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		logger.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}
