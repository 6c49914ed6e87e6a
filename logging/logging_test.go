// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"testing"

	"github.com/charmbracelet/log"
)

func TestLoggerInitializers(t *testing.T) {
	t.Parallel()

	Init()
	if l := Logger(SourceApp); l == nil {
		t.Fatal("Logger returned nil")
	}
	if l := StdLogger(SourceWeb); l == nil {
		t.Fatal("StdLogger returned nil")
	}
	for _, source := range []string{SourceDB, SourceEngine, SourceWebRequest} {
		if l := Logger(source); l == nil {
			t.Fatalf("Logger(%q) returned nil", source)
		}
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  log.Level
	}{
		{value: "", want: log.InfoLevel},
		{value: "debug", want: log.DebugLevel},
		{value: " WARN ", want: log.WarnLevel},
		{value: "error", want: log.ErrorLevel},
		{value: "verbose", want: log.InfoLevel},
	}

	for _, tt := range tests {
		if got := levelFromEnv(tt.value); got != tt.want {
			t.Fatalf("levelFromEnv(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
