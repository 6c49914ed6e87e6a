/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"encoding/gob"

	"github.com/flamego/session"
)

// FlashType selects the banner style in header.html.
type FlashType string

const (
	FlashError   FlashType = "error"
	FlashSuccess FlashType = "success"
	FlashWarning FlashType = "warning"
)

// FlashMessage survives one redirect in the session.
type FlashMessage struct {
	Type    FlashType
	Message string
}

func init() {
	// Sessions may be gob-encoded into PostgreSQL.
	gob.Register(FlashMessage{})
}

func setFlash(s session.Session, typ FlashType, message string) {
	s.SetFlash(FlashMessage{Type: typ, Message: message})
}

// SetErrorFlash reports a failed action on the next page.
func SetErrorFlash(s session.Session, message string) {
	setFlash(s, FlashError, message)
}

// SetSuccessFlash confirms an action on the next page.
func SetSuccessFlash(s session.Session, message string) {
	setFlash(s, FlashSuccess, message)
}

// SetWarningFlash reports an action that had nothing to do.
func SetWarningFlash(s session.Session, message string) {
	setFlash(s, FlashWarning, message)
}
