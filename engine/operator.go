/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package engine

import "strings"

// Operator is a numeric comparison used by Comparison and TimeDependent
// conditions. Values outside the known set are kept verbatim and never match.
type Operator string

// Operator values use the stored rulebase spelling.
const (
	OpGreater        Operator = "greater"
	OpLess           Operator = "less"
	OpEqual          Operator = "equal"
	OpGreaterOrEqual Operator = "greater or equal"
	OpLessOrEqual    Operator = "less or equal"
)

// Operators lists the supported operators in authoring order.
func Operators() []Operator {
	return []Operator{OpGreater, OpLess, OpEqual, OpGreaterOrEqual, OpLessOrEqual}
}

// ParseOperator normalises case and '-' or '_' separators. Unknown input is
// returned trimmed and lowercased so it survives a round trip.
func ParseOperator(s string) Operator {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	norm = strings.Join(strings.Fields(norm), " ")

	switch norm {
	case ">", "gt":
		return OpGreater
	case "<", "lt":
		return OpLess
	case "=", "==", "eq":
		return OpEqual
	case ">=", "gte":
		return OpGreaterOrEqual
	case "<=", "lte":
		return OpLessOrEqual
	}

	return Operator(norm)
}

// Valid reports whether op is one of the supported operators.
func (op Operator) Valid() bool {
	switch op {
	case OpGreater, OpLess, OpEqual, OpGreaterOrEqual, OpLessOrEqual:
		return true
	}

	return false
}

// Symbol returns the mathematical symbol, or "?" for unknown operators.
func (op Operator) Symbol() string {
	switch op {
	case OpGreater:
		return ">"
	case OpLess:
		return "<"
	case OpEqual:
		return "=="
	case OpGreaterOrEqual:
		return ">="
	case OpLessOrEqual:
		return "<="
	}

	return "?"
}

// Compare applies op to value and threshold. Unknown operators yield false.
func (op Operator) Compare(value, threshold float64) bool {
	switch op {
	case OpGreater:
		return value > threshold
	case OpLess:
		return value < threshold
	case OpEqual:
		return value == threshold
	case OpGreaterOrEqual:
		return value >= threshold
	case OpLessOrEqual:
		return value <= threshold
	}

	return false
}
