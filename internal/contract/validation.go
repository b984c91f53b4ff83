// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package contract centralizes the input-validation rules shared by the
// Analysis Orchestrator's public surface.
package contract

import (
	"fmt"
	"regexp"
)

// MaxSymbolNameLength is the longest symbol name accepted by a query.
const MaxSymbolNameLength = 200

var symbolNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidationResult represents the result of a validation check.
type ValidationResult struct {
	OK      bool
	Message string
}

// ValidateSymbolName checks a symbol name against the Analysis
// Orchestrator's query contract: non-empty, at most MaxSymbolNameLength
// bytes, and restricted to [A-Za-z0-9_-]+.
func ValidateSymbolName(name string) error {
	if name == "" {
		return fmt.Errorf("symbol name must not be empty")
	}
	if len(name) > MaxSymbolNameLength {
		return fmt.Errorf("symbol name exceeds %d characters", MaxSymbolNameLength)
	}
	if !symbolNamePattern.MatchString(name) {
		return fmt.Errorf("symbol name %q contains characters outside [A-Za-z0-9_-]", name)
	}
	return nil
}
