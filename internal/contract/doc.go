// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package contract provides the validation rules shared by every query
// entry point on the Analysis Orchestrator.
//
// # Symbol name validation
//
//	if err := contract.ValidateSymbolName(name); err != nil {
//	    return nil, cieerrors.NewInvalidInputError("invalid symbol name", err.Error(), "use [A-Za-z0-9_-]+")
//	}
package contract
