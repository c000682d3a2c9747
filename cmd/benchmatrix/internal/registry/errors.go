// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for catalog construction and lookup.
var (
	// ErrUnknownVariant is returned when a display name is not in the catalog.
	ErrUnknownVariant = errors.New("unknown variant")

	// ErrDuplicateVariant is returned when two catalog entries share a display name.
	ErrDuplicateVariant = errors.New("duplicate variant display name")

	// ErrInvalidVariant is returned for catalog entries that cannot be built.
	ErrInvalidVariant = errors.New("invalid variant")
)

// UnknownVariantError names the display name that failed lookup.
type UnknownVariantError struct {
	Name  string
	Known []string
}

// Error implements the error interface.
func (e *UnknownVariantError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("%v: %q", ErrUnknownVariant, e.Name)
	}
	return fmt.Sprintf("%v: %q (choose from %s)", ErrUnknownVariant, e.Name, strings.Join(e.Known, ", "))
}

// Unwrap returns ErrUnknownVariant so errors.Is works.
func (e *UnknownVariantError) Unwrap() error {
	return ErrUnknownVariant
}
