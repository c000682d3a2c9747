// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation checks user-supplied names before they reach the
// filesystem or a build command line.
package validation

import (
	"fmt"
	"regexp"
)

// namePattern matches names that are safe as a directory name, a file name
// prefix and a make variable value: letters, digits, underscore, dot and
// hyphen, starting with a letter or digit.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.\-]{0,63}$`)

// ValidateName validates a variant, queue or topology name.
//
// kind is only used in the error message.
//
// Example:
//
//	if err := validation.ValidateName("topology", t.Name); err != nil {
//	    return err
//	}
//	// Safe to use as a path element and a make argument
func ValidateName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", kind)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid %s name %q (must be 1-64 letters, digits, '_', '.' or '-', starting with a letter or digit)", kind, name)
	}
	return nil
}

// ValidateNames validates several names of the same kind.
// Returns an error listing all invalid names if any fail validation.
func ValidateNames(kind string, names []string) error {
	var invalid []string
	for _, n := range names {
		if err := ValidateName(kind, n); err != nil {
			invalid = append(invalid, n)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid %s names: %q", kind, invalid)
	}
	return nil
}
