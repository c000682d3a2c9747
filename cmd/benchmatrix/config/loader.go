// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jinterlante1206/benchmatrix/pkg/validation"
)

// ErrInvalidConfig wraps parse and validation failures of a sweep file.
var ErrInvalidConfig = errors.New("invalid sweep file")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and validates a sweep file.
//
// An empty file is an empty config. Unknown keys are rejected so a typo such as "thread:" fails loudly
// instead of silently running the defaults.
func Load(path string) (SweepFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return SweepFile{}, fmt.Errorf("failed to read the sweep file: %w", err)
	}
	defer f.Close()

	var cfg SweepFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return SweepFile{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if err := Validate(cfg); err != nil {
		return SweepFile{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints, topology names and sibling offsets.
func Validate(cfg SweepFile) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	seen := make(map[string]bool, len(cfg.Topologies))
	for _, t := range cfg.Topologies {
		if err := validation.ValidateName("topology", t.Name); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: topology %q defined twice", ErrInvalidConfig, t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

// WriteExample writes Example() to path, refusing to overwrite.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create the config directory %w", err)
		}
	}
	data, err := yaml.Marshal(Example())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
