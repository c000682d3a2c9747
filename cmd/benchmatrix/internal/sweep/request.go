// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sweep

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/registry"
)

// FailurePolicy decides what happens after a build or run fails.
type FailurePolicy string

const (
	// PolicyAbort stops the whole sweep at the first failure.
	PolicyAbort FailurePolicy = "abort"

	// PolicyContinue logs the failure and carries on with the next step.
	PolicyContinue FailurePolicy = "continue"
)

// ParsePolicy maps a flag value to a FailurePolicy.
func ParsePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyAbort, PolicyContinue:
		return p, nil
	case "":
		return PolicyAbort, nil
	default:
		return "", fmt.Errorf("%w: failure policy %q (want abort or continue)", ErrInvalidRequest, s)
	}
}

// Defaults used when a request leaves a list empty.
const (
	DefaultSamples   = 2
	DefaultSubqueues = 64
	DefaultBatchSize = 16
	DefaultBinDir    = "bin"
	DefaultWorkDir   = "."
)

// ErrInvalidRequest wraps every request validation failure.
var ErrInvalidRequest = errors.New("invalid sweep request")

// Request is the user-facing description of one sweep.
//
// # Description
//
// A request names the variants to run, the thread counts to run each build
// with, and the value lists of every tuning parameter. Use WithDefaults to
// fill unset lists and Validate before planning.
type Request struct {
	// Variants are registry display names.
	Variants []string `yaml:"variants" validate:"required,min=1,dive,required"`

	// Threads are the thread counts every configuration is run with.
	Threads []int `yaml:"threads" validate:"required,min=1,dive,gt=0"`

	Samples    []int  `yaml:"samples" validate:"required,min=1,dive,gt=0"`
	Subqueues  []int  `yaml:"subqueues" validate:"required,min=1,dive,gt=0"`
	BatchSizes []int  `yaml:"batch_sizes" validate:"required,min=1,dive,gt=0"`
	Debug      []bool `yaml:"debug" validate:"required,min=1"`

	// BenchArgs are passed verbatim to every benchmark executable.
	BenchArgs []string `yaml:"bench_args"`

	// Topology is a pinning topology selector; empty disables pinning.
	Topology string `yaml:"topology"`

	// OutputRoot receives one subdirectory per configuration.
	OutputRoot string `yaml:"output" validate:"required"`

	// WorkDir is where builds run, binaries live and artifacts appear.
	WorkDir string `yaml:"work_dir"`

	// BinDir holds built executables, relative to WorkDir unless absolute.
	BinDir string `yaml:"bin_dir"`

	// BuildTool is the build executable, "make" by default.
	BuildTool string `yaml:"build_tool"`

	// Policy is the failure policy, abort by default.
	Policy FailurePolicy `yaml:"on_failure" validate:"oneof=abort continue"`
}

// WithDefaults returns a copy of r with unset fields defaulted.
func (r Request) WithDefaults() Request {
	if len(r.Samples) == 0 {
		r.Samples = []int{DefaultSamples}
	}
	if len(r.Subqueues) == 0 {
		r.Subqueues = []int{DefaultSubqueues}
	}
	if len(r.BatchSizes) == 0 {
		r.BatchSizes = []int{DefaultBatchSize}
	}
	if len(r.Debug) == 0 {
		r.Debug = []bool{false}
	}
	if r.WorkDir == "" {
		r.WorkDir = DefaultWorkDir
	}
	if r.BinDir == "" {
		r.BinDir = DefaultBinDir
	}
	if r.BuildTool == "" {
		r.BuildTool = registry.DefaultBuildTool
	}
	if r.Policy == "" {
		r.Policy = PolicyAbort
	}
	return r
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the structural invariants of the request.
//
// Registry membership of Variants is checked by Expand, which has the
// registry at hand.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// ParseDebug maps the --debug flag values no, yes and both.
func ParseDebug(s string) ([]bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "no":
		return []bool{false}, nil
	case "yes":
		return []bool{true}, nil
	case "both":
		return []bool{false, true}, nil
	default:
		return nil, fmt.Errorf("%w: debug mode %q (want no, yes or both)", ErrInvalidRequest, s)
	}
}
