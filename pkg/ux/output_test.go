// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bytes"
	"strings"
	"testing"
)

// capture redirects output at the given level for the duration of f.
func capture(t *testing.T, level PersonalityLevel, f func()) (string, string) {
	t.Helper()
	orig := GetPersonalityLevel()
	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	SetPersonalityLevel(level)
	defer func() {
		SetOutput(nil, nil)
		SetPersonalityLevel(orig)
	}()
	f()
	return out.String(), errOut.String()
}

// =============================================================================
// Icon.Render Tests
// =============================================================================

func TestIcon_Render(t *testing.T) {
	for _, icon := range []Icon{IconSuccess, IconWarning, IconError, IconPending, IconArrow} {
		if !strings.Contains(icon.Render(), string(icon)) {
			t.Errorf("Render(%q) lost the glyph", icon)
		}
	}
}

// =============================================================================
// Aligned Tests
// =============================================================================

func TestAligned_PadsLabel(t *testing.T) {
	out, _ := capture(t, PersonalityMachine, func() {
		Aligned("Variants", "FAA DO")
		Aligned("Output root", "/tmp/out")
	})
	want := "Variants            FAA DO\nOutput root         /tmp/out\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestAligned_LongLabelNotTruncated(t *testing.T) {
	out, _ := capture(t, PersonalityMinimal, func() {
		Aligned("A label that is far too long", "v")
	})
	if out != "A label that is far too longv\n" {
		t.Errorf("got %q", out)
	}
}

// =============================================================================
// Level-dependent Output Tests
// =============================================================================

func TestMachineOutput(t *testing.T) {
	out, errOut := capture(t, PersonalityMachine, func() {
		Title("ignored")
		Step("make bfs QUEUE=DO")
		Success("done")
		Warning("careful")
		Error("broken")
		Summary(2, 4, 1)
	})
	wantOut := "RUN: make bfs QUEUE=DO\nOK: done\nSUMMARY: configurations=2 runs=4 failures=1\n"
	if out != wantOut {
		t.Errorf("stdout = %q, want %q", out, wantOut)
	}
	if errOut != "WARN: careful\nERROR: broken\n" {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestMinimalOutput(t *testing.T) {
	out, errOut := capture(t, PersonalityMinimal, func() {
		Step("./bin/bfs -o DO_1")
		Success("done")
		Warning("careful")
	})
	if out != "→ ./bin/bfs -o DO_1\n✓ done\n" {
		t.Errorf("stdout = %q", out)
	}
	if errOut != "⚠ careful\n" {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestFullOutputContainsText(t *testing.T) {
	out, errOut := capture(t, PersonalityFull, func() {
		Title("Sweep")
		Success("done")
		Box("Plan", "2 configurations")
		Error("broken")
	})
	for _, s := range []string{"Sweep", "done", "Plan", "2 configurations"} {
		if !strings.Contains(out, s) {
			t.Errorf("stdout missing %q: %q", s, out)
		}
	}
	if !strings.Contains(errOut, "broken") {
		t.Errorf("stderr missing message: %q", errOut)
	}
}

func TestTable_Plain(t *testing.T) {
	out, _ := capture(t, PersonalityMachine, func() {
		Table([]string{"NAME", "TARGET"}, [][]string{{"DO", "bfs"}, {"FAA", "relax_rbfs"}})
	})
	want := "NAME\tTARGET\nDO\tbfs\nFAA\trelax_rbfs\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestTable_Full(t *testing.T) {
	out, _ := capture(t, PersonalityFull, func() {
		Table([]string{"NAME", "TARGET"}, [][]string{{"DO", "bfs"}})
	})
	for _, s := range []string{"NAME", "TARGET", "DO", "bfs"} {
		if !strings.Contains(out, s) {
			t.Errorf("table missing %q: %q", s, out)
		}
	}
}

func TestInfo_AllLevels(t *testing.T) {
	for _, level := range []PersonalityLevel{PersonalityFull, PersonalityMinimal, PersonalityMachine} {
		out, _ := capture(t, level, func() { Info("Benchmarking finished") })
		if out != "Benchmarking finished\n" {
			t.Errorf("level %s: got %q", level, out)
		}
	}
}
