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
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Palette
var (
	ColorAccent  = lipgloss.Color("#20B9B4")
	ColorBright  = lipgloss.Color("#2CD7C7")
	ColorBorder  = lipgloss.Color("#16858E")
	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#2C4A54")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Box     lipgloss.Style
	Header  lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorBright),
	Label:   lipgloss.NewStyle().Foreground(ColorAccent),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1),
	Header: lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).Padding(0, 1),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconArrow   Icon = "→"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	case IconPending:
		return Styles.Muted.Render(string(i))
	default:
		return string(i)
	}
}

// LabelWidth is the column width of aligned label/value lines.
const LabelWidth = 20

var (
	stdout   io.Writer = os.Stdout
	stderr   io.Writer = os.Stderr
	outputMu sync.Mutex
)

// SetOutput redirects printing. Nil arguments restore the process streams.
func SetOutput(out, errOut io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	stdout, stderr = out, errOut
}

func printOut(format string, args ...any) {
	outputMu.Lock()
	defer outputMu.Unlock()
	fmt.Fprintf(stdout, format, args...)
}

func printErr(format string, args ...any) {
	outputMu.Lock()
	defer outputMu.Unlock()
	fmt.Fprintf(stderr, format, args...)
}

// Title prints a styled title
func Title(text string) {
	if GetPersonalityLevel() == PersonalityMachine {
		return
	}
	printOut("%s\n", Styles.Title.Render(text))
}

// Aligned prints "label value" with the label padded to LabelWidth.
//
// The padding is applied before styling so colors never skew alignment.
func Aligned(label, value string) {
	padded := fmt.Sprintf("%-*s", LabelWidth, label)
	if GetPersonalityLevel() == PersonalityFull {
		padded = Styles.Label.Render(padded)
	}
	printOut("%s%s\n", padded, value)
}

// Step prints a progress line for a process about to be spawned.
func Step(text string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		printOut("RUN: %s\n", text)
	case PersonalityMinimal:
		printOut("%s %s\n", IconArrow, text)
	default:
		printOut("%s %s\n", Styles.Muted.Render(string(IconArrow)), text)
	}
}

// Success prints a success message with checkmark
func Success(text string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		printOut("OK: %s\n", text)
	case PersonalityMinimal:
		printOut("%s %s\n", IconSuccess, text)
	default:
		printOut("%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

// Warning prints a warning message to stderr
func Warning(text string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		printErr("WARN: %s\n", text)
	case PersonalityMinimal:
		printErr("%s %s\n", IconWarning, text)
	default:
		printErr("%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

// Error prints an error message to stderr
func Error(text string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		printErr("ERROR: %s\n", text)
	case PersonalityMinimal:
		printErr("%s %s\n", IconError, text)
	default:
		printErr("%s %s\n", IconError.Render(), Styles.Error.Render(text))
	}
}

// Info prints an informational message
func Info(text string) {
	printOut("%s\n", text)
}

// Box prints text in a rounded box
func Box(title, content string) {
	if GetPersonalityLevel() != PersonalityFull {
		printOut("%s: %s\n", title, content)
		return
	}
	printOut("%s\n", Styles.Box.Render(Styles.Title.Render(title)+"\n"+content))
}

// Table prints rows under headers.
//
// Full output draws a bordered lipgloss table; otherwise columns are
// tab separated for piping into cut or awk.
func Table(headers []string, rows [][]string) {
	if GetPersonalityLevel() != PersonalityFull {
		var b strings.Builder
		b.WriteString(strings.Join(headers, "\t"))
		b.WriteByte('\n')
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
		printOut("%s", b.String())
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return Styles.Header
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...)
	printOut("%s\n", t.Render())
}

// Summary prints the end-of-sweep counts.
func Summary(configurations, runs, failures int) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		printOut("SUMMARY: configurations=%d runs=%d failures=%d\n", configurations, runs, failures)
	default:
		failStyle := Styles.Success
		if failures > 0 {
			failStyle = Styles.Error
		}
		printOut("%s %s  %s %s  %s %s\n",
			Styles.Bold.Render(fmt.Sprint(configurations)), Styles.Muted.Render("configurations"),
			Styles.Bold.Render(fmt.Sprint(runs)), Styles.Muted.Render("runs"),
			failStyle.Render(fmt.Sprint(failures)), Styles.Muted.Render("failures"),
		)
	}
}
