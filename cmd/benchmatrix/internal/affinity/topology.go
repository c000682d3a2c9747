// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package affinity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Family selects the CPU enumeration rule of a topology.
type Family string

const (
	// FamilyLinearSocket spreads threads over even-numbered cores first,
	// then odd-numbered cores. On the reference two-socket machine even and
	// odd core ids live on different sockets.
	FamilyLinearSocket Family = "linear-socket"

	// FamilyFlat numbers cores linearly from zero.
	FamilyFlat Family = "flat"
)

var (
	// ErrUnknownTopology is returned when a topology selector is not defined.
	ErrUnknownTopology = errors.New("unknown topology")

	// ErrInvalidTopology is returned when a topology would pin a CPU twice.
	ErrInvalidTopology = errors.New("invalid topology")
)

// Topology describes a machine CPU layout used for pinning.
type Topology struct {
	// Name is the selector users pass on the command line.
	Name string `yaml:"name" validate:"required"`

	// Family selects the enumeration rule.
	Family Family `yaml:"family" validate:"required,oneof=linear-socket flat"`

	// CoresPerSocket bounds a linear-socket enumeration pass. Unused by flat.
	CoresPerSocket int `yaml:"cores_per_socket" validate:"required_if=Family linear-socket,gte=0"`

	// SiblingOffset is added to a physical core id to get its hyperthread.
	SiblingOffset int `yaml:"sibling_offset" validate:"gte=0"`

	// Hyperthreading pins two logical CPUs per requested thread.
	Hyperthreading bool `yaml:"hyperthreading"`
}

// String returns a one-line description.
func (t Topology) String() string {
	ht := "no-ht"
	if t.Hyperthreading {
		ht = fmt.Sprintf("ht+%d", t.SiblingOffset)
	}
	if t.Family == FamilyLinearSocket {
		return fmt.Sprintf("%s (%s, %d cores/socket, %s)", t.Name, t.Family, t.CoresPerSocket, ht)
	}
	return fmt.Sprintf("%s (%s, %s)", t.Name, t.Family, ht)
}

// Validate rejects sibling offsets that land on a physical core of the
// enumeration. linear-socket enumerates 2 x CoresPerSocket physical cores,
// so siblings must start at or above that; flat needs a positive offset.
// Without hyperthreading the offset is unused.
func (t Topology) Validate() error {
	if !t.Hyperthreading {
		return nil
	}
	switch t.Family {
	case FamilyLinearSocket:
		if physical := 2 * t.CoresPerSocket; t.SiblingOffset < physical {
			return fmt.Errorf("%w: %s: sibling_offset %d overlaps the %d physical cores",
				ErrInvalidTopology, t.Name, t.SiblingOffset, physical)
		}
	case FamilyFlat:
		if t.SiblingOffset <= 0 {
			return fmt.Errorf("%w: %s: hyperthreading needs a positive sibling_offset", ErrInvalidTopology, t.Name)
		}
	}
	return nil
}

// Builtin profiles of the two reference machines.
var builtin = []Topology{
	{Name: "ithaca", Family: FamilyLinearSocket, CoresPerSocket: 18, SiblingOffset: 36},
	{Name: "ithaca_ht", Family: FamilyLinearSocket, CoresPerSocket: 18, SiblingOffset: 36, Hyperthreading: true},
	{Name: "athena", Family: FamilyFlat, SiblingOffset: 256},
	{Name: "athena_ht", Family: FamilyFlat, SiblingOffset: 256, Hyperthreading: true},
}

// Catalog is a set of named topologies.
type Catalog struct {
	byName map[string]Topology
}

// NewCatalog returns the built-in profiles extended with extra.
//
// Extra profiles override built-ins of the same name.
func NewCatalog(extra ...Topology) *Catalog {
	c := &Catalog{byName: make(map[string]Topology, len(builtin)+len(extra))}
	for _, t := range builtin {
		c.byName[t.Name] = t
	}
	for _, t := range extra {
		c.byName[t.Name] = t
	}
	return c
}

// Lookup resolves a topology selector.
//
// An empty selector means "no pinning" and returns nil without error.
func (c *Catalog) Lookup(name string) (*Topology, error) {
	if name == "" {
		return nil, nil
	}
	t, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (choose from %s)", ErrUnknownTopology, name, strings.Join(c.Names(), ", "))
	}
	return &t, nil
}

// Names returns the sorted topology selectors.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
