// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package affinity turns a thread count into a CPU pinning assignment.

Planning is split in two. Candidates yields CPU ids of a topology lazily, in
the order they should be handed out. Plan takes as many as the thread count
needs. Keeping the ordering policy apart from the count makes each easy to
test on its own.

Everything here is pure: no I/O, no shared state.
*/
package affinity

import (
	"iter"
	"strconv"
	"strings"

	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/registry"
)

const (
	// PinTool is the executable used to pin runs to CPUs.
	PinTool = "numactl"

	// ThreadsEnv is the runtime variable that carries the thread count.
	ThreadsEnv = "OMP_NUM_THREADS"
)

// Assignment is the pinning decision for one thread count.
type Assignment struct {
	// Threads is the requested logical thread count.
	Threads int

	// Topology is the selector the CPUs were planned for, empty when unpinned.
	Topology string

	// CPUs lists the CPUs to bind, in priority order. Nil when unpinned.
	CPUs []int
}

// Pinned reports whether the assignment binds CPUs.
func (a Assignment) Pinned() bool {
	return a.Topology != ""
}

// CPUList renders CPUs as a comma-separated list.
func (a Assignment) CPUList() string {
	parts := make([]string, len(a.CPUs))
	for i, cpu := range a.CPUs {
		parts[i] = strconv.Itoa(cpu)
	}
	return strings.Join(parts, ",")
}

// Directive renders the assignment the way it prefixes a shell command line.
func (a Assignment) Directive() string {
	if !a.Pinned() {
		return ThreadsEnv + "=" + strconv.Itoa(a.Threads)
	}
	return strings.Join(a.pinArgs(), " ")
}

func (a Assignment) pinArgs() []string {
	return []string{PinTool, "--physcpubind=" + a.CPUList(), "--localalloc"}
}

// Wrap decorates a run command with the assignment.
//
// # Description
//
// Unpinned assignments add OMP_NUM_THREADS to the environment. Pinned ones
// run the command under numactl with an explicit CPU list and local memory
// allocation. The input command is not modified.
func (a Assignment) Wrap(cmd registry.Command) registry.Command {
	env := make([]string, len(cmd.Env), len(cmd.Env)+1)
	copy(env, cmd.Env)

	if !a.Pinned() {
		return registry.Command{
			Name: cmd.Name,
			Args: append([]string(nil), cmd.Args...),
			Env:  append(env, ThreadsEnv+"="+strconv.Itoa(a.Threads)),
		}
	}

	pin := a.pinArgs()
	args := make([]string, 0, len(pin)+len(cmd.Args))
	args = append(args, pin[1:]...)
	args = append(args, cmd.Name)
	args = append(args, cmd.Args...)
	return registry.Command{Name: pin[0], Args: args, Env: env}
}

// Candidates yields the CPU ids of a topology in pinning priority order.
//
// # Description
//
// linear-socket walks every even core of a full socket pass, then every odd
// core; the sequence ends after 2 x CoresPerSocket physical cores. flat walks
// 0, 1, 2, ... without end, or up to SiblingOffset physical cores with
// hyperthreading so a sibling id is never yielded again as a core. With
// hyperthreading each physical core is immediately followed by
// core+SiblingOffset.
func Candidates(t Topology) iter.Seq[int] {
	return func(yield func(int) bool) {
		emit := func(core int) bool {
			if !yield(core) {
				return false
			}
			if t.Hyperthreading {
				return yield(core + t.SiblingOffset)
			}
			return true
		}

		switch t.Family {
		case FamilyLinearSocket:
			for pass := 0; pass < 2; pass++ {
				for i := 0; i < t.CoresPerSocket; i++ {
					if !emit(2*i + pass) {
						return
					}
				}
			}
		case FamilyFlat:
			for core := 0; !t.Hyperthreading || core < t.SiblingOffset; core++ {
				if !emit(core) {
					return
				}
			}
		}
	}
}

// Plan computes the assignment for a thread count.
//
// # Description
//
// A nil topology produces an unpinned assignment. Otherwise the first
// threads (2 x threads with hyperthreading) candidates are taken. When the
// topology enumerates fewer CPUs than that, all of them are returned rather
// than failing.
//
// # Examples
//
//	a := affinity.Plan(&ithaca, 4)
//	a.CPUList() // "0,2,4,6"
func Plan(t *Topology, threads int) Assignment {
	if t == nil {
		return Assignment{Threads: threads}
	}
	need := threads
	if t.Hyperthreading {
		need *= 2
	}
	cpus := make([]int, 0, max(need, 0))
	if need > 0 {
		for cpu := range Candidates(*t) {
			cpus = append(cpus, cpu)
			if len(cpus) >= need {
				break
			}
		}
	}
	return Assignment{Threads: threads, Topology: t.Name, CPUs: cpus}
}
