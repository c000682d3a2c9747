// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/config"
	"github.com/jinterlante1206/benchmatrix/pkg/logging"
	"github.com/jinterlante1206/benchmatrix/pkg/ux"
)

// requestFlags are shared by run and plan.
type requestFlags struct {
	variants   []string
	threads    []int
	output     string
	samples    []int
	subqueues  []int
	batchSizes []int
	debug      string
	topology   string
	onFailure  string
	workDir    string
	binDir     string
	buildTool  string
	benchArgs  string
}

// --- Global Command Variables ---
var (
	configPath       string
	logLevel         string
	logDir           string
	logJSON          bool
	personalityLevel string

	reqFlags    requestFlags
	metricsFile string
	traceFile   string

	affinityTopology string
	affinityThreads  []int

	// sweepFile is loaded in PersistentPreRunE when --config is set.
	sweepFile config.SweepFile

	// logger is built in PersistentPreRunE and closed by execute.
	logger = logging.Nop()

	rootCmd = &cobra.Command{
		Use:   "benchmatrix",
		Short: "Build and run parameter sweeps of graph-traversal benchmark variants",
		Long: `benchmatrix expands a set of queue variants and tuning parameters into
distinct builds, compiles each once, runs it at every requested thread count
(optionally pinned to CPUs), and files the artifacts per configuration.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	runCmd = &cobra.Command{
		Use:   "run -a VARIANT,... -t THREADS,... -o DIR [flags] [-- BENCH_ARGS...]",
		Short: "Build and run every configuration of a sweep",
		Example: `  benchmatrix run -a FAA,DCBO_FAA -t 1,2,4,8 -o results -- -g graphs/road.gr
  benchmatrix run --config sweep.yaml -p ithaca_ht --on-failure continue`,
		Args: benchArgsOnly,
		RunE: runSweep, // Defined in cmd_run.go
	}

	planCmd = &cobra.Command{
		Use:   "plan -a VARIANT,... -t THREADS,... -o DIR [flags] [-- BENCH_ARGS...]",
		Short: "Print the configurations and commands of a sweep without running them",
		Args:  benchArgsOnly,
		RunE:  runPlan, // Defined in cmd_plan.go
	}

	variantsCmd = &cobra.Command{
		Use:   "variants",
		Short: "List the variant catalog",
		Args:  cobra.NoArgs,
		RunE:  runVariants, // Defined in cmd_variants.go
	}

	affinityCmd = &cobra.Command{
		Use:   "affinity -p TOPOLOGY -t THREADS,...",
		Short: "Print the CPU list each thread count would be pinned to",
		Args:  cobra.NoArgs,
		RunE:  runAffinity, // Defined in cmd_affinity.go
	}

	initCmd = &cobra.Command{
		Use:   "init [path]",
		Short: "Write an example sweep file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit, // Defined in cmd_init.go
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML sweep file; explicit flags override it")
	pf.StringVar(&logLevel, "log-level", "warn", "Console log level: debug, info, warn or error")
	pf.StringVar(&logDir, "log-dir", "", "Also append JSON logs to a daily file in this directory")
	pf.BoolVar(&logJSON, "log-json", false, "Write console logs as JSON")
	pf.StringVar(&personalityLevel, "personality", "",
		"Output style: full, minimal or machine (default: full on a terminal, machine otherwise)")

	rootCmd.AddCommand(runCmd)
	addRequestFlags(runCmd)
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when the sweep ends")
	runCmd.Flags().StringVar(&traceFile, "trace-file", "", "Write OpenTelemetry spans to this file as JSON lines")

	rootCmd.AddCommand(planCmd)
	addRequestFlags(planCmd)

	rootCmd.AddCommand(variantsCmd)

	rootCmd.AddCommand(affinityCmd)
	affinityCmd.Flags().StringVarP(&affinityTopology, "pinning", "p", "", "Topology profile")
	affinityCmd.Flags().IntSliceVarP(&affinityThreads, "threads", "t", nil, "Thread counts")
	_ = affinityCmd.MarkFlagRequired("pinning")
	_ = affinityCmd.MarkFlagRequired("threads")

	rootCmd.AddCommand(initCmd)
}

func addRequestFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceVarP(&reqFlags.variants, "algorithms", "a", nil, "Variants to sweep (see 'benchmatrix variants')")
	f.IntSliceVarP(&reqFlags.threads, "threads", "t", nil, "Thread counts to run every configuration with")
	f.StringVarP(&reqFlags.output, "output", "o", "", "Output root; one subdirectory per configuration")
	f.IntSliceVarP(&reqFlags.samples, "samples", "s", nil, "N_SAMPLES values (default 2)")
	f.IntSliceVarP(&reqFlags.subqueues, "subqueues", "q", nil, "N_SUBQUEUES values (default 64)")
	f.IntSliceVarP(&reqFlags.batchSizes, "batch-sizes", "b", nil, "BATCH_SIZE values (default 16)")
	f.StringVarP(&reqFlags.debug, "debug", "d", "no", "Debug builds: no, yes or both")
	f.StringVarP(&reqFlags.topology, "pinning", "p", "", "Pin threads with numactl using this topology")
	f.StringVar(&reqFlags.onFailure, "on-failure", "abort", "Failure policy: abort or continue")
	f.StringVar(&reqFlags.workDir, "work-dir", "", "Directory builds and runs execute in (default .)")
	f.StringVar(&reqFlags.binDir, "bin-dir", "", "Executable directory relative to the work dir (default bin)")
	f.StringVar(&reqFlags.buildTool, "build-tool", "", "Build executable (default make)")
	f.StringVar(&reqFlags.benchArgs, "bench-args", "", "Arguments passed to every benchmark run, split on whitespace")
}

// benchArgsOnly rejects positional arguments that are not after "--".
func benchArgsOnly(cmd *cobra.Command, args []string) error {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 && len(args) > 0 {
		return fmt.Errorf("unexpected arguments %q; pass benchmark arguments after --", args)
	}
	if dash > 0 {
		return fmt.Errorf("unexpected arguments %q before --", args[:dash])
	}
	return nil
}

// setup applies global flags, loads the sweep file and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	if personalityLevel != "" {
		ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
	} else {
		ux.InitPersonality()
	}
	ux.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())

	sweepFile = config.SweepFile{}
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		sweepFile = cfg
	}

	level := logLevel
	if !cmd.Flags().Changed("log-level") && sweepFile.Logging.Level != "" {
		level = sweepFile.Logging.Level
	}
	parsed, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}
	dir := logDir
	if dir == "" {
		dir = sweepFile.Logging.Dir
	}
	logger = logging.New(logging.Config{
		Level:   parsed,
		LogDir:  dir,
		Service: "benchmatrix",
		JSON:    logJSON || sweepFile.Logging.JSON,
		Writer:  cmd.ErrOrStderr(),
	})
	return nil
}
