package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openpricing/zigdag/dag"
	"github.com/openpricing/zigdag/internal/buildpipeline"
	"github.com/openpricing/zigdag/internal/config"
)

func buildCmd(cfg config.Config) *cobra.Command {
	var targetFlags []string
	var outputDir string
	var watch bool

	cmd := &cobra.Command{
		Use:   "build [model.json]",
		Short: "Parse, validate, and compile a JSON model into a shared library and Python package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelPath := args[0]

			targets, err := resolveTargets(targetFlags, cfg.DefaultTargets)
			if err != nil {
				return err
			}

			runBuild := func() error {
				g, err := dag.ParseFile(modelPath)
				if err != nil {
					return fmt.Errorf("parse %s: %w", modelPath, err)
				}
				plan, err := dag.Validate(g)
				if err != nil {
					return fmt.Errorf("validate %s: %w", modelPath, err)
				}
				p := buildpipeline.New(g, plan, outputDir, targets, cfg.BatchChunkSize)
				return p.Run()
			}

			if err := runBuild(); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			stop := make(chan struct{})
			return buildpipeline.Watch(modelPath, stop, runBuild)
		},
	}

	cmd.Flags().StringSliceVar(&targetFlags, "target", nil, "cross-compile target(s), e.g. linux/amd64 (repeatable, default: ZIGDAG_TARGETS, else linux/amd64)")
	cmd.Flags().StringVar(&outputDir, "out", cfg.OutputDir, "output directory")
	cmd.Flags().BoolVar(&watch, "watch", false, "rebuild whenever the model file changes")

	return cmd
}

// resolveTargets turns repeated --target flags into concrete build targets.
// With no flags given it falls back to the configured targets (config.Load
// yields linux/amd64 when ZIGDAG_TARGETS is unset); only an empty
// configured list falls back to buildpipeline.DefaultTargets.
func resolveTargets(flags []string, configured []string) ([]buildpipeline.Target, error) {
	if len(flags) == 0 {
		if len(configured) == 0 {
			return buildpipeline.DefaultTargets, nil
		}
		flags = configured
	}
	targets := make([]buildpipeline.Target, 0, len(flags))
	for _, f := range flags {
		t, err := buildpipeline.ParseTarget(f)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}
