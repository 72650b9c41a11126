package main

import (
	"fmt"

	"github.com/chazu/vesselkit/pkg/session"
	"github.com/spf13/cobra"
)

var (
	buildOutput string
	buildKernel string
	buildCells  int
)

var buildCmd = &cobra.Command{
	Use:   "build [script.vsl]",
	Short: "Export the configured vessel as an STL file",
	Long: `Evaluate a vessel script, compose the scene with every attachment
at its placed position and write the union as a single STL file.

Examples:
  vesselctl build fermenter.vsl -o fermenter.stl
  vesselctl build fermenter.vsl -o fermenter.stl --cells 300`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "vessel.stl", "Output STL path")
	buildCmd.Flags().StringVar(&buildKernel, "kernel", "", "Geometry kernel (sdfx, manifold); defaults to the config value")
	buildCmd.Flags().IntVar(&buildCells, "cells", 0, "Marching cubes resolution; defaults to the config value")
}

func runBuild(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	s, _, err := loadScript(path)
	if err != nil {
		return err
	}

	name, cells := cfg.Render.Kernel, cfg.Render.MeshCells
	if buildKernel != "" {
		name = buildKernel
	}
	if buildCells > 0 {
		cells = buildCells
	}
	k, err := session.OpenKernel(name, cells, logger)
	if err != nil {
		return err
	}

	if err := s.ExportSTL(k, buildOutput); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%s kernel, %d attachments)\n", buildOutput, k.Name(), len(s.Frame().Attachments))
	return nil
}
