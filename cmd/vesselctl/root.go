package main

import (
	"fmt"
	"os"

	"github.com/chazu/vesselkit/pkg/config"
	"github.com/chazu/vesselkit/pkg/engine"
	"github.com/chazu/vesselkit/pkg/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vesselctl",
	Short: "Parametric process vessel configurator",
	Long: `vesselctl - parametric process vessel configurator

Turns a vessel description (shape, size, caps, legs) and a set of
attachments into solids, a scene graph, meshes and STL files, and serves
the interactive placement API used by the 3D frontend.

Vessels are described in .vsl scripts:

  (vessel :shape :cylindrical :height 2000 :diameter 1000 :top :dome)
  (attach :sensor :count 2)
  (place "sensor-1" (vec3 0.8 1.2 0.3))`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Default()
		if configPath != "" {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		logger = cfg.Log.NewLogger(os.Stderr)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML settings file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// sessionOptions builds session options from the loaded settings.
func sessionOptions() session.Options {
	return session.Options{
		Limits: cfg.Limits,
		Tuning: cfg.Tuning,
		Logger: logger,
	}
}

// loadScript evaluates a .vsl file into a fresh session. An empty path
// yields the default vessel.
func loadScript(path string) (*session.Session, *engine.Design, error) {
	s := session.New(sessionOptions())
	if path == "" {
		return s, engine.NewDesign(), nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read script: %w", err)
	}
	d, evalErrs, err := engine.NewEngine(cfg.Script.EngineOptions()...).Evaluate(string(src))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, e.Error())
		}
		return nil, nil, fmt.Errorf("%s: %d script error(s)", path, len(evalErrs))
	}
	if err := s.ApplyDesign(d); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, d, nil
}
