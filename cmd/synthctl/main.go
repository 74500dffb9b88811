package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-synthctl/config"
	"github.com/cwbudde/algo-synthctl/preset"
	"github.com/cwbudde/algo-synthctl/synth"
)

var version = "0.1.0"

var (
	presetPath string
	expFactor  float64
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "synthctl",
	Short: "Drive a score-event synthesizer from slider presets",
	Long: `synthctl maps designer sliders onto synthesizer parameters and turns
notes into score events for an external audio engine.

Settings start from the built-in defaults; --preset applies a preset
JSON file on top. SYNTHCTL_* environment variables configure the
exponential curve factor, effect pool sizes, sample rate and listen
address.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&presetPath, "preset", "p", "", "Preset JSON applied on top of the defaults")
	rootCmd.PersistentFlags().Float64Var(&expFactor, "exp-factor", 0, "Exponent of the exponential curve law (default from SYNTHCTL_EXP_FACTOR or 3)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(fitCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}
	if expFactor != 0 {
		cfg.ExpFactor = expFactor
	}
	return cfg, cfg.Validate()
}

// loadSettings builds the settings every subcommand starts from.
func loadSettings(cfg config.Config) (*synth.Settings, error) {
	if presetPath == "" {
		return synth.New(cfg.SettingsOptions()...)
	}
	s, err := preset.LoadJSON(presetPath, cfg.SettingsOptions()...)
	if err != nil {
		return nil, fmt.Errorf("load preset %s: %w", presetPath, err)
	}
	return s, nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
