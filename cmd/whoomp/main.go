// Whoomp decodes and analyses WHOOP strap BLE frames.
//
// It works offline on hex strings and capture files, builds frames to send
// to a strap, and connects to a whoomp-feed server for live heart rate.
// Connecting to the strap itself is out of scope; captures come from a BLE
// sniffer or from whoomp-feed's --capture-dir.
//
// Usage:
//
//	whoomp [command] [flags]
//
// See 'whoomp --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/whoomp/whoomp/internal/config"
	"github.com/whoomp/whoomp/internal/logging"
	"github.com/whoomp/whoomp/internal/ui"
	"github.com/whoomp/whoomp/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Persistent flags
var (
	configPath string
	logLevel   string
)

// settings is loaded before any subcommand runs.
var settings *config.Config

var rootCmd = &cobra.Command{
	Use:   "whoomp",
	Short: "WHOOP strap frame toolkit",
	Long: `Decode, build and analyse frames exchanged with a WHOOP strap over BLE.

Frames are given as hex ("aa0800a8..." or "AA 08 00 A8 ...") or read from
capture files: JSON Lines records or one hex frame per line, optionally
prefixed with '>' (to strap) or '<' (from strap).

Set WHOOMP_LOG_LEVEL=debug (or --log-level) to see protocol logs.`,
	Version:           version.Version,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: OS config dir)/whoomp/config.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when empty")

	rootCmd.AddCommand(versionCmd)
}

// loadSettings reads the config file and initialises logging. Log output
// goes to stderr so command output stays pipeable.
func loadSettings(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	settings = cfg

	level := logLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	return logging.InitializeWithOptions(logging.Options{
		Level:      level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
		Stderr:     true,
	})
}

// timeFormatter renders timestamps in the configured display zone.
func timeFormatter() (*ui.TimeFormatter, error) {
	return ui.NewTimeFormatter(settings.Display.Timezone, settings.Display.TimeFormat)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("whoomp %s (commit: %s)\n", version.Version, version.Commit)
	},
}
