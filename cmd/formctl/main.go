// Formctl drives form controllers from the terminal.
//
// It loads YAML form definitions, runs them as an interactive terminal form,
// checks values headlessly, and serves a form over a websocket event bridge
// that other processes can discover with mDNS.
//
// Usage:
//
//	formctl [command] [flags]
//
// See 'formctl --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/formstate/internal/config"
	"github.com/muurk/formstate/internal/logging"
	"github.com/muurk/formstate/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		if !errors.Is(err, errFormInvalid) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "formctl",
	Short: "Form state controller",
	Long: `Run, check and serve multi-step forms described in YAML.

A form definition lists fields with their defaults and validation rules, and
groups them into steps. formctl tracks each field's value, whether it has been
touched and whether it is valid, exactly as a form UI would.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logLevel
		if level == "" {
			if reg, _, err := openRegistry(); err == nil {
				level = reg.Preferences.LogLevel
			}
		}
		return logging.Initialize(level)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is the OS config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides "+logging.LogLevelEnvVar)

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "formctl %s\n", version.Full())
	},
}

// openRegistry loads the user registry and returns it with a function that
// saves it back to the same place.
func openRegistry() (*config.Registry, func() error, error) {
	if configPath != "" {
		reg, err := config.LoadRegistryFrom(configPath)
		if err != nil {
			return nil, nil, err
		}
		return reg, func() error { return reg.SaveTo(configPath) }, nil
	}

	reg, err := config.LoadRegistry()
	if err != nil {
		return nil, nil, err
	}
	return reg, reg.Save, nil
}
