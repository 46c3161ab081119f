package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/whoomp/whoomp/internal/config"
	"github.com/whoomp/whoomp/internal/ui"
)

var forceInit bool

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration in effect, with defaults filled in, as YAML.
The MQTT password is never shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(settings)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := effectiveConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default values",
	Example: `  whoomp config init
  whoomp config init --config ./whoomp.yaml --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := effectiveConfigPath()
		if err != nil {
			return err
		}

		p := ui.NewPrinter(os.Stdout)
		_, statErr := os.Stat(path)
		if statErr == nil && !forceInit {
			p.PrintWarning("Config file already exists",
				ui.Field{Key: "Path", Value: path},
				ui.Field{Key: "Hint", Value: "use --force to overwrite it"})
			return nil
		}
		if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
			return statErr
		}

		if err := config.NewConfig().Save(path); err != nil {
			p.PrintError("Could not write config", err)
			return err
		}
		p.PrintSuccess("Config written",
			ui.Field{Key: "Path", Value: path},
			ui.Field{Key: "MQTT password", Value: "set " + config.MQTTPasswordEnvVar})
		return nil
	},
}

func effectiveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}
