package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/irscn/internal/config"
)

// InitCommand represents the init command
type InitCommand struct {
	force      bool
	configPath string
}

// NewInitCommand creates a new init command
func NewInitCommand() *InitCommand {
	return &InitCommand{
		configPath: ".irscn.yaml",
	}
}

// CreateCobraCommand creates the cobra command for configuration initialization
func (i *InitCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize irscn configuration file",
		Long: `Write a configuration file holding the default settings.

The file covers output formatting, the interceptor chain, the block
traversal direction, complexity thresholds, manifest discovery patterns and
concurrency. irscn picks up .irscn.yaml from the current or home directory.

Examples:
  # Create .irscn.yaml in the current directory
  irscn init

  # Create a config file with a custom name
  irscn init --config ci/irscn.yaml

  # Overwrite an existing configuration file
  irscn init --force`,
		RunE: i.runInit,
	}

	cmd.Flags().BoolVarP(&i.force, "force", "f", false, "Overwrite existing configuration file")
	cmd.Flags().StringVarP(&i.configPath, "config", "c", ".irscn.yaml", "Configuration file path (.yaml or .yml)")

	return cmd
}

func (i *InitCommand) runInit(cmd *cobra.Command, args []string) error {
	switch strings.ToLower(filepath.Ext(i.configPath)) {
	case ".yaml", ".yml":
	default:
		return fmt.Errorf("init writes YAML; use a .yaml or .yml path, got %s", i.configPath)
	}

	configPath, err := filepath.Abs(i.configPath)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil && !i.force {
		return fmt.Errorf("configuration file already exists: %s\nUse --force to overwrite", configPath)
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", configDir, err)
	}

	if err := config.SaveConfig(config.DefaultConfig(), configPath); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	relPath, err := filepath.Rel(".", configPath)
	if err != nil {
		relPath = configPath
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created: %s\n", relPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'irscn check <paths>' to use it\n")

	return nil
}

// NewInitCmd creates and returns the init cobra command
func NewInitCmd() *cobra.Command {
	return NewInitCommand().CreateCobraCommand()
}
