package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage papertrader configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  papertrader config init --output papertrader.yaml
  papertrader config validate --file papertrader.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings. The format
follows the extension: .yaml/.yml for YAML, anything else for JSON.

Example:
  papertrader config init --output papertrader.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check that a configuration file loads and passes validation, and show
the thresholds in effect for its leverage.

Example:
  papertrader config validate --file papertrader.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "papertrader.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit the file and run with:")
	fmt.Fprintf(cmd.OutOrStdout(), "  papertrader run -c %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	eff := cfg.Effective()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(out, "  Account: %s (%.2f, commission %.3f%%)\n", cfg.Symbol, cfg.InitialBalance, cfg.CommissionRate*100)
	fmt.Fprintf(out, "  Leverage: %dx (risk %.2f, min confidence %d)\n", cfg.Leverage, eff.RiskTolerance, eff.MinConfidence)
	fmt.Fprintf(out, "  Data: %s\n", cfg.Data.Source)
	fmt.Fprintf(out, "  Store: %s %s\n", cfg.Store.Type, cfg.Store.Path)
	fmt.Fprintf(out, "  Journal: %s\n", cfg.Journal.Type)
	return nil
}
