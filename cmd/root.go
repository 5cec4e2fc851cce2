// Package cmd implements the fieldlens command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *Config
)

var rootCmd = &cobra.Command{
	Use:   "fieldlens",
	Short: "Field-requirement analysis for repository call sites",
	Long: `fieldlens analyzes a domain model and computes, for every call path that
crosses from application code through a repository method into the returned
aggregate's own methods, the minimal set of fields that path requires. The
resulting document lets a persistence layer load only the fields a call
site needs instead of the whole object graph.`,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, _, err = LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: fieldlens.yaml discovered upward)")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
