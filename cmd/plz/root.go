package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "plz <command> [<subcommand> ...] [-- <args>]",
	Short: "plz is a project-local task runner",
	Long: `plz runs named commands declared in your project's plz.yaml.
Commands nest, inherit variables from their ancestors, and execute without
depending on any shell being present.`,
	Args: cobra.ArbitraryArgs,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("file", "f", "", "Path to the config file (default: nearest plz.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}
