package main

import (
	"os"

	"github.com/plz-run/plz/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	Long:  `Loads the config file and reports structural problems (unknown keys, action/actions conflicts, commands with nothing to do) without executing anything.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		verbose, _ := cmd.Flags().GetBool("verbose")

		os.Exit(cli.Validate(cli.Options{File: file, Verbose: verbose}))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
