package main

import (
	"os"

	"github.com/plz-run/plz/internal/cli"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the available commands",
	Long:  `Renders the command tree with descriptions. Hidden commands and commands restricted to other platforms are omitted.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		verbose, _ := cmd.Flags().GetBool("verbose")

		os.Exit(cli.List(cli.Options{File: file, Verbose: verbose}))
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
