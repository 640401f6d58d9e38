package main

import (
	"os"

	"github.com/plz-run/plz/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <command> [<subcommand> ...] [-- <args>]",
	Short: "Resolve a command path and execute its actions",
	Long: `Resolves the given path against the command tree, builds the variable
scope, and runs each action in order. Tokens after "--" either override
variables (name=value) or bind as positional arguments ($1, $2, ... and $@).`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		verbose, _ := cmd.Flags().GetBool("verbose")

		segments, dash := args, []string(nil)
		if at := cmd.ArgsLenAtDash(); at >= 0 {
			segments, dash = args[:at], args[at:]
		}

		os.Exit(cli.Run(cli.Options{
			File:     file,
			Segments: segments,
			Dash:     dash,
			Verbose:  verbose,
		}))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	// 'plz build' is shorthand for 'plz run build'.
	rootCmd.Run = runCmd.Run
}
