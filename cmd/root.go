package cmd

import (
	"github.com/spf13/cobra"
)

var (
	flagVerbose    bool
	flagConfigPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "autoedit",
	Short: "Autonomous LLM-driven document editor",
	Long: `Autoedit runs an autonomous editing loop against a document: it asks a
language model for one focused change at a time, applies the change through a
guarded tool layer, verifies the result, and repeats until the goal is met or
a budget runs out.

Available commands:
  run      - Edit a document to satisfy an instruction
  serve    - Expose runs over HTTP with a live event stream
  version  - Print version information`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file (default .autoedit/config.json)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
