package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hailam/chaoslog/internal/logging"
)

// Global flag values
var logLevel string
var logFormat string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chaoslog",
		Short: "Generates synthetic server-log corpora with planted markers.",
		Long: `chaoslog writes a directory of fake server logs (web access, syslog,
database slow-query and Java stack traces) as plain .log, .zip and .tar.gz
files. A configurable share of the files carries exactly one security marker
line, recorded in a ground-truth manifest so log scanners can be checked
against it.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(logFormat, logging.ParseLevel(logLevel))
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(
		newGenerateCmd(),
		newVerifyCmd(),
		newServeCmd(),
		newThemesCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Cobra prints the error, we only set the exit status
		os.Exit(1)
	}
}
