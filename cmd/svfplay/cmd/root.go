package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "svfplay",
	Short: "SVF player for JTAG probes",
	Long: `Parse Serial Vector Format (SVF) files and replay them against a
JTAG TAP, either through a CMSIS-DAP probe or an in-process simulator.

Examples:
  svfplay run program.svf                       # Play on the simulator
  svfplay run --cable cmsis-dap program.svf     # Play through a real probe
  svfplay parse program.svf                     # Parse and print, no hardware
  svfplay probes                                # List attached probes`,
	Version: "0.9.0",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newLogger builds the command logger. Verbose mode lowers the level to
// Debug, which makes the player log every executed SVF command.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
