package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev" // set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "astraguard",
	Short: "Satellite conjunction screening",
	Long: `AstraGuard screens a TLE catalog for close approaches, refines time of
closest approach, scores collision probability, classifies each event
against an ignore/defer/maneuver decision gate, and writes the resulting
artifacts for downstream visualization and planning.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(screenCmd)
}

// Subcommands are defined in separate files:
// - screenCmd in screen.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
