// Package main is the entry point for the emberfall combat engine CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "emberfall",
	Short: "Emberfall combat resolution engine",
	Long: `Emberfall resolves deterministic turn-based encounters: initiative
scheduling, action resolution, timed conditions, monster decision
policies, and reward distribution.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/dev.yaml", "path to configuration file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
