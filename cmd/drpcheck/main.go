// Package main implements the drpcheck CLI for evaluating collision
// repair estimates against DRP program rules.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// Global flags.
var (
	configPath string
	rulesDir   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "drpcheck",
	Short: "Validate and auto-correct collision repair estimates",
	Long: `drpcheck evaluates collision repair estimates against DRP program
compliance rules: it validates labor rates, parts usage, refinish
operations, structural repairs and documentation, generates correction
recommendations, applies high-confidence corrections, and routes each
estimate to a workflow path.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/drpcheck/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&rulesDir, "rules", "", "rules directory (default from config, built-in catalog when unset)")
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("drpcheck by Fyrsmith Labs\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}
