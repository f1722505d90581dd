package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/drpcheck/internal/config"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect program rule sets",
}

var rulesProgramsCmd = &cobra.Command{
	Use:   "programs",
	Short: "List available DRP programs",
	RunE:  runRulesPrograms,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show <program>",
	Short: "Print the rule set for a program",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesShow,
}

func init() {
	rulesCmd.AddCommand(rulesProgramsCmd)
	rulesCmd.AddCommand(rulesShowCmd)
}

// loadCatalog loads the configured rules directory, or the built-in
// catalog when none is configured.
func loadCatalog() (*rules.Catalog, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if rulesDir != "" {
		cfg.RulesDir = rulesDir
	}
	if cfg.RulesDir == "" {
		return rules.NewCatalog(rules.DefaultGeicoARX()), nil
	}
	catalog, err := rules.LoadDir(cfg.RulesDir)
	if err != nil {
		return nil, fmt.Errorf("load rules from %s: %w", cfg.RulesDir, err)
	}
	return catalog, nil
}

func runRulesPrograms(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	for _, program := range catalog.Programs() {
		fmt.Println(program)
	}
	return nil
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	rs, err := catalog.Rules(args[0])
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(rs)
	if err != nil {
		return fmt.Errorf("encode rule set: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
