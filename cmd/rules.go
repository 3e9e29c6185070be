package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate the game rule tables",
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a rules file, or the configured rules when none is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			r   *rules.Rules
			err error
		)
		if len(args) == 1 {
			r, err = rules.LoadFile(args[0])
		} else {
			r, err = loadRules()
		}
		if err != nil {
			return err
		}
		fmt.Printf("OK: %d ranks, %d recipes, %d materials\n", len(r.Ranks), len(r.Recipes), len(r.MaterialNames()))
		return nil
	},
}

var rulesSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the rules file",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := rules.Schema()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(append(raw, '\n'))
		return err
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the built-in rules, a starting point for a custom rules.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := os.Stdout.Write(rules.DefaultYAML())
		return err
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesCheckCmd, rulesSchemaCmd, rulesShowCmd)
}
