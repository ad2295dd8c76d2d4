package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"medi-plus/internal/dispatch"
	"medi-plus/internal/knowledge"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect, validate and export rule sets",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in priority order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, _, err := setup()
		if err != nil {
			return err
		}
		rs, err := ruleSet(cfg.ChatStyle, cfg.RulesFile)
		if err != nil {
			return err
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("#", "ID", "PATTERN", "RESPONSES")
		for i, r := range rs.Rules {
			t.Row(strconv.Itoa(i), r.ID, r.Pattern, strconv.Itoa(len(r.Responses)))
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.String())
		return nil
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a rules file without starting a session",
	Long: `Check a rules file: patterns compile, every template is usable and the
last rule is a catch-all that no earlier rule duplicates.

Examples:
  medibot rules validate my-rules.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := rulesFile
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return errors.New("no rules file given")
		}
		engine, err := knowledge.NewEngine(knowledge.StylePlain, path)
		if err != nil {
			var cfgErr *dispatch.ConfigError
			if errors.As(err, &cfgErr) {
				return fmt.Errorf("%s is invalid: %w", path, err)
			}
			return err
		}
		ids := engine.Rules()
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d rules, catch-all %q\n", path, len(ids), ids[len(ids)-1])
		return nil
	},
}

var rulesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the active rule set as YAML",
	Long: `Print the active rule set as YAML, ready to be edited and loaded back
with --rules or RULES_FILE.

Examples:
  medibot rules export --style plain > my-rules.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, _, err := setup()
		if err != nil {
			return err
		}
		rs, err := ruleSet(cfg.ChatStyle, cfg.RulesFile)
		if err != nil {
			return err
		}
		return knowledge.Encode(cmd.OutOrStdout(), rs)
	},
}

var rulesTryCmd = &cobra.Command{
	Use:   "try <utterance>",
	Short: "Dispatch one utterance and show the matched rule",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, engine, err := setup()
		if err != nil {
			return err
		}
		reply := engine.Dispatch(strings.Join(args, " "))
		fmt.Fprintf(cmd.OutOrStdout(), "rule: %s (fallback: %t)\n\n%s\n", reply.RuleID, reply.Fallback, reply.Text)
		return nil
	},
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesExportCmd)
	rulesCmd.AddCommand(rulesTryCmd)
}

func ruleSet(styleName, path string) (*knowledge.RuleSet, error) {
	if path != "" {
		return knowledge.Load(path)
	}
	style, err := knowledge.ParseStyle(styleName)
	if err != nil {
		return nil, err
	}
	return knowledge.Builtin(style), nil
}
