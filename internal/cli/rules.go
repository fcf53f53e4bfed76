package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/taxonomy"
	"github.com/spf13/cobra"
)

var rulesCategory string

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate risk rule tables",
	Long: `Inspect the risk rules clauseguard checks contracts against.

The built-in table is used unless rules.file (or --rules) points at a
custom YAML table.`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		tax, err := activeTaxonomy()
		if err != nil {
			return err
		}
		var categories []model.Category
		if rulesCategory != "" {
			c := model.Category(strings.ToLower(rulesCategory))
			if !c.Valid() {
				return fmt.Errorf("unknown category: %s", rulesCategory)
			}
			categories = append(categories, c)
		}
		return listRules(os.Stdout, tax, categories...)
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show <rule-id>",
	Short: "Show one rule with its patterns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tax, err := activeTaxonomy()
		if err != nil {
			return err
		}
		return showRule(os.Stdout, tax, args[0])
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a custom rule table for errors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tax, err := taxonomy.LoadFile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s: %d rules, %d contract signatures (version %s)\n",
			args[0], tax.Len(), len(tax.Signatures()), tax.Version())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesValidateCmd)

	rulesListCmd.Flags().StringVar(&rulesCategory, "category", "", "only list rules in this category")
}

func activeTaxonomy() (*taxonomy.Taxonomy, error) {
	if appConfig != nil && appConfig.Rules.File != "" {
		return taxonomy.LoadFile(appConfig.Rules.File)
	}
	return taxonomy.Default()
}

func listRules(w io.Writer, tax *taxonomy.Taxonomy, categories ...model.Category) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEVERITY\tCATEGORY\tLANGS\tTITLE")
	for _, rule := range tax.RulesFor(categories...) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			rule.ID, rule.Severity, rule.Category, strings.Join(ruleLanguages(rule), ","), rule.Title)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d rules (table version %s)\n", len(tax.RulesFor(categories...)), tax.Version())
	return err
}

func showRule(w io.Writer, tax *taxonomy.Taxonomy, id string) error {
	rule, ok := tax.Rule(strings.ToUpper(id))
	if !ok {
		return fmt.Errorf("rule not found: %s", id)
	}

	fmt.Fprintf(w, "[%s] %s\n\n", rule.ID, rule.Title)
	fmt.Fprintf(w, "  Category:    %s\n", rule.Category)
	fmt.Fprintf(w, "  Severity:    %s (weight %d)\n", rule.Severity, rule.Severity.Weight())
	fmt.Fprintf(w, "  Explanation: %s\n", rule.Explanation)
	fmt.Fprintf(w, "  Mitigation:  %s\n\n", rule.Mitigation)
	fmt.Fprintf(w, "  Patterns:\n")
	for _, p := range rule.Patterns {
		fmt.Fprintf(w, "    - %-7s %s  %s\n", p.Kind, p.Lang, p.Value)
	}
	return nil
}

func ruleLanguages(rule model.RiskRule) []string {
	var langs []string
	seen := map[model.Language]bool{}
	for _, p := range rule.Patterns {
		if !seen[p.Lang] {
			seen[p.Lang] = true
			langs = append(langs, string(p.Lang))
		}
	}
	return langs
}
