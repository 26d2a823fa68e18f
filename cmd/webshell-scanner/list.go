package main

import (
	"fmt"
	"strings"

	"github.com/JNC4/webshell-scanner/internal/framework"
	"github.com/JNC4/webshell-scanner/internal/signatures"
	"github.com/JNC4/webshell-scanner/pkg/models"
	"github.com/spf13/cobra"
)

// ruleSection is one rule table of a language, tagged with the category
// of the detections it produces
type ruleSection struct {
	category models.Category
	title    string
	list     func(*signatures.RuleSet) *signatures.RuleList
}

var ruleSections = []ruleSection{
	{models.CategoryInputToEval, "taint sources", func(s *signatures.RuleSet) *signatures.RuleList { return s.TaintSources }},
	{models.CategoryInputToEval, "tainted callees", func(s *signatures.RuleSet) *signatures.RuleList { return s.TaintedCallees }},
	{models.CategoryDecodeChain, "decoders", func(s *signatures.RuleSet) *signatures.RuleList { return s.Decoders }},
	{models.CategorySuspiciousFunction, "suspicious functions", func(s *signatures.RuleSet) *signatures.RuleList { return s.Functions }},
	{models.CategoryDynamicExecution, "dynamic execution", func(s *signatures.RuleSet) *signatures.RuleList { return s.Dynamic }},
}

// rulesCmd lists the loaded rule tables
func (a *app) rulesCmd() *cobra.Command {
	var (
		rulesPath string
		category  string
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List loaded signatures and rule tables",
		Long:  `Display the known-webshell signatures and the per-language rule tables, including rules merged from --rules.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			want := func(models.Category) bool { return true }
			if category != "" {
				c, ok := models.ParseCategory(category)
				if !ok {
					names := make([]string, 0, len(models.Categories()))
					for _, c := range models.Categories() {
						names = append(names, c.Name())
					}
					return usagef("unknown category %q (expected one of: %s)", category, strings.Join(names, ", "))
				}
				want = func(other models.Category) bool { return other == c }
			}

			tables, err := loadTables(rulesPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if want(models.CategoryKnownSignature) {
				fmt.Fprintf(out, "SIGNATURES (%d):\n", tables.Signatures().Len())
				for _, sig := range tables.Signatures().Entries() {
					scope := "all languages"
					if len(sig.Languages) > 0 {
						scope = strings.Join(sig.Languages, ", ")
					}
					fmt.Fprintf(out, "  %-28s %s (%s)\n", sig.ID, sig.Name, scope)
				}
			}

			for _, lang := range models.Languages() {
				set := tables.For(lang)
				header := false
				for _, sec := range ruleSections {
					if !want(sec.category) {
						continue
					}
					if !header {
						fmt.Fprintf(out, "\n%s:\n", strings.ToUpper(lang.Name()))
						header = true
					}
					printRules(cmd, sec.title, sec.list(set))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "Directory of extra rule files")
	cmd.Flags().StringVar(&category, "category", "", "Only list rules producing this detection category")
	return cmd
}

func printRules(cmd *cobra.Command, title string, list *signatures.RuleList) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  %s (%d)\n", title, list.Len())
	for _, rule := range list.Rules() {
		fmt.Fprintf(out, "    %-28s %s\n", rule.ID, rule.Name)
	}
}

// frameworksCmd lists the framework profiles and their allowlisted idioms
func (a *app) frameworksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "frameworks",
		Short: "List recognized frameworks and their allowlisted idioms",
		Long:  `Display how each framework is recognized and which detections --context-aware suppresses for it.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, p := range framework.Profiles() {
				fmt.Fprintf(out, "%s:\n", p.Framework.Name())
				fmt.Fprintf(out, "  paths:   %s\n", strings.Join(p.PathGlobs, ", "))

				markers := make([]string, 0, len(p.Markers))
				for _, m := range p.Markers {
					markers = append(markers, fmt.Sprintf("%s (%d)", m.Path, m.Weight))
				}
				fmt.Fprintf(out, "  markers: %s\n", strings.Join(markers, ", "))

				for _, idiom := range framework.AllowlistFor(p.Framework).Idioms() {
					rule := idiom.RuleID
					if rule == "" {
						rule = "*"
					}
					fmt.Fprintf(out, "  allows:  %s %s  %s\n", idiom.Category.Name(), rule, idiom.Description)
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "A framework is recognized at marker weight %d, or when the path matches.\n", framework.Threshold)
		},
	}
}
