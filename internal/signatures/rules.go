package signatures

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/JNC4/webshell-scanner/pkg/models"
)

// Rule kinds for suspicious functions
const (
	KindCode      = "code"
	KindProcess   = "process"
	KindConstruct = "construct"
)

// Rule is a single pattern entry of a per-language table
type Rule struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
	Pattern     string `yaml:"pattern" json:"pattern"`
	Kind        string `yaml:"kind" json:"kind,omitempty"`
	Sink        bool   `yaml:"sink" json:"sink,omitempty"` // Executes its argument as code or command
	Bare        bool   `yaml:"bare" json:"bare,omitempty"` // Must not be a method or property access
}

// Match is a rule hit in scanned content
type Match struct {
	Rule  *Rule
	Start int
	End   int
}

// RuleList matches many rules in a single pass. Every rule becomes one
// capturing alternative of a combined expression; the first non-empty
// alternative identifies the rule.
type RuleList struct {
	rules  []*Rule
	groups []int // Submatch group index per rule
	re     *regexp.Regexp
}

func compileRuleList(rules []*Rule) (*RuleList, error) {
	list := &RuleList{rules: rules}
	if len(rules) == 0 {
		return list, nil
	}

	parts := make([]string, 0, len(rules))
	group := 1
	for _, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
		}
		list.groups = append(list.groups, group)
		group += 1 + re.NumSubexp()
		parts = append(parts, "("+rule.Pattern+")")
	}

	re, err := regexp.Compile(strings.Join(parts, "|"))
	if err != nil {
		return nil, err
	}
	list.re = re
	return list, nil
}

// Rules returns the rules in table order
func (l *RuleList) Rules() []*Rule {
	return l.rules
}

// Len returns the number of rules
func (l *RuleList) Len() int {
	return len(l.rules)
}

// FindAll returns non-overlapping matches ordered by position
func (l *RuleList) FindAll(content string) []Match {
	if l == nil || l.re == nil {
		return nil
	}

	var matches []Match
	for _, loc := range l.re.FindAllStringSubmatchIndex(content, -1) {
		for i, g := range l.groups {
			if loc[2*g] >= 0 {
				matches = append(matches, Match{Rule: l.rules[i], Start: loc[0], End: loc[1]})
				break
			}
		}
	}
	return matches
}

// RuleSet is the compiled rule collection for one language
type RuleSet struct {
	Language       models.Language
	Functions      *RuleList
	TaintSources   *RuleList
	TaintedCallees *RuleList
	Decoders       *RuleList
	Dynamic        *RuleList

	taint  *regexp.Regexp // Any taint source, for span checks
	concat *regexp.Regexp // Chain of quoted literals joined by the concat operator
	names  map[string]*Rule
}

var quotedLiteral = `(?:"[A-Za-z0-9_.]{1,24}"|'[A-Za-z0-9_.]{1,24}')`

type languageRules struct {
	concatOperator string
	functions      []*Rule
	taintSources   []*Rule
	taintedCallees []*Rule
	decoders       []*Rule
	dynamic        []*Rule
}

func compileRuleSet(lang models.Language, src *languageRules) (*RuleSet, error) {
	set := &RuleSet{Language: lang, names: make(map[string]*Rule)}

	var err error
	if set.Functions, err = compileRuleList(src.functions); err != nil {
		return nil, fmt.Errorf("functions: %w", err)
	}
	if set.TaintSources, err = compileRuleList(src.taintSources); err != nil {
		return nil, fmt.Errorf("taint_sources: %w", err)
	}
	if set.TaintedCallees, err = compileRuleList(src.taintedCallees); err != nil {
		return nil, fmt.Errorf("tainted_callees: %w", err)
	}
	if set.Decoders, err = compileRuleList(src.decoders); err != nil {
		return nil, fmt.Errorf("decoders: %w", err)
	}
	if set.Dynamic, err = compileRuleList(src.dynamic); err != nil {
		return nil, fmt.Errorf("dynamic: %w", err)
	}
	set.taint = set.TaintSources.re

	if src.concatOperator != "" {
		expr := quotedLiteral + `(?:\s*(?:` + src.concatOperator + `)\s*` + quotedLiteral + `){1,15}`
		if set.concat, err = regexp.Compile(expr); err != nil {
			return nil, fmt.Errorf("concat_operator: %w", err)
		}
	}

	for _, rule := range append(append([]*Rule{}, src.functions...), src.decoders...) {
		name := strings.ToLower(rule.Name)
		if name == "" || strings.ContainsAny(name, " ()*") {
			continue
		}
		if _, ok := set.names[name]; !ok {
			set.names[name] = rule
		}
	}

	return set, nil
}

// IsTainted reports whether s contains any taint source
func (s *RuleSet) IsTainted(text string) bool {
	return s.taint != nil && s.taint.MatchString(text)
}

// FindTaint returns the location of the first taint source in text, or nil
func (s *RuleSet) FindTaint(text string) []int {
	if s.taint == nil {
		return nil
	}
	return s.taint.FindStringIndex(text)
}

// ConcatChains returns the locations of quoted-literal concatenation chains
func (s *RuleSet) ConcatChains(content string) [][]int {
	if s.concat == nil {
		return nil
	}
	return s.concat.FindAllStringIndex(content, -1)
}

// LookupName returns the function or decoder rule with the given name
func (s *RuleSet) LookupName(name string) (*Rule, bool) {
	rule, ok := s.names[strings.ToLower(name)]
	return rule, ok
}

// Names returns the known function and decoder names, sorted
func (s *RuleSet) Names() []string {
	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
