package framework

import (
	"fmt"
	"sync"

	"github.com/JNC4/webshell-scanner/pkg/models"
	"github.com/gobwas/glob"
)

// Idiom is a detection a framework is known to produce legitimately.
// Empty globs match anything.
type Idiom struct {
	Category    models.Category
	RuleID      string // Glob over Detection.RuleID
	Pattern     string // Glob over Detection.Pattern
	Description string

	rule    glob.Glob
	pattern glob.Glob
}

func (i *Idiom) compile() error {
	var err error
	if i.RuleID != "" {
		if i.rule, err = glob.Compile(i.RuleID); err != nil {
			return fmt.Errorf("invalid rule glob %q: %w", i.RuleID, err)
		}
	}
	if i.Pattern != "" {
		if i.pattern, err = glob.Compile(i.Pattern); err != nil {
			return fmt.Errorf("invalid pattern glob %q: %w", i.Pattern, err)
		}
	}
	return nil
}

func (i *Idiom) matches(d models.Detection) bool {
	if d.Category != i.Category {
		return false
	}
	if i.rule != nil && !i.rule.Match(d.RuleID) {
		return false
	}
	if i.pattern != nil && !i.pattern.Match(d.Pattern) {
		return false
	}
	return true
}

// Allowlist is a compiled set of idioms. A nil Allowlist allows nothing.
type Allowlist struct {
	idioms []Idiom
}

// NewAllowlist compiles idioms into an allowlist
func NewAllowlist(idioms ...Idiom) (*Allowlist, error) {
	a := &Allowlist{idioms: make([]Idiom, len(idioms))}
	copy(a.idioms, idioms)
	for i := range a.idioms {
		if err := a.idioms[i].compile(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Idioms returns the allowlisted idioms
func (a *Allowlist) Idioms() []Idiom {
	if a == nil {
		return nil
	}
	return a.idioms
}

// Allows reports whether d is an expected idiom
func (a *Allowlist) Allows(d models.Detection) bool {
	if a == nil {
		return false
	}
	for i := range a.idioms {
		if a.idioms[i].matches(d) {
			return true
		}
	}
	return false
}

// Filter returns the detections the allowlist does not allow, in their
// original order. It never adds detections.
func (a *Allowlist) Filter(ds []models.Detection) []models.Detection {
	if a == nil || len(a.idioms) == 0 {
		return ds
	}
	kept := make([]models.Detection, 0, len(ds))
	for _, d := range ds {
		if !a.Allows(d) {
			kept = append(kept, d)
		}
	}
	return kept
}

// Default idioms per framework. Known signatures and tainted input never
// appear here.
var defaultIdioms = map[Framework][]Idiom{
	WordPress: {
		{Category: models.CategorySuspiciousFunction, RuleID: "php.call_user_func*", Description: "Hook dispatch"},
	},
	Drupal: {
		{Category: models.CategorySuspiciousFunction, RuleID: "php.eval", Pattern: `eval('\?>'*`, Description: "PhpStorage template loading"},
		{Category: models.CategorySuspiciousFunction, RuleID: "php.call_user_func*", Description: "Callback dispatch"},
	},
	Joomla: {
		{Category: models.CategorySuspiciousFunction, RuleID: "php.call_user_func*", Description: "Event dispatch"},
	},
	Laravel: {
		{Category: models.CategorySuspiciousFunction, RuleID: "php.proc_open", Description: "symfony/process runner"},
		{Category: models.CategorySuspiciousFunction, RuleID: "php.call_user_func*", Description: "Container callbacks"},
	},
	Symfony: {
		{Category: models.CategorySuspiciousFunction, RuleID: "php.proc_open", Description: "Process component"},
		{Category: models.CategorySuspiciousFunction, RuleID: "php.eval", Pattern: `eval('\?>'*`, Description: "Twig template loading"},
	},
	Bitrix: {
		{Category: models.CategorySuspiciousFunction, RuleID: "php.call_user_func_array", Description: "Event handler dispatch"},
	},
	Magento: {
		{Category: models.CategorySuspiciousFunction, RuleID: "php.call_user_func*", Description: "Plugin interceptors"},
	},
	Django: {
		{Category: models.CategorySuspiciousFunction, RuleID: "python.compile", Description: "Template compilation"},
		{Category: models.CategoryDynamicExecution, RuleID: "python.dunder_import", Description: "import_string module loading"},
	},
}

var (
	allowlistsOnce sync.Once
	allowlists     map[Framework]*Allowlist
)

// AllowlistFor returns the built-in allowlist of fw; None yields nil
func AllowlistFor(fw Framework) *Allowlist {
	allowlistsOnce.Do(func() {
		allowlists = make(map[Framework]*Allowlist, len(defaultIdioms))
		for f, idioms := range defaultIdioms {
			a, err := NewAllowlist(idioms...)
			if err != nil {
				panic(fmt.Sprintf("framework: built-in allowlist for %s: %v", f, err))
			}
			allowlists[f] = a
		}
	})
	return allowlists[fw]
}
