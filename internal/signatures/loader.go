package signatures

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/JNC4/webshell-scanner/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed rules/*.yaml
var embeddedRules embed.FS

// Loader loads rule tables from the embedded rule files plus an
// optional directory of extra YAML files.
type Loader struct {
	rulesPath string
}

// NewLoader creates a new rule loader. An empty rulesPath loads only the
// embedded rules.
func NewLoader(rulesPath string) *Loader {
	return &Loader{
		rulesPath: rulesPath,
	}
}

// RuleFile represents a YAML rule file. A file may carry signatures, one
// language section, or both.
type RuleFile struct {
	Signatures     []*Signature `yaml:"signatures"`
	Language       string       `yaml:"language"`
	ConcatOperator string       `yaml:"concat_operator"`
	Functions      []*Rule      `yaml:"functions"`
	TaintSources   []*Rule      `yaml:"taint_sources"`
	TaintedCallees []*Rule      `yaml:"tainted_callees"`
	Decoders       []*Rule      `yaml:"decoders"`
	Dynamic        []*Rule      `yaml:"dynamic"`
}

type builder struct {
	signatures []*Signature
	languages  map[models.Language]*languageRules
}

// Load loads and compiles all rule tables
func (l *Loader) Load() (*Tables, error) {
	b := &builder{languages: make(map[models.Language]*languageRules)}

	entries, err := fs.ReadDir(embeddedRules, "rules")
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		name := "rules/" + entry.Name()
		data, err := embeddedRules.ReadFile(name)
		if err != nil {
			return nil, err
		}
		if err := b.add(data); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
	}

	if l.rulesPath != "" {
		if err := l.loadDir(b); err != nil {
			return nil, err
		}
	}

	return b.compile()
}

// loadDir merges every YAML file found under the rules path
func (l *Loader) loadDir(b *builder) error {
	if _, err := os.Stat(l.rulesPath); err != nil {
		return fmt.Errorf("rules path: %w", err)
	}

	var files []string
	err := filepath.WalkDir(l.rulesPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := filepath.Ext(path)
		if d.IsDir() || (ext != ".yaml" && ext != ".yml") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return err
	}

	sort.Strings(files)
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := b.add(data); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

func (b *builder) add(data []byte) error {
	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	b.signatures = append(b.signatures, file.Signatures...)

	hasRules := len(file.Functions)+len(file.TaintSources)+len(file.TaintedCallees)+
		len(file.Decoders)+len(file.Dynamic) > 0 || file.ConcatOperator != ""
	if file.Language == "" {
		if hasRules {
			return fmt.Errorf("language rules without a language key")
		}
		return nil
	}

	lang, err := models.ParseLanguage(file.Language)
	if err != nil {
		return err
	}

	rules, ok := b.languages[lang]
	if !ok {
		rules = &languageRules{}
		b.languages[lang] = rules
	}
	if file.ConcatOperator != "" {
		rules.concatOperator = file.ConcatOperator
	}
	rules.functions = append(rules.functions, file.Functions...)
	rules.taintSources = append(rules.taintSources, file.TaintSources...)
	rules.taintedCallees = append(rules.taintedCallees, file.TaintedCallees...)
	rules.decoders = append(rules.decoders, file.Decoders...)
	rules.dynamic = append(rules.dynamic, file.Dynamic...)

	for _, list := range [][]*Rule{file.Functions, file.TaintSources, file.TaintedCallees, file.Decoders, file.Dynamic} {
		for _, rule := range list {
			if rule.ID == "" || rule.Pattern == "" {
				return fmt.Errorf("rule %q: id and pattern are required", rule.Name)
			}
			if rule.Name == "" {
				rule.Name = rule.ID
			}
		}
	}

	return nil
}

func (b *builder) compile() (*Tables, error) {
	sigs, err := compileSignatureSet(b.signatures)
	if err != nil {
		return nil, err
	}

	t := &Tables{
		signatures: sigs,
		sets:       make(map[models.Language]*RuleSet),
	}

	union := &languageRules{}
	var operators []string
	for _, lang := range models.Languages() {
		src, ok := b.languages[lang]
		if !ok {
			src = &languageRules{}
		}

		set, err := compileRuleSet(lang, src)
		if err != nil {
			return nil, fmt.Errorf("%s rules: %w", lang.Key(), err)
		}
		t.sets[lang] = set

		if src.concatOperator != "" {
			operators = append(operators, src.concatOperator)
		}
		union.functions = append(union.functions, src.functions...)
		union.taintSources = append(union.taintSources, src.taintSources...)
		union.taintedCallees = append(union.taintedCallees, src.taintedCallees...)
		union.decoders = append(union.decoders, src.decoders...)
		union.dynamic = append(union.dynamic, src.dynamic...)
	}
	union.concatOperator = strings.Join(operators, "|")

	if t.union, err = compileRuleSet(models.LanguageUnknown, union); err != nil {
		return nil, fmt.Errorf("combined rules: %w", err)
	}

	return t, nil
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// Default returns the compiled embedded rule tables. The embedded rules
// are part of the binary, so a failure to compile them panics.
func Default() *Tables {
	defaultOnce.Do(func() {
		t, err := NewLoader("").Load()
		if err != nil {
			panic(fmt.Sprintf("signatures: embedded rules: %v", err))
		}
		defaultTables = t
	})
	return defaultTables
}
