package signatures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/JNC4/webshell-scanner/pkg/models"
)

func TestDefault_LoadsEveryLanguage(t *testing.T) {
	tables := Default()

	if tables.Signatures().Len() == 0 {
		t.Fatal("Default() has no signatures")
	}

	for _, lang := range models.Languages() {
		set := tables.For(lang)
		if set.Language != lang {
			t.Errorf("For(%s).Language = %s", lang, set.Language)
		}
		if set.Functions.Len() == 0 {
			t.Errorf("For(%s) has no function rules", lang)
		}
		if set.TaintSources.Len() == 0 {
			t.Errorf("For(%s) has no taint sources", lang)
		}
		if set.Decoders.Len() == 0 {
			t.Errorf("For(%s) has no decoders", lang)
		}
	}
}

func TestTables_ForUnknownIsUnion(t *testing.T) {
	tables := Default()
	union := tables.For(models.LanguageUnknown)

	total := 0
	for _, lang := range models.Languages() {
		total += tables.For(lang).Functions.Len()
	}
	if union.Functions.Len() != total {
		t.Errorf("union functions = %d, want %d", union.Functions.Len(), total)
	}
	if tables.Decoders() != union.Decoders {
		t.Error("Decoders() should return the union decoder list")
	}
}

func TestRuleSet_FindAll(t *testing.T) {
	php := Default().For(models.LanguagePHP)

	tests := []struct {
		name    string
		content string
		wantIDs []string
	}{
		{
			name:    "eval",
			content: "<?php eval($x); ?>",
			wantIDs: []string{"php.eval"},
		},
		{
			name:    "shell_exec is not exec",
			content: "<?php shell_exec($x);",
			wantIDs: []string{"php.shell_exec"},
		},
		{
			name:    "several in order",
			content: "system('id'); passthru('ls');",
			wantIDs: []string{"php.system", "php.passthru"},
		},
		{
			name:    "clean",
			content: `<?php echo "hello"; ?>`,
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := php.Functions.FindAll(tt.content)
			if len(matches) != len(tt.wantIDs) {
				t.Fatalf("FindAll() = %d matches, want %d", len(matches), len(tt.wantIDs))
			}
			for i, m := range matches {
				if m.Rule.ID != tt.wantIDs[i] {
					t.Errorf("match %d = %s, want %s", i, m.Rule.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestRuleSet_Taint(t *testing.T) {
	tests := []struct {
		lang models.Language
		text string
		want bool
	}{
		{models.LanguagePHP, "$_GET['cmd']", true},
		{models.LanguagePHP, "$_SERVER['HTTP_X']", true},
		{models.LanguagePHP, "$_SERVER['DOCUMENT_ROOT']", false},
		{models.LanguagePHP, "$get", false},
		{models.LanguageJSP, `request.getParameter("c")`, true},
		{models.LanguageAspNet, `Request.Form["c"]`, true},
		{models.LanguagePython, "request.args.get('c')", true},
		{models.LanguagePython, "user_input", false},
	}

	for _, tt := range tests {
		t.Run(tt.lang.Key()+"/"+tt.text, func(t *testing.T) {
			if got := Default().For(tt.lang).IsTainted(tt.text); got != tt.want {
				t.Errorf("IsTainted(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestRuleSet_ConcatChains(t *testing.T) {
	php := Default().For(models.LanguagePHP)

	chains := php.ConcatChains(`$f = "sys" . "tem"; $g = "plain";`)
	if len(chains) != 1 {
		t.Fatalf("ConcatChains() = %d chains, want 1", len(chains))
	}

	if rule, ok := php.LookupName("SYSTEM"); !ok || rule.ID != "php.system" {
		t.Errorf("LookupName(SYSTEM) = %v, %v", rule, ok)
	}
	if _, ok := php.LookupName("strlen"); ok {
		t.Error("LookupName(strlen) should not resolve")
	}
}

func TestSignatureSet_Match(t *testing.T) {
	sigs := Default().Signatures()

	tests := []struct {
		name    string
		content string
		lang    models.Language
		wantIDs []string
	}{
		{"c99 marker", "<!-- c99shell v.1.0 -->", models.LanguagePHP, []string{"sig.c99"}},
		{"case insensitive", "<title>C99Shell</title>", models.LanguageUnknown, []string{"sig.c99"}},
		{"first occurrence only", "c99shell c99_sess_put c99shell", models.LanguagePHP, []string{"sig.c99"}},
		{"ordered by position", "FilesMan ... r57shell", models.LanguagePHP, []string{"sig.wso", "sig.r57"}},
		{"language scoped miss", "aspxspy", models.LanguagePHP, nil},
		{"language scoped hit", "aspxspy", models.LanguageAspNet, []string{"sig.aspxspy"}},
		{"china chopper", `<?php @eval($_POST['chopper']);?>`, models.LanguagePHP, []string{"sig.china-chopper-php"}},
		{"clean", `<?php echo "hello"; ?>`, models.LanguagePHP, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := sigs.Match(tt.content, tt.lang)
			if len(matches) != len(tt.wantIDs) {
				t.Fatalf("Match() = %d matches, want %d", len(matches), len(tt.wantIDs))
			}
			for i, m := range matches {
				if m.Signature.ID != tt.wantIDs[i] {
					t.Errorf("match %d = %s, want %s", i, m.Signature.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestLoader_ExtraRules(t *testing.T) {
	dir := t.TempDir()
	extra := `
signatures:
  - id: custom.marker
    name: custom
    markers: ['x-custom-shell']
language: php
functions:
  - id: php.custom
    name: dangerous_thing
    pattern: '\bdangerous_thing\s*\('
    sink: true
`
	if err := os.WriteFile(filepath.Join(dir, "extra.yaml"), []byte(extra), 0644); err != nil {
		t.Fatal(err)
	}

	tables, err := NewLoader(dir).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := tables.Signatures().Match("x-custom-shell", models.LanguagePHP); len(got) != 1 {
		t.Errorf("custom signature matches = %d, want 1", len(got))
	}
	if got := tables.For(models.LanguagePHP).Functions.FindAll("dangerous_thing($a)"); len(got) != 1 {
		t.Errorf("custom function matches = %d, want 1", len(got))
	}
	if tables.For(models.LanguagePHP).Functions.Len() != Default().For(models.LanguagePHP).Functions.Len()+1 {
		t.Error("extra rules should be merged on top of the embedded rules")
	}
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "signatures: [\n"},
		{"rules without language", "functions:\n  - id: x\n    pattern: 'x'\n"},
		{"unknown language", "language: cobol\n"},
		{"missing pattern", "language: php\nfunctions:\n  - id: x\n"},
		{"bad regex", "language: php\nfunctions:\n  - id: x\n    pattern: '('\n"},
		{"empty signature", "signatures:\n  - id: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, "bad.yml"), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := NewLoader(dir).Load(); err == nil {
				t.Error("Load() expected error")
			}
		})
	}

	if _, err := NewLoader(filepath.Join(t.TempDir(), "missing")).Load(); err == nil {
		t.Error("Load() with missing rules path expected error")
	}
}
