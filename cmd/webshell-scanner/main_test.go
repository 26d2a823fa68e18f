package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

func execute(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Stdin(t *testing.T) {
	tests := []struct {
		name       string
		stdin      string
		args       []string
		wantCode   int
		wantStdout string
	}{
		{
			name:       "malicious php",
			stdin:      `<?php eval($_GET['cmd']); ?>`,
			args:       []string{"--stdin", "--language", "php"},
			wantCode:   exitMalicious,
			wantStdout: "MALICIOUS <stdin>",
		},
		{
			name:       "clean input is still listed",
			stdin:      `<?php echo "hello"; ?>`,
			args:       []string{"--stdin", "--language", "php"},
			wantCode:   exitOK,
			wantStdout: "CLEAN <stdin>",
		},
		{
			name:       "no language hint",
			stdin:      "<!-- c99shell -->",
			args:       []string{"--stdin"},
			wantCode:   exitMalicious,
			wantStdout: "[known_signature:1]",
		},
		{
			name:       "jsonl",
			stdin:      `<?php echo "hello"; ?>`,
			args:       []string{"--stdin", "-f", "jsonl"},
			wantCode:   exitOK,
			wantStdout: `"path":"<stdin>"`,
		},
		{
			name:     "quiet",
			stdin:    `<?php eval($_GET['cmd']); ?>`,
			args:     []string{"--stdin", "-q"},
			wantCode: exitMalicious,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := execute(t, tt.stdin, tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr %q)", code, tt.wantCode, stderr)
			}
			if tt.wantStdout == "" && stdout != "" {
				t.Errorf("stdout = %q, want nothing", stdout)
			}
			if !strings.Contains(stdout, tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout, tt.wantStdout)
			}
		})
	}
}

func TestRun_UsageErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{"no paths", nil},
		{"stdin with paths", []string{"--stdin", dir}},
		{"language without stdin", []string{"--language", "php", dir}},
		{"unknown language", []string{"--stdin", "--language", "cobol"}},
		{"unknown format", []string{"-f", "xml", dir}},
		{"zero threshold", []string{"-t", "0", dir}},
		{"bad max size", []string{"--max-size", "big", dir}},
		{"unknown flag", []string{"--nope", dir}},
		{"missing rules directory", []string{"--rules", filepath.Join(dir, "missing"), dir}},
		{"unknown rule category", []string{"rules", "--category", "adware"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, "", tt.args...)
			if code != exitUsage {
				t.Errorf("exit code = %d, want %d", code, exitUsage)
			}
			if !strings.HasPrefix(stderr, "Error: ") {
				t.Errorf("stderr = %q, want an error message", stderr)
			}
		})
	}
}

func TestRun_Paths(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"index.php":         `<?php echo "hello"; ?>`,
		"uploads/shell.php": `<?php eval($_POST['p']); ?>`,
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	code, stdout, stderr := execute(t, "", root)
	if code != exitOK {
		t.Errorf("non-recursive exit code = %d, want %d", code, exitOK)
	}
	if stdout != "" || !strings.Contains(stderr, "No webshells detected") {
		t.Errorf("non-recursive output = %q / %q", stdout, stderr)
	}

	code, stdout, stderr = execute(t, "", "-r", "-f", "json", "--show-clean", root)
	if code != exitMalicious {
		t.Errorf("recursive exit code = %d, want %d", code, exitMalicious)
	}
	var entries []map[string]any
	if err := json.Unmarshal([]byte(stdout), &entries); err != nil {
		t.Fatalf("json output: %v\n%s", err, stdout)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
	if stderr != "" {
		t.Errorf("json mode stderr = %q, want empty", stderr)
	}

	code, _, stderr = execute(t, "", filepath.Join(root, "missing.php"))
	if code != exitOK || !strings.Contains(stderr, "missing.php") {
		t.Errorf("missing file: exit %d, stderr %q", code, stderr)
	}
}

func TestRun_ListCommands(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		exclude []string
	}{
		{"rules", []string{"rules"}, []string{"SIGNATURES", "sig.c99", "PHP:", "php.eval", "PYTHON:", "decoders"}, nil},
		{"rules by category", []string{"rules", "--category", "decode_chain"}, []string{"PHP:", "php.gzinflate", "decoders (", "PYTHON:"}, []string{"SIGNATURES", "php.system"}},
		{"frameworks", []string{"frameworks"}, []string{"WordPress:", "Laravel:", "php.proc_open", "Django:"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := execute(t, "", tt.args...)
			if code != exitOK {
				t.Fatalf("exit code = %d (stderr %q)", code, stderr)
			}
			for _, want := range tt.want {
				if !strings.Contains(stdout, want) {
					t.Errorf("output missing %q", want)
				}
			}
			for _, unwanted := range tt.exclude {
				if strings.Contains(stdout, unwanted) {
					t.Errorf("output contains %q", unwanted)
				}
			}
		})
	}
}
