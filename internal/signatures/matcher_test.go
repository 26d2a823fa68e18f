package signatures

import (
	"strings"
	"testing"
)

func TestLineIndex_Line(t *testing.T) {
	content := "line one\nline two\n\nline four"
	idx := NewLineIndex(content)

	tests := []struct {
		name   string
		offset int
		want   int
	}{
		{"start of file", 0, 1},
		{"end of first line", 7, 1},
		{"first newline", 8, 1},
		{"second line", 9, 2},
		{"empty line", 18, 3},
		{"last line", 19, 4},
		{"past end", len(content), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := idx.Line(tt.offset); got != tt.want {
				t.Errorf("Line(%d) = %d, want %d", tt.offset, got, tt.want)
			}
		})
	}
}

func TestFragment(t *testing.T) {
	content := "abcdef"

	tests := []struct {
		name       string
		start, end int
		want       string
	}{
		{"inner", 1, 3, "bc"},
		{"negative start", -5, 2, "ab"},
		{"end past content", 4, 100, "ef"},
		{"empty", 3, 3, ""},
		{"inverted", 4, 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fragment(content, tt.start, tt.end); got != tt.want {
				t.Errorf("Fragment(%d, %d) = %q, want %q", tt.start, tt.end, got, tt.want)
			}
		})
	}

	long := strings.Repeat("x", 500)
	if got := Fragment(long, 0, len(long)); len(got) != 200 {
		t.Errorf("Fragment() length = %d, want 200", len(got))
	}
}

func TestStatementEnd(t *testing.T) {
	tests := []struct {
		name    string
		content string
		from    int
		limit   int
		want    int
	}{
		{"semicolon", "eval($x); echo 1;", 0, 100, 9},
		{"newline", "system($c)\nfoo", 0, 100, 11},
		{"limit", "aaaaaaaaaa", 0, 4, 4},
		{"content end", "abc", 1, 100, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatementEnd(tt.content, tt.from, tt.limit); got != tt.want {
				t.Errorf("StatementEnd() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCallSpan(t *testing.T) {
	tests := []struct {
		name    string
		content string
		limit   int
		want    int
		wantOK  bool
	}{
		{"simple", "($a)", 100, 3, true},
		{"nested", "(f(g($a)))x", 100, 9, true},
		{"paren in double quotes", `("(" . $a)`, 100, 9, true},
		{"paren in single quotes", `(')' . $a)`, 100, 9, true},
		{"escaped quote", `("\")" . $a)`, 100, 11, true},
		{"unclosed", "(a(b", 100, 4, false},
		{"limited", "(aaaaaaaa)", 5, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CallSpan(tt.content, 0, tt.limit)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("CallSpan(%q) = (%d, %v), want (%d, %v)", tt.content, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsMemberAccess(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"bare call", "exec(", false},
		{"after space", "  exec(", false},
		{"variable", "$exec(", true},
		{"arrow", "$db->exec(", true},
		{"arrow with space", "$db-> exec(", true},
		{"static", "PDO::exec(", true},
		{"dot", "re.compile(", true},
		{"php concat", "'a' . exec(", false},
		{"comparison", "$a > exec(", false},
		{"ternary", "$a ? b : exec(", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := strings.LastIndex(tt.content, "exec")
			if pos < 0 {
				pos = strings.LastIndex(tt.content, "compile")
			}
			if got := IsMemberAccess(tt.content, pos); got != tt.want {
				t.Errorf("IsMemberAccess(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestSkipSpace(t *testing.T) {
	content := "  @\t\nx"
	if got := SkipSpace(content, 0); got != 5 {
		t.Errorf("SkipSpace() = %d, want 5", got)
	}
	if got := SkipSpace("   ", 0); got != 3 {
		t.Errorf("SkipSpace() on blank = %d, want 3", got)
	}
}
