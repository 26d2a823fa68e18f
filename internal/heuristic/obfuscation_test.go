package heuristic

import (
	"strings"
	"testing"
)

func obfuscatedSample() string {
	var b strings.Builder
	b.WriteString("<?php\n$s = \"")
	b.WriteString(strings.Repeat(`\x41`, 200))
	b.WriteString("\";\n")
	for i := 0; i < 3; i++ {
		b.WriteString("$p = '")
		b.WriteString(strings.Repeat("Ab9+", 40))
		b.WriteString("';\n")
	}
	b.WriteString(strings.Repeat("$x = base64_decode($p);\n", 5))
	return b.String()
}

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer(nil)

	tests := []struct {
		name    string
		input   string
		wantMin uint32
		wantMax uint32
	}{
		{"empty", "", 0, 0},
		{"clean php", `<?php echo "hello"; ?>`, 0, 0},
		{"ordinary code", "<?php\nfunction add($a, $b) {\n    return $a + $b;\n}\n", 0, 10},
		{"obfuscated", obfuscatedSample(), 50, MaxScore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.input)
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("Score() = %d, want between %d and %d", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestScorer_Analyze(t *testing.T) {
	a := NewScorer(nil).Analyze(obfuscatedSample())

	if a.EscapeDensity != 200 {
		t.Errorf("EscapeDensity = %d, want 200", a.EscapeDensity)
	}
	if a.EscapeScore != escapeCap {
		t.Errorf("EscapeScore = %d, want %d", a.EscapeScore, escapeCap)
	}
	if a.Base64Runs != 3 || a.Base64Score != 24 {
		t.Errorf("Base64Runs = %d score %d, want 3 and 24", a.Base64Runs, a.Base64Score)
	}
	if a.DecoderCalls != 5 || a.DecoderScore != decoderCap {
		t.Errorf("DecoderCalls = %d score %d, want 5 and %d", a.DecoderCalls, a.DecoderScore, decoderCap)
	}
	sum := a.EscapeScore + a.IdentifierScore + a.Base64Score + a.MinifiedScore + a.DecoderScore + a.EntropyScore
	if want := uint32(capScore(sum, MaxScore)); a.Total != want {
		t.Errorf("Total = %d, want %d", a.Total, want)
	}
}

func TestScorer_Clamped(t *testing.T) {
	var b strings.Builder
	b.WriteString(obfuscatedSample())
	for i := 0; i < 40; i++ {
		b.WriteString("$_0x")
		b.WriteString(strings.Repeat("f", i+3))
		b.WriteString(" = 1;\n")
	}
	b.WriteString(strings.Repeat("Zm9v", 600))
	for i := 0; i < 256; i++ {
		b.WriteByte(byte(i))
	}
	b.WriteString(strings.Repeat(string([]byte{0, 1, 2, 3, 250, 251, 252, 253}), 64))

	if got := NewScorer(nil).Score(b.String()); got > MaxScore {
		t.Errorf("Score() = %d, want at most %d", got, MaxScore)
	}
}

func TestScorer_Monotonic(t *testing.T) {
	scorer := NewScorer(nil)
	samples := []string{
		"",
		`<?php echo "hello"; ?>`,
		obfuscatedSample(),
		strings.Repeat("$O0O0 = $lIlI; ", 20),
		strings.Repeat(`\x65\x76\x61\x6c`, 100),
		strings.Repeat("x", 3000),
		"$qa=1;$qb=2;$qc=3;$qd=4;$ab",
	}
	// Appended content starts on a new line. Text glued onto the last
	// line edits what is already there: "$ab" + "cdef" is no longer a
	// degenerate name, and spaces can dilute a dense line.
	separators := []string{"\n", "\n\n"}

	for i, a := range samples {
		for j, b := range samples {
			for _, sep := range separators {
				before := scorer.Score(a)
				after := scorer.Score(a + sep + b)
				if after < before {
					t.Errorf("Score(samples[%d] + %q + samples[%d]) = %d < Score(samples[%d]) = %d", i, sep, j, after, i, before)
				}
			}
		}
	}
}

func TestEscapeDensity(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"none", "plain text", 0},
		{"hex escapes", strings.Repeat(`\x41`, 10), 10},
		{"unicode and octal", `\u0041\101`, 2},
		{"spread out", `\x41` + strings.Repeat(" ", 2000) + `\x41`, 1},
		{"control bytes", "a\x00b\x01c", 2},
		{"whitespace is printable", "a\tb\r\nc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeDensity(tt.input); got != tt.want {
				t.Errorf("escapeDensity() = %d, want %d", got, tt.want)
			}
		})
	}
}
