package report

import (
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/JNC4/webshell-scanner/internal/config"
	"github.com/JNC4/webshell-scanner/internal/core"
	"github.com/JNC4/webshell-scanner/pkg/models"
	"go.uber.org/zap"
)

// StdinPath names content read from standard input
const StdinPath = "<stdin>"

// MaxPatternOutput bounds the pattern shown per detection
const MaxPatternOutput = 100

// DetectionOutput is one detection as reported
type DetectionOutput struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Pattern     string `json:"pattern"`
	Line        *int   `json:"line"`
}

// Output is the report entry of one scanned file
type Output struct {
	Path             string            `json:"path"`
	IsMalicious      bool              `json:"is_malicious"`
	ThreatLevel      string            `json:"threat_level"`
	Language         *string           `json:"language"`
	ObfuscationScore uint32            `json:"obfuscation_score"`
	Detections       []DetectionOutput `json:"detections"`
}

// NewOutput converts a scan result into its report entry
func NewOutput(path string, r *models.ScanResult) *Output {
	out := &Output{
		Path:             path,
		IsMalicious:      r.IsMalicious,
		ThreatLevel:      r.ThreatLevel.String(),
		ObfuscationScore: r.ObfuscationScore,
		Detections:       make([]DetectionOutput, 0, len(r.Detections)),
	}
	if r.HasLanguage() {
		name := r.Language.Name()
		out.Language = &name
	}

	for _, d := range r.Detections {
		do := DetectionOutput{
			Category:    d.Category.Name(),
			Description: d.Description,
			Pattern:     TruncatePattern(d.Pattern, MaxPatternOutput),
		}
		if d.HasLine() {
			line := d.Line
			do.Line = &line
		}
		out.Detections = append(out.Detections, do)
	}
	return out
}

// TruncatePattern cuts pattern to at most limit bytes, on a rune
// boundary, and marks the cut with "..."
func TruncatePattern(pattern string, limit int) string {
	if len(pattern) <= limit {
		return pattern
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(pattern[cut]) {
		cut--
	}
	return pattern[:cut] + "..."
}

// Summary describes a finished scan
type Summary struct {
	Scanned   int
	Malicious int
	Errors    int
	Duration  time.Duration
}

// Summarize counts the outcomes of results
func Summarize(results []*core.FileResult, duration time.Duration) Summary {
	s := Summary{Duration: duration}
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Errors++
		case r.Result != nil:
			s.Scanned++
			if r.Result.IsMalicious {
				s.Malicious++
			}
		}
	}
	return s
}

// FormatDuration formats duration to a human-readable string with max 2 decimal places
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		// Milliseconds
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	} else if d < time.Minute {
		// Seconds
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	// Minutes and seconds
	mins := int(d.Minutes())
	secs := d.Seconds() - float64(mins*60)
	return fmt.Sprintf("%dm%.2fs", mins, secs)
}

// Generator writes scan results in the configured format. Reports go to
// out; the summary and read errors go to errOut.
type Generator struct {
	config *config.Config
	out    io.Writer
	errOut io.Writer
	logger *zap.Logger
}

// NewGenerator creates a new report generator
func NewGenerator(cfg *config.Config, out, errOut io.Writer, logger *zap.Logger) (*Generator, error) {
	switch cfg.Format {
	case config.FormatText, config.FormatJSON, config.FormatJSONL:
	default:
		return nil, fmt.Errorf("unknown report format: %s", cfg.Format)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		config: cfg,
		out:    out,
		errOut: errOut,
		logger: logger,
	}, nil
}

// Generate reports results. Malicious files and standard input are
// always listed; other files only with show_clean.
func (g *Generator) Generate(results []*core.FileResult, summary Summary) error {
	if g.config.Quiet {
		return nil
	}

	var outputs []*Output
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(g.errOut, "Error: %s: %v\n", r.Path, r.Err)
			continue
		}
		if r.Result == nil {
			continue
		}
		if r.Result.IsMalicious || g.config.ShowClean || r.Path == StdinPath {
			outputs = append(outputs, NewOutput(r.Path, r.Result))
		}
	}

	g.logger.Debug("Generating report",
		zap.String("format", g.config.Format),
		zap.Int("entries", len(outputs)))

	switch g.config.Format {
	case config.FormatJSON:
		return g.generateJSON(outputs)
	case config.FormatJSONL:
		return g.generateJSONL(outputs)
	default:
		return g.generateText(outputs, summary)
	}
}
