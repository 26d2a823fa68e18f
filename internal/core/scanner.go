package core

import (
	"fmt"

	"github.com/JNC4/webshell-scanner/internal/detectors"
	"github.com/JNC4/webshell-scanner/internal/detectors/webshell"
	"github.com/JNC4/webshell-scanner/internal/framework"
	"github.com/JNC4/webshell-scanner/internal/heuristic"
	"github.com/JNC4/webshell-scanner/internal/signatures"
	"github.com/JNC4/webshell-scanner/pkg/models"
	"go.uber.org/zap"
)

// DefaultThreshold is the obfuscation score at which content becomes suspicious
const DefaultThreshold uint32 = 50

// ObfuscationRuleID identifies the detection added when the score
// reaches the threshold
const ObfuscationRuleID = "obfuscation.score"

// Scanner runs every category detector and the obfuscation scorer over
// content and aggregates a verdict. It is immutable after construction
// and safe for concurrent use.
type Scanner struct {
	threshold uint32
	tables    *signatures.Tables
	detectors []detectors.Detector
	scorer    *heuristic.Scorer
	logger    *zap.Logger
}

// NewScanner creates a scanner with the embedded rule tables.
// A zero threshold means DefaultThreshold.
func NewScanner(threshold uint32, logger *zap.Logger) *Scanner {
	return NewScannerWithTables(threshold, nil, logger)
}

// NewScannerWithTables creates a scanner over the given rule tables;
// nil tables uses the embedded rules
func NewScannerWithTables(threshold uint32, tables *signatures.Tables, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tables == nil {
		tables = signatures.Default()
	}
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	s := &Scanner{
		threshold: threshold,
		tables:    tables,
		scorer:    heuristic.NewScorer(tables),
		logger:    logger,
	}

	s.register(webshell.NewTaintDetector(tables))
	s.register(webshell.NewDecodeDetector(tables))
	s.register(webshell.NewSignatureDetector(tables))
	s.register(webshell.NewFunctionDetector(tables))
	s.register(webshell.NewDynamicDetector(tables))

	return s
}

func (s *Scanner) register(d detectors.Detector) {
	s.detectors = append(s.detectors, d)
	s.logger.Debug("Registered detector",
		zap.String("name", d.Name()),
		zap.String("category", d.Category().Name()))
}

// Threshold returns the obfuscation threshold
func (s *Scanner) Threshold() uint32 {
	return s.threshold
}

// Tables returns the rule tables the scanner matches against
func (s *Scanner) Tables() *signatures.Tables {
	return s.tables
}

// Detectors returns the registered detectors in execution order
func (s *Scanner) Detectors() []detectors.Detector {
	out := make([]detectors.Detector, len(s.detectors))
	copy(out, s.detectors)
	return out
}

// ShouldScanLanguage reports whether path has an extension the scanner
// understands, and which language it maps to
func (s *Scanner) ShouldScanLanguage(path string) (models.Language, bool) {
	return models.IdentifyLanguage(path)
}

// Scan scans content of unknown language against every language's rules
func (s *Scanner) Scan(content string) *models.ScanResult {
	return s.scan(content, models.LanguageUnknown, nil)
}

// ScanLanguage scans content with the rules of lang
func (s *Scanner) ScanLanguage(content string, lang models.Language) *models.ScanResult {
	return s.scan(content, lang, nil)
}

// ScanWithContext scans content with the language of ctx.Path and drops
// detections allowlisted for the context's framework. A nil ctx is the
// same as Scan.
func (s *Scanner) ScanWithContext(content string, ctx *ScanContext) *models.ScanResult {
	if ctx == nil {
		return s.Scan(content)
	}
	lang, _ := models.IdentifyLanguage(ctx.Path)
	return s.scan(content, lang, ctx.Allowlist)
}

func (s *Scanner) scan(content string, lang models.Language, allowlist *framework.Allowlist) *models.ScanResult {
	var ds []models.Detection
	for _, d := range s.detectors {
		ds = append(ds, d.Detect(content, lang)...)
	}

	if allowlist != nil {
		before := len(ds)
		ds = allowlist.Filter(ds)
		if suppressed := before - len(ds); suppressed > 0 {
			s.logger.Debug("Suppressed framework idioms", zap.Int("count", suppressed))
		}
	}

	score := s.scorer.Score(content)
	if score >= s.threshold {
		ds = append(ds, models.Detection{
			Category:    models.CategoryObfuscation,
			RuleID:      ObfuscationRuleID,
			Description: fmt.Sprintf("Obfuscation score %d reaches threshold %d", score, s.threshold),
			Weight:      int(score),
		})
	}

	detectors.SortByCategory(ds)
	if ds == nil {
		ds = []models.Detection{}
	}

	level := Aggregate(ds, score, s.threshold)
	if level != models.ThreatClean {
		s.logger.Debug("Threat found",
			zap.String("language", lang.String()),
			zap.String("threat_level", level.String()),
			zap.Uint32("obfuscation_score", score),
			zap.Int("detections", len(ds)))
	}

	return &models.ScanResult{
		IsMalicious:      level == models.ThreatMalicious,
		ThreatLevel:      level,
		Language:         lang,
		ObfuscationScore: score,
		Detections:       ds,
	}
}
