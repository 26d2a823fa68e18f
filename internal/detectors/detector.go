package detectors

import (
	"sort"

	"github.com/JNC4/webshell-scanner/internal/signatures"
	"github.com/JNC4/webshell-scanner/pkg/models"
)

// Detector is the interface that all category detectors must implement.
// Detect must be total over any input and safe for concurrent use.
type Detector interface {
	// Name returns the detector name
	Name() string

	// Category returns the detection category this detector produces
	Category() models.Category

	// Detect scans content and returns detections ordered by offset
	Detect(content string, lang models.Language) []models.Detection
}

// BaseDetector provides common functionality for detectors
type BaseDetector struct {
	name     string
	category models.Category
	tables   *signatures.Tables
}

// NewBaseDetector creates a new base detector. A nil tables value uses
// the embedded rule tables.
func NewBaseDetector(name string, category models.Category, tables *signatures.Tables) *BaseDetector {
	if tables == nil {
		tables = signatures.Default()
	}
	return &BaseDetector{
		name:     name,
		category: category,
		tables:   tables,
	}
}

// Name returns the detector name
func (d *BaseDetector) Name() string {
	return d.name
}

// Category returns the detection category
func (d *BaseDetector) Category() models.Category {
	return d.category
}

// Tables returns the rule tables the detector matches against
func (d *BaseDetector) Tables() *signatures.Tables {
	return d.tables
}

// Rules returns the rule set for lang
func (d *BaseDetector) Rules(lang models.Language) *signatures.RuleSet {
	return d.tables.For(lang)
}

// NewDetection builds a detection of the detector's category
func (d *BaseDetector) NewDetection(lines *signatures.LineIndex, ruleID, description, pattern string, offset int) models.Detection {
	return models.Detection{
		Category:    d.category,
		RuleID:      ruleID,
		Description: description,
		Pattern:     models.ClampPattern(pattern),
		Line:        lines.Line(offset),
		Offset:      offset,
	}
}

// SortByOffset orders detections by offset, then rule id
func SortByOffset(ds []models.Detection) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Offset != ds[j].Offset {
			return ds[i].Offset < ds[j].Offset
		}
		return ds[i].RuleID < ds[j].RuleID
	})
}

// SortByCategory orders detections by category, then offset
func SortByCategory(ds []models.Detection) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Category != ds[j].Category {
			return ds[i].Category < ds[j].Category
		}
		if ds[i].Offset != ds[j].Offset {
			return ds[i].Offset < ds[j].Offset
		}
		return ds[i].RuleID < ds[j].RuleID
	})
}
