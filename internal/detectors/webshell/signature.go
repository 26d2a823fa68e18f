package webshell

import (
	"github.com/JNC4/webshell-scanner/internal/detectors"
	"github.com/JNC4/webshell-scanner/internal/signatures"
	"github.com/JNC4/webshell-scanner/pkg/models"
)

// SignatureDetector reports known webshell families
type SignatureDetector struct {
	*detectors.BaseDetector
}

// NewSignatureDetector creates a new known-signature detector
func NewSignatureDetector(tables *signatures.Tables) *SignatureDetector {
	return &SignatureDetector{
		BaseDetector: detectors.NewBaseDetector("signature", models.CategoryKnownSignature, tables),
	}
}

// Detect reports the first occurrence of every matching signature
func (d *SignatureDetector) Detect(content string, lang models.Language) []models.Detection {
	matches := d.Tables().Signatures().Match(content, lang)
	if len(matches) == 0 {
		return nil
	}

	lines := signatures.NewLineIndex(content)
	detections := make([]models.Detection, 0, len(matches))
	for _, m := range matches {
		sig := m.Signature
		description := sig.Description
		if description == "" {
			description = "Known webshell: " + sig.Name
		}
		detections = append(detections, d.NewDetection(lines, sig.ID, description, content[m.Start:m.End], m.Start))
	}
	return detections
}
