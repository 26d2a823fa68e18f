package core

import (
	"github.com/JNC4/webshell-scanner/pkg/models"
)

// Aggregate maps post-suppression detections and the obfuscation score
// to a threat level. Rules are checked in order; the first match wins.
// A process sink run with a non-constant command is suspicious on its own.
func Aggregate(ds []models.Detection, score, threshold uint32) models.ThreatLevel {
	suspicious := make(map[string]struct{})
	elevated := score >= threshold

	for _, d := range ds {
		switch d.Category {
		case models.CategoryKnownSignature, models.CategoryInputToEval:
			return models.ThreatMalicious
		case models.CategoryDecodeChain, models.CategoryDynamicExecution:
			elevated = true
		case models.CategorySuspiciousFunction:
			suspicious[d.RuleID] = struct{}{}
			if d.Variable {
				elevated = true
			}
		}
	}

	if elevated || len(suspicious) >= 2 {
		return models.ThreatSuspicious
	}
	return models.ThreatClean
}
