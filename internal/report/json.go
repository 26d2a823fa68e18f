package report

import (
	"encoding/json"
	"fmt"
)

func (g *Generator) encoder() *json.Encoder {
	enc := json.NewEncoder(g.out)
	enc.SetEscapeHTML(false)
	return enc
}

// generateJSON writes all entries as one indented array
func (g *Generator) generateJSON(outputs []*Output) error {
	if outputs == nil {
		outputs = []*Output{}
	}

	enc := g.encoder()
	enc.SetIndent("", "  ")
	if err := enc.Encode(outputs); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// generateJSONL writes one compact object per line
func (g *Generator) generateJSONL(outputs []*Output) error {
	enc := g.encoder()
	for _, o := range outputs {
		if err := enc.Encode(o); err != nil {
			return fmt.Errorf("failed to encode report entry: %w", err)
		}
	}
	return nil
}
