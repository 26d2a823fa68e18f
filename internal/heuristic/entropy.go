package heuristic

import (
	"math"
)

// Entropy thresholds per 512-byte chunk
const (
	EntropyObfuscated    = 5.5 // Likely obfuscated
	EntropyHighlyEncoded = 6.0 // Highly encoded/encrypted
)

// ChunkSize is the window used for localized entropy
const ChunkSize = 512

// CalculateEntropy calculates Shannon entropy of a string
// Returns value between 0 (uniform) and 8 (maximum randomness for bytes)
func CalculateEntropy(data string) float64 {
	if len(data) == 0 {
		return 0
	}

	var freq [256]int
	for i := 0; i < len(data); i++ {
		freq[data[i]]++
	}

	length := float64(len(data))
	var entropy float64
	for _, count := range freq {
		if count > 0 {
			p := float64(count) / length
			entropy -= p * math.Log2(p)
		}
	}

	return entropy
}

// MaxChunkEntropy returns the highest entropy among the full ChunkSize
// chunks of data. A trailing partial chunk is ignored, so appending data
// never lowers the result.
func MaxChunkEntropy(data string) float64 {
	var highest float64
	for i := 0; i+ChunkSize <= len(data); i += ChunkSize {
		if e := CalculateEntropy(data[i : i+ChunkSize]); e > highest {
			highest = e
		}
	}
	return highest
}

// entropyScore maps the chunk entropy onto the score scale
func entropyScore(content string) int {
	switch e := MaxChunkEntropy(content); {
	case e > EntropyHighlyEncoded:
		return 10
	case e > EntropyObfuscated:
		return 5
	}
	return 0
}
