package filesystem

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrTooLarge is returned by ReadFile for files over the size limit
var ErrTooLarge = errors.New("file exceeds size limit")

// ReadFile reads the file at path. A positive maxSize rejects larger
// files with ErrTooLarge before reading them.
func ReadFile(path string, maxSize int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, info.Size())
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// ParseSize parses size string (e.g., "650K", "1M") to bytes.
// An empty string means no limit and yields 0.
func ParseSize(sizeStr string) (int64, error) {
	sizeStr = strings.TrimSpace(sizeStr)
	if len(sizeStr) == 0 {
		return 0, nil
	}

	// Get last character (unit)
	number := sizeStr
	var multiplier int64 = 1

	switch sizeStr[len(sizeStr)-1] {
	case 'K', 'k':
		multiplier = 1024
	case 'M', 'm':
		multiplier = 1024 * 1024
	case 'G', 'g':
		multiplier = 1024 * 1024 * 1024
	}
	if multiplier > 1 {
		number = sizeStr[:len(sizeStr)-1]
	}

	size, err := strconv.ParseInt(number, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid size %q", sizeStr)
	}
	return size * multiplier, nil
}
