package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
		wantErr  bool
	}{
		{"Bytes", "100", 100, false},
		{"Kilobytes", "1K", 1024, false},
		{"Kilobytes lowercase", "1k", 1024, false},
		{"Megabytes", "1M", 1024 * 1024, false},
		{"Megabytes lowercase", "1m", 1024 * 1024, false},
		{"Gigabytes", "1G", 1024 * 1024 * 1024, false},
		{"Multiple KB", "650K", 650 * 1024, false},
		{"Multiple MB", "10M", 10 * 1024 * 1024, false},
		{"Surrounding spaces", " 2K ", 2048, false},
		{"Empty string", "", 0, false},
		{"Invalid format", "abc", 0, true},
		{"Unit only", "K", 0, true},
		{"Negative", "-1K", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseSize(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGetExtension(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/path/to/file.php", "php"},
		{"/path/to/file.PHP", "PHP"}, // Extension preserves case
		{"/path/to/shell.aspx", "aspx"},
		{"/path/to/.htaccess", "htaccess"},
		{"/path/to/file", ""},
		{"/path/to/file.tar.gz", "gz"},
		{"file.php", "php"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := GetExtension(tt.path); got != tt.expected {
				t.Errorf("GetExtension(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	// Create temporary test file
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.php")
	testContent := "<?php echo 'hello'; ?>"

	if err := os.WriteFile(testFile, []byte(testContent), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	content, err := ReadFile(testFile, 0)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(content) != testContent {
		t.Errorf("File content = %q, want %q", string(content), testContent)
	}
}

func TestReadFile_NonExistent(t *testing.T) {
	if _, err := ReadFile("/nonexistent/file.php", 0); err == nil {
		t.Error("ReadFile() expected error for non-existent file, got nil")
	}
}

func TestReadFile_EmptyFile(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "empty.php")
	if err := os.WriteFile(testFile, []byte(""), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	content, err := ReadFile(testFile, 0)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(content) != 0 {
		t.Errorf("Empty file content length = %d, want 0", len(content))
	}
}

func TestReadFile_TooLarge(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "big.php")
	if err := os.WriteFile(testFile, make([]byte, 2048), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err := ReadFile(testFile, 1024)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("ReadFile() error = %v, want ErrTooLarge", err)
	}

	if _, err := ReadFile(testFile, 2048); err != nil {
		t.Errorf("ReadFile() at the limit error = %v", err)
	}
}
