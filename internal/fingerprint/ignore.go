package fingerprint

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIgnoreFile is the content written to a new workspace's ignore file.
const DefaultIgnoreFile = `# Paths excluded from the code facet fingerprint.
# One doublestar pattern per line, matched against slash-separated paths
# relative to the workspace root. Use **/ to match at any depth.
**/__pycache__/**
**/*.pyc
**/.ipynb_checkpoints/**
**/.DS_Store
`

// ParseIgnore parses ignore-file content into patterns.
// Blank lines and lines starting with # are skipped.
func ParseIgnore(data []byte) ([]string, error) {
	var patterns []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if !doublestar.ValidatePattern(text) {
			return nil, fmt.Errorf("line %d: invalid pattern %q", line, text)
		}
		patterns = append(patterns, strings.TrimPrefix(text, "/"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

// ReadIgnoreFile loads patterns from path. A missing file has no patterns.
func ReadIgnoreFile(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ignore file: %w", err)
	}
	patterns, err := ParseIgnore(data)
	if err != nil {
		return nil, fmt.Errorf("invalid ignore file %s: %w", path, err)
	}
	return patterns, nil
}
