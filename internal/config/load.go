// Package config defines the calculator's inbound parameter tree: typed
// sections with pointer fields, JSON decoding that reports field paths, and
// structural validation.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/banshee-data/sans.calculator/internal/fsutil"
)

// MaxParamsFileSize caps parameter files read from disk.
const MaxParamsFileSize = 1 * 1024 * 1024 // 1MB

// LoadParams loads a parameter tree from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file fall back to the instrument's defaults, so
// partial trees are safe.
func LoadParams(fsys fsutil.FileSystem, path string) (*Params, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("params file must have .json extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat params file: %w", err)
	}
	if fileInfo.Size() > MaxParamsFileSize {
		return nil, fmt.Errorf("params file too large: %d bytes (max %d)", fileInfo.Size(), MaxParamsFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read params file: %w", err)
	}

	p, _, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse params JSON: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	return p, nil
}
