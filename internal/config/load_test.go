package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sans.calculator/internal/calcerr"
	"github.com/banshee-data/sans.calculator/internal/fsutil"
)

func TestLoadParams(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "ng7.json")
	require.NoError(t, os.WriteFile(path, []byte(ng7JSON), 0644))

	p, err := LoadParams(fsutil.OSFileSystem{}, path)
	require.NoError(t, err)
	assert.Equal(t, 1.43, p.Collimation.SourceAperture.GetDiameter(0))
	assert.Len(t, p.BeamStops, 2)
}

func TestLoadParamsMemory(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("/p/vsans.json", []byte(`{"preset": "19m"}`), 0644))

	p, err := LoadParams(m, "/p/vsans.json")
	require.NoError(t, err)
	assert.Equal(t, "19m", GetString(p.Preset, ""))
}

func TestLoadParamsErrors(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("/p/params.yaml", []byte("{}"), 0644))
	require.NoError(t, m.WriteFile("/p/big.json", []byte(strings.Repeat(" ", MaxParamsFileSize+1)), 0644))
	require.NoError(t, m.WriteFile("/p/bad.json", []byte(`{"detectors": 3}`), 0644))
	require.NoError(t, m.WriteFile("/p/invalid.json", []byte(`{"slicer": {"mode": "spiral"}}`), 0644))

	_, err := LoadParams(m, "/p/params.yaml")
	assert.ErrorContains(t, err, ".json extension")

	_, err = LoadParams(m, "/p/missing.json")
	assert.Error(t, err)

	_, err = LoadParams(m, "/p/big.json")
	assert.ErrorContains(t, err, "too large")

	_, err = LoadParams(m, "/p/bad.json")
	assert.True(t, errors.Is(err, calcerr.ErrInvalidConfig))

	_, err = LoadParams(m, "/p/invalid.json")
	assert.True(t, errors.Is(err, calcerr.ErrInvalidConfig))
}
