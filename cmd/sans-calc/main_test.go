package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sans.calculator/internal/api"
	"github.com/banshee-data/sans.calculator/internal/fsutil"
	"github.com/banshee-data/sans.calculator/internal/monitoring"
	"github.com/banshee-data/sans.calculator/internal/version"
)

func init() {
	monitoring.SetLogger(nil)
}

func TestParseFlagsDefaults(t *testing.T) {
	o, err := parseFlags(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, ":8080", o.listen)
	assert.Equal(t, "ng7", o.instrument)
	assert.Empty(t, o.params)
	assert.False(t, o.debug)
	assert.Equal(t, api.DefaultComputeTimeout, o.timeout)
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-port", "/dev/ttySC1"}},
		{"stray argument", []string{"params.json"}},
		{"empty listen", []string{"-listen", ""}},
		{"bad duration", []string{"-timeout", "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args, io.Discard)
			assert.Error(t, err)
		})
	}

	_, err := parseFlags([]string{"-h"}, io.Discard)
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-version"}, &out, io.Discard))
	assert.Equal(t, version.Get().String()+"\n", out.String())
}

type resultFile struct {
	QValues          []float64 `json:"qValues"`
	UserInaccessible struct {
		RequestID  string `json:"request_id"`
		Instrument string `json:"instrument"`
	} `json:"user_inaccessible"`
}

func writeParams(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "params.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunComputeToStdout(t *testing.T) {
	path := writeParams(t, t.TempDir(), `{"q_range": {"q_min": 0.001, "q_max": 0.1, "points": 20}}`)

	var out bytes.Buffer
	err := run(context.Background(), []string{"-instrument", "no_instrument", "-params", path}, &out, io.Discard)
	require.NoError(t, err)

	var res resultFile
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Len(t, res.QValues, 20)
	assert.Equal(t, "no_instrument", res.UserInaccessible.Instrument)
}

func TestRunComputeToDirectory(t *testing.T) {
	dir := t.TempDir()
	path := writeParams(t, dir, `{"detectors": [{"sdd": 800}]}`)

	err := run(context.Background(), []string{"-instrument", "NGB30", "-params", path, "-out", dir}, io.Discard, io.Discard)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "ngb30-*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	raw, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	var res resultFile
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.NotEmpty(t, res.QValues)
	assert.True(t, strings.HasPrefix(filepath.Base(matches[0]), "ngb30-"+res.UserInaccessible.RequestID[:8]))
}

func TestComputeOnceErrors(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("/p/ok.json", []byte(`{}`), 0o644))
	require.NoError(t, fsys.WriteFile("/p/bad.json", []byte(`{"detectors": [{"sdd": -1}]}`), 0o644))
	require.NoError(t, fsys.WriteFile("/p/params.txt", []byte(`{}`), 0o644))

	tests := []struct {
		name string
		opts options
	}{
		{"missing file", options{instrument: "ng7", params: "/p/missing.json"}},
		{"wrong extension", options{instrument: "ng7", params: "/p/params.txt"}},
		{"invalid params", options{instrument: "ng7", params: "/p/bad.json"}},
		{"unknown instrument", options{instrument: "d22", params: "/p/ok.json"}},
		{"output outside allowed dirs", options{instrument: "ng7", params: "/p/ok.json", out: "/nonexistent-root/result.json"}},
		{"output not json", options{instrument: "ng7", params: "/p/ok.json", out: filepath.Join(os.TempDir(), "result.txt")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := tt.opts
			o.timeout = time.Minute
			err := computeOnce(context.Background(), &o, fsys, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestComputeOnceWritesFile(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("/p/ok.json", []byte(`{}`), 0o644))
	out := filepath.Join(os.TempDir(), "sans-calc-result.json")

	o := &options{instrument: "ngb10", params: "/p/ok.json", out: out, timeout: time.Minute}
	require.NoError(t, computeOnce(context.Background(), o, fsys, io.Discard))

	raw, err := fsys.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"instrument": "ngb10"`)
}

func TestNewHandler(t *testing.T) {
	h := newHandler(time.Minute)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/debug/compute-stats.json", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := serve(ctx, &options{listen: "127.0.0.1:0", timeout: time.Minute})
	assert.NoError(t, err)
}

func TestRunComputeCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := writeParams(t, dir, `{"preset": "4.5m"}`)
	out := filepath.Join(dir, "results") + string(filepath.Separator)

	err := run(context.Background(), []string{"-instrument", "vsans", "-params", path, "-out", out}, io.Discard, io.Discard)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "results", "vsans-*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
