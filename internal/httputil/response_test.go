package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/sans.calculator/internal/calcerr"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONError(rec, http.StatusBadRequest, "test error")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %s, want application/json", ct)
	}
	if body := decodeBody(t, rec); body.Error != "test error" || body.Kind != "" {
		t.Errorf("body = %+v", body)
	}
}

func TestWriteJSONOK(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONOK(rec, map[string]int{"count": 42})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["count"] != 42 {
		t.Errorf("count = %d, want 42", resp["count"])
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unit", calcerr.UnitUnknown("wavelength.units", "nm", "Å"), http.StatusBadRequest},
		{"invalid", calcerr.InvalidConfig("slicer.mode", "bad"), http.StatusBadRequest},
		{"range", calcerr.OutOfRange("detectors[0].sdd", 5000, 100, 1531), http.StatusBadRequest},
		{"degenerate", calcerr.NumericDegenerate("ssad", "zero"), http.StatusUnprocessableEntity},
		{"model", calcerr.ModelFailure("sphere", errors.New("boom")), http.StatusUnprocessableEntity},
		{"wrapped", fmt.Errorf("compute: %w", calcerr.OutOfRange("beam.lambda", 3, 4, 20)), http.StatusBadRequest},
		{"plain", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWriteCalcError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteCalcError(rec, calcerr.OutOfRange("detectors[0].sdd", 5000, 100, 1531))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	body := decodeBody(t, rec)
	if body.Kind != "OutOfRange" || body.Path != "detectors[0].sdd" || body.Suggested != "1531" {
		t.Errorf("body = %+v", body)
	}
}

func TestWriteCalcErrorHidesInternalDetail(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteCalcError(rec, errors.New("secret path /etc/thing"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if body := decodeBody(t, rec); body.Error != "internal error" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestShortcuts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		write func(w http.ResponseWriter)
		want  int
	}{
		{"method not allowed", MethodNotAllowed, http.StatusMethodNotAllowed},
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "invalid input") }, http.StatusBadRequest},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "no such preset") }, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
