// Package testutil provides shared test helpers for the calculator and its
// HTTP surface.
package testutil

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertFloatsNear checks two series element by element to within tol.
func AssertFloatsNear(t testing.TB, want, got []float64, tol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Errorf("length = %d, want %d", len(got), len(want))
		return
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > tol || math.IsNaN(got[i]) {
			t.Errorf("[%d] = %g, want %g ± %g", i, got[i], want[i], tol)
		}
	}
}

// NewJSONRequest builds a test request whose body is body marshalled as
// JSON. A []byte or string body is sent as is.
func NewJSONRequest(t testing.TB, method, path string, body interface{}) *http.Request {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		raw = b
	case string:
		raw = []byte(b)
	default:
		var err error
		if raw, err = json.Marshal(b); err != nil {
			t.Fatalf("marshal request body: %v", err)
			return nil
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DecodeJSON decodes a recorded response body into v.
func DecodeJSON(t testing.TB, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q, want application/json", ct)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}
