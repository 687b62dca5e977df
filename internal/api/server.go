package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/sans.calculator/internal/calculator"
	"github.com/banshee-data/sans.calculator/internal/config"
	"github.com/banshee-data/sans.calculator/internal/httputil"
	"github.com/banshee-data/sans.calculator/internal/model"
	"github.com/banshee-data/sans.calculator/internal/timeutil"
	"github.com/banshee-data/sans.calculator/internal/version"
	"github.com/banshee-data/sans.calculator/internal/vsans"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// DefaultComputeTimeout bounds a single compute call.
const DefaultComputeTimeout = 30 * time.Second

type Server struct {
	provider model.Provider
	clock    timeutil.Clock
	timeout  time.Duration
	stats    *requestStats
}

// NewServer serves compute requests against provider. A nil clock means the
// wall clock.
func NewServer(provider model.Provider, clock timeutil.Clock) *Server {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Server{
		provider: provider,
		clock:    clock,
		timeout:  DefaultComputeTimeout,
		stats:    newRequestStats(),
	}
}

// SetComputeTimeout changes the per-request compute deadline.
func (s *Server) SetComputeTimeout(d time.Duration) { s.timeout = d }

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/calculate/{instrument}", s.calculate)
	mux.HandleFunc("GET /api/vsans/presets", s.listPresets)
	mux.HandleFunc("GET /api/vsans/presets/{name}", s.showPreset)
	mux.HandleFunc("GET /api/instruments", s.listInstruments)
	mux.HandleFunc("GET /api/models", s.listModels)
	mux.HandleFunc("GET /api/version", s.showVersion)
	return mux
}

func (s *Server) calculate(w http.ResponseWriter, r *http.Request) {
	tag := r.PathValue("instrument")
	start := s.clock.Now()

	raw, err := io.ReadAll(io.LimitReader(r.Body, config.MaxParamsFileSize+1))
	if err != nil {
		httputil.BadRequest(w, "failed to read request body")
		return
	}
	if len(raw) > config.MaxParamsFileSize {
		httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("parameter tree exceeds %d bytes", config.MaxParamsFileSize))
		return
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}

	params, unknown, err := config.Decode(raw)
	if err != nil {
		s.stats.record(tag, s.clock.Since(start), err)
		httputil.WriteCalcError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	res, _, err := calculator.Compute(ctx, tag, params, s.provider)
	s.stats.record(tag, s.clock.Since(start), err)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "computation timed out")
		return
	case errors.Is(err, context.Canceled):
		// client went away
		return
	case err != nil:
		httputil.WriteCalcError(w, err)
		return
	}
	res.UserInaccessible.Ignored = unknown
	httputil.WriteJSONOK(w, res)
}

func (s *Server) listPresets(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]interface{}{
		"presets": vsans.PresetNames(),
		"default": vsans.DefaultPreset,
	})
}

func (s *Server) showPreset(w http.ResponseWriter, r *http.Request) {
	p, err := vsans.PresetParams(r.PathValue("name"))
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, p)
}

func (s *Server) listInstruments(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string][]string{"instruments": calculator.Tags()})
}

func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string][]string{"models": model.Names()})
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, version.Get())
}
