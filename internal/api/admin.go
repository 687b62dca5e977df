package api

import (
	"fmt"
	"html"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"tailscale.com/tsweb"

	"github.com/banshee-data/sans.calculator/internal/calcerr"
	"github.com/banshee-data/sans.calculator/internal/calculator"
	"github.com/banshee-data/sans.calculator/internal/httputil"
	"github.com/banshee-data/sans.calculator/internal/version"
)

// instrumentStats counts compute requests for one instrument tag.
type instrumentStats struct {
	Requests int64            `json:"requests"`
	Failures map[string]int64 `json:"failures,omitempty"`
	Total    time.Duration    `json:"total_ns"`
	Slowest  time.Duration    `json:"slowest_ns"`
}

type requestStats struct {
	mu    sync.Mutex
	byTag map[string]*instrumentStats
}

func newRequestStats() *requestStats {
	return &requestStats{byTag: make(map[string]*instrumentStats)}
}

// unknownTag collects requests for instruments the calculator does not know,
// so arbitrary path values cannot grow the counter table.
const unknownTag = "unknown"

// statsTag maps a request path value onto a counter key.
func statsTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, known := range calculator.Tags() {
		if tag == known {
			return tag
		}
	}
	return unknownTag
}

func (rs *requestStats) record(tag string, elapsed time.Duration, err error) {
	tag = statsTag(tag)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	st, ok := rs.byTag[tag]
	if !ok {
		st = &instrumentStats{Failures: make(map[string]int64)}
		rs.byTag[tag] = st
	}
	st.Requests++
	st.Total += elapsed
	if elapsed > st.Slowest {
		st.Slowest = elapsed
	}
	if err != nil {
		st.Failures[calcerr.KindOf(err).String()]++
	}
}

// snapshot copies the counters so they can be rendered without the lock.
func (rs *requestStats) snapshot() map[string]instrumentStats {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make(map[string]instrumentStats, len(rs.byTag))
	for tag, st := range rs.byTag {
		cp := *st
		cp.Failures = make(map[string]int64, len(st.Failures))
		for k, v := range st.Failures {
			cp.Failures[k] = v
		}
		out[tag] = cp
	}
	return out
}

// AttachAdminRoutes mounts the request counters under the tsweb /debug/
// index, which only answers loopback and tailnet clients.
func (s *Server) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.KV("Version", version.Get().String())

	debug.HandleFunc("compute-stats", "Compute requests per instrument", func(w http.ResponseWriter, r *http.Request) {
		snap := s.stats.snapshot()
		tags := make([]string, 0, len(snap))
		for tag := range snap {
			tags = append(tags, tag)
		}
		sort.Strings(tags)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintln(w, "<table><tr><th>instrument</th><th>requests</th><th>failures</th><th>mean</th><th>slowest</th></tr>")
		for _, tag := range tags {
			st := snap[tag]
			var failed int64
			for _, n := range st.Failures {
				failed += n
			}
			mean := time.Duration(0)
			if st.Requests > 0 {
				mean = st.Total / time.Duration(st.Requests)
			}
			fmt.Fprintf(w, "<tr><td>%s</td><td>%d</td><td>%d</td><td>%s</td><td>%s</td></tr>\n",
				html.EscapeString(tag), st.Requests, failed, mean, st.Slowest)
		}
		fmt.Fprintln(w, "</table>")
	})
	debug.HandleSilentFunc("compute-stats.json", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, s.stats.snapshot())
	})
}
