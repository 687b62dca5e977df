// Package model adapts an external scattering-model evaluator to the
// calculator. The evaluator is a black box that returns I(q) for a model name
// and parameter map; this package guards its output so that averaging never
// sees NaN or ±Inf.
package model

import (
	"fmt"
	"math"

	"github.com/banshee-data/sans.calculator/internal/calcerr"
	"github.com/banshee-data/sans.calculator/internal/monitoring"
)

// Sentinels substituted for non-finite provider output before averaging.
const (
	InfSentinel = 9.999999e6
	NaNSentinel = 8.888888e6
)

// Provider evaluates a named scattering model on a set of |Q| values (Å⁻¹).
// Implementations must return one intensity per input Q.
type Provider interface {
	Intensity(name string, params map[string]float64, q []float64) ([]float64, error)
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func(name string, params map[string]float64, q []float64) ([]float64, error)

// Intensity calls f.
func (f ProviderFunc) Intensity(name string, params map[string]float64, q []float64) ([]float64, error) {
	return f(name, params, q)
}

// Evaluate runs p over q and replaces non-finite values with the sentinels.
// Provider errors and length mismatches are reported as ModelFailure.
func Evaluate(p Provider, name string, params map[string]float64, q []float64) ([]float64, error) {
	if p == nil {
		return nil, calcerr.ModelFailure(name, fmt.Errorf("no model provider configured"))
	}
	out, err := p.Intensity(name, params, q)
	if err != nil {
		return nil, calcerr.ModelFailure(name, err)
	}
	if len(out) != len(q) {
		return nil, calcerr.ModelFailure(name, fmt.Errorf("provider returned %d values for %d q points", len(out), len(q)))
	}

	res := make([]float64, len(out))
	replaced := 0
	for i, v := range out {
		res[i] = Sanitize(v)
		if res[i] != v {
			replaced++
		}
	}
	if replaced > 0 {
		monitoring.Logf("model %s: replaced %d non-finite intensities with sentinels", name, replaced)
	}
	return res, nil
}

// Evaluate2D evaluates p on a row-major grid of |Q| values and returns a grid
// of the same shape.
func Evaluate2D(p Provider, name string, params map[string]float64, q [][]float64) ([][]float64, error) {
	flat := make([]float64, 0, len(q)*rowLen(q))
	for _, row := range q {
		flat = append(flat, row...)
	}
	vals, err := Evaluate(p, name, params, flat)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(q))
	off := 0
	for i, row := range q {
		out[i] = vals[off : off+len(row) : off+len(row)]
		off += len(row)
	}
	return out, nil
}

// Sanitize maps ±Inf to InfSentinel and NaN to NaNSentinel.
func Sanitize(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return NaNSentinel
	case math.IsInf(v, 0):
		return InfSentinel
	default:
		return v
	}
}

func rowLen(q [][]float64) int {
	if len(q) == 0 {
		return 0
	}
	return len(q[0])
}
