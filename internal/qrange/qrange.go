// Package qrange is the pseudo-instrument used when no instrument is
// selected: it synthesises a Q grid from a user Q range and marks the region
// a beam stop would hide, without any instrument geometry.
package qrange

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/sans.calculator/internal/calcerr"
	"github.com/banshee-data/sans.calculator/internal/config"
	"github.com/banshee-data/sans.calculator/internal/model"
)

// ArmToPoint converts N·Q_min into a beam-stop hole width in grid points.
const ArmToPoint = 25 / 0.3

// Spacing of the 1-D Q grid.
const (
	Linear      = "lin"
	Logarithmic = "log"
)

// Defaults for an empty q_range section.
const (
	DefaultQMin   = 0.001
	DefaultQMax   = 0.5
	DefaultDQQ    = 0.05
	DefaultPoints = 50
)

// Range is the resolved user Q range (Å⁻¹).
type Range struct {
	QMin    float64 `json:"q_min"`
	QMax    float64 `json:"q_max"`
	DQQ     float64 `json:"dq_q"`
	Spacing string  `json:"point_spacing"`
	Points  int     `json:"points"`
	QxMin   float64 `json:"qx_min"`
	QxMax   float64 `json:"qx_max"`
	QyMin   float64 `json:"qy_min"`
	QyMax   float64 `json:"qy_max"`
}

// Output is the synthesised data bundle.
type Output struct {
	Range       Range       `json:"-"`
	QValues     []float64   `json:"qValues"`
	FSubs       []float64   `json:"fSubs"`
	QxValues    []float64   `json:"qxValues"`
	QyValues    []float64   `json:"qyValues"`
	QGrid       [][]float64 `json:"-"`
	Intensity2D [][]float64 `json:"intensity2D"`
	Intensity1D []float64   `json:"intensity1D"`
	SigmaQ      []float64   `json:"sigmaQ"`
	HoleSize    int         `json:"hole_size"`
}

// Resolve applies defaults to a q_range section.
func Resolve(q *config.QRange) (Range, error) {
	if q == nil {
		q = &config.QRange{}
	}
	r := Range{
		QMin:    config.GetFloat(q.QMin, DefaultQMin),
		QMax:    config.GetFloat(q.QMax, DefaultQMax),
		DQQ:     config.GetFloat(q.DQQ, DefaultDQQ),
		Spacing: config.GetString(q.PointSpacing, Linear),
		Points:  config.GetInt(q.Points, DefaultPoints),
	}
	r.QxMin = config.GetFloat(q.QxMin, -r.QMax)
	r.QxMax = config.GetFloat(q.QxMax, r.QMax)
	r.QyMin = config.GetFloat(q.QyMin, -r.QMax)
	r.QyMax = config.GetFloat(q.QyMax, r.QMax)

	switch {
	case r.Points < 2:
		return r, calcerr.InvalidConfig("q_range.points", "need at least 2 points, got %d", r.Points)
	case r.QMax <= r.QMin:
		return r, calcerr.InvalidConfig("q_range.q_max", "q_max %g must exceed q_min %g", r.QMax, r.QMin)
	case r.QxMax <= r.QxMin:
		return r, calcerr.InvalidConfig("q_range.qx_max", "qx_max %g must exceed qx_min %g", r.QxMax, r.QxMin)
	case r.QyMax <= r.QyMin:
		return r, calcerr.InvalidConfig("q_range.qy_max", "qy_max %g must exceed qy_min %g", r.QyMax, r.QyMin)
	case r.Spacing != Linear && r.Spacing != Logarithmic:
		return r, calcerr.InvalidConfig("q_range.point_spacing", "unknown spacing %q", r.Spacing)
	case r.Spacing == Logarithmic && r.QMin <= 0:
		return r, calcerr.NumericDegenerate("q_range.log_spacing", "logarithmic spacing needs q_min > 0, got %g", r.QMin)
	}
	return r, nil
}

// Grid returns the 1-D Q values with both endpoints exact.
func (r Range) Grid() []float64 {
	q := make([]float64, r.Points)
	if r.Spacing == Logarithmic {
		floats.LogSpan(q, r.QMin, r.QMax)
	} else {
		floats.Span(q, r.QMin, r.QMax)
	}
	q[0], q[len(q)-1] = r.QMin, r.QMax
	return q
}

// Shadow is 0 for Q at or below q_min and 1 elsewhere.
func (r Range) Shadow(q []float64) []float64 {
	fs := make([]float64, len(q))
	for i, v := range q {
		if v > r.QMin {
			fs[i] = 1
		}
	}
	return fs
}

// HoleSize is the side of the square beam-stop hole in grid points. It has
// the same parity as the grid so that the hole stays centred.
func (r Range) HoleSize() int {
	if r.QMin <= 0 {
		return 0
	}
	n := r.Points
	size := int(math.Ceil(float64(n) * r.QMin * ArmToPoint))
	if size%2 != n%2 {
		size++
	}
	if size > n {
		size = n
	}
	return size
}

// Mask returns an N×N grid of 1s with the centred hole set to 0.
func (r Range) Mask() [][]float64 {
	n := r.Points
	size := r.HoleSize()
	start := (n - size) / 2
	mask := make([][]float64, n)
	for i := range mask {
		mask[i] = make([]float64, n)
		for j := range mask[i] {
			inside := i >= start && i < start+size && j >= start && j < start+size
			if !inside {
				mask[i][j] = 1
			}
		}
	}
	return mask
}

// Compute synthesises the pseudo-instrument bundle and evaluates the model
// on the 1-D grid.
func Compute(ctx context.Context, p *config.Params, provider model.Provider) (*Output, error) {
	var qr *config.QRange
	if p != nil {
		qr = p.QRange
	}
	r, err := Resolve(qr)
	if err != nil {
		return nil, err
	}

	out := &Output{Range: r, HoleSize: r.HoleSize()}
	out.QValues = r.Grid()
	out.FSubs = r.Shadow(out.QValues)
	out.QxValues = make([]float64, r.Points)
	floats.Span(out.QxValues, r.QxMin, r.QxMax)
	out.QyValues = make([]float64, r.Points)
	floats.Span(out.QyValues, r.QyMin, r.QyMax)

	out.QGrid = make([][]float64, r.Points)
	for i, qx := range out.QxValues {
		out.QGrid[i] = make([]float64, r.Points)
		for j, qy := range out.QyValues {
			out.QGrid[i][j] = math.Hypot(qx, qy)
		}
	}
	out.Intensity2D = r.Mask()

	out.SigmaQ = make([]float64, len(out.QValues))
	floats.ScaleTo(out.SigmaQ, r.DQQ, out.QValues)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var m *config.Model
	if p != nil {
		m = p.Model
	}
	out.Intensity1D, err = model.Evaluate(provider, m.GetModelName("sphere"), m.GetParameters(), out.QValues)
	if err != nil {
		return nil, err
	}
	return out, nil
}
