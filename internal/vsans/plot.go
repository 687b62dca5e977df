package vsans

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/sans.calculator/internal/model"
)

// templateBorder is the number of tubes and pixels blanked at each end of
// every panel.
const templateBorder = 2

// PanelMaps are the per-pixel maps of one panel, NumTubes×NumPixels.
// Distances are in mm from the sample; Q in Å⁻¹. Mask is 1 where a pixel is
// excluded.
type PanelMaps struct {
	X, Y      *mat.Dense
	Distance  *mat.Dense
	QTot      *mat.Dense
	Qx, Qy    *mat.Dense
	Qz        *mat.Dense
	Mask      *mat.Dense
	Intensity *mat.Dense
}

// templateMask blanks the first and last templateBorder tubes and pixels.
func templateMask(tubes, pixels int) *mat.Dense {
	m := mat.NewDense(tubes, pixels, nil)
	m.Apply(func(t, p int, _ float64) float64 {
		if t < templateBorder || t >= tubes-templateBorder || p < templateBorder || p >= pixels-templateBorder {
			return 1
		}
		return 0
	}, m)
	return m
}

// panelMaps builds the real-space and Q maps of a panel on its carriage.
func panelMaps(p *PanelSpec, c *Carriage, lambda float64) *PanelMaps {
	x, y := p.Coordinates()
	if p.Side.Horizontal() {
		y.Apply(func(_, _ int, v float64) float64 { return v + p.Offset }, y)
	} else {
		x.Apply(func(_, _ int, v float64) float64 { return v + p.Offset }, x)
	}
	dist := c.Distance(p.Side)
	rows, cols := x.Dims()

	m := &PanelMaps{
		X:        x,
		Y:        y,
		Distance: mat.NewDense(rows, cols, nil),
		QTot:     mat.NewDense(rows, cols, nil),
		Qx:       mat.NewDense(rows, cols, nil),
		Qy:       mat.NewDense(rows, cols, nil),
		Qz:       mat.NewDense(rows, cols, nil),
		Mask:     templateMask(rows, cols),
	}
	k := 2 * math.Pi / lambda
	for t := 0; t < rows; t++ {
		for i := 0; i < cols; i++ {
			dx := x.At(t, i) - c.BeamCenterX
			dy := y.At(t, i) - c.BeamCenterY
			r := math.Hypot(dx, dy)
			theta := 0.5 * math.Atan2(r, dist)
			phi := azimuth(dx, dy)
			q := 2 * k * math.Sin(theta)

			m.Distance.Set(t, i, 10*math.Sqrt(r*r+dist*dist))
			m.QTot.Set(t, i, q)
			m.Qx.Set(t, i, q*math.Cos(theta)*math.Cos(phi))
			m.Qy.Set(t, i, q*math.Cos(theta)*math.Sin(phi))
			m.Qz.Set(t, i, q*math.Sin(theta))
			if p.UserMask != nil && p.UserMask[t][i] != 0 {
				m.Mask.Set(t, i, 1)
			}
		}
	}
	return m
}

// outerMask is the element-wise AND of the panel masks: a pixel stays masked
// only where every panel masks it. Panels of differing shape have no common
// grid and yield nil.
func outerMask(maps [4]*PanelMaps) *mat.Dense {
	rows, cols := maps[0].Mask.Dims()
	for _, m := range maps[1:] {
		if r, c := m.Mask.Dims(); r != rows || c != cols {
			return nil
		}
	}
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(t, i int, _ float64) float64 {
		for _, m := range maps {
			if m.Mask.At(t, i) == 0 {
				return 0
			}
		}
		return 1
	}, out)
	return out
}

// azimuth returns the angle of (dx, dy) in [0, 2π).
func azimuth(dx, dy float64) float64 {
	phi := math.Atan2(dy, dx)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return phi
}

// fillIntensity evaluates the model over the panel's |Q| map.
func (m *PanelMaps) fillIntensity(provider model.Provider, name string, params map[string]float64) error {
	rows, cols := m.QTot.Dims()
	q := make([][]float64, rows)
	for t := range q {
		q[t] = m.QTot.RawRowView(t)
	}
	out, err := model.Evaluate2D(provider, name, params, q)
	if err != nil {
		return err
	}
	m.Intensity = mat.NewDense(rows, cols, nil)
	for t, row := range out {
		m.Intensity.SetRow(t, row)
	}
	return nil
}

// Usable counts unmasked pixels.
func (m *PanelMaps) Usable() int {
	rows, cols := m.Mask.Dims()
	n := 0
	for t := 0; t < rows; t++ {
		for i := 0; i < cols; i++ {
			if m.Mask.At(t, i) == 0 {
				n++
			}
		}
	}
	return n
}

// denseRows copies a matrix into nested slices for JSON output.
func denseRows(d *mat.Dense) [][]float64 {
	if d == nil {
		return nil
	}
	rows, _ := d.Dims()
	out := make([][]float64, rows)
	for t := range out {
		out[t] = append([]float64(nil), d.RawRowView(t)...)
	}
	return out
}
