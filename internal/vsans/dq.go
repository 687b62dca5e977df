package vsans

import (
	"math"

	"github.com/banshee-data/sans.calculator/internal/units"
)

// DQRecord is the resolution summary of one carriage. Geometric and Gravity
// are absolute (Å⁻¹); Wavelength is relative.
type DQRecord struct {
	Geometric  float64 `json:"dq_geometric"`
	Wavelength float64 `json:"dq_wavelength"`
	Gravity    float64 `json:"dq_gravity"`

	QMin     float64 `json:"q_min"`
	QMax     float64 `json:"q_max"`
	DQxQxMin float64 `json:"dqx_qx_min"`
	DQxQxMax float64 `json:"dqx_qx_max"`
	DQyQyMin float64 `json:"dqy_qy_min"`
	DQyQyMax float64 `json:"dqy_qy_max"`
}

// Relative returns dQ/Q at q. The gravity term applies only to the vertical
// direction.
func (d DQRecord) Relative(q float64, vertical bool) float64 {
	if q == 0 {
		return 0
	}
	v := d.Geometric*d.Geometric + (d.Wavelength*q)*(d.Wavelength*q)
	if vertical {
		v += d.Gravity * d.Gravity
	}
	return math.Sqrt(v) / math.Abs(q)
}

// newDQ builds the resolution terms for a carriage and evaluates them at the
// carriage's Q extremes.
func newDQ(s *Settings, c *Carriage, ext [4]QExtents) DQRecord {
	l1 := s.SourceDistance
	l2 := c.L2
	k := 2 * math.Pi / (s.Lambda * l2)
	rSrc := s.SourceAperture / 2
	rSamp := s.SampleAperture / 2
	pixel := c.Panels[Left].TubeWidth / 10

	geom := 0.25*sq(rSrc*l2/l1) + 0.25*sq(rSamp*(l1+l2)/l1) + pixel*pixel/12
	d := DQRecord{
		Geometric:  k * math.Sqrt(geom),
		Wavelength: s.LambdaWidth / math.Sqrt(6),
	}
	vz := units.NeutronVelocityAngstrom / s.Lambda
	yg := 0.5 * units.GravityCMPerS2 * l2 * (l1 + l2) / (vz * vz)
	d.Gravity = k * 2 * yg * d.Wavelength

	xLo, xHi := axisRange(ext[Left].QxMin, ext[Left].QxMax, ext[Right].QxMin, ext[Right].QxMax)
	yLo, yHi := axisRange(ext[Bottom].QyMin, ext[Bottom].QyMax, ext[Top].QyMin, ext[Top].QyMax)
	d.QMin = math.Min(xLo, yLo)
	d.QMax = 0
	for _, e := range ext {
		qx := math.Max(math.Abs(e.QxMin), math.Abs(e.QxMax))
		qy := math.Max(math.Abs(e.QyMin), math.Abs(e.QyMax))
		d.QMax = math.Max(d.QMax, math.Hypot(qx, qy))
	}
	d.DQxQxMin = d.Relative(xLo, false)
	d.DQxQxMax = d.Relative(xHi, false)
	d.DQyQyMin = d.Relative(yLo, true)
	d.DQyQyMax = d.Relative(yHi, true)
	return d
}

// axisRange returns the smallest and largest |Q| covered by two panels
// along one axis. A panel straddling the beam covers Q = 0.
func axisRange(aLo, aHi, bLo, bHi float64) (lo, hi float64) {
	inner := func(l, h float64) float64 {
		if l <= 0 && h >= 0 {
			return 0
		}
		return math.Min(math.Abs(l), math.Abs(h))
	}
	lo = math.Min(inner(aLo, aHi), inner(bLo, bHi))
	hi = math.Max(math.Max(math.Abs(aLo), math.Abs(aHi)), math.Max(math.Abs(bLo), math.Abs(bHi)))
	return lo, hi
}

func sq(v float64) float64 { return v * v }
