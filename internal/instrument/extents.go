package instrument

import (
	"math"

	"github.com/banshee-data/sans.calculator/internal/calcerr"
)

// QExtents are the accessible Q bounds (Å⁻¹) of one detector position.
type QExtents struct {
	QMin        float64 `json:"q_min"`
	QMax        float64 `json:"q_max"`
	QMaxHorizon float64 `json:"q_max_horizon"`
	QMaxVert    float64 `json:"q_max_vert"`
}

// Extents computes the Q range for the detector, with projection the
// apparent beam-stop diameter at the detector.
func (s *Settings) Extents(projection float64) (QExtents, error) {
	if s.SDD <= 0 || s.Lambda <= 0 {
		return QExtents{}, calcerr.NumericDegenerate("q_extents", "non-positive distance or wavelength")
	}
	half := float64(s.PixelsX) * s.PixelSizeX / 2
	k := 4 * math.Pi / s.Lambda
	at := func(r float64) float64 { return k * math.Sin(0.5*math.Atan(r/s.SDD)) }

	return QExtents{
		QMin:        math.Pi / s.Lambda * (projection + 2*s.PixelSizeX) / s.SDD,
		QMax:        at(math.Hypot(half, half+s.DetectorOffset)),
		QMaxHorizon: at(half + s.DetectorOffset),
		QMaxVert:    at(half),
	}, nil
}

// BeamCenter returns the beam centre in 1-based pixel coordinates.
func (s *Settings) BeamCenter() (x, y float64) {
	x = float64(s.PixelsX)/2 + 0.5
	if s.PixelSizeX != 0 {
		x += s.DetectorOffset / s.PixelSizeX
	}
	y = float64(s.PixelsY)/2 + 0.5
	return x, y
}
