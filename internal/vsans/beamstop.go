package vsans

import (
	"math"

	"github.com/banshee-data/sans.calculator/internal/units"
)

// BeamStopsInches is the VSANS beam-stop table, ascending.
var BeamStopsInches = []float64{1, 2, 3, 4}

// AllCarriage holds the quantities shared by both carriages: the gravity
// drop across the wavelength band and the beam stop it requires.
type AllCarriage struct {
	BeamDrop         float64 `json:"beam_drop"`
	BeamDropMin      float64 `json:"beam_drop_min"`
	BeamDropMax      float64 `json:"beam_drop_max"`
	BeamGeometry     float64 `json:"beam_geometry"`
	RequiredBeamStop float64 `json:"required_beam_stop"` // inches
	BeamStopInches   float64 `json:"beam_stop_diameter"`
	BeamStopCM       float64 `json:"beam_stop_diameter_cm"`
}

// BeamDrop is the mean gravity fall (cm) of neutrons of wavelength lambda
// (Å) between the sample aperture and a detector at l2, with l1 the
// source-aperture to sample-aperture distance.
func BeamDrop(lambda, l1, l2 float64) float64 {
	v := lambda / units.PlanckOverNeutronMass
	total := l1 + l2
	return 0.5 * units.GravityCMPerS2 * v * v * (total*total - total*l1)
}

// computeAllCarriage sizes the beam stop for the middle carriage.
func computeAllCarriage(s *Settings) AllCarriage {
	l1 := s.SourceDistance
	l2 := s.Middle.L2

	var a AllCarriage
	a.BeamDrop = BeamDrop(s.Lambda, l1, l2)
	a.BeamDropMin = BeamDrop(s.Lambda*(1-s.LambdaWidth), l1, l2)
	a.BeamDropMax = BeamDrop(s.Lambda*(1+s.LambdaWidth), l1, l2)
	a.BeamGeometry = s.SourceAperture*l2/l1 + s.SampleAperture*(l1+l2)/l1

	a.RequiredBeamStop = (a.BeamGeometry + math.Abs(a.BeamDropMax-a.BeamDropMin)) / 2.54
	a.BeamStopInches = BeamStopsInches[len(BeamStopsInches)-1]
	for _, bs := range BeamStopsInches {
		if bs >= a.RequiredBeamStop {
			a.BeamStopInches = bs
			break
		}
	}
	a.BeamStopCM = a.BeamStopInches * 2.54
	return a
}

// TwoThetaMin is the smallest scattering angle (rad) that clears a beam
// stop of diameter bsCM on a carriage at ssd.
func TwoThetaMin(bsCM, ssd float64) float64 {
	return math.Atan2(bsCM/2, ssd)
}
