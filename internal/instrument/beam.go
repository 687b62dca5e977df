package instrument

import (
	"github.com/banshee-data/sans.calculator/internal/calcerr"
)

// Direction selects which beam diameter BeamDiameter reports.
type Direction int

const (
	Maximum Direction = iota
	Horizontal
	Vertical
)

// gravityBeamCoeff scales the gravity broadening of the beam footprint.
const gravityBeamCoeff = 1.25e-5

// BeamDiameter is the predicted beam size at the detector (cm). L1 is the
// source-to-sample-aperture distance and L2 the sample-aperture-to-detector
// distance.
func (s *Settings) BeamDiameter(l1, l2 float64, dir Direction) float64 {
	if s.UsingLenses {
		return s.SourceAperture
	}
	rSrc := s.SourceAperture / 2
	rSamp := s.SampleAperture / 2
	geom := rSrc*l2/l1 + rSamp*(l1+l2)/l1
	grav := gravityBeamCoeff * (l1 + l2) * l2 * s.Lambda * s.Lambda * s.LambdaWidth

	vertical := geom + grav
	horizontal := s.BSFactor * geom
	switch dir {
	case Horizontal:
		return horizontal
	case Vertical:
		return vertical
	default:
		if horizontal > vertical {
			return horizontal
		}
		return vertical
	}
}

// SelectBeamStop returns the smallest stop in table (ascending) that covers
// diameter, or the largest stop when none does.
func SelectBeamStop(table []float64, diameter float64) float64 {
	if len(table) == 0 {
		return 0
	}
	for _, bs := range table {
		if bs >= diameter {
			return bs
		}
	}
	return table[len(table)-1]
}

// ProjectBeamStop returns the apparent beam-stop diameter at the detector
// plane, accounting for the stop sitting L_bs in front of it.
func ProjectBeamStop(bs, sampleAperture, l2 float64) (float64, error) {
	lbs := 20.1 + 1.61*bs
	if l2 <= lbs {
		return 0, calcerr.NumericDegenerate("beam_stop_projection", "detector distance %g cm does not clear the beam stop at %g cm", l2, lbs)
	}
	return bs + (bs+sampleAperture)*lbs/(l2-lbs), nil
}
