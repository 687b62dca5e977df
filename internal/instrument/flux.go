package instrument

import (
	"math"

	"github.com/banshee-data/sans.calculator/internal/calcerr"
	"github.com/banshee-data/sans.calculator/internal/monitoring"
)

// Flux is the beam intensity on the sample (n/s), scaled by FluxCalibration.
func (s *Settings) Flux() (float64, error) {
	if s.SDD <= 0 || s.Lambda <= 0 {
		return 0, calcerr.NumericDegenerate("flux", "non-positive distance or wavelength")
	}
	if s.GuideWidth <= 0 {
		return 0, calcerr.NumericDegenerate("flux.guide_width", "guide width must be positive, got %g", s.GuideWidth)
	}
	alpha := (s.SourceAperture + s.SampleAperture) / (2 * s.SDD)
	f := s.GapAtStart * alpha / (2 * s.GuideWidth)
	ng := float64(s.NumGuides)
	trans := s.T1 * s.T2 * s.T3 * (1 - f) * (1 - f) *
		math.Exp(ng*math.Log(s.TransmissionPerGuide)) *
		(1 - s.Lambda*(s.Beta-(ng/8)*(s.Beta-s.Gamma)))

	area := math.Pi * s.SampleAperture * s.SampleAperture / 4
	solid := math.Pi / 4 * (s.SampleAperture / s.SDD) * (s.SampleAperture / s.SDD)
	ratio := s.PeakWavelength / s.Lambda
	d2phi := s.PeakFlux / (2 * math.Pi) * math.Pow(ratio, 4) * math.Exp(-ratio*ratio)

	flux := area * d2phi * s.LambdaWidth * solid * trans * s.FluxCalibration
	if math.IsNaN(flux) || math.IsInf(flux, 0) {
		return 0, calcerr.NumericDegenerate("flux", "flux is not finite (%g)", flux)
	}
	return flux, nil
}

// Attenuation is the attenuator count and factor needed to keep the
// per-pixel flux below the detector limit.
type Attenuation struct {
	FluxPerPixel float64 `json:"flux_per_pixel"`
	Factor       float64 `json:"attenuation_factor"`
	Count        int     `json:"number_of_attenuators"`
}

// Attenuators spreads flux over the pixels the beam covers and returns the
// attenuation required to bring it below PerPixelMaxFlux.
func (s *Settings) Attenuators(flux, beamDiameter float64) (Attenuation, error) {
	if s.PixelSizeX <= 0 {
		return Attenuation{}, calcerr.NumericDegenerate("attenuators.pixels", "pixel size must be positive")
	}
	n := (s.SampleAperture/2 + beamDiameter) / (2 * s.PixelSizeX)
	pixels := math.Pi / 4 * n * n
	perPixel := flux / pixels
	if math.IsNaN(perPixel) || math.IsInf(perPixel, 0) {
		return Attenuation{}, calcerr.NumericDegenerate("attenuators.flux_per_pixel", "flux per pixel is not finite (%g)", perPixel)
	}

	att := Attenuation{FluxPerPixel: perPixel, Factor: 1}
	if perPixel <= s.PerPixelMaxFlux {
		return att, nil
	}
	att.Factor = s.PerPixelMaxFlux / perPixel
	if att.Factor <= 0 {
		return Attenuation{}, calcerr.NumericDegenerate("attenuators.factor", "log of attenuation factor %g (max flux per pixel %g)", att.Factor, s.PerPixelMaxFlux)
	}

	per := 0.498 + 0.0792*s.Lambda - 1.66e-3*s.Lambda*s.Lambda
	if per <= 0 {
		return att, calcerr.NumericDegenerate("attenuators.transmission", "attenuator thickness term %g at λ=%g", per, s.Lambda)
	}
	count := int(math.Ceil(-math.Log(att.Factor) / per))
	if count > 6 {
		count = 7 + (count-6)/2
	}
	att.Count = count
	monitoring.Logf("instrument %s: %.3g n/s/pixel exceeds %.3g, %d attenuators", s.Variant.Name, perPixel, s.PerPixelMaxFlux, count)
	return att, nil
}
