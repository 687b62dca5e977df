package averager

import (
	"math"

	"gonum.org/v1/gonum/mathext"

	"github.com/banshee-data/sans.calculator/internal/monitoring"
	"github.com/banshee-data/sans.calculator/internal/units"
)

// Gravity and speed constants for the resolution gravity term.
const (
	gravity = units.GravityCMPerS2
	vz1     = units.NeutronVelocityAngstrom

	// minShadow bounds the beam-stop shadow factor away from zero.
	minShadow = 1e-10
)

// Resolution returns the mean detected ⟨Q⟩, its standard deviation σ_Q and
// the beam-stop shadow factor f_s for nominal q.
//
// The smearing follows Mildner & Carpenter with the beam-stop correction of
// Barker & Pedersen: the radial distribution on the detector is a Gaussian
// of variance v_d truncated by the beam stop, broadened by source and sample
// apertures, gravity and the wavelength spread.
func Resolution(q float64, g Geometry) (qBar, sigmaQ, fs float64) {
	l1 := g.SSD - g.ApertureOffset
	l2 := g.SDD + g.ApertureOffset
	lp := 1 / (1/l1 + 1/l2)

	rSrc := g.SourceApertureDiameter / 2
	rSamp := g.SampleApertureDiameter / 2
	bs := g.BeamStopDiameter / 2
	lw := g.LambdaWidth

	vLambda := lw * lw / 6
	var vBeam float64
	if g.UsingLenses {
		vBeam = 0.25*sq(rSrc*l2/l1) + 0.25*(2.0/3.0)*lw*lw*sq(rSamp*l2/lp)
	} else {
		vBeam = 0.25*sq(rSrc*l2/l1) + 0.25*sq(rSamp*l2/lp)
	}
	vDet := sq(g.PixelSizeX/2.3548) + g.PixelSizeX*g.PixelSizeX/6

	vGrav := gravityVariance(l1, l2, g.Lambda, vLambda)

	r0 := l2 * math.Tan(2*math.Asin(g.Lambda*q/(4*math.Pi)))
	delta := 0.5 * sq(bs-r0) / vDet

	// The r0 >= bs form of the truncated moment, Γ(1.5)·(1 + P(1.5, δ)), is
	// used on both sides of the beam-stop edge.
	incGamma := math.Gamma(1.5) * (1 + mathext.GammaIncReg(1.5, delta))

	fs = 0.5 * (1 + math.Erf((r0-bs)/math.Sqrt(2*vDet)))
	if fs < minShadow {
		fs = minShadow
	}

	fr := 1 + math.Sqrt(vDet)*math.Exp(-delta)/(r0*fs*math.Sqrt(2*math.Pi))
	fv := incGamma/(fs*math.Sqrt(math.Pi)) - r0*r0*sq(fr-1)/vDet

	rmd := fr * r0
	vr1 := vBeam + fv*vDet + vGrav
	rm := rmd + 0.5*vr1/rmd
	vr := math.Max(vr1-0.5*sq(vr1/rmd), 0)

	qBar = 4 * math.Pi / g.Lambda * math.Sin(0.5*math.Atan(rm/l2))
	sigmaQ = qBar * math.Sqrt(vr/(rmd*rmd)+vLambda)
	return qBar, sigmaQ, fs
}

// gravityVariance is the spread of the gravity drop y_g over the wavelength
// band. y_g grows as λ², so its variance is 4·y_g²·σ²_λ.
func gravityVariance(l1, l2, lambda, vLambda float64) float64 {
	vz := vz1 / lambda
	yg := 0.5 * gravity * l2 * (l1 + l2) / (vz * vz)
	return 4 * yg * yg * vLambda
}

// ClampNonFinite zeroes ⟨Q⟩ and σ_Q in bins where the smearing degenerates,
// which happens at r0 = 0 in the first bin.
func ClampNonFinite(res *Result) {
	for k := range res.QBar {
		if isFinite(res.QBar[k]) && isFinite(res.SigmaQ[k]) {
			continue
		}
		monitoring.Logf("averager: clamped non-finite resolution in bin %d (qBar=%g, sigmaQ=%g)", k, res.QBar[k], res.SigmaQ[k])
		if !isFinite(res.QBar[k]) {
			res.QBar[k] = 0
		}
		if !isFinite(res.SigmaQ[k]) {
			res.SigmaQ[k] = 0
		}
	}
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func sq(v float64) float64 { return v * v }
