// Package averager reduces a 2-D detector intensity grid to a 1-D I(Q) by
// radial binning about the beam centre, and attaches Mildner–Carpenter
// resolution (⟨Q⟩, σ_Q) and the beam-stop shadow factor to every bin.
//
// Grids are indexed [x][y] with pixel (i, j) at 1-based coordinate (i+1, j+1)
// so that beam centres follow the detector convention n/2 + 0.5.
package averager

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/sans.calculator/internal/calcerr"
)

const (
	// DefaultCoeff is the tangent-projection coefficient c in d = c·tan(Δ·p/c) (cm).
	DefaultCoeff = 10000.0
	// DefaultCenterRadius is the radius (cm) inside which pixels are split 3×3.
	DefaultCenterRadius = 100.0
	// LargeSigma is reported as σ_I for bins holding at most one pixel's worth of cells.
	LargeSigma = 1e10
	// MaskBorder is the number of outer pixel rings masked by DefaultMask.
	MaskBorder = 2
)

// Geometry is the instrument geometry the average depends on. Lengths in cm,
// wavelength in Å, beam centre in 1-based pixels.
type Geometry struct {
	PixelSizeX float64
	PixelSizeY float64
	SDD        float64
	SSD        float64
	XCenter    float64
	YCenter    float64

	Lambda      float64
	LambdaWidth float64 // Δλ/λ

	SourceApertureDiameter float64
	SampleApertureDiameter float64
	ApertureOffset         float64
	BeamStopDiameter       float64
	UsingLenses            bool

	Coeff        float64
	CenterRadius float64
}

// Result is the 1-D average. Every slice has one entry per radial bin.
type Result struct {
	Q         []float64 `json:"q"`
	Intensity []float64 `json:"intensity"`
	SigmaI    []float64 `json:"sigmaI"`
	QBar      []float64 `json:"qBar"`
	SigmaQ    []float64 `json:"sigmaQ"`
	FSubs     []float64 `json:"fSubs"`
	NCells    []float64 `json:"nCells"`
}

// Bins accumulates weighted cell counts, intensities and squared
// intensities per bin index.
type Bins struct {
	nCells []float64
	ave    []float64
	dsq    []float64
}

// Add adds a cell of weight w and intensity v to bin k, growing the bins as
// needed.
func (b *Bins) Add(k int, w, v float64) {
	for k >= len(b.nCells) {
		b.nCells = append(b.nCells, 0)
		b.ave = append(b.ave, 0)
		b.dsq = append(b.dsq, 0)
	}
	b.nCells[k] += w
	b.ave[k] += v * w
	b.dsq[k] += v * v * w
}

// DefaultMask returns an nx×ny mask with the outer MaskBorder rings set to 1.
func DefaultMask(nx, ny int) [][]int {
	mask := make([][]int, nx)
	for i := range mask {
		mask[i] = make([]int, ny)
		for j := range mask[i] {
			if i < MaskBorder || j < MaskBorder || i >= nx-MaskBorder || j >= ny-MaskBorder {
				mask[i][j] = 1
			}
		}
	}
	return mask
}

// Average bins grid according to slice and attaches resolution to each bin.
// A nil mask means DefaultMask.
func Average(grid [][]float64, mask [][]int, g Geometry, s Slice) (*Result, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	nx := len(grid)
	if nx == 0 || len(grid[0]) == 0 {
		return nil, calcerr.InvalidConfig("detectors[0]", "empty intensity grid")
	}
	ny := len(grid[0])
	if mask == nil {
		mask = DefaultMask(nx, ny)
	}
	if len(mask) != nx {
		return nil, calcerr.InvalidConfig("mask", "mask has %d columns, grid has %d", len(mask), nx)
	}
	s = s.withDefaults()
	s.stripCM = s.Width * g.PixelSizeX
	coeff := g.Coeff
	if coeff <= 0 {
		coeff = DefaultCoeff
	}
	centerRadius := g.CenterRadius
	if centerRadius <= 0 {
		centerRadius = DefaultCenterRadius
	}

	var acc Bins
	for i := 0; i < nx; i++ {
		if len(grid[i]) != ny || len(mask[i]) != ny {
			return nil, calcerr.InvalidConfig("mask", "row %d has inconsistent length", i)
		}
		xi := float64(i + 1)
		for j := 0; j < ny; j++ {
			if mask[i][j] != 0 {
				continue
			}
			yj := float64(j + 1)
			val := grid[i][j]

			nd := 1
			dx := tanDistance(xi, g.XCenter, g.PixelSizeX, coeff)
			dy := tanDistance(yj, g.YCenter, g.PixelSizeY, coeff)
			if math.Hypot(dx, dy) <= centerRadius {
				nd = 3
			}
			w := 1 / float64(nd*nd)
			for a := 0; a < nd; a++ {
				sx := tanDistance(xi+subOffset(a, nd), g.XCenter, g.PixelSizeX, coeff)
				for b := 0; b < nd; b++ {
					sy := tanDistance(yj+subOffset(b, nd), g.YCenter, g.PixelSizeY, coeff)
					r, ok := s.radius(sx, sy)
					if !ok {
						continue
					}
					acc.Add(int(math.Floor(r/g.PixelSizeX)), w, val)
				}
			}
		}
	}

	return finish(&acc, g), nil
}

// Len is the number of bins touched so far.
func (b *Bins) Len() int { return len(b.nCells) }

// Stats returns per-bin cell counts, mean intensities and the standard error
// of the mean. Bins holding at most one cell report LargeSigma; empty bins
// have mean 0.
func (b *Bins) Stats() (nCells, mean, sigma []float64) {
	n := len(b.nCells)
	nCells = append([]float64(nil), b.nCells...)
	mean = make([]float64, n)
	sigma = make([]float64, n)
	for k, nc := range b.nCells {
		if nc == 0 || math.IsNaN(nc) {
			sigma[k] = LargeSigma
			continue
		}
		ave := b.ave[k] / nc
		variance := math.Max(b.dsq[k]/nc-ave*ave, 0)
		mean[k] = ave
		if nc <= 1 {
			sigma[k] = LargeSigma
		} else {
			sigma[k] = math.Sqrt(variance / (nc - 1))
		}
	}
	return nCells, mean, sigma
}

// finish turns the accumulators into per-bin statistics and resolution.
func finish(acc *Bins, g Geometry) *Result {
	n := acc.Len()
	res := &Result{
		Q:      make([]float64, n),
		QBar:   make([]float64, n),
		SigmaQ: make([]float64, n),
		FSubs:  make([]float64, n),
	}
	res.NCells, res.Intensity, res.SigmaI = acc.Stats()
	for k := 0; k < n; k++ {
		// nominal Q at the bin's mid radius
		r := (float64(k) + 0.5) * g.PixelSizeX
		res.Q[k] = QAtRadius(r, g.SDD, g.Lambda)
		res.QBar[k], res.SigmaQ[k], res.FSubs[k] = Resolution(res.Q[k], g)
	}
	ClampNonFinite(res)
	return res
}

// QAtRadius returns the momentum transfer (Å⁻¹) for a radius r (cm) on a
// detector at sdd (cm).
func QAtRadius(r, sdd, lambda float64) float64 {
	return 4 * math.Pi / lambda * math.Sin(0.5*math.Atan(r/sdd))
}

// TotalCells is the total unmasked pixel area that contributed to res.
func (r *Result) TotalCells() float64 {
	return floats.Sum(r.NCells)
}

func tanDistance(pix, center, size, coeff float64) float64 {
	return coeff * math.Tan((pix-center)*size/coeff)
}

// subOffset is the centre of sub-pixel a of nd, relative to the pixel centre.
func subOffset(a, nd int) float64 {
	return (float64(a)+0.5)/float64(nd) - 0.5
}

func (g Geometry) check() error {
	switch {
	case g.PixelSizeX <= 0 || g.PixelSizeY <= 0:
		return calcerr.NumericDegenerate("averager.bin_width", "pixel size must be positive, got (%g, %g)", g.PixelSizeX, g.PixelSizeY)
	case g.SDD <= 0:
		return calcerr.NumericDegenerate("averager.q", "sample-detector distance must be positive, got %g", g.SDD)
	case g.Lambda <= 0:
		return calcerr.NumericDegenerate("averager.q", "wavelength must be positive, got %g", g.Lambda)
	case g.SSD-g.ApertureOffset <= 0:
		return calcerr.NumericDegenerate("averager.resolution", "source-sample distance must exceed aperture offset, got %g", g.SSD)
	}
	return nil
}
