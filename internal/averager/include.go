package averager

import "math"

// Mode selects the averaging shape.
type Mode string

const (
	Circular    Mode = "circular"
	Sector      Mode = "sector"
	Rectangular Mode = "rectangular"
	Elliptical  Mode = "elliptical"
)

// Sections restricts sector and rectangular averages to one side of the
// beam centre. Right is the φ direction, left its mirror.
type Sections string

const (
	Both  Sections = "both"
	Left  Sections = "left"
	Right Sections = "right"
)

// Slice is the shape of the average. Angles are in radians; Width is the
// rectangular strip width in pixels.
type Slice struct {
	Mode        Mode
	Phi         float64
	DPhi        float64
	Sections    Sections
	Width       float64
	AspectRatio float64

	stripCM float64
}

func (s Slice) withDefaults() Slice {
	if s.Mode == "" {
		s.Mode = Circular
	}
	if s.Sections == "" {
		s.Sections = Both
	}
	if s.AspectRatio <= 0 {
		s.AspectRatio = 1
	}
	return s
}

// radius returns the binning radius for a sub-pixel at (dx, dy) cm from the
// beam centre, and whether the sub-pixel belongs to the slice at all. The mask
// has already been applied by the caller.
func (s Slice) radius(dx, dy float64) (float64, bool) {
	r := math.Hypot(dx, dy)
	switch s.Mode {
	case Sector:
		return r, s.inSector(dx, dy, r)
	case Rectangular:
		return r, s.inStrip(dx, dy)
	case Elliptical:
		rho := math.Atan2(dy, dx) - s.Phi
		c, sn := math.Cos(rho), math.Sin(rho)
		return r * math.Sqrt(c*c+s.AspectRatio*sn*sn), true
	default:
		return r, true
	}
}

func (s Slice) inSector(dx, dy, r float64) bool {
	if r == 0 {
		return true
	}
	dot := (dx*math.Cos(s.Phi) + dy*math.Sin(s.Phi)) / r
	dphi := math.Acos(math.Max(-1, math.Min(1, dot)))
	forward := dphi <= s.DPhi
	mirror := dphi >= math.Pi-s.DPhi
	return s.sectionMatch(forward, mirror)
}

// inStrip keeps sub-pixels within half a strip width of the line through the
// centre at angle φ.
func (s Slice) inStrip(dx, dy float64) bool {
	perp := -dx*math.Sin(s.Phi) + dy*math.Cos(s.Phi)
	if math.Abs(perp) > 0.5*s.stripCM {
		return false
	}
	par := dx*math.Cos(s.Phi) + dy*math.Sin(s.Phi)
	return s.sectionMatch(par >= 0, par <= 0)
}

func (s Slice) sectionMatch(forward, mirror bool) bool {
	switch s.Sections {
	case Right:
		return forward
	case Left:
		return mirror
	default:
		return forward || mirror
	}
}
