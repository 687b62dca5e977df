// Package units provides shared unit tokens and normalisation to the
// calculator's canonical units: centimetres, seconds and radians.
package units

import (
	"math"
	"strings"

	"github.com/banshee-data/sans.calculator/internal/calcerr"
)

// Length unit tokens
const (
	MM       = "mm"
	CM       = "cm"
	M        = "m"
	Inch     = "inch"
	Angstrom = "Å"
)

// Time unit tokens
const (
	S   = "s"
	MS  = "ms"
	US  = "us"
	NS  = "ns"
	Min = "min"
)

// Angle unit tokens
const (
	Rad = "rad"
	Deg = "deg"
)

// Dimension is the physical quantity a unit token measures.
type Dimension int

const (
	Length Dimension = iota
	Time
	Angle
)

// Canonical returns the canonical token for d.
func (d Dimension) Canonical() string {
	switch d {
	case Time:
		return S
	case Angle:
		return Rad
	default:
		return CM
	}
}

type unitDef struct {
	dim Dimension
	// factor converts one of this unit into the canonical unit.
	factor float64
}

var table = map[string]unitDef{
	MM:       {Length, 0.1},
	CM:       {Length, 1},
	M:        {Length, 100},
	Inch:     {Length, 2.54},
	Angstrom: {Length, 1e-8},
	S:        {Time, 1},
	MS:       {Time, 1e-3},
	US:       {Time, 1e-6},
	NS:       {Time, 1e-9},
	Min:      {Time, 60},
	Rad:      {Angle, 1},
	Deg:      {Angle, math.Pi / 180},
}

// aliases maps accepted spellings onto the canonical tokens above.
var aliases = map[string]string{
	"in":        Inch,
	"inches":    Inch,
	"\"":        Inch,
	"a":         Angstrom,
	"å":         Angstrom,
	"angstrom":  Angstrom,
	"angstroms": Angstrom,
	"ang":       Angstrom,
	"µs":        US,
	"sec":       S,
	"degree":    Deg,
	"degrees":   Deg,
	"radian":    Rad,
	"radians":   Rad,
}

// ValidLength contains the recognised length tokens.
var ValidLength = []string{MM, CM, M, Inch, Angstrom}

// Normalize maps a user-supplied token onto its canonical spelling.
// It reports false when the token is not recognised.
func Normalize(unit string) (string, bool) {
	u := strings.TrimSpace(unit)
	if _, ok := table[u]; ok {
		return u, true
	}
	lower := strings.ToLower(u)
	if _, ok := table[lower]; ok {
		return lower, true
	}
	if canon, ok := aliases[lower]; ok {
		return canon, true
	}
	return "", false
}

// IsValid checks if the given unit token is recognised.
func IsValid(unit string) bool {
	_, ok := Normalize(unit)
	return ok
}

// DimensionOf returns the dimension measured by unit.
func DimensionOf(unit string) (Dimension, bool) {
	canon, ok := Normalize(unit)
	if !ok {
		return 0, false
	}
	return table[canon].dim, true
}

// GetValidUnitsString returns a comma-separated list of units of dimension d,
// for error messages.
func GetValidUnitsString(d Dimension) string {
	switch d {
	case Time:
		return "s, ms, us, ns, min"
	case Angle:
		return "rad, deg"
	default:
		return "mm, cm, m, inch, Å"
	}
}

// Convert converts value between two units of the same dimension.
func Convert(value float64, from, to string) (float64, error) {
	f, ok := Normalize(from)
	if !ok {
		return 0, calcerr.UnitUnknown("", from, GetValidUnitsString(Length))
	}
	t, ok := Normalize(to)
	if !ok {
		return 0, calcerr.UnitUnknown("", to, GetValidUnitsString(table[f].dim))
	}
	fd, td := table[f], table[t]
	if fd.dim != td.dim {
		return 0, calcerr.InvalidConfig("", "cannot convert %s to %s", from, to)
	}
	if f == t {
		return value, nil
	}
	return value * fd.factor / td.factor, nil
}

// ToCanonical converts value in unit to the canonical unit of its dimension
// (length → cm, time → s, angle → rad). An empty unit is taken as canonical.
func ToCanonical(value float64, unit string) (float64, error) {
	if unit == "" {
		return value, nil
	}
	canon, ok := Normalize(unit)
	if !ok {
		return 0, calcerr.UnitUnknown("", unit, GetValidUnitsString(Length))
	}
	return Convert(value, canon, table[canon].dim.Canonical())
}

// LengthToCM converts a length to centimetres, rejecting non-length units.
func LengthToCM(value float64, unit string) (float64, error) {
	if unit == "" {
		return value, nil
	}
	canon, ok := Normalize(unit)
	if !ok || table[canon].dim != Length {
		return 0, calcerr.UnitUnknown("", unit, GetValidUnitsString(Length))
	}
	return Convert(value, canon, CM)
}
