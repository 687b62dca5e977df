package units

import (
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/sans.calculator/internal/calcerr"
)

func TestLengthToCM(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		unit     string
		expected float64
	}{
		{"10 mm to cm", 10.0, MM, 1.0},
		{"1 cm to cm", 1.0, CM, 1.0},
		{"2 m to cm", 2.0, M, 200.0},
		{"0.5 inch to cm", 0.5, Inch, 1.27},
		{"1e8 Å to cm", 1e8, Angstrom, 1.0},
		{"alias in", 1.0, "in", 2.54},
		{"alias upper A", 1e8, "A", 1.0},
		{"empty unit is canonical", 3.5, "", 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := LengthToCM(tt.value, tt.unit)
			if err != nil {
				t.Fatalf("LengthToCM(%f, %s) error: %v", tt.value, tt.unit, err)
			}
			if math.Abs(result-tt.expected) > 1e-12 {
				t.Errorf("LengthToCM(%f, %s) = %f, want %f", tt.value, tt.unit, result, tt.expected)
			}
		})
	}
}

func TestToCanonicalTimeAndAngle(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		unit     string
		expected float64
	}{
		{"ms", 250.0, MS, 0.25},
		{"us", 5.0, US, 5e-6},
		{"min", 2.0, Min, 120.0},
		{"deg", 180.0, Deg, math.Pi},
		{"rad", 1.0, Rad, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ToCanonical(tt.value, tt.unit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(result-tt.expected) > 1e-12 {
				t.Errorf("ToCanonical(%f, %s) = %g, want %g", tt.value, tt.unit, result, tt.expected)
			}
		})
	}
}

func TestUnknownUnit(t *testing.T) {
	_, err := LengthToCM(1.0, "furlong")
	if !errors.Is(err, calcerr.ErrUnitUnknown) {
		t.Fatalf("expected UnitUnknown, got %v", err)
	}

	// Time tokens are not lengths.
	_, err = LengthToCM(1.0, S)
	if !errors.Is(err, calcerr.ErrUnitUnknown) {
		t.Fatalf("expected UnitUnknown for time token, got %v", err)
	}

	_, err = Convert(1.0, CM, S)
	if !errors.Is(err, calcerr.ErrInvalidConfig) {
		t.Fatalf("expected InvalidConfig for dimension mismatch, got %v", err)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		unit     string
		expected bool
	}{
		{MM, true},
		{"CM", true},
		{Angstrom, true},
		{"inches", true},
		{"parsec", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValid(tt.unit); got != tt.expected {
			t.Errorf("IsValid(%q) = %v, want %v", tt.unit, got, tt.expected)
		}
	}
}

func withinULP(a, b float64) bool {
	if a == b {
		return true
	}
	hi := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= math.Nextafter(hi, math.Inf(1))-hi
}

// Round trip through every length token must land within one ulp.
func TestRoundTripConversions(t *testing.T) {
	values := []float64{1, 0.5, 1.43, 2.54, 100, 1234.5678, 1e-3, 513, 61.9}
	for _, u := range ValidLength {
		for _, x := range values {
			y, err := Convert(x, CM, u)
			if err != nil {
				t.Fatalf("Convert(%g, cm, %s): %v", x, u, err)
			}
			back, err := Convert(y, u, CM)
			if err != nil {
				t.Fatalf("Convert(%g, %s, cm): %v", y, u, err)
			}
			if !withinULP(back, x) {
				t.Errorf("%s round-trip: started %v cm, got %v cm", u, x, back)
			}
		}
	}
}

func TestGetValidUnitsString(t *testing.T) {
	if got := GetValidUnitsString(Length); got != "mm, cm, m, inch, Å" {
		t.Errorf("GetValidUnitsString(Length) = %s", got)
	}
	if got := GetValidUnitsString(Time); got != "s, ms, us, ns, min" {
		t.Errorf("GetValidUnitsString(Time) = %s", got)
	}
}
