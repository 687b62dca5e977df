package units

// NeutronVelocityAngstrom is the velocity of a 1 Å neutron in cm/s (h/m_n).
const NeutronVelocityAngstrom = 3.956e5

// PlanckOverNeutronMass is h/m_n in Å·cm/s, used by the VSANS gravity terms.
const PlanckOverNeutronMass = 3.95603e5

// GravityCMPerS2 is the gravitational acceleration in cm/s².
const GravityCMPerS2 = 981.0

// Speed unit tokens
const (
	CMPS = "cm/s"
	MPS  = "m/s"
)

// NeutronSpeed returns the neutron speed in cm/s for wavelength lambda in Å.
// Zero or negative wavelengths return 0.
func NeutronSpeed(lambda float64) float64 {
	if lambda <= 0 {
		return 0
	}
	return NeutronVelocityAngstrom / lambda
}

// NeutronWavelength returns the wavelength in Å for a neutron speed in cm/s.
func NeutronWavelength(speedCMPS float64) float64 {
	if speedCMPS <= 0 {
		return 0
	}
	return NeutronVelocityAngstrom / speedCMPS
}

// ConvertSpeed converts a speed from cm/s to the target units.
func ConvertSpeed(speedCMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPS:
		return speedCMPS / 100
	default:
		return speedCMPS
	}
}

// SelectorWavelength returns λ = c0 + c1/rpm for a velocity selector.
func SelectorWavelength(c0, c1, rpm float64) float64 {
	if rpm == 0 {
		return 0
	}
	return c0 + c1/rpm
}

// SelectorRPM inverts SelectorWavelength.
func SelectorRPM(c0, c1, lambda float64) float64 {
	if lambda == c0 {
		return 0
	}
	return c1 / (lambda - c0)
}
