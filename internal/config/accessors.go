package config

// Accessors are nil-receiver safe: a missing section yields the default.

// GetLambda returns the wavelength value (in Units) or def.
func (w *Wavelength) GetLambda(def float64) float64 {
	if w == nil {
		return def
	}
	return getFloat(w.Lambda, def)
}

// GetLambdaWidth returns Δλ/λ or def.
func (w *Wavelength) GetLambdaWidth(def float64) float64 {
	if w == nil {
		return def
	}
	return getFloat(w.LambdaWidth, def)
}

// GetUnits returns the wavelength length unit, default Å.
func (w *Wavelength) GetUnits() string {
	if w == nil {
		return "Å"
	}
	return getString(w.Units, "Å")
}

// AsWavelength views the VSANS beam section as a Wavelength.
func (b *Beam) AsWavelength() *Wavelength {
	if b == nil {
		return nil
	}
	return &Wavelength{Lambda: b.Lambda, LambdaWidth: b.LambdaWidth, Units: b.Units}
}

// GetMonochromator returns the monochromator type, default "velocity_selector".
func (b *Beam) GetMonochromator() string {
	if b == nil {
		return "velocity_selector"
	}
	return getString(b.Monochromator, "velocity_selector")
}

// GetDiameter returns the aperture diameter (in Units) or def.
func (a *Aperture) GetDiameter(def float64) float64 {
	if a == nil {
		return def
	}
	return getFloat(a.Diameter, def)
}

// GetUnits returns the diameter unit or def.
func (a *Aperture) GetUnits(def string) string {
	if a == nil {
		return def
	}
	return getString(a.Units, def)
}

// GetOffset returns the aperture offset (in OffsetUnits) or def.
func (a *Aperture) GetOffset(def float64) float64 {
	if a == nil {
		return def
	}
	return getFloat(a.Offset, def)
}

// GetOffsetUnits returns the offset unit, default cm.
func (a *Aperture) GetOffsetUnits() string {
	if a == nil {
		return "cm"
	}
	return getString(a.OffsetUnits, "cm")
}

// GetNumberOfGuides returns the guide count or def.
func (g *Guides) GetNumberOfGuides(def int) int {
	if g == nil {
		return def
	}
	return getInt(g.NumberOfGuides, def)
}

// GetLengthPerGuide returns the per-guide length (cm) or def.
func (g *Guides) GetLengthPerGuide(def float64) float64 {
	if g == nil {
		return def
	}
	return getFloat(g.LengthPerGuide, def)
}

// GetGapAtStart returns the gap at the start of the train (cm) or def.
func (g *Guides) GetGapAtStart(def float64) float64 {
	if g == nil {
		return def
	}
	return getFloat(g.GapAtStart, def)
}

// GetGuideWidth returns the guide width (cm) or def.
func (g *Guides) GetGuideWidth(def float64) float64 {
	if g == nil {
		return def
	}
	return getFloat(g.GuideWidth, def)
}

// GetTransmissionPerGuide returns the per-guide transmission or def.
func (g *Guides) GetTransmissionPerGuide(def float64) float64 {
	if g == nil {
		return def
	}
	return getFloat(g.TransmissionPerGuide, def)
}

// GetUsingLenses returns the lens flag, default false.
func (g *Guides) GetUsingLenses() bool {
	if g == nil {
		return false
	}
	return getBool(g.UsingLenses, false)
}

// GetMaximumLength returns the maximum train length (cm) or def.
func (g *Guides) GetMaximumLength(def float64) float64 {
	if g == nil {
		return def
	}
	return getFloat(g.MaximumLength, def)
}

// GetSSD returns the user source-to-sample distance (cm) or def.
func (c *Collimation) GetSSD(def float64) float64 {
	if c == nil {
		return def
	}
	return getFloat(c.SSD, def)
}

// GetSampleSpace returns the sample environment, default "Huber".
func (c *Collimation) GetSampleSpace() string {
	if c == nil {
		return "Huber"
	}
	return getString(c.SampleSpace, "Huber")
}

// GetSourceDistance returns the VSANS source distance (cm) or def.
func (c *Collimation) GetSourceDistance(def float64) float64 {
	if c == nil {
		return def
	}
	return getFloat(c.SourceDistance, def)
}

// GuidesOrNil returns the guide section, tolerating a nil collimation.
func (c *Collimation) GuidesOrNil() *Guides {
	if c == nil {
		return nil
	}
	return c.Guides
}

// SourceApertureOrNil returns the source aperture, tolerating a nil collimation.
func (c *Collimation) SourceApertureOrNil() *Aperture {
	if c == nil {
		return nil
	}
	return c.SourceAperture
}

// SampleApertureOrNil returns the sample aperture, tolerating a nil collimation.
func (c *Collimation) SampleApertureOrNil() *Aperture {
	if c == nil {
		return nil
	}
	return c.SampleAperture
}

// GetFloat returns *p or def. Exposed for sections without dedicated accessors.
func GetFloat(p *float64, def float64) float64 { return getFloat(p, def) }

// GetInt returns *p or def.
func GetInt(p *int, def int) int { return getInt(p, def) }

// GetString returns *p or def when p is nil or empty.
func GetString(p *string, def string) string { return getString(p, def) }

// GetBool returns *p or def.
func GetBool(p *bool, def bool) bool { return getBool(p, def) }

// DetectorOrNil returns detector i or nil when absent.
func (p *Params) DetectorOrNil(i int) *Detector {
	if p == nil || i < 0 || i >= len(p.Detectors) {
		return nil
	}
	return &p.Detectors[i]
}

// GetModelName returns the model name or def.
func (m *Model) GetModelName(def string) string {
	if m == nil {
		return def
	}
	return getString(m.Name, def)
}

// GetParameters returns the model parameter map (never nil).
func (m *Model) GetParameters() map[string]float64 {
	if m == nil || m.Parameters == nil {
		return map[string]float64{}
	}
	return m.Parameters
}
