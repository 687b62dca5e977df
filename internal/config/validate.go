package config

import (
	"fmt"
	"sort"

	"github.com/banshee-data/sans.calculator/internal/calcerr"
	"github.com/banshee-data/sans.calculator/internal/units"
)

// Slicer modes
const (
	ModeCircular    = "circular"
	ModeSector      = "sector"
	ModeRectangular = "rectangular"
	ModeElliptical  = "elliptical"
)

// Detector sections
const (
	SectionsBoth  = "both"
	SectionsLeft  = "left"
	SectionsRight = "right"
)

// Grid size limits. Every Q grid is allocated as a dense square or
// rectangle, so these bound the memory of a single request.
const (
	MaxQRangePoints   = 4096
	MaxDetectorPixels = 1024
	MaxPanelTubes     = 1024
	MaxPanelPixels    = 1024
)

// VSANS presets
var ValidPresets = []string{"19m", "16m", "11m", "4.5m"}

// Validate checks structural constraints on the parameter tree. Bounds that
// depend on the instrument variant are checked when the instrument resolves
// its settings.
func (p *Params) Validate() error {
	if p == nil {
		return calcerr.InvalidConfig("", "missing parameter tree")
	}

	if err := p.Wavelength.validate("wavelength"); err != nil {
		return err
	}
	if err := p.Beam.AsWavelength().validate("beam"); err != nil {
		return err
	}
	if err := p.Collimation.validate("collimation"); err != nil {
		return err
	}
	for i := range p.Detectors {
		if err := p.Detectors[i].validate(fmt.Sprintf("detectors[%d]", i)); err != nil {
			return err
		}
	}
	for i, bs := range p.BeamStops {
		path := fmt.Sprintf("beam_stops[%d]", i)
		if bs.BeamStopDiameter != nil && *bs.BeamStopDiameter <= 0 {
			return calcerr.InvalidConfig(path+".beam_stop_diameter", "must be positive, got %g", *bs.BeamStopDiameter)
		}
		if err := checkLengthUnit(path+".units", bs.Units); err != nil {
			return err
		}
	}
	if err := p.Slicer.validate("slicer"); err != nil {
		return err
	}
	if p.Preset != nil && !contains(ValidPresets, *p.Preset) {
		return &calcerr.Error{
			Kind:      calcerr.KindInvalidConfig,
			Path:      "preset",
			Msg:       fmt.Sprintf("unknown preset %q", *p.Preset),
			Suggested: "19m, 16m, 11m, 4.5m",
		}
	}
	panels := map[string]*Panel{
		"middle_left_panel":   p.MiddleLeftPanel,
		"middle_right_panel":  p.MiddleRightPanel,
		"middle_top_panel":    p.MiddleTopPanel,
		"middle_bottom_panel": p.MiddleBottomPanel,
		"front_left_panel":    p.FrontLeftPanel,
		"front_right_panel":   p.FrontRightPanel,
		"front_top_panel":     p.FrontTopPanel,
		"front_bottom_panel":  p.FrontBottomPanel,
	}
	for _, name := range sortedKeys(panels) {
		if err := panels[name].validate(name); err != nil {
			return err
		}
	}
	carriages := map[string]*Carriage{"middle_carriage": p.MiddleCarriage, "front_carriage": p.FrontCarriage}
	for _, name := range sortedKeys(carriages) {
		if c := carriages[name]; c != nil && c.SSDInput != nil && *c.SSDInput <= 0 {
			return calcerr.InvalidConfig(name+".ssd_input", "must be positive, got %g", *c.SSDInput)
		}
	}
	return p.QRange.validate("q_range")
}

func (w *Wavelength) validate(path string) error {
	if w == nil {
		return nil
	}
	if w.Lambda != nil && *w.Lambda <= 0 {
		return calcerr.InvalidConfig(path+".lambda", "must be positive, got %g", *w.Lambda)
	}
	if w.LambdaWidth != nil && (*w.LambdaWidth < 0 || *w.LambdaWidth >= 1) {
		return calcerr.InvalidConfig(path+".lambda_width", "must be in [0, 1), got %g", *w.LambdaWidth)
	}
	return checkLengthUnit(path+".units", w.Units)
}

func (c *Collimation) validate(path string) error {
	if c == nil {
		return nil
	}
	apertures := map[string]*Aperture{"source_aperture": c.SourceAperture, "sample_aperture": c.SampleAperture}
	for _, name := range sortedKeys(apertures) {
		a := apertures[name]
		if a == nil {
			continue
		}
		ap := path + "." + name
		if a.Diameter != nil && *a.Diameter <= 0 {
			return calcerr.InvalidConfig(ap+".diameter", "must be positive, got %g", *a.Diameter)
		}
		if err := checkLengthUnit(ap+".units", a.Units); err != nil {
			return err
		}
		if err := checkLengthUnit(ap+".offset_units", a.OffsetUnits); err != nil {
			return err
		}
	}
	if g := c.Guides; g != nil {
		gp := path + ".guides"
		if g.NumberOfGuides != nil && *g.NumberOfGuides < 0 {
			return calcerr.InvalidConfig(gp+".number_of_guides", "must be non-negative, got %d", *g.NumberOfGuides)
		}
		if g.TransmissionPerGuide != nil && (*g.TransmissionPerGuide <= 0 || *g.TransmissionPerGuide > 1) {
			return calcerr.InvalidConfig(gp+".transmission_per_guide", "must be in (0, 1], got %g", *g.TransmissionPerGuide)
		}
		if g.LengthPerGuide != nil && *g.LengthPerGuide < 0 {
			return calcerr.InvalidConfig(gp+".length_per_guide", "must be non-negative, got %g", *g.LengthPerGuide)
		}
		if g.GuideWidth != nil && *g.GuideWidth <= 0 {
			return calcerr.InvalidConfig(gp+".guide_width", "must be positive, got %g", *g.GuideWidth)
		}
		if g.GapAtStart != nil && *g.GapAtStart < 0 {
			return calcerr.InvalidConfig(gp+".gap_at_start", "must be non-negative, got %g", *g.GapAtStart)
		}
	}
	if c.SampleSpace != nil && *c.SampleSpace != "" && *c.SampleSpace != "Huber" && *c.SampleSpace != "Chamber" {
		return &calcerr.Error{
			Kind:      calcerr.KindInvalidConfig,
			Path:      path + ".sample_space",
			Msg:       fmt.Sprintf("unknown sample space %q", *c.SampleSpace),
			Suggested: "Huber, Chamber",
		}
	}
	return nil
}

func (d *Detector) validate(path string) error {
	if d.SDD != nil && *d.SDD <= 0 {
		return calcerr.InvalidConfig(path+".sdd", "must be positive, got %g", *d.SDD)
	}
	for name, v := range map[string]*float64{"pixel_size_x": d.PixelSizeX, "pixel_size_y": d.PixelSizeY, "pixel_size_z": d.PixelSizeZ} {
		if v != nil && *v < 0 {
			return calcerr.InvalidConfig(path+"."+name, "must be non-negative, got %g", *v)
		}
	}
	counts := map[string]*int{"pixel_no_x": d.PixelNoX, "pixel_no_y": d.PixelNoY}
	for _, name := range sortedKeys(counts) {
		v := counts[name]
		if v == nil {
			continue
		}
		if *v <= 0 {
			return calcerr.InvalidConfig(path+"."+name, "must be positive, got %d", *v)
		}
		if *v > MaxDetectorPixels {
			return calcerr.OutOfRange(path+"."+name, float64(*v), 1, MaxDetectorPixels)
		}
	}
	if d.PerPixelMaxFlux != nil && *d.PerPixelMaxFlux <= 0 {
		return calcerr.InvalidConfig(path+".per_pixel_max_flux", "must be positive, got %g", *d.PerPixelMaxFlux)
	}
	if d.DeadTime != nil && *d.DeadTime < 0 {
		return calcerr.InvalidConfig(path+".dead_time", "must not be negative, got %g", *d.DeadTime)
	}
	if d.DeadTimeUnits != nil && *d.DeadTimeUnits != "" {
		dim, ok := units.DimensionOf(*d.DeadTimeUnits)
		if !ok || dim != units.Time {
			return calcerr.UnitUnknown(path+".dead_time_units", *d.DeadTimeUnits, units.GetValidUnitsString(units.Time))
		}
	}
	return nil
}

func (s *Slicer) validate(path string) error {
	if s == nil {
		return nil
	}
	if s.Mode != nil && *s.Mode != "" {
		switch *s.Mode {
		case ModeCircular, ModeSector, ModeRectangular, ModeElliptical:
		default:
			return &calcerr.Error{
				Kind:      calcerr.KindInvalidConfig,
				Path:      path + ".mode",
				Msg:       fmt.Sprintf("unknown averaging mode %q", *s.Mode),
				Suggested: "circular, sector, rectangular, elliptical",
			}
		}
	}
	if s.DetectorSections != nil && *s.DetectorSections != "" {
		switch *s.DetectorSections {
		case SectionsBoth, SectionsLeft, SectionsRight:
		default:
			return &calcerr.Error{
				Kind:      calcerr.KindInvalidConfig,
				Path:      path + ".detector_sections",
				Msg:       fmt.Sprintf("unknown detector section %q", *s.DetectorSections),
				Suggested: "both, left, right",
			}
		}
	}
	if s.AspectRatio != nil && *s.AspectRatio <= 0 {
		return calcerr.InvalidConfig(path+".aspect_ratio", "must be positive, got %g", *s.AspectRatio)
	}
	if s.QWidth != nil && *s.QWidth < 0 {
		return calcerr.InvalidConfig(path+".q_width", "must be non-negative, got %g", *s.QWidth)
	}
	if s.Coeff != nil && *s.Coeff <= 0 {
		return calcerr.InvalidConfig(path+".coeff", "must be positive, got %g", *s.Coeff)
	}
	return nil
}

func (p *Panel) validate(path string) error {
	if p == nil {
		return nil
	}
	if p.Calibration != nil && len(p.Calibration) != 3 {
		return calcerr.InvalidConfig(path+".calibration", "expected 3 coefficients, got %d", len(p.Calibration))
	}
	if p.NumTubes != nil && *p.NumTubes <= 0 {
		return calcerr.InvalidConfig(path+".num_tubes", "must be positive, got %d", *p.NumTubes)
	}
	if p.NumTubes != nil && *p.NumTubes > MaxPanelTubes {
		return calcerr.OutOfRange(path+".num_tubes", float64(*p.NumTubes), 1, MaxPanelTubes)
	}
	if p.NumPixels != nil && *p.NumPixels <= 0 {
		return calcerr.InvalidConfig(path+".num_pixels", "must be positive, got %d", *p.NumPixels)
	}
	if p.NumPixels != nil && *p.NumPixels > MaxPanelPixels {
		return calcerr.OutOfRange(path+".num_pixels", float64(*p.NumPixels), 1, MaxPanelPixels)
	}
	if p.TubeWidth != nil && *p.TubeWidth <= 0 {
		return calcerr.InvalidConfig(path+".tube_width", "must be positive, got %g", *p.TubeWidth)
	}
	for i, row := range p.Mask {
		for j, v := range row {
			if v != 0 && v != 1 {
				return calcerr.InvalidConfig(fmt.Sprintf("%s.mask[%d][%d]", path, i, j), "mask values must be 0 or 1, got %d", v)
			}
		}
	}
	return nil
}

func (q *QRange) validate(path string) error {
	if q == nil {
		return nil
	}
	if q.Points != nil && *q.Points < 2 {
		return calcerr.InvalidConfig(path+".points", "need at least 2 points, got %d", *q.Points)
	}
	if q.Points != nil && *q.Points > MaxQRangePoints {
		return calcerr.OutOfRange(path+".points", float64(*q.Points), 2, MaxQRangePoints)
	}
	if q.QMin != nil && *q.QMin < 0 {
		return calcerr.InvalidConfig(path+".q_min", "must be non-negative, got %g", *q.QMin)
	}
	if q.DQQ != nil && *q.DQQ < 0 {
		return calcerr.InvalidConfig(path+".dq_q", "must be non-negative, got %g", *q.DQQ)
	}
	if q.PointSpacing != nil && *q.PointSpacing != "" && *q.PointSpacing != "lin" && *q.PointSpacing != "log" {
		return &calcerr.Error{
			Kind:      calcerr.KindInvalidConfig,
			Path:      path + ".point_spacing",
			Msg:       fmt.Sprintf("unknown spacing %q", *q.PointSpacing),
			Suggested: "lin, log",
		}
	}
	return nil
}

func checkLengthUnit(path string, unit *string) error {
	if unit == nil || *unit == "" {
		return nil
	}
	dim, ok := units.DimensionOf(*unit)
	if !ok || dim != units.Length {
		return calcerr.UnitUnknown(path, *unit, units.GetValidUnitsString(units.Length))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
