package instrument

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/sans.calculator/internal/averager"
	"github.com/banshee-data/sans.calculator/internal/calcerr"
	"github.com/banshee-data/sans.calculator/internal/config"
	"github.com/banshee-data/sans.calculator/internal/units"
)

// Settings are the resolved, immutable inputs of one compute call. All
// lengths are in cm and wavelengths in Å.
type Settings struct {
	Variant *Variant

	Lambda      float64
	LambdaWidth float64

	SourceAperture       float64 // diameter
	SampleAperture       float64 // diameter
	SampleApertureOffset float64

	NumGuides            int
	LengthPerGuide       float64
	GapAtStart           float64
	GuideWidth           float64
	TransmissionPerGuide float64
	MaxTrainLength       float64
	UsingLenses          bool

	// SSD is the user source-to-sample distance; zero means derive it.
	SSD float64

	SDD             float64
	DetectorOffset  float64
	PixelSizeX      float64
	PixelSizeY      float64
	PixelsX         int
	PixelsY         int
	PerPixelMaxFlux float64
	DeadTime        float64 // s

	BeamStops []float64

	PeakFlux        float64
	PeakWavelength  float64
	Beta            float64
	Gamma           float64
	T1, T2, T3      float64
	BSFactor        float64
	FluxCalibration float64

	Slice          averager.Slice
	ApertureOffset float64
	Coeff          float64
	CenterRadius   float64

	ModelName   string
	ModelParams map[string]float64
}

// Resolve applies variant defaults and unit conversion to p and checks the
// values the variant constrains.
func Resolve(v *Variant, p *config.Params) (*Settings, error) {
	if p == nil {
		p = &config.Params{}
	}
	s := &Settings{Variant: v}

	lambda, err := units.Convert(p.Wavelength.GetLambda(v.DefaultLambda), p.Wavelength.GetUnits(), units.Angstrom)
	if err != nil {
		return nil, calcerr.WithPath("wavelength.units", err)
	}
	lo, hi := v.WavelengthRange()
	if lambda < lo || lambda > hi {
		return nil, calcerr.OutOfRange("wavelength.lambda", lambda, lo, hi)
	}
	s.Lambda = lambda
	s.LambdaWidth = p.Wavelength.GetLambdaWidth(v.DefaultLambdaWidth)

	col := p.Collimation
	src := col.SourceApertureOrNil()
	if s.SourceAperture, err = lengthCM("collimation.source_aperture.units", src.GetDiameter(v.DefaultSourceAperture), src.GetUnits(units.CM)); err != nil {
		return nil, err
	}
	samp := col.SampleApertureOrNil()
	if s.SampleAperture, err = lengthCM("collimation.sample_aperture.units", samp.GetDiameter(v.DefaultSampleAperture), samp.GetUnits(units.CM)); err != nil {
		return nil, err
	}
	if s.SampleApertureOffset, err = lengthCM("collimation.sample_aperture.offset_units", samp.GetOffset(0), samp.GetOffsetUnits()); err != nil {
		return nil, err
	}

	g := col.GuidesOrNil()
	s.NumGuides = g.GetNumberOfGuides(0)
	if s.NumGuides > v.MaxGuides {
		return nil, calcerr.OutOfRange("collimation.guides.number_of_guides", float64(s.NumGuides), 0, float64(v.MaxGuides))
	}
	s.LengthPerGuide = g.GetLengthPerGuide(v.LengthPerGuide)
	s.GapAtStart = g.GetGapAtStart(v.GapAtStart)
	s.GuideWidth = g.GetGuideWidth(v.GuideWidth)
	s.TransmissionPerGuide = g.GetTransmissionPerGuide(v.TransmissionPerGuide)
	s.MaxTrainLength = g.GetMaximumLength(v.MaxTrainLength)
	s.UsingLenses = g.GetUsingLenses()
	s.SSD = col.GetSSD(0)

	if err := s.resolveDetector(v, p.DetectorOrNil(0)); err != nil {
		return nil, err
	}
	if s.BeamStops, err = beamStopTable(v, p.BeamStops); err != nil {
		return nil, err
	}
	s.resolveData(v, p.Data)
	if err := s.resolveSlicer(p.Slicer); err != nil {
		return nil, err
	}

	s.ModelName = p.Model.GetModelName("sphere")
	s.ModelParams = p.Model.GetParameters()
	return s, nil
}

func (s *Settings) resolveDetector(v *Variant, d *config.Detector) error {
	if d == nil {
		d = &config.Detector{}
	}
	s.SDD = config.GetFloat(d.SDD, v.DefaultSDD)
	if s.SDD < v.MinSDD || s.SDD > v.MaxSDD {
		return calcerr.OutOfRange("detectors[0].sdd", s.SDD, v.MinSDD, v.MaxSDD)
	}
	s.DetectorOffset = config.GetFloat(d.Offset, 0)
	s.PixelSizeX = config.GetFloat(d.PixelSizeX, v.PixelSize)
	s.PixelSizeY = config.GetFloat(d.PixelSizeY, v.PixelSize)
	s.PixelsX = config.GetInt(d.PixelNoX, v.PixelCount)
	s.PixelsY = config.GetInt(d.PixelNoY, v.PixelCount)
	s.PerPixelMaxFlux = config.GetFloat(d.PerPixelMaxFlux, v.PerPixelMaxFlux)

	dead, err := units.ToCanonical(config.GetFloat(d.DeadTime, 0), config.GetString(d.DeadTimeUnits, units.S))
	if err != nil {
		return calcerr.WithPath("detectors[0].dead_time_units", err)
	}
	s.DeadTime = dead
	return nil
}

func (s *Settings) resolveData(v *Variant, d *config.Data) {
	if d == nil {
		d = &config.Data{}
	}
	s.PeakFlux = config.GetFloat(d.PeakFlux, v.PeakFlux)
	s.PeakWavelength = config.GetFloat(d.PeakWavelength, v.PeakWavelength)
	s.Beta = config.GetFloat(d.Beta, v.Beta)
	s.Gamma = config.GetFloat(d.Gamma, v.Gamma)
	s.T1 = config.GetFloat(d.T1, v.T1)
	s.T2 = config.GetFloat(d.T2, v.T2)
	s.T3 = config.GetFloat(d.T3, v.T3)
	s.BSFactor = config.GetFloat(d.BSFactor, v.BSFactor)
	s.FluxCalibration = config.GetFloat(d.FluxCalibration, 1.0)
}

func (s *Settings) resolveSlicer(sl *config.Slicer) error {
	if sl == nil {
		sl = &config.Slicer{}
	}
	deg := math.Pi / 180
	s.Slice = averager.Slice{
		Mode:        averager.Mode(config.GetString(sl.Mode, string(averager.Circular))),
		Phi:         config.GetFloat(sl.Phi, 0) * deg,
		DPhi:        config.GetFloat(sl.DPhi, 90) * deg,
		Sections:    averager.Sections(config.GetString(sl.DetectorSections, string(averager.Both))),
		Width:       config.GetFloat(sl.QWidth, 3),
		AspectRatio: config.GetFloat(sl.AspectRatio, 1),
	}
	s.ApertureOffset = config.GetFloat(sl.ApertureOffset, 0)
	s.Coeff = config.GetFloat(sl.Coeff, averager.DefaultCoeff)
	s.CenterRadius = config.GetFloat(sl.CenterRadius, averager.DefaultCenterRadius)

	if sl.XPixels != nil && *sl.XPixels != s.PixelsX {
		return calcerr.InvalidConfig("slicer.x_pixels", "slicer covers %d pixels, detector has %d", *sl.XPixels, s.PixelsX)
	}
	if sl.YPixels != nil && *sl.YPixels != s.PixelsY {
		return calcerr.InvalidConfig("slicer.y_pixels", "slicer covers %d pixels, detector has %d", *sl.YPixels, s.PixelsY)
	}
	return nil
}

// beamStopTable converts the user beam-stop list to cm and sorts it, falling
// back to the variant table.
func beamStopTable(v *Variant, stops []config.BeamStop) ([]float64, error) {
	if len(stops) == 0 {
		return append([]float64(nil), v.BeamStops...), nil
	}
	out := make([]float64, 0, len(stops))
	for i, bs := range stops {
		if bs.BeamStopDiameter == nil {
			return nil, calcerr.InvalidConfig(fmt.Sprintf("beam_stops[%d].beam_stop_diameter", i), "missing diameter")
		}
		d, err := lengthCM(fmt.Sprintf("beam_stops[%d].units", i), *bs.BeamStopDiameter, config.GetString(bs.Units, units.CM))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	sort.Float64s(out)
	return out, nil
}

func lengthCM(path string, value float64, unit string) (float64, error) {
	cm, err := units.LengthToCM(value, unit)
	if err != nil {
		return 0, calcerr.WithPath(path, err)
	}
	return cm, nil
}
