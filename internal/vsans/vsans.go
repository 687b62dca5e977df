// Package vsans models the very-small-angle instrument: two detector
// carriages of four tube panels each, the gravity-sized beam stop shared by
// both, per-panel Q maps and a per-carriage 1-D average.
package vsans

import (
	"context"

	"github.com/banshee-data/sans.calculator/internal/averager"
	"github.com/banshee-data/sans.calculator/internal/calcerr"
	"github.com/banshee-data/sans.calculator/internal/config"
	"github.com/banshee-data/sans.calculator/internal/model"
	"github.com/banshee-data/sans.calculator/internal/monitoring"
	"github.com/banshee-data/sans.calculator/internal/units"
)

// Monochromators.
const (
	VelocitySelector = "velocity_selector"
	Graphite         = "graphite"
)

// Beam defaults and bounds. Wavelengths in Å, apertures in cm.
const (
	DefaultLambda         = 6.0
	DefaultLambdaWidth    = 0.12
	GraphiteLambdaWidth   = 0.01
	MinLambda             = 4.0
	MaxLambda             = 20.0
	DefaultSampleAperture = 1.27
	MaxGuides             = 8
)

// Settings are the resolved inputs of one VSANS compute call.
type Settings struct {
	Preset        string
	Lambda        float64
	LambdaWidth   float64
	Monochromator string

	SourceDistance float64
	SourceAperture float64
	SampleAperture float64
	NumGuides      int
	SampleSpace    string

	Middle *Carriage
	Front  *Carriage

	ModelName   string
	ModelParams map[string]float64
}

// Resolve fills p with the preset's defaults and builds the carriages.
func Resolve(p *config.Params) (*Settings, error) {
	if p == nil {
		p = &config.Params{}
	}
	s := &Settings{Preset: config.GetString(p.Preset, DefaultPreset)}
	pr, err := LookupPreset(s.Preset)
	if err != nil {
		return nil, calcerr.InvalidConfig("preset", "%v", err)
	}

	beam := p.Beam.AsWavelength()
	if s.Lambda, err = units.Convert(beam.GetLambda(DefaultLambda), beam.GetUnits(), units.Angstrom); err != nil {
		return nil, calcerr.WithPath("beam.units", err)
	}
	if s.Lambda < MinLambda || s.Lambda > MaxLambda {
		return nil, calcerr.OutOfRange("beam.lambda", s.Lambda, MinLambda, MaxLambda)
	}
	s.Monochromator = p.Beam.GetMonochromator()
	switch s.Monochromator {
	case VelocitySelector:
		s.LambdaWidth = beam.GetLambdaWidth(DefaultLambdaWidth)
	case Graphite:
		s.LambdaWidth = beam.GetLambdaWidth(GraphiteLambdaWidth)
	default:
		return nil, &calcerr.Error{
			Kind:      calcerr.KindInvalidConfig,
			Path:      "beam.monochromator",
			Msg:       "unknown monochromator " + s.Monochromator,
			Suggested: VelocitySelector + ", " + Graphite,
		}
	}

	col := p.Collimation
	s.SourceDistance = col.GetSourceDistance(pr.SourceDistance)
	if s.SourceDistance <= 0 {
		return nil, calcerr.InvalidConfig("collimation.source_distance", "must be positive, got %g", s.SourceDistance)
	}
	src := col.SourceApertureOrNil()
	if s.SourceAperture, err = units.LengthToCM(src.GetDiameter(pr.SourceAperture), src.GetUnits(units.CM)); err != nil {
		return nil, calcerr.WithPath("collimation.source_aperture.units", err)
	}
	samp := col.SampleApertureOrNil()
	if s.SampleAperture, err = units.LengthToCM(samp.GetDiameter(DefaultSampleAperture), samp.GetUnits(units.CM)); err != nil {
		return nil, calcerr.WithPath("collimation.sample_aperture.units", err)
	}
	s.NumGuides = col.GuidesOrNil().GetNumberOfGuides(pr.NumGuides)
	if s.NumGuides < 0 || s.NumGuides > MaxGuides {
		return nil, calcerr.OutOfRange("collimation.guides.number_of_guides", float64(s.NumGuides), 0, MaxGuides)
	}
	s.SampleSpace = col.GetSampleSpace()
	space, ok := sampleSpaces[s.SampleSpace]
	if !ok {
		return nil, calcerr.InvalidConfig("collimation.sample_space", "unknown sample space %q", s.SampleSpace)
	}

	if s.Middle, err = resolveCarriage(Middle, p.MiddleCarriage, pr.MiddleSSD, space); err != nil {
		return nil, err
	}
	if s.Front, err = resolveCarriage(Front, p.FrontCarriage, pr.FrontSSD, space); err != nil {
		return nil, err
	}
	if s.Front.SSD >= s.Middle.SSD {
		return nil, calcerr.InvalidConfig("front_carriage.ssd_input", "front carriage (%g cm) must sit in front of the middle carriage (%g cm)", s.Front.SSDInput, s.Middle.SSDInput)
	}
	for _, slot := range panelSlots {
		spec, err := resolvePanel(slot, *slot.field(p))
		if err != nil {
			return nil, err
		}
		s.carriage(slot.Carriage).Panels[slot.Side] = spec
	}

	s.ModelName = p.Model.GetModelName("sphere")
	s.ModelParams = p.Model.GetParameters()
	return s, nil
}

func (s *Settings) carriage(id CarriageID) *Carriage {
	if id == Front {
		return s.Front
	}
	return s.Middle
}

// PanelOutput is one panel's computed state. The maps are NumTubes×NumPixels.
type PanelOutput struct {
	Name   string  `json:"name"`
	Offset float64 `json:"offset"`
	Match  bool    `json:"match"`
	QExtents
	Usable int `json:"usable_pixels"`

	Qx        [][]float64 `json:"qx,omitempty"`
	Qy        [][]float64 `json:"qy,omitempty"`
	Intensity [][]float64 `json:"intensity,omitempty"`
	Mask      [][]float64 `json:"mask,omitempty"`
}

// CarriageOutput is one carriage's computed state.
type CarriageOutput struct {
	SSDInput    float64          `json:"ssd_input"`
	SSD         float64          `json:"ssd"`
	L2          float64          `json:"l2"`
	Setback     float64          `json:"setback"`
	TwoThetaMin float64          `json:"two_theta_min,omitempty"`
	DQ          DQRecord         `json:"dq"`
	Panels      []PanelOutput    `json:"panels"`
	OuterMask   [][]float64      `json:"outer_mask,omitempty"`
	Average     *averager.Result `json:"average"`
}

// Output is the VSANS result.
type Output struct {
	Preset         string         `json:"preset"`
	Lambda         float64        `json:"lambda"`
	LambdaWidth    float64        `json:"lambda_width"`
	SourceDistance float64        `json:"source_distance"`
	SourceAperture float64        `json:"source_aperture"`
	SampleAperture float64        `json:"sample_aperture"`
	NumGuides      int            `json:"number_of_guides"`
	SampleSpace    string         `json:"sample_space"`
	AllCarriage    AllCarriage    `json:"all_carriage"`
	Middle         CarriageOutput `json:"middle_carriage"`
	Front          CarriageOutput `json:"front_carriage"`
}

// Compute resolves p and evaluates both carriages. The returned options mark
// which front-panel offsets the edge match has taken over.
func Compute(ctx context.Context, p *config.Params, provider model.Provider) (*Output, config.Options, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s, err := Resolve(p)
	if err != nil {
		return nil, nil, err
	}
	opts := config.Options{}
	applyMatches(s.Middle, s.Front, opts)

	out := &Output{
		Preset:         s.Preset,
		Lambda:         s.Lambda,
		LambdaWidth:    s.LambdaWidth,
		SourceDistance: s.SourceDistance,
		SourceAperture: s.SourceAperture,
		SampleAperture: s.SampleAperture,
		NumGuides:      s.NumGuides,
		SampleSpace:    s.SampleSpace,
		AllCarriage:    computeAllCarriage(s),
	}
	twoTheta := TwoThetaMin(out.AllCarriage.BeamStopCM, s.Middle.SSD)
	monitoring.Debugf("vsans: preset %s beam stop %g in (required %.3f), 2θmin %.5f",
		s.Preset, out.AllCarriage.BeamStopInches, out.AllCarriage.RequiredBeamStop, twoTheta)

	if out.Middle, err = s.computeCarriage(ctx, s.Middle, provider, shadowQ(s.Lambda, twoTheta)); err != nil {
		return nil, nil, err
	}
	out.Middle.TwoThetaMin = twoTheta
	if out.Front, err = s.computeCarriage(ctx, s.Front, provider, 0); err != nil {
		return nil, nil, err
	}
	return out, opts, nil
}

func (s *Settings) computeCarriage(ctx context.Context, c *Carriage, provider model.Provider, qShadow float64) (CarriageOutput, error) {
	co := CarriageOutput{SSDInput: c.SSDInput, SSD: c.SSD, L2: c.L2, Setback: c.Setback}

	var ext [4]QExtents
	var maps [4]*PanelMaps
	for _, side := range []Side{Left, Right, Top, Bottom} {
		if err := ctx.Err(); err != nil {
			return co, err
		}
		p := c.Panels[side]
		ext[side] = p.QExtents(c, s.Lambda)
		maps[side] = panelMaps(p, c, s.Lambda)
		if err := maps[side].fillIntensity(provider, s.ModelName, s.ModelParams); err != nil {
			monitoring.Logf("vsans: model evaluation failed on %s: %v", p.Name(), err)
			return co, err
		}
		co.Panels = append(co.Panels, PanelOutput{
			Name:      p.Name(),
			Offset:    p.Offset,
			Match:     p.Match,
			QExtents:  ext[side],
			Usable:    maps[side].Usable(),
			Qx:        denseRows(maps[side].Qx),
			Qy:        denseRows(maps[side].Qy),
			Intensity: denseRows(maps[side].Intensity),
			Mask:      denseRows(maps[side].Mask),
		})
	}
	co.DQ = newDQ(s, c, ext)
	co.OuterMask = denseRows(outerMask(maps))

	avg, err := averageCarriage(c, maps, co.DQ, s.Lambda, qShadow)
	if err != nil {
		return co, err
	}
	co.Average = avg
	return co, nil
}

// QExtents returns the panel's Q bounds at its current offset.
func (p *PanelSpec) QExtents(c *Carriage, lambda float64) QExtents {
	return extents(p.BoundsAt(p.Offset), lambda, c.Distance(p.Side), c.BeamCenterX, c.BeamCenterY)
}
