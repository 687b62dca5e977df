package instrument

import (
	"context"
	"math"

	"github.com/banshee-data/sans.calculator/internal/averager"
	"github.com/banshee-data/sans.calculator/internal/calcerr"
	"github.com/banshee-data/sans.calculator/internal/config"
	"github.com/banshee-data/sans.calculator/internal/model"
	"github.com/banshee-data/sans.calculator/internal/monitoring"
)

// Output is everything one SANS compute call derives. Inputs stay in
// Settings; nothing here is written back into them.
type Output struct {
	Settings *Settings `json:"-"`

	LambdaMin float64 `json:"lambda_min"`
	LambdaMax float64 `json:"lambda_max"`

	SSAD float64 `json:"ssad"`
	SSD  float64 `json:"ssd"`
	L1   float64 `json:"l1"`
	L2   float64 `json:"l2"`

	BeamDiameter           float64 `json:"beam_diameter"`
	BeamDiameterHorizontal float64 `json:"beam_diameter_horizontal"`
	BeamDiameterVertical   float64 `json:"beam_diameter_vertical"`
	BeamStopDiameter       float64 `json:"beam_stop_diameter"`
	BeamStopProjection     float64 `json:"beam_stop_projection"`

	Flux        float64     `json:"flux"`
	Attenuation Attenuation `json:"attenuation"`
	DeadTime    float64     `json:"dead_time"` // s
	QExtents

	BeamCenterX float64 `json:"beam_center_x"`
	BeamCenterY float64 `json:"beam_center_y"`

	QxValues []float64   `json:"-"`
	QyValues []float64   `json:"-"`
	QGrid    [][]float64 `json:"-"`

	// Model2D is the model intensity per pixel; Intensity2D is the same
	// with the beam-stop shadow applied.
	Model2D     [][]float64      `json:"-"`
	Intensity2D [][]float64      `json:"-"`
	Average     *averager.Result `json:"-"`
}

// Compute runs the full SANS pipeline: geometry, beam, flux, Q range, the
// 2-D model pattern and its 1-D average. ctx is checked between stages.
func Compute(ctx context.Context, v *Variant, p *config.Params, provider model.Provider) (*Output, error) {
	s, err := Resolve(v, p)
	if err != nil {
		return nil, err
	}
	out, err := s.Geometry()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := out.pattern(provider); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	avg, err := averager.Average(out.Model2D, nil, out.AveragerGeometry(), s.Slice)
	if err != nil {
		return nil, err
	}
	out.Average = avg
	return out, nil
}

// Geometry computes the scalar quantities that do not need a model.
func (s *Settings) Geometry() (*Output, error) {
	out := &Output{Settings: s}
	out.LambdaMin, out.LambdaMax = s.Variant.WavelengthRange()

	out.SSAD = s.Variant.SourceToSampleApertureDistance(s.NumGuides, s.LengthPerGuide, s.MaxTrainLength, s.SampleApertureOffset)
	if out.SSAD <= 0 {
		return nil, calcerr.NumericDegenerate("ssad", "source-to-sample-aperture distance %g cm is not positive", out.SSAD)
	}
	out.L1 = out.SSAD
	out.SSD = s.SSD
	if out.SSD <= 0 {
		out.SSD = out.SSAD + s.SampleApertureOffset
	}
	out.L2 = s.SDD + s.SampleApertureOffset
	out.DeadTime = s.DeadTime

	out.BeamDiameter = s.BeamDiameter(out.L1, out.L2, Maximum)
	out.BeamDiameterHorizontal = s.BeamDiameter(out.L1, out.L2, Horizontal)
	out.BeamDiameterVertical = s.BeamDiameter(out.L1, out.L2, Vertical)
	out.BeamStopDiameter = SelectBeamStop(s.BeamStops, out.BeamDiameter)

	proj, err := ProjectBeamStop(out.BeamStopDiameter, s.SampleAperture, out.L2)
	if err != nil {
		return nil, err
	}
	out.BeamStopProjection = proj

	if out.Flux, err = s.Flux(); err != nil {
		return nil, err
	}
	if out.Attenuation, err = s.Attenuators(out.Flux, out.BeamDiameter); err != nil {
		return nil, err
	}
	if out.QExtents, err = s.Extents(proj); err != nil {
		return nil, err
	}
	out.BeamCenterX, out.BeamCenterY = s.BeamCenter()

	monitoring.Debugf("%s: ssad=%.1f l2=%.1f beam=%.3f bs=%.2f flux=%.3g", s.Variant.Name, out.SSAD, out.L2, out.BeamDiameter, out.BeamStopDiameter, out.Flux)
	return out, nil
}

// AveragerGeometry describes the detector for the averager.
func (o *Output) AveragerGeometry() averager.Geometry {
	s := o.Settings
	return averager.Geometry{
		PixelSizeX:             s.PixelSizeX,
		PixelSizeY:             s.PixelSizeY,
		SDD:                    s.SDD,
		SSD:                    o.SSD,
		XCenter:                o.BeamCenterX,
		YCenter:                o.BeamCenterY,
		Lambda:                 s.Lambda,
		LambdaWidth:            s.LambdaWidth,
		SourceApertureDiameter: s.SourceAperture,
		SampleApertureDiameter: s.SampleAperture,
		ApertureOffset:         s.ApertureOffset,
		BeamStopDiameter:       o.BeamStopProjection,
		UsingLenses:            s.UsingLenses,
		Coeff:                  s.Coeff,
		CenterRadius:           s.CenterRadius,
	}
}

// pattern fills the per-pixel Q grid, evaluates the model on it and applies
// the beam-stop shadow to Intensity2D.
func (o *Output) pattern(provider model.Provider) error {
	s := o.Settings
	k := 4 * math.Pi / s.Lambda
	q := func(d float64) float64 { return k * math.Sin(0.5*math.Atan(d/s.SDD)) }

	dx := make([]float64, s.PixelsX)
	o.QxValues = make([]float64, s.PixelsX)
	for i := range dx {
		dx[i] = (float64(i+1) - o.BeamCenterX) * s.PixelSizeX
		o.QxValues[i] = q(dx[i])
	}
	dy := make([]float64, s.PixelsY)
	o.QyValues = make([]float64, s.PixelsY)
	for j := range dy {
		dy[j] = (float64(j+1) - o.BeamCenterY) * s.PixelSizeY
		o.QyValues[j] = q(dy[j])
	}

	o.QGrid = make([][]float64, s.PixelsX)
	for i := range o.QGrid {
		o.QGrid[i] = make([]float64, s.PixelsY)
		for j := range o.QGrid[i] {
			o.QGrid[i][j] = q(math.Hypot(dx[i], dy[j]))
		}
	}

	intensity, err := model.Evaluate2D(provider, s.ModelName, s.ModelParams, o.QGrid)
	if err != nil {
		return err
	}
	o.Model2D = intensity
	o.Intensity2D = make([][]float64, len(intensity))
	bsRadius := o.BeamStopProjection / 2
	for i := range intensity {
		o.Intensity2D[i] = append([]float64(nil), intensity[i]...)
		for j := range intensity[i] {
			if math.Hypot(dx[i], dy[j]) < bsRadius {
				o.Intensity2D[i][j] = 0
			}
		}
	}
	return nil
}
