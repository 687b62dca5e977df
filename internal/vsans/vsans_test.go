package vsans

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/sans.calculator/internal/calcerr"
	"github.com/banshee-data/sans.calculator/internal/config"
	"github.com/banshee-data/sans.calculator/internal/model"
	"github.com/banshee-data/sans.calculator/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

func preset(t *testing.T, name string) *config.Params {
	t.Helper()
	p, err := PresetParams(name)
	require.NoError(t, err)
	return p
}

func errPath(t *testing.T, err error) string {
	t.Helper()
	var ce *calcerr.Error
	require.True(t, errors.As(err, &ce), "expected *calcerr.Error, got %v", err)
	return ce.Path
}

func TestPresetParams(t *testing.T) {
	p := preset(t, "19m")
	assert.Equal(t, 2441.0, *p.Collimation.SourceDistance)
	assert.Equal(t, 1900.0, *p.MiddleCarriage.SSDInput)
	assert.Equal(t, 400.0, *p.FrontCarriage.SSDInput)
	assert.Equal(t, 0, *p.Collimation.Guides.NumberOfGuides)
	require.NotNil(t, p.FrontBottomPanel)
	assert.Equal(t, -10.0, *p.FrontBottomPanel.VerticalOffset)
	assert.Equal(t, 6.0, *p.MiddleRightPanel.LateralOffset)
	assert.False(t, *p.FrontLeftPanel.Match)
	assert.Nil(t, p.MiddleLeftPanel.Match)
	require.NoError(t, p.Validate())

	_, err := PresetParams("25m")
	assert.Error(t, err)
}

func TestPresetNamesOrdered(t *testing.T) {
	assert.Equal(t, []string{"19m", "16m", "11m", "4.5m"}, PresetNames())
}

func TestPreset19m(t *testing.T) {
	out, _, err := Compute(context.Background(), preset(t, "19m"), model.Builtin{})
	require.NoError(t, err)

	assert.Equal(t, 2441.0, out.SourceDistance)
	assert.Equal(t, 1900.0, out.Middle.SSDInput)
	assert.Equal(t, 400.0, out.Front.SSDInput)
	assert.Equal(t, 1911.0, out.Middle.SSD)
	assert.Equal(t, 1922.0, out.Middle.L2)
	assert.Equal(t, 411.0, out.Front.SSD)

	a := out.AllCarriage
	assert.InDelta(t, 0.946152, a.BeamDrop, 1e-5)
	assert.InDelta(t, 6.994269, a.BeamGeometry, 1e-5)
	assert.InDelta(t, 2.932450, a.RequiredBeamStop, 1e-5)
	assert.Equal(t, 3.0, a.BeamStopInches)
	assert.InDelta(t, 7.62, a.BeamStopCM, 1e-12)
	assert.Less(t, a.BeamDropMin, a.BeamDrop)
	assert.Greater(t, a.BeamDropMax, a.BeamDrop)

	assert.Equal(t, math.Atan2(a.BeamStopCM/2, out.Middle.SSD), out.Middle.TwoThetaMin)
	assert.Zero(t, out.Front.TwoThetaMin)
}

func TestBeamStopTableCapsAtLargest(t *testing.T) {
	p := preset(t, "19m")
	p.Collimation.SampleAperture.Diameter = config.PtrFloat64(10)
	out, _, err := Compute(context.Background(), p, model.Builtin{})
	require.NoError(t, err)
	assert.Greater(t, out.AllCarriage.RequiredBeamStop, 4.0)
	assert.Equal(t, 4.0, out.AllCarriage.BeamStopInches)
}

func TestMatchEdge(t *testing.T) {
	p := preset(t, "19m")
	p.MiddleLeftPanel.LateralOffset = config.PtrFloat64(-6.0)
	p.FrontLeftPanel.Match = config.PtrBool(true)

	out, opts, err := Compute(context.Background(), p, model.Builtin{})
	require.NoError(t, err)
	require.Equal(t, 1911.0, out.Middle.SSD)
	require.Equal(t, 411.0, out.Front.SSD)

	assert.True(t, opts.IsReadOnly("front_left_panel+lateral_offset"))
	assert.Equal(t, config.Option{Type: config.OptionReadOnly, SetTo: true}, opts["front_left_panel+lateral_offset"])
	assert.False(t, opts.IsReadOnly("front_right_panel+lateral_offset"))
	assert.False(t, opts.IsReadOnly("front_top_panel+vertical_offset"))

	zero := -(DefaultGap/2 + DefaultNumTubes*DefaultTubeWidth)
	middleEdge := (0.5*DefaultTubeWidth+zero)/10 - 6.0
	frontEdge := ((DefaultNumTubes-0.5)*DefaultTubeWidth + zero) / 10
	want := math.Tan(math.Atan2(middleEdge, 1911))*411 - frontEdge

	fl := out.Front.Panels[Left]
	require.Equal(t, "front_left_panel", fl.Name)
	assert.True(t, fl.Match)
	assert.InDelta(t, want, fl.Offset, 1e-9)
	assert.InDelta(t, -9.314380, fl.Offset, 1e-6)
}

func TestMatchEdgeIdempotent(t *testing.T) {
	extentsOf := func(out *Output) []QExtents {
		var ext []QExtents
		for _, c := range []CarriageOutput{out.Middle, out.Front} {
			for _, p := range c.Panels {
				ext = append(ext, p.QExtents)
			}
		}
		return ext
	}

	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			p := preset(t, name)
			p.FrontLeftPanel.Match = config.PtrBool(true)
			p.FrontTopPanel.Match = config.PtrBool(true)
			matched, _, err := Compute(context.Background(), p, model.Builtin{})
			require.NoError(t, err)

			p.FrontLeftPanel.Match = config.PtrBool(false)
			p.FrontLeftPanel.LateralOffset = config.PtrFloat64(matched.Front.Panels[Left].Offset)
			p.FrontTopPanel.Match = config.PtrBool(false)
			p.FrontTopPanel.VerticalOffset = config.PtrFloat64(matched.Front.Panels[Top].Offset)
			manual, opts, err := Compute(context.Background(), p, model.Builtin{})
			require.NoError(t, err)

			assert.False(t, opts.IsReadOnly("front_left_panel+lateral_offset"))
			if diff := cmp.Diff(extentsOf(matched), extentsOf(manual)); diff != "" {
				t.Errorf("panel Q extents changed after unmatching (-matched +manual):\n%s", diff)
			}
		})
	}
}

func TestMatchOnMiddlePanelRejected(t *testing.T) {
	p := preset(t, "19m")
	p.MiddleLeftPanel.Match = config.PtrBool(true)
	_, _, err := Compute(context.Background(), p, model.Builtin{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrInvalidConfig))
	assert.Equal(t, "middle_left_panel.match", errPath(t, err))
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *config.Params)
		kind   error
		path   string
	}{
		{"unknown preset", func(p *config.Params) { p.Preset = config.PtrString("2m") }, calcerr.ErrInvalidConfig, "preset"},
		{"wavelength too short", func(p *config.Params) { p.Beam.Lambda = config.PtrFloat64(3) }, calcerr.ErrOutOfRange, "beam.lambda"},
		{"wavelength in nm", func(p *config.Params) { p.Beam.Units = config.PtrString("nm") }, calcerr.ErrUnitUnknown, "beam.units"},
		{"monochromator", func(p *config.Params) { p.Beam.Monochromator = config.PtrString("chopper") }, calcerr.ErrInvalidConfig, "beam.monochromator"},
		{"too many guides", func(p *config.Params) { p.Collimation.Guides.NumberOfGuides = config.PtrInt(9) }, calcerr.ErrOutOfRange, "collimation.guides.number_of_guides"},
		{"sample space", func(p *config.Params) { p.Collimation.SampleSpace = config.PtrString("Cryostat") }, calcerr.ErrInvalidConfig, "collimation.sample_space"},
		{"front behind middle", func(p *config.Params) { p.FrontCarriage.SSDInput = config.PtrFloat64(2000) }, calcerr.ErrInvalidConfig, "front_carriage.ssd_input"},
		{"negative ssd", func(p *config.Params) { p.MiddleCarriage.SSDInput = config.PtrFloat64(-1) }, calcerr.ErrInvalidConfig, "middle_carriage.ssd_input"},
		{"mask shape", func(p *config.Params) { p.FrontTopPanel.Mask = [][]int{{0, 1}} }, calcerr.ErrInvalidConfig, "front_top_panel.mask"},
		{"tube width", func(p *config.Params) { p.FrontRightPanel.TubeWidth = config.PtrFloat64(0) }, calcerr.ErrInvalidConfig, "front_right_panel.tube_width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := preset(t, "19m")
			tt.mutate(p)
			_, err := Resolve(p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			assert.Equal(t, tt.path, errPath(t, err))
		})
	}
}

func TestResolveEmptyUsesDefaultPreset(t *testing.T) {
	s, err := Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPreset, s.Preset)
	assert.Equal(t, DefaultLambda, s.Lambda)
	assert.Equal(t, DefaultLambdaWidth, s.LambdaWidth)
	assert.Equal(t, Huber, s.SampleSpace)
	assert.Equal(t, 1911.0, s.Middle.SSD)
	for side := Left; side <= Bottom; side++ {
		require.NotNil(t, s.Middle.Panels[side])
		require.NotNil(t, s.Front.Panels[side])
	}
}

func TestChamberSampleSpace(t *testing.T) {
	p := preset(t, "11m")
	p.Collimation.SampleSpace = config.PtrString(Chamber)
	s, err := Resolve(p)
	require.NoError(t, err)
	assert.InDelta(t, 1151.9, s.Middle.SSD, 1e-9)
	assert.InDelta(t, 1162.9, s.Middle.L2, 1e-9)
	assert.InDelta(t, 301.9, s.Front.SSD, 1e-9)
}

func TestGraphiteNarrowsBand(t *testing.T) {
	p := preset(t, "19m")
	p.Beam.Monochromator = config.PtrString(Graphite)
	p.Beam.LambdaWidth = nil
	s, err := Resolve(p)
	require.NoError(t, err)
	assert.Equal(t, GraphiteLambdaWidth, s.LambdaWidth)
}

func TestCarriageAverage(t *testing.T) {
	out, _, err := Compute(context.Background(), preset(t, "19m"), model.Builtin{})
	require.NoError(t, err)

	usable := (DefaultNumTubes - 2*templateBorder) * (DefaultNumPixels - 2*templateBorder)
	for _, c := range []CarriageOutput{out.Middle, out.Front} {
		require.Len(t, c.Panels, 4)
		for _, p := range c.Panels {
			assert.Equal(t, usable, p.Usable, p.Name)
			assert.Len(t, p.Intensity, DefaultNumTubes)
			assert.Len(t, p.Intensity[0], DefaultNumPixels)
		}
		avg := c.Average
		require.NotNil(t, avg)
		assert.InDelta(t, float64(4*usable), avg.TotalCells(), 1e-9)
		for k := range avg.Q {
			if avg.NCells[k] > 1 {
				assert.Greater(t, avg.Intensity[k], 0.0)
				assert.GreaterOrEqual(t, avg.SigmaQ[k], c.DQ.Wavelength*avg.Q[k])
			}
		}
	}
	assert.Zero(t, out.Middle.Average.FSubs[0])
	for _, f := range out.Front.Average.FSubs {
		assert.Equal(t, 1.0, f)
	}
}

func TestOuterMaskKeepsPixelsOtherPanelsUse(t *testing.T) {
	p := preset(t, "19m")
	full := make([][]int, DefaultNumTubes)
	for i := range full {
		full[i] = make([]int, DefaultNumPixels)
		for j := range full[i] {
			full[i][j] = 1
		}
	}
	p.MiddleLeftPanel.Mask = full

	out, _, err := Compute(context.Background(), p, model.Builtin{})
	require.NoError(t, err)
	assert.Zero(t, out.Middle.Panels[0].Usable)

	want := denseRows(templateMask(DefaultNumTubes, DefaultNumPixels))
	if diff := cmp.Diff(want, out.Middle.OuterMask); diff != "" {
		t.Errorf("middle outer mask mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0.0, out.Middle.OuterMask[10][10])
	assert.Equal(t, 1.0, out.Middle.OuterMask[0][10])
	assert.Equal(t, want, out.Front.OuterMask)
}

func TestOuterMask(t *testing.T) {
	newMaps := func(masks ...[]float64) [4]*PanelMaps {
		var maps [4]*PanelMaps
		for i := range maps {
			maps[i] = &PanelMaps{Mask: mat.NewDense(2, 2, masks[i])}
		}
		return maps
	}

	t.Run("all masked stays masked", func(t *testing.T) {
		got := outerMask(newMaps(
			[]float64{1, 1, 0, 1},
			[]float64{1, 0, 1, 1},
			[]float64{1, 1, 1, 1},
			[]float64{1, 1, 1, 0},
		))
		assert.Equal(t, [][]float64{{1, 0}, {0, 0}}, denseRows(got))
	})

	t.Run("mismatched shapes", func(t *testing.T) {
		maps := newMaps([]float64{1, 1, 1, 1}, []float64{1, 1, 1, 1}, []float64{1, 1, 1, 1}, []float64{1, 1, 1, 1})
		maps[Top] = &PanelMaps{Mask: mat.NewDense(3, 2, nil)}
		assert.Nil(t, outerMask(maps))
	})
}

func TestComputeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Compute(ctx, preset(t, "19m"), model.Builtin{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComputeModelFailure(t *testing.T) {
	p := preset(t, "4.5m")
	p.Model = &config.Model{Name: config.PtrString("no_such_model")}
	_, _, err := Compute(context.Background(), p, model.Builtin{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrModelFailure))
	assert.Equal(t, "model.name", errPath(t, err))
}
