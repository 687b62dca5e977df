package vsans

import (
	"fmt"
	"sort"

	"github.com/banshee-data/sans.calculator/internal/config"
)

// Preset is a standard VSANS configuration. Distances in cm.
type Preset struct {
	Name           string
	SourceDistance float64
	NumGuides      int
	SourceAperture float64
	MiddleSSD      float64
	FrontSSD       float64
}

var presets = map[string]Preset{
	"19m":  {Name: "19m", SourceDistance: 2441, NumGuides: 0, SourceAperture: 6.0, MiddleSSD: 1900, FrontSSD: 400},
	"16m":  {Name: "16m", SourceDistance: 2157, NumGuides: 2, SourceAperture: 6.0, MiddleSSD: 1600, FrontSSD: 400},
	"11m":  {Name: "11m", SourceDistance: 1627, NumGuides: 4, SourceAperture: 6.0, MiddleSSD: 1100, FrontSSD: 250},
	"4.5m": {Name: "4.5m", SourceDistance: 1034, NumGuides: 7, SourceAperture: 6.0, MiddleSSD: 450, FrontSSD: 100},
}

// DefaultPreset is used when a request names none.
const DefaultPreset = "19m"

// LookupPreset returns the named preset.
func LookupPreset(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown VSANS preset %q (valid: %v)", name, PresetNames())
	}
	return p, nil
}

// PresetNames lists the presets from longest to shortest configuration.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		return presets[names[i]].SourceDistance > presets[names[j]].SourceDistance
	})
	return names
}

// PresetParams re-emits a complete parameter tree for a preset, including
// the default panel layout, so a client can replace its whole form.
func PresetParams(name string) (*config.Params, error) {
	pr, err := LookupPreset(name)
	if err != nil {
		return nil, err
	}
	p := &config.Params{
		Preset: config.PtrString(pr.Name),
		Beam: &config.Beam{
			Lambda:        config.PtrFloat64(DefaultLambda),
			LambdaWidth:   config.PtrFloat64(DefaultLambdaWidth),
			Units:         config.PtrString("Å"),
			Monochromator: config.PtrString(VelocitySelector),
		},
		Collimation: &config.Collimation{
			SourceAperture: &config.Aperture{Diameter: config.PtrFloat64(pr.SourceAperture), Units: config.PtrString("cm")},
			SampleAperture: &config.Aperture{Diameter: config.PtrFloat64(DefaultSampleAperture), Units: config.PtrString("cm")},
			Guides:         &config.Guides{NumberOfGuides: config.PtrInt(pr.NumGuides)},
			SampleSpace:    config.PtrString(Huber),
			SourceDistance: config.PtrFloat64(pr.SourceDistance),
		},
		MiddleCarriage: &config.Carriage{
			SSDInput:    config.PtrFloat64(pr.MiddleSSD),
			Setback:     config.PtrFloat64(DefaultSetback),
			BeamCenterX: config.PtrFloat64(0),
			BeamCenterY: config.PtrFloat64(0),
		},
		FrontCarriage: &config.Carriage{
			SSDInput:    config.PtrFloat64(pr.FrontSSD),
			Setback:     config.PtrFloat64(DefaultSetback),
			BeamCenterX: config.PtrFloat64(0),
			BeamCenterY: config.PtrFloat64(0),
		},
	}
	for _, slot := range panelSlots {
		def := defaultPanel(slot)
		cfg := &config.Panel{
			Calibration: []float64{def.Calibration[0], def.Calibration[1], def.Calibration[2]},
			CtrOffset:   config.PtrFloat64(def.CtrOffset),
			TubeWidth:   config.PtrFloat64(def.TubeWidth),
			NumTubes:    config.PtrInt(def.NumTubes),
			NumPixels:   config.PtrInt(def.NumPixels),
			Gap:         config.PtrFloat64(def.Gap),
		}
		if slot.Side.Horizontal() {
			cfg.VerticalOffset = config.PtrFloat64(def.Offset)
		} else {
			cfg.LateralOffset = config.PtrFloat64(def.Offset)
		}
		if slot.Carriage == Front {
			cfg.Match = config.PtrBool(false)
		}
		*slot.field(p) = cfg
	}
	return p, nil
}
