package vsans

import (
	"github.com/banshee-data/sans.calculator/internal/calcerr"
	"github.com/banshee-data/sans.calculator/internal/config"
)

// Sample environments.
const (
	Huber   = "Huber"
	Chamber = "Chamber"
)

// sampleSpace holds the sample-to-gate-valve and sample-aperture-to-gate-valve
// distances (cm) of a sample environment.
type sampleSpace struct {
	SampleToGV   float64
	SampleApToGV float64
}

var sampleSpaces = map[string]sampleSpace{
	Huber:   {SampleToGV: 11.0, SampleApToGV: 22.0},
	Chamber: {SampleToGV: 51.9, SampleApToGV: 62.9},
}

// DefaultSetback is how far the horizontal panels sit behind the vertical
// ones on each carriage (cm).
const DefaultSetback = 41.0

// Carriage is a resolved detector carriage. Distances in cm.
type Carriage struct {
	ID          CarriageID
	SSDInput    float64
	SSD         float64
	L2          float64
	Setback     float64
	BeamCenterX float64
	BeamCenterY float64
	Panels      [4]*PanelSpec
}

// Name is the parameter key of the carriage, e.g. "middle_carriage".
func (c *Carriage) Name() string { return c.ID.String() + "_carriage" }

// Distance is the sample-to-panel distance used for panel Q; horizontal
// panels sit Setback further back.
func (c *Carriage) Distance(side Side) float64 {
	if side.Horizontal() {
		return c.SSD + c.Setback
	}
	return c.SSD
}

func resolveCarriage(id CarriageID, cfg *config.Carriage, presetSSD float64, space sampleSpace) (*Carriage, error) {
	if cfg == nil {
		cfg = &config.Carriage{}
	}
	c := &Carriage{ID: id}
	c.SSDInput = config.GetFloat(cfg.SSDInput, presetSSD)
	if c.SSDInput <= 0 {
		return nil, calcerr.InvalidConfig(c.Name()+".ssd_input", "must be positive, got %g", c.SSDInput)
	}
	c.SSD = c.SSDInput + space.SampleToGV
	c.L2 = c.SSDInput + space.SampleApToGV
	c.Setback = config.GetFloat(cfg.Setback, DefaultSetback)
	c.BeamCenterX = config.GetFloat(cfg.BeamCenterX, 0)
	c.BeamCenterY = config.GetFloat(cfg.BeamCenterY, 0)
	return c, nil
}

// ref returns the beam position along the axis a side's offset moves.
func (c *Carriage) ref(side Side) float64 {
	if side.Horizontal() {
		return c.BeamCenterY
	}
	return c.BeamCenterX
}
