package vsans

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/sans.calculator/internal/calcerr"
	"github.com/banshee-data/sans.calculator/internal/config"
)

// Side is a panel's position around the beam.
type Side int

const (
	Left Side = iota
	Right
	Top
	Bottom
)

var sideNames = [...]string{"left", "right", "top", "bottom"}

func (s Side) String() string { return sideNames[s] }

// Horizontal reports whether the panel's tubes run horizontally.
func (s Side) Horizontal() bool { return s == Top || s == Bottom }

// lowSide reports whether the panel sits on the negative side of the beam.
func (s Side) lowSide() bool { return s == Left || s == Bottom }

// CarriageID identifies a detector carriage.
type CarriageID int

const (
	Middle CarriageID = iota
	Front
)

func (c CarriageID) String() string {
	if c == Front {
		return "front"
	}
	return "middle"
}

// Panel defaults. Calibration, tube width, gap and centre offset are in mm.
const (
	DefaultNumTubes  = 48
	DefaultNumPixels = 128
	DefaultTubeWidth = 8.4
	DefaultGap       = 3.5
)

var (
	verticalCalibration   = [3]float64{-521, 8.14, 0}
	horizontalCalibration = [3]float64{-266, 4.16, 0}
)

// panelSlot binds a carriage/side pair to its parameter-tree field.
type panelSlot struct {
	Carriage CarriageID
	Side     Side
	field    func(p *config.Params) **config.Panel
}

// Name is the parameter key of the panel, e.g. "front_left_panel".
func (s panelSlot) Name() string {
	return s.Carriage.String() + "_" + s.Side.String() + "_panel"
}

// offsetKey is the parameter name of the panel's movable offset.
func (s panelSlot) offsetKey() string {
	if s.Side.Horizontal() {
		return "vertical_offset"
	}
	return "lateral_offset"
}

var panelSlots = []panelSlot{
	{Middle, Left, func(p *config.Params) **config.Panel { return &p.MiddleLeftPanel }},
	{Middle, Right, func(p *config.Params) **config.Panel { return &p.MiddleRightPanel }},
	{Middle, Top, func(p *config.Params) **config.Panel { return &p.MiddleTopPanel }},
	{Middle, Bottom, func(p *config.Params) **config.Panel { return &p.MiddleBottomPanel }},
	{Front, Left, func(p *config.Params) **config.Panel { return &p.FrontLeftPanel }},
	{Front, Right, func(p *config.Params) **config.Panel { return &p.FrontRightPanel }},
	{Front, Top, func(p *config.Params) **config.Panel { return &p.FrontTopPanel }},
	{Front, Bottom, func(p *config.Params) **config.Panel { return &p.FrontBottomPanel }},
}

// PanelSpec is a resolved panel. Offset is in cm; calibration, tube width,
// gap and centre offset in mm.
type PanelSpec struct {
	Carriage    CarriageID
	Side        Side
	Offset      float64
	Match       bool
	Calibration [3]float64
	CtrOffset   float64
	TubeWidth   float64
	Gap         float64
	NumTubes    int
	NumPixels   int
	UserMask    [][]int
}

// Name is the parameter key of the panel.
func (p *PanelSpec) Name() string {
	return panelSlot{Carriage: p.Carriage, Side: p.Side}.Name()
}

func defaultPanel(slot panelSlot) PanelSpec {
	spec := PanelSpec{
		Carriage:    slot.Carriage,
		Side:        slot.Side,
		Calibration: verticalCalibration,
		TubeWidth:   DefaultTubeWidth,
		Gap:         DefaultGap,
		NumTubes:    DefaultNumTubes,
		NumPixels:   DefaultNumPixels,
	}
	if slot.Side.Horizontal() {
		spec.Calibration = horizontalCalibration
	}
	offset := 6.0
	if slot.Carriage == Front {
		offset = 10.0
	}
	if slot.Side.lowSide() {
		offset = -offset
	}
	spec.Offset = offset
	return spec
}

func resolvePanel(slot panelSlot, cfg *config.Panel) (*PanelSpec, error) {
	spec := defaultPanel(slot)
	if cfg == nil {
		return &spec, nil
	}
	if slot.Side.Horizontal() {
		spec.Offset = config.GetFloat(cfg.VerticalOffset, spec.Offset)
	} else {
		spec.Offset = config.GetFloat(cfg.LateralOffset, spec.Offset)
	}
	spec.Match = config.GetBool(cfg.Match, false)
	if slot.Carriage == Middle && spec.Match {
		return nil, calcerr.InvalidConfig(slot.Name()+".match", "only front panels can be matched to the middle carriage")
	}
	if len(cfg.Calibration) == 3 {
		copy(spec.Calibration[:], cfg.Calibration)
	}
	spec.CtrOffset = config.GetFloat(cfg.CtrOffset, spec.CtrOffset)
	spec.TubeWidth = config.GetFloat(cfg.TubeWidth, spec.TubeWidth)
	spec.Gap = config.GetFloat(cfg.Gap, spec.Gap)
	spec.NumTubes = config.GetInt(cfg.NumTubes, spec.NumTubes)
	spec.NumPixels = config.GetInt(cfg.NumPixels, spec.NumPixels)
	if spec.NumTubes <= 0 || spec.NumPixels <= 0 {
		return nil, calcerr.InvalidConfig(slot.Name(), "panel needs at least one tube and pixel, got %d×%d", spec.NumTubes, spec.NumPixels)
	}
	if spec.TubeWidth <= 0 {
		return nil, calcerr.InvalidConfig(slot.Name()+".tube_width", "must be positive, got %g", spec.TubeWidth)
	}
	if cfg.Mask != nil {
		if len(cfg.Mask) != spec.NumTubes {
			return nil, calcerr.InvalidConfig(slot.Name()+".mask", "mask has %d rows, panel has %d tubes", len(cfg.Mask), spec.NumTubes)
		}
		for i, row := range cfg.Mask {
			if len(row) != spec.NumPixels {
				return nil, calcerr.InvalidConfig(slot.Name()+".mask", "mask row %d has %d entries, panel has %d pixels", i, len(row), spec.NumPixels)
			}
		}
		spec.UserMask = cfg.Mask
	}
	return &spec, nil
}

// zeroPos is the tube-axis origin of the panel in mm.
func (p *PanelSpec) zeroPos() float64 {
	if p.Side.lowSide() {
		return -(p.Gap/2 + float64(p.NumTubes)*p.TubeWidth)
	}
	return p.Gap / 2
}

// Coordinates returns the real-space pixel-centre positions in cm, before
// the panel offset, as NumTubes×NumPixels matrices.
//
// Along the tubes the position follows the calibration polynomial
// a0 − ctr_offset + a1·p + a2·p². Across the tubes it is
// (t + 0.5)·tube_width + zero_pos − ctr_offset. Horizontal panels swap the
// two axes.
func (p *PanelSpec) Coordinates() (x, y *mat.Dense) {
	across := make([]float64, p.NumTubes)
	for t := range across {
		across[t] = (float64(t)+0.5)*p.TubeWidth + p.zeroPos() - p.CtrOffset
	}
	along := make([]float64, p.NumPixels)
	a := p.Calibration
	for i := range along {
		pix := float64(i)
		along[i] = a[0] - p.CtrOffset + a[1]*pix + a[2]*pix*pix
	}
	floats.Scale(0.1, across)
	floats.Scale(0.1, along)

	tubeAxis := mat.NewDense(p.NumTubes, p.NumPixels, nil)
	pixelAxis := mat.NewDense(p.NumTubes, p.NumPixels, nil)
	tubeAxis.Apply(func(t, _ int, _ float64) float64 { return across[t] }, tubeAxis)
	pixelAxis.Apply(func(_, i int, _ float64) float64 { return along[i] }, pixelAxis)

	if p.Side.Horizontal() {
		return pixelAxis, tubeAxis
	}
	return tubeAxis, pixelAxis
}

// Bounds are the panel's coordinate extremes in cm.
type Bounds struct {
	XMin, XMax, YMin, YMax float64
}

// BoundsAt returns the panel extremes with the given offset applied along
// its movable axis.
func (p *PanelSpec) BoundsAt(offset float64) Bounds {
	x, y := p.Coordinates()
	b := Bounds{XMin: mat.Min(x), XMax: mat.Max(x), YMin: mat.Min(y), YMax: mat.Max(y)}
	if p.Side.Horizontal() {
		b.YMin += offset
		b.YMax += offset
	} else {
		b.XMin += offset
		b.XMax += offset
	}
	return b
}

// QExtents are a panel's signed Q bounds (Å⁻¹).
type QExtents struct {
	QxMin float64 `json:"qx_min"`
	QxMax float64 `json:"qx_max"`
	QyMin float64 `json:"qy_min"`
	QyMax float64 `json:"qy_max"`
}

// extents converts bounds to Q for a panel at distance ssd from the sample
// with the beam at (refX, refY).
func extents(b Bounds, lambda, ssd, refX, refY float64) QExtents {
	q := func(coord float64) float64 {
		return 4 * math.Pi / lambda * math.Sin(0.5*math.Atan2(coord, ssd))
	}
	return QExtents{
		QxMin: q(b.XMin - refX),
		QxMax: q(b.XMax - refX),
		QyMin: q(b.YMin - refY),
		QyMax: q(b.YMax - refY),
	}
}
