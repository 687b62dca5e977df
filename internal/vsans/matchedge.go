package vsans

import (
	"math"

	"github.com/banshee-data/sans.calculator/internal/config"
)

// edges returns the middle panel's outer edge and the front panel's inner
// edge along the axis the panels move on, for a side.
func edges(side Side, middle, front Bounds) (middleEdge, frontEdge float64) {
	switch side {
	case Left:
		return middle.XMin, front.XMax
	case Right:
		return middle.XMax, front.XMin
	case Top:
		return middle.YMax, front.YMin
	default:
		return middle.YMin, front.YMax
	}
}

// MatchEdge returns the offset that places the front panel's inner edge on
// the line from the sample through the outer edge of the middle panel on the
// same side. Horizontal panels use their carriage's setback distance.
func MatchEdge(front *PanelSpec, frontCar *Carriage, middle *PanelSpec, midCar *Carriage) float64 {
	side := front.Side
	midEdge, _ := edges(side, middle.BoundsAt(middle.Offset), Bounds{})
	_, frontEdge0 := edges(side, Bounds{}, front.BoundsAt(0))

	angle := math.Atan2(midEdge-midCar.ref(side), midCar.Distance(side))
	desired := math.Tan(angle)*frontCar.Distance(side) + frontCar.ref(side)
	return desired - frontEdge0
}

// applyMatches derives the offsets of matched front panels and reports
// every front offset's read-only state.
func applyMatches(middle, front *Carriage, opts config.Options) {
	for _, side := range []Side{Left, Right, Top, Bottom} {
		fp := front.Panels[side]
		if fp.Match {
			fp.Offset = MatchEdge(fp, front, middle.Panels[side], middle)
		}
		slot := panelSlot{Carriage: Front, Side: side}
		opts.ReadOnly(slot.Name()+"+"+slot.offsetKey(), fp.Match)
	}
}
