package vsans

import (
	"math"

	"github.com/banshee-data/sans.calculator/internal/averager"
	"github.com/banshee-data/sans.calculator/internal/calcerr"
)

// averageCarriage bins the unmasked pixels of a carriage's four panels by
// |Q| in steps of one tube width at the carriage distance. Pixels below
// qShadow fall behind the beam stop and get f_s = 0.
func averageCarriage(c *Carriage, maps [4]*PanelMaps, dq DQRecord, lambda, qShadow float64) (*averager.Result, error) {
	step := averager.QAtRadius(c.Panels[Left].TubeWidth/10, c.SSD, lambda)
	if !(step > 0) {
		return nil, calcerr.NumericDegenerate("vsans.q_step", "%s Q step must be positive, got %g", c.Name(), step)
	}

	acc := &averager.Bins{}
	for _, m := range maps {
		rows, cols := m.QTot.Dims()
		for t := 0; t < rows; t++ {
			for i := 0; i < cols; i++ {
				if m.Mask.At(t, i) != 0 {
					continue
				}
				k := int(math.Floor(m.QTot.At(t, i) / step))
				acc.Add(k, 1, m.Intensity.At(t, i))
			}
		}
	}
	if acc.Len() == 0 {
		return nil, calcerr.NumericDegenerate("vsans.average", "%s has no unmasked pixels", c.Name())
	}

	n := acc.Len()
	res := &averager.Result{
		Q:      make([]float64, n),
		QBar:   make([]float64, n),
		SigmaQ: make([]float64, n),
		FSubs:  make([]float64, n),
	}
	res.NCells, res.Intensity, res.SigmaI = acc.Stats()
	for k := range res.Q {
		q := (float64(k) + 0.5) * step
		res.Q[k] = q
		res.QBar[k] = q
		res.SigmaQ[k] = q * math.Sqrt(sq(dq.Geometric/q)+sq(dq.Wavelength)+0.5*sq(dq.Gravity/q))
		res.FSubs[k] = 1
		if q < qShadow {
			res.FSubs[k] = 0
		}
	}
	averager.ClampNonFinite(res)
	return res, nil
}

// shadowQ is the Q subtended by the beam-stop edge.
func shadowQ(lambda, twoThetaMin float64) float64 {
	return 4 * math.Pi / lambda * math.Sin(twoThetaMin/2)
}
