// Package calculator is the single entry point for a compute request. It
// picks the instrument implementation for a tag, runs it and flattens the
// outcome into the result document clients consume.
package calculator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/sans.calculator/internal/averager"
	"github.com/banshee-data/sans.calculator/internal/calcerr"
	"github.com/banshee-data/sans.calculator/internal/config"
	"github.com/banshee-data/sans.calculator/internal/instrument"
	"github.com/banshee-data/sans.calculator/internal/model"
	"github.com/banshee-data/sans.calculator/internal/monitoring"
	"github.com/banshee-data/sans.calculator/internal/qrange"
	"github.com/banshee-data/sans.calculator/internal/vsans"
)

// Instrument tags outside the SANS variant table.
const (
	TagVSANS        = "vsans"
	TagNoInstrument = "no_instrument"
)

// Tags lists every accepted instrument tag, sorted.
func Tags() []string {
	tags := append(instrument.Tags(), TagVSANS, TagNoInstrument)
	sort.Strings(tags)
	return tags
}

// Derived is the read-only part of a result: the echoed request and the
// quantities computed along the way.
type Derived struct {
	RequestID  string         `json:"request_id"`
	Instrument string         `json:"instrument"`
	Params     *config.Params `json:"params"`
	Ignored    []string       `json:"ignored_parameters,omitempty"`

	SANS   *instrument.Output `json:"sans,omitempty"`
	VSANS  *vsans.Output      `json:"vsans,omitempty"`
	QRange *qrange.Range      `json:"q_range,omitempty"`
}

// Result is the outbound document of one compute call.
type Result struct {
	QValues     []float64   `json:"qValues"`
	FSubs       []float64   `json:"fSubs"`
	QxValues    []float64   `json:"qxValues,omitempty"`
	QyValues    []float64   `json:"qyValues,omitempty"`
	Intensity2D [][]float64 `json:"intensity2D,omitempty"`
	Intensity1D []float64   `json:"intensity1D"`
	SigmaI      []float64   `json:"sigmaI,omitempty"`
	QBar        []float64   `json:"qBar,omitempty"`
	SigmaQ      []float64   `json:"sigmaQ"`
	NCells      []float64   `json:"nCells,omitempty"`

	Panels []vsans.PanelOutput `json:"panels,omitempty"`

	UserInaccessible Derived        `json:"user_inaccessible"`
	Options          config.Options `json:"options"`
}

// Compute validates params and runs the instrument named by tag. The options
// are also returned on their own so callers can act on them without
// unpacking the result.
func Compute(ctx context.Context, tag string, params *config.Params, provider model.Provider) (*Result, config.Options, error) {
	if params == nil {
		params = &config.Params{}
	}
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}
	tag = strings.ToLower(strings.TrimSpace(tag))
	id := uuid.New().String()
	start := time.Now()

	res := &Result{
		Options:          config.Options{},
		UserInaccessible: Derived{RequestID: id, Instrument: tag, Params: params},
	}
	var err error
	switch tag {
	case TagVSANS:
		err = res.fromVSANS(ctx, params, provider)
	case TagNoInstrument:
		err = res.fromQRange(ctx, params, provider)
	default:
		var v *instrument.Variant
		if v, err = instrument.Lookup(tag); err != nil {
			return nil, nil, &calcerr.Error{
				Kind:      calcerr.KindInvalidConfig,
				Path:      "instrument",
				Msg:       fmt.Sprintf("unknown instrument %q", tag),
				Suggested: strings.Join(Tags(), ", "),
				Err:       err,
			}
		}
		err = res.fromSANS(ctx, v, params, provider)
	}
	if err != nil {
		monitoring.Logf("calculator: %s request %s failed: %v", tag, id, err)
		return nil, nil, err
	}
	monitoring.Debugf("calculator: %s request %s computed %d points in %s", tag, id, len(res.QValues), time.Since(start))
	return res, res.Options, nil
}

func (r *Result) fromSANS(ctx context.Context, v *instrument.Variant, p *config.Params, provider model.Provider) error {
	out, err := instrument.Compute(ctx, v, p, provider)
	if err != nil {
		return err
	}
	r.QxValues = out.QxValues
	r.QyValues = out.QyValues
	r.Intensity2D = out.Intensity2D
	r.setAverage(out.Average)
	r.UserInaccessible.SANS = out
	return nil
}

func (r *Result) fromQRange(ctx context.Context, p *config.Params, provider model.Provider) error {
	out, err := qrange.Compute(ctx, p, provider)
	if err != nil {
		return err
	}
	r.QValues = out.QValues
	r.FSubs = out.FSubs
	r.QxValues = out.QxValues
	r.QyValues = out.QyValues
	r.Intensity2D = out.Intensity2D
	r.Intensity1D = out.Intensity1D
	r.SigmaQ = out.SigmaQ
	r.UserInaccessible.QRange = &out.Range
	return nil
}

func (r *Result) fromVSANS(ctx context.Context, p *config.Params, provider model.Provider) error {
	out, opts, err := vsans.Compute(ctx, p, provider)
	if err != nil {
		return err
	}
	for k, o := range opts {
		r.Options[k] = o
	}
	r.Panels = append(append(r.Panels, out.Middle.Panels...), out.Front.Panels...)
	r.setAverage(mergeAverages(out.Middle.Average, out.Front.Average))

	summary := *out
	summary.Middle.Panels = nil
	summary.Front.Panels = nil
	r.UserInaccessible.VSANS = &summary
	return nil
}

func (r *Result) setAverage(a *averager.Result) {
	r.QValues = a.Q
	r.FSubs = a.FSubs
	r.Intensity1D = a.Intensity
	r.SigmaI = a.SigmaI
	r.QBar = a.QBar
	r.SigmaQ = a.SigmaQ
	r.NCells = a.NCells
}

// mergeAverages interleaves the populated bins of several averages by Q.
func mergeAverages(parts ...*averager.Result) *averager.Result {
	type bin struct {
		part *averager.Result
		k    int
	}
	var bins []bin
	for _, p := range parts {
		for k, n := range p.NCells {
			if n > 0 {
				bins = append(bins, bin{p, k})
			}
		}
	}
	sort.SliceStable(bins, func(i, j int) bool {
		return bins[i].part.Q[bins[i].k] < bins[j].part.Q[bins[j].k]
	})

	out := &averager.Result{}
	for _, b := range bins {
		p, k := b.part, b.k
		out.Q = append(out.Q, p.Q[k])
		out.Intensity = append(out.Intensity, p.Intensity[k])
		out.SigmaI = append(out.SigmaI, p.SigmaI[k])
		out.QBar = append(out.QBar, p.QBar[k])
		out.SigmaQ = append(out.SigmaQ, p.SigmaQ[k])
		out.FSubs = append(out.FSubs, p.FSubs[k])
		out.NCells = append(out.NCells, p.NCells[k])
	}
	return out
}
