package qrange

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sans.calculator/internal/calcerr"
	"github.com/banshee-data/sans.calculator/internal/config"
	"github.com/banshee-data/sans.calculator/internal/model"
)

func TestLogSpacing(t *testing.T) {
	r, err := Resolve(&config.QRange{
		Points:       config.PtrInt(5),
		QMin:         config.PtrFloat64(1e-2),
		QMax:         config.PtrFloat64(1),
		PointSpacing: config.PtrString("log"),
	})
	require.NoError(t, err)

	q := r.Grid()
	require.Len(t, q, 5)
	want := []float64{0.01, math.Sqrt(10) / 100, 0.1, math.Sqrt(10) / 10, 1.0}
	for i := range want {
		assert.InEpsilon(t, want[i], q[i], 1e-12, "q[%d]", i)
	}
	assert.Equal(t, 0.01, q[0])
	assert.Equal(t, 1.0, q[4])
	assert.Equal(t, []float64{0, 1, 1, 1, 1}, r.Shadow(q))
}

func TestLinearSpacing(t *testing.T) {
	r, err := Resolve(&config.QRange{Points: config.PtrInt(3), QMin: config.PtrFloat64(0), QMax: config.PtrFloat64(0.2)})
	require.NoError(t, err)
	q := r.Grid()
	assert.InDeltaSlice(t, []float64{0, 0.1, 0.2}, q, 1e-15)
	assert.Equal(t, []float64{0, 1, 1}, r.Shadow(q))
}

func TestHoleGeometry(t *testing.T) {
	for _, n := range []int{5, 11, 21, 51, 101} {
		for _, qmin := range []float64{1e-4, 1e-3, 3e-3, 0.01, 0.05} {
			t.Run(fmt.Sprintf("n=%d qmin=%g", n, qmin), func(t *testing.T) {
				r := Range{QMin: qmin, QMax: 1, Points: n}
				base := int(math.Ceil(float64(n) * qmin * ArmToPoint))
				size := r.HoleSize()
				if base <= n {
					assert.Contains(t, []int{base, base + 1}, size)
				} else {
					assert.Equal(t, n, size)
				}
				assert.Equal(t, n%2, size%2)

				mask := r.Mask()
				start := (n - size) / 2
				zeros := 0
				for i := 0; i < n; i++ {
					for j := 0; j < n; j++ {
						inHole := i >= start && i < start+size && j >= start && j < start+size
						if inHole {
							assert.Equal(t, 0.0, mask[i][j])
							zeros++
						} else {
							assert.Equal(t, 1.0, mask[i][j])
						}
					}
				}
				assert.Equal(t, size*size, zeros)
				// centred: equal margins on both sides
				assert.Equal(t, start, n-start-size)
			})
		}
	}
}

func TestNoHoleWithoutQMin(t *testing.T) {
	r := Range{QMin: 0, QMax: 1, Points: 4}
	assert.Equal(t, 0, r.HoleSize())
	for _, row := range r.Mask() {
		assert.Equal(t, []float64{1, 1, 1, 1}, row)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		q       *config.QRange
		wantErr error
	}{
		{"one point", &config.QRange{Points: config.PtrInt(1)}, calcerr.ErrInvalidConfig},
		{"inverted range", &config.QRange{QMin: config.PtrFloat64(1), QMax: config.PtrFloat64(0.1)}, calcerr.ErrInvalidConfig},
		{"inverted qx", &config.QRange{QxMin: config.PtrFloat64(1), QxMax: config.PtrFloat64(-1)}, calcerr.ErrInvalidConfig},
		{"bad spacing", &config.QRange{PointSpacing: config.PtrString("sqrt")}, calcerr.ErrInvalidConfig},
		{"log from zero", &config.QRange{QMin: config.PtrFloat64(0), PointSpacing: config.PtrString("log")}, calcerr.ErrNumericDegenerate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.q)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestCompute(t *testing.T) {
	p := &config.Params{
		QRange: &config.QRange{Points: config.PtrInt(7), QMin: config.PtrFloat64(0.01), QMax: config.PtrFloat64(0.3)},
		Model:  &config.Model{Name: config.PtrString("flat"), Parameters: map[string]float64{"scale": 3}},
	}
	out, err := Compute(context.Background(), p, model.Builtin{})
	require.NoError(t, err)

	assert.Len(t, out.QValues, 7)
	assert.Len(t, out.QGrid, 7)
	assert.Equal(t, []float64{3, 3, 3, 3, 3, 3, 3}, out.Intensity1D)
	assert.InDelta(t, 0.05*0.3, out.SigmaQ[6], 1e-15)
	// qx and qy default to ±q_max, so the grid centre is Q = 0
	assert.InDelta(t, 0.0, out.QGrid[3][3], 1e-15)
	assert.InDelta(t, math.Hypot(0.3, 0.3), out.QGrid[0][0], 1e-15)
	// ⌈7·0.01·83.3⌉ = 6, bumped to 7 for odd parity
	assert.Equal(t, 7, out.HoleSize)
}

func TestComputeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Compute(ctx, nil, model.Builtin{})
	assert.ErrorIs(t, err, context.Canceled)
}
