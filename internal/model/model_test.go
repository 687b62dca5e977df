package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sans.calculator/internal/calcerr"
	"github.com/banshee-data/sans.calculator/internal/monitoring"
)

func TestEvaluateReplacesNonFinite(t *testing.T) {
	monitoring.SetLogger(nil)
	defer monitoring.SetLogger(nil)

	p := ProviderFunc(func(_ string, _ map[string]float64, q []float64) ([]float64, error) {
		return []float64{1, math.Inf(1), math.NaN(), math.Inf(-1)}, nil
	})
	got, err := Evaluate(p, "anything", nil, []float64{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, InfSentinel, NaNSentinel, InfSentinel}, got)
}

func TestEvaluateFailures(t *testing.T) {
	tests := []struct {
		name string
		p    Provider
	}{
		{"nil provider", nil},
		{"provider error", ProviderFunc(func(string, map[string]float64, []float64) ([]float64, error) {
			return nil, errors.New("evaluator crashed")
		})},
		{"short result", ProviderFunc(func(string, map[string]float64, []float64) ([]float64, error) {
			return []float64{1}, nil
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.p, "sphere", nil, []float64{0.1, 0.2})
			require.Error(t, err)
			assert.True(t, errors.Is(err, calcerr.ErrModelFailure))
			var ce *calcerr.Error
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "model.name", ce.Path)
		})
	}
}

func TestEvaluate2DKeepsShape(t *testing.T) {
	q := [][]float64{{0.01, 0.02, 0.03}, {0.04, 0.05, 0.06}}
	got, err := Evaluate2D(Builtin{}, "flat", map[string]float64{"scale": 2}, q)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, row := range got {
		assert.Equal(t, []float64{2, 2, 2}, row)
	}
}

func TestBuiltinForms(t *testing.T) {
	q := []float64{0, 0.001, 0.01, 0.1}

	t.Run("sphere forward scattering", func(t *testing.T) {
		got, err := Builtin{}.Intensity("sphere", map[string]float64{"background": 0}, q)
		require.NoError(t, err)
		r := 50.0
		vol := 4.0 / 3.0 * math.Pi * r * r * r
		want := 1e-4 * 25 * vol
		assert.InDelta(t, want, got[0], want*1e-9)
		for i := 1; i < len(got); i++ {
			assert.Less(t, got[i], got[i-1], "sphere should fall off at low q")
		}
	})

	t.Run("guinier at zero", func(t *testing.T) {
		got, err := Builtin{}.Intensity("guinier", map[string]float64{"scale": 3, "background": 0}, q[:1])
		require.NoError(t, err)
		assert.Equal(t, 3.0, got[0])
	})

	t.Run("gaussian coil limit", func(t *testing.T) {
		got, err := Builtin{}.Intensity("gaussian_coil", map[string]float64{"background": 0}, q[:1])
		require.NoError(t, err)
		assert.Equal(t, 70.0, got[0])
	})

	t.Run("power law diverges at zero", func(t *testing.T) {
		got, err := Evaluate(Builtin{}, "power_law", nil, q)
		require.NoError(t, err)
		assert.Equal(t, InfSentinel, got[0])
	})

	t.Run("unknown parameter ignored", func(t *testing.T) {
		a, err := Builtin{}.Intensity("lorentz", nil, q)
		require.NoError(t, err)
		b, err := Builtin{}.Intensity("lorentz", map[string]float64{"bogus": 9}, q)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("unknown model", func(t *testing.T) {
		_, err := Evaluate(Builtin{}, "cylinder", nil, q)
		assert.True(t, errors.Is(err, calcerr.ErrModelFailure))
	})
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"flat", "gaussian_coil", "guinier", "lorentz", "power_law", "sphere"}, Names())
	f, ok := Lookup("sphere")
	require.True(t, ok)
	assert.Equal(t, 50.0, f.Defaults["radius"])
}
