package chart

import (
	"bytes"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viktsys/varbreach/models"
	"github.com/viktsys/varbreach/risk"
	"go.uber.org/zap"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func syntheticPrices(n int, seed int64) []models.PriceObservation {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

	prices := make([]models.PriceObservation, n)
	p := 100.0
	for i := range prices {
		prices[i] = models.PriceObservation{Date: start.AddDate(0, 0, i), Price: p}
		p *= math.Exp(rng.NormFloat64() * 0.015)
	}
	return prices
}

func TestRenderAll(t *testing.T) {
	res, err := risk.Run(syntheticPrices(600, 1), risk.DefaultParams())
	require.NoError(t, err)
	require.NotEmpty(t, res.Flags)

	dir := filepath.Join(t.TempDir(), "charts")
	r := NewRenderer(dir, zap.NewNop())
	r.DPI = 72

	paths, err := r.RenderAll(res)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "01_close_price.png"),
		filepath.Join(dir, "02_returns_hist.png"),
		filepath.Join(dir, "03_rolling_vol_20d.png"),
		filepath.Join(dir, "04_var_breaches_250d.png"),
	}, paths)

	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is not a PNG", p)
	}
}

func TestRenderAllSkipsEmptyCharts(t *testing.T) {
	res, err := risk.Run(syntheticPrices(10, 2), risk.DefaultParams())
	require.NoError(t, err)
	require.True(t, res.Insufficient())

	dir := t.TempDir()
	paths, err := NewRenderer(dir, zap.NewNop()).RenderAll(res)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "01_close_price.png"),
		filepath.Join(dir, "02_returns_hist.png"),
	}, paths)
}

func TestRenderConstantSeries(t *testing.T) {
	prices := syntheticPrices(300, 3)
	for i := range prices {
		prices[i].Price = 50
	}
	res, err := risk.Run(prices, risk.DefaultParams())
	require.NoError(t, err)

	paths, err := NewRenderer(t.TempDir(), zap.NewNop()).RenderAll(res)
	require.NoError(t, err)
	assert.Len(t, paths, 4)
}
