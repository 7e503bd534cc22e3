package chart

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoPortfolioSim/internal/portfolio"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func sampleRun() *portfolio.Run {
	d0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 40
	run := &portfolio.Run{
		Timeframe:  portfolio.ThreeMonths,
		Investment: 1000,
		Coins:      []string{"BTC", "ETH"},
		Weights:    portfolio.Weights{"BTC": 0.5, "ETH": 0.5},
		Growth:     map[string][]float64{},
	}
	for i := 0; i < n; i++ {
		run.Dates = append(run.Dates, d0.AddDate(0, 0, i))
		run.Growth["BTC"] = append(run.Growth["BTC"], 1+float64(i)*0.01)
		run.Growth["ETH"] = append(run.Growth["ETH"], 1-float64(i)*0.005)
		run.Values = append(run.Values, 1000*(0.5*run.Growth["BTC"][i]+0.5*run.Growth["ETH"][i]))
	}
	run.FinalValue = run.Values[n-1]
	run.GrowthPct = (run.FinalValue/1000 - 1) * 100
	return run
}

func TestRender(t *testing.T) {
	r := NewRenderer()
	for _, opts := range []Options{{}, {PerAsset: true, Width: 900, Height: 500}} {
		img, err := r.Render(sampleRun(), opts)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(img, pngMagic), "%+v", opts)
	}
}

func TestRender_Cached(t *testing.T) {
	r := NewRenderer()
	run := sampleRun()
	first, err := r.Render(run, Options{})
	require.NoError(t, err)

	cached, ok := r.cache.get(cacheKey(run, Options{}))
	require.True(t, ok)
	assert.Equal(t, first, cached)

	_, ok = r.cache.get(cacheKey(run, Options{PerAsset: true}))
	assert.False(t, ok)
}

func TestRender_NoData(t *testing.T) {
	_, err := NewRenderer().Render(&portfolio.Run{}, Options{})
	assert.Error(t, err)
	_, err = NewRenderer().Render(nil, Options{})
	assert.Error(t, err)
}

func TestImageCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := newImageCache(time.Minute)
	c.now = func() time.Time { return now }

	c.set("k", []byte{1, 2, 3})
	img, ok := c.get("k")
	require.True(t, ok)
	img[0] = 9
	again, _ := c.get("k")
	assert.Equal(t, []byte{1, 2, 3}, again)

	now = now.Add(time.Minute)
	_, ok = c.get("k")
	assert.False(t, ok)
	assert.Empty(t, c.entries)
}

func TestRenderGrowth(t *testing.T) {
	r := NewRenderer()
	run := sampleRun()
	img, err := r.RenderGrowth(run, Options{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	value, err := r.Render(run, Options{})
	require.NoError(t, err)
	assert.NotEqual(t, img, value, "growth and value charts use separate cache entries")

	_, err = r.RenderGrowth(&portfolio.Run{}, Options{})
	assert.Error(t, err)
}
