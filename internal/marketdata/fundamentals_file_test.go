package marketdata

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFundamentals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fundamentals.yaml")
	doc := `
VOLV-B.ST:
  revenue_growth: 0.08
  roe: 0.24
  pays_dividend: true
BARE.ST:
  pays_dividend: false
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	f, err := LoadFundamentals(path)
	require.NoError(t, err)
	ctx := context.Background()

	volvo, err := f.Fundamentals(ctx, "VOLV-B.ST")
	require.NoError(t, err)
	assert.Equal(t, 0.08, volvo.RevenueGrowth)
	assert.Equal(t, 0.24, volvo.ROE)
	assert.True(t, volvo.PaysDividend)
	assert.True(t, math.IsNaN(volvo.ProfitMargin), "absent ratios stay undefined")
	assert.True(t, math.IsNaN(volvo.PERatio))

	bare, err := f.Fundamentals(ctx, "BARE.ST")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(bare.RevenueGrowth))

	unknown, err := f.Fundamentals(ctx, "MISSING.ST")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(unknown.ROE))
	assert.False(t, unknown.PaysDividend)
}

func TestLoadFundamentalsMissingFile(t *testing.T) {
	_, err := LoadFundamentals("/nonexistent.yaml")
	assert.Error(t, err)
}
