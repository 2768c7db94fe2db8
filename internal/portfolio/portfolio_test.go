package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
)

var tradeDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestBuyDebitsCashWithCosts(t *testing.T) {
	p := New(100000)
	ok := p.Buy("VOLV-B.ST", 25000, 250, 0.0025, tradeDate)
	require.True(t, ok)

	// 100 shares cost 100*250*1.0025.
	assert.InDelta(t, 100000-100*250*1.0025, p.Cash(), 1e-9)
	pos, held := p.Position("VOLV-B.ST")
	require.True(t, held)
	assert.Equal(t, 100, pos.Shares)
	assert.Equal(t, 250.0, pos.AvgCost)
	assert.Equal(t, tradeDate, pos.EntryDate)
}

func TestSellCreditsCashNetOfCosts(t *testing.T) {
	p := New(100000)
	require.True(t, p.Buy("VOLV-B.ST", 25000, 250, 0.0025, tradeDate))
	cashAfterBuy := p.Cash()

	require.True(t, p.Sell("VOLV-B.ST", 260, 0.0025))
	assert.InDelta(t, cashAfterBuy+100*260*0.9975, p.Cash(), 1e-9)
	assert.Equal(t, 0, p.HoldingsCount())
}

func TestBuyFailsWithoutSideEffects(t *testing.T) {
	p := New(1000)

	// Fees would overdraw cash.
	assert.False(t, p.Buy("A", 1000, 100, 0.0025, tradeDate))
	// Amount buys less than one whole share.
	assert.False(t, p.Buy("B", 50, 100, 0.0025, tradeDate))
	assert.False(t, p.Buy("C", -10, 100, 0.0025, tradeDate))

	assert.Equal(t, 1000.0, p.Cash())
	assert.Equal(t, 0, p.HoldingsCount())
}

func TestSellUnknownTickerIsNoOp(t *testing.T) {
	p := New(1000)
	assert.False(t, p.Sell("GHOST", 100, 0.0025))
	assert.Equal(t, 1000.0, p.Cash())
}

func TestRebuyWeightsAverageCost(t *testing.T) {
	p := New(100000)
	require.True(t, p.Buy("A", 10000, 100, 0, tradeDate))
	later := tradeDate.AddDate(0, 1, 0)
	require.True(t, p.Buy("A", 10000, 200, 0, later))

	pos, _ := p.Position("A")
	assert.Equal(t, 150, pos.Shares)
	// (100*100 + 50*200) / 150
	assert.InDelta(t, 133.3333333, pos.AvgCost, 1e-6)
	assert.Equal(t, tradeDate, pos.EntryDate, "re-buy keeps the original entry date")
}

func TestSellThenRebuyIsFreshPosition(t *testing.T) {
	p := New(100000)
	require.True(t, p.Buy("A", 10000, 100, 0, tradeDate))
	require.True(t, p.Sell("A", 110, 0))

	later := tradeDate.AddDate(0, 2, 0)
	require.True(t, p.Buy("A", 10000, 110, 0, later))
	pos, _ := p.Position("A")
	assert.Equal(t, later, pos.EntryDate)
	assert.Equal(t, 110.0, pos.AvgCost)
}

func TestTotalValueIdentity(t *testing.T) {
	p := New(100000)
	require.True(t, p.Buy("A", 20000, 100, 0.0025, tradeDate))
	require.True(t, p.Buy("B", 30000, 300, 0.0025, tradeDate))

	prices := map[string]float64{"A": 110, "B": 280}
	want := p.Cash() + 200*110 + 100*280
	assert.InDelta(t, want, p.TotalValue(prices), 1e-9)
}

func TestCollectDividendsWindow(t *testing.T) {
	p := New(100000)
	require.True(t, p.Buy("A", 10000, 100, 0, tradeDate))

	periodStart := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	divs := map[string][]marketdata.Dividend{
		"A": {
			{ExDate: periodStart, Amount: 1},                  // on the boundary start, excluded
			{ExDate: periodStart.AddDate(0, 0, 10), Amount: 2}, // inside
			{ExDate: periodEnd, Amount: 3},                    // inclusive end
			{ExDate: periodEnd.AddDate(0, 0, 1), Amount: 4},   // after, excluded
		},
	}

	collected := p.CollectDividends(divs, periodStart, periodEnd)
	assert.InDelta(t, 100*(2+3), collected, 1e-9)
	assert.InDelta(t, 500.0, p.TotalDividends(), 1e-9)
}

func TestDividendsIgnoreUnheldTickers(t *testing.T) {
	p := New(100000)
	divs := map[string][]marketdata.Dividend{
		"GHOST": {{ExDate: tradeDate, Amount: 10}},
	}
	got := p.CollectDividends(divs, tradeDate.AddDate(0, 0, -1), tradeDate.AddDate(0, 0, 1))
	assert.Equal(t, 0.0, got)
}

func TestPayTaxAboveThreshold(t *testing.T) {
	p := New(400000)
	rule := TaxRule{Rate: 0.01065, FreeAmount: 300000}

	tax, liquidated := p.PayTax(400000, rule, nil, 0.0025)
	assert.InDelta(t, 1065.0, tax, 1e-9)
	assert.Empty(t, liquidated)
	assert.InDelta(t, 400000-1065, p.Cash(), 1e-9)
	assert.InDelta(t, 1065.0, p.TotalTax(), 1e-9)
}

func TestPayTaxBelowThresholdIsFree(t *testing.T) {
	p := New(100000)
	tax, _ := p.PayTax(100000, TaxRule{Rate: 0.01, FreeAmount: 150000}, nil, 0)
	assert.Equal(t, 0.0, tax)
	assert.Equal(t, 100000.0, p.Cash())
}

func TestPayTaxLiquidatesSmallestPositions(t *testing.T) {
	p := New(100000)
	require.True(t, p.Buy("BIG", 60000, 100, 0, tradeDate))
	require.True(t, p.Buy("SMALL", 39900, 100, 0, tradeDate))
	// Cash left is 100.
	require.InDelta(t, 100.0, p.Cash(), 1e-9)

	prices := map[string]float64{"BIG": 100, "SMALL": 100}
	tax, liquidated := p.PayTax(500000, TaxRule{Rate: 0.01, FreeAmount: 0}, prices, 0)

	assert.InDelta(t, 5000.0, tax, 1e-9)
	assert.Equal(t, []string{"SMALL"}, liquidated, "smallest position funds the tax first")
	assert.GreaterOrEqual(t, p.Cash(), 0.0, "cash never goes negative")
	_, stillHeld := p.Position("BIG")
	assert.True(t, stillHeld)
}

func TestPayTaxCapsAtAvailableCash(t *testing.T) {
	p := New(1000)
	tax, _ := p.PayTax(1000000, TaxRule{Rate: 0.01, FreeAmount: 0}, nil, 0)
	assert.Equal(t, 1000.0, tax)
	assert.Equal(t, 0.0, p.Cash())
}

func TestDrawdownBands(t *testing.T) {
	tests := []struct {
		drawdown float64
		mult     float64
		level    RiskLevel
	}{
		{0, 1.00, RiskNormal},
		{4.9, 1.00, RiskNormal},
		{5, 0.85, RiskCautious},
		{9.9, 0.85, RiskCautious},
		{12, 0.70, RiskReduce},
		{17, 0.60, RiskDefensive},
		{20, 0.50, RiskMaxDefensive},
		{35, 0.50, RiskMaxDefensive},
	}

	for _, tt := range tests {
		p := New(100000)
		// Establish the peak, then mark down to the target drawdown.
		p.DrawdownAdjustment(nil)
		p.cash = 100000 * (1 - tt.drawdown/100)

		got, mult, level := p.DrawdownAdjustment(nil)
		assert.InDelta(t, tt.drawdown, got, 1e-9, "drawdown %v", tt.drawdown)
		assert.Equal(t, tt.mult, mult, "multiplier at drawdown %v", tt.drawdown)
		assert.Equal(t, tt.level, level, "level at drawdown %v", tt.drawdown)
	}
}

func TestPeakValueMonotonic(t *testing.T) {
	p := New(100000)
	p.DrawdownAdjustment(nil)
	assert.Equal(t, 100000.0, p.PeakValue())

	p.cash = 120000
	p.DrawdownAdjustment(nil)
	assert.Equal(t, 120000.0, p.PeakValue())

	p.cash = 90000
	p.DrawdownAdjustment(nil)
	assert.Equal(t, 120000.0, p.PeakValue(), "peak never falls")
}

func TestSellAll(t *testing.T) {
	p := New(100000)
	require.True(t, p.Buy("A", 10000, 100, 0, tradeDate))
	require.True(t, p.Buy("B", 10000, 50, 0, tradeDate))

	p.SellAll(map[string]float64{"A": 100, "B": 50}, 0)
	assert.Equal(t, 0, p.HoldingsCount())
	assert.InDelta(t, 100000.0, p.Cash(), 1e-9)
}
