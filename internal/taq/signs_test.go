package taq

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedRow(tod time.Duration, sym string, price, bid, ask float64) TradeNBBO {
	return TradeNBBO{
		Trade: Trade{
			Timestamp: testDay.Add(tod),
			Symbol:    sym,
			Price:     price,
		},
		BestBid:  bid,
		BestAsk:  ask,
		Midpoint: (bid + ask) / 2,
	}
}

func TestTickDirections(t *testing.T) {
	open := 9*time.Hour + 30*time.Minute
	rows := []TradeNBBO{
		signedRow(open, "IBM", 10.00, 10.00, 10.10),
		signedRow(open+time.Second, "IBM", 10.05, 10.00, 10.10),
		signedRow(open+2*time.Second, "IBM", 10.05, 10.00, 10.10),
		signedRow(open+3*time.Second, "IBM", 10.02, 10.00, 10.10),
	}

	dirs := tickDirections(rows, DefaultCleanConfig().Atol)
	require.Len(t, dirs, 4)

	assert.True(t, math.IsNaN(dirs[0]), "first trade of a symbol has no direction")
	assert.Equal(t, 1.0, dirs[1], "uptick")
	assert.Equal(t, 1.0, dirs[2], "zero change inherits the last direction")
	assert.Equal(t, -1.0, dirs[3], "downtick")
}

func TestTickDirectionsPerSymbol(t *testing.T) {
	open := 9*time.Hour + 30*time.Minute
	rows := []TradeNBBO{
		signedRow(open, "IBM", 10.00, 10.00, 10.10),
		signedRow(open+time.Second, "MSFT", 20.00, 20.00, 20.10),
		signedRow(open+2*time.Second, "IBM", 10.10, 10.00, 10.10),
	}

	dirs := tickDirections(rows, DefaultCleanConfig().Atol)
	assert.True(t, math.IsNaN(dirs[1]), "state never leaks across symbols")
	assert.Equal(t, 1.0, dirs[2])
}

func TestSignTradesLR(t *testing.T) {
	open := 9*time.Hour + 30*time.Minute
	rows := []TradeNBBO{
		signedRow(open, "IBM", 10.00, 10.00, 10.10),              // sets the tick state
		signedRow(open+time.Second, "IBM", 10.08, 10.00, 10.10),  // above midpoint
		signedRow(open+2*time.Second, "IBM", 10.02, 10.00, 10.10), // below midpoint
		signedRow(open+3*time.Second, "IBM", 10.05, 10.00, 10.10), // at midpoint, uptick stands
	}

	SignTrades(rows, DefaultCleanConfig())

	assert.Equal(t, 1.0, rows[1].Sign(SchemeLR))
	assert.Equal(t, -1.0, rows[2].Sign(SchemeLR))
	assert.Equal(t, 1.0, rows[3].Sign(SchemeLR), "at the midpoint the tick test decides")
}

func TestSignTradesEMOAndCLNVDiverge(t *testing.T) {
	open := 9*time.Hour + 30*time.Minute
	rows := []TradeNBBO{
		signedRow(open, "IBM", 10.09, 10.00, 10.10),
		// Price 10.08 on a downtick: inside the CLNV buy window
		// [10.07, 10.10] but not exactly at the ask.
		signedRow(open+time.Second, "IBM", 10.08, 10.00, 10.10),
	}

	SignTrades(rows, DefaultCleanConfig())

	assert.Equal(t, -1.0, rows[1].Sign(SchemeEMO), "EMO falls back to the tick test off the quotes")
	assert.Equal(t, 1.0, rows[1].Sign(SchemeCLNV), "CLNV classifies inside the threshold window")
}

func TestSignTradesEMOAtQuotes(t *testing.T) {
	open := 9*time.Hour + 30*time.Minute
	rows := []TradeNBBO{
		signedRow(open, "IBM", 10.10, 10.00, 10.10),
		signedRow(open+time.Second, "IBM", 10.00, 10.00, 10.10),
	}

	SignTrades(rows, DefaultCleanConfig())

	assert.Equal(t, 1.0, rows[0].Sign(SchemeEMO), "at the ask")
	assert.Equal(t, -1.0, rows[1].Sign(SchemeEMO), "at the bid")
}

func TestSignTradesLockedQuoteFallsBackToTick(t *testing.T) {
	open := 9*time.Hour + 30*time.Minute
	rows := []TradeNBBO{
		signedRow(open, "IBM", 10.00, 10.00, 10.10),
		signedRow(open+time.Second, "IBM", 10.10, 10.10, 10.10),
	}
	rows[1].Lock = true
	rows[1].Midpoint = 10.10

	SignTrades(rows, DefaultCleanConfig())

	// The uptick decides everything while the quote is locked.
	assert.Equal(t, 1.0, rows[1].Sign(SchemeLR))
	assert.Equal(t, 1.0, rows[1].Sign(SchemeEMO))
	assert.Equal(t, 1.0, rows[1].Sign(SchemeCLNV))
}

func TestSignBJZ(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		exchange string
		want     float64
	}{
		{name: "retail_sell_low_remainder", price: 10.001, exchange: "D", want: -1},
		{name: "retail_buy_high_remainder", price: 10.008, exchange: "D", want: 1},
		{name: "midpoint_remainder_unclassified", price: 10.005, exchange: "D", want: math.NaN()},
		{name: "round_penny_unclassified", price: 10.00, exchange: "D", want: math.NaN()},
		{name: "on_exchange_never_retail", price: 10.008, exchange: "N", want: math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := signBJZ(tt.price, tt.exchange)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(got))
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSignTradesRetailVariants(t *testing.T) {
	open := 9*time.Hour + 30*time.Minute
	cfg := DefaultCleanConfig()
	cfg.TrackRetail = true

	rows := []TradeNBBO{
		signedRow(open, "IBM", 10.00, 10.00, 10.10),
		signedRow(open+time.Second, "IBM", 10.008, 10.00, 10.10),
		signedRow(open+2*time.Second, "IBM", 10.08, 10.00, 10.10),
	}
	rows[1].Exchange = "D"
	rows[2].Exchange = "N"

	SignTrades(rows, cfg)

	retail := rows[1]
	assert.Equal(t, 1.0, retail.Sign(SchemeBJZ))
	assert.True(t, math.IsNaN(retail.Sign(SchemeLR.NotRetail())),
		"retail-classified trades leave the notBJZ sample")

	nonRetail := rows[2]
	assert.True(t, math.IsNaN(nonRetail.Sign(SchemeBJZ)))
	assert.Equal(t, nonRetail.Sign(SchemeLR), nonRetail.Sign(SchemeLR.NotRetail()),
		"unclassified trades keep their base sign")
}
