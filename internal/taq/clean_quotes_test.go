package taq

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quoteRow(tod time.Duration, bid, bidLots, ask, askLots float64) QuoteRow {
	return QuoteRow{
		Date:       testDay,
		TimeOfDay:  tod,
		Exchange:   "N",
		SymbolRoot: "IBM",
		Cond:       "R",
		Bid:        bid,
		BidLots:    bidLots,
		Ask:        ask,
		AskLots:    askLots,
		Source:     "C",
		NatBBOInd:  "1",
	}
}

func TestCleanQuotesBasic(t *testing.T) {
	cfg := DefaultCleanConfig()
	got := CleanQuotes([]QuoteRow{quoteRow(10*time.Hour, 10, 2, 10.1, 3)}, cfg)
	require.Len(t, got, 1)

	b := got[0]
	assert.Equal(t, "IBM", b.Symbol)
	assert.Equal(t, 10.0, b.BestBid)
	assert.Equal(t, 200.0, b.BestBidShares)
	assert.Equal(t, 300.0, b.BestAskShares)
	assert.Equal(t, "N", b.BestBidEx, "single exchange is both best venues")
	assert.Equal(t, "N", b.BestAskEx)
	assert.InDelta(t, 10.05, b.Midpoint, 1e-9)
}

func TestCleanQuotesFilters(t *testing.T) {
	cfg := DefaultCleanConfig()
	nan := math.NaN()

	crossed := quoteRow(10*time.Hour, 10.2, 1, 10.1, 1)
	missingBid := quoteRow(10*time.Hour, nan, 1, 10.1, 1)
	wide := quoteRow(10*time.Hour, 5.0, 1, 10.5, 1)
	withdrawn := quoteRow(10*time.Hour, 10, 0, 10.1, 1)
	badCond := quoteRow(10*time.Hour, 10, 1, 10.1, 1)
	badCond.Cond = "D"
	canceled := quoteRow(10*time.Hour, 10, 1, 10.1, 1)
	canceled.Cancel = "B"
	good := quoteRow(10*time.Hour, 10, 1, 10.1, 1)

	tests := []struct {
		name string
		row  QuoteRow
		kept bool
	}{
		{name: "crossed_market", row: crossed, kept: false},
		{name: "missing_bid_drops_row", row: missingBid, kept: false},
		{name: "abnormal_spread", row: wide, kept: false},
		{name: "withdrawn_zero_size", row: withdrawn, kept: false},
		{name: "bad_condition", row: badCond, kept: false},
		{name: "canceled", row: canceled, kept: false},
		{name: "regular", row: good, kept: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanQuotes([]QuoteRow{tt.row}, cfg)
			if tt.kept {
				assert.Len(t, got, 1)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestCleanQuotesNBBOContributors(t *testing.T) {
	cfg := DefaultCleanConfig()

	cta := quoteRow(10*time.Hour, 10, 1, 10.1, 1) // source C, natbbo 1
	utp := quoteRow(10*time.Hour, 10, 1, 10.1, 1)
	utp.Source, utp.NatBBOInd = "N", "4"
	neither := quoteRow(10*time.Hour, 10, 1, 10.1, 1)
	neither.Source, neither.NatBBOInd = "C", "2"

	got := CleanQuotes([]QuoteRow{cta, utp, neither}, cfg)
	assert.Len(t, got, 2)

	cfg.NBBOOnly = false
	got = CleanQuotes([]QuoteRow{cta, utp, neither}, cfg)
	assert.Len(t, got, 3, "non-contributors survive when not restricted to the NBBO")
}
