package taq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanTrades(t *testing.T) {
	rows := []TradeRow{
		{
			Date:         testDay,
			TimeOfDay:    9*time.Hour + 30*time.Minute,
			Exchange:     "N",
			SymbolRoot:   "IBM",
			SymbolSuffix: "PR",
			Size:         100,
			Price:        10.5,
			SeqNum:       42,
			Cond:         "@",
		},
	}

	got := CleanTrades(rows)
	require.Len(t, got, 1)

	tr := got[0]
	assert.Equal(t, "IBM PR", tr.Symbol, "suffix joins the root with a space")
	assert.Equal(t, testDay.Add(9*time.Hour+30*time.Minute), tr.Timestamp)
	assert.Equal(t, 1050.0, tr.Dollar)
	assert.Equal(t, int64(42), tr.SeqNum)
}

func TestFilterRawTrades(t *testing.T) {
	start := 9*time.Hour + 30*time.Minute
	end := 16 * time.Hour

	mk := func(tod time.Duration, corr string, price float64) TradeRow {
		return TradeRow{TimeOfDay: tod, CorrectionCode: corr, Price: price}
	}

	rows := []TradeRow{
		mk(10*time.Hour, "00", 10.0),   // kept
		mk(10*time.Hour, "01", 10.0),   // corrected
		mk(10*time.Hour, "00", 0),      // no price
		mk(9*time.Hour, "00", 10.0),    // before open
		mk(17*time.Hour, "00", 10.0),   // after close
		mk(start, "00", 10.0),          // at the open, kept
		mk(end, "00", 10.0),            // at the close, kept
	}

	got := FilterRawTrades(rows, start, end)
	require.Len(t, got, 3)
	assert.Equal(t, 10*time.Hour, got[0].TimeOfDay)
	assert.Equal(t, start, got[1].TimeOfDay)
	assert.Equal(t, end, got[2].TimeOfDay)
}
