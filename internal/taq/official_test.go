package taq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanOfficialNBBO(t *testing.T) {
	rows := []OfficialNBBORow{
		{
			Date:          testDay,
			TimeOfDay:     10 * time.Hour,
			SymbolRoot:    "MSFT",
			BestBid:       20.0,
			BestBidShares: 500,
			BestAsk:       20.2,
			BestAskShares: 300,
		},
		{
			Date:          testDay,
			TimeOfDay:     9*time.Hour + 45*time.Minute,
			SymbolRoot:    "IBM",
			BestBid:       10.0,
			BestBidShares: 100,
			BestAsk:       10.1,
			BestAskShares: 200,
		},
	}

	got := CleanOfficialNBBO(rows)
	require.Len(t, got, 2)

	assert.Equal(t, "IBM", got[0].Symbol, "sorted by symbol then timestamp")
	assert.Equal(t, 100.0, got[0].BestBidShares, "official sizes are already shares")
	assert.InDelta(t, 10.05, got[0].Midpoint, 1e-9)
	assert.InDelta(t, 0.2, got[1].Spread, 1e-9)
}

func TestMergeQuotesNBBOLastUpdateWins(t *testing.T) {
	ts := testDay.Add(10 * time.Hour)

	nbbo := []BBO{
		{Timestamp: ts, Symbol: "IBM", SeqNum: 5, BestBid: 10.0, BestAsk: 10.1},
	}
	quotes := []BBO{
		{Timestamp: ts, Symbol: "IBM", SeqNum: 9, BestBid: 10.02, BestAsk: 10.1},
		{Timestamp: ts.Add(time.Second), Symbol: "IBM", SeqNum: 10, BestBid: 10.03, BestAsk: 10.1},
	}

	got := MergeQuotesNBBO(nbbo, quotes, true)
	require.Len(t, got, 2)
	assert.Equal(t, int64(9), got[0].SeqNum, "highest seqnum at the shared microsecond survives")
	assert.Equal(t, 10.02, got[0].BestBid)
	assert.Equal(t, int64(10), got[1].SeqNum)
}

func TestMergeQuotesNBBOKeepAll(t *testing.T) {
	ts := testDay.Add(10 * time.Hour)

	nbbo := []BBO{{Timestamp: ts, Symbol: "IBM", SeqNum: 5}}
	quotes := []BBO{{Timestamp: ts, Symbol: "IBM", SeqNum: 9}}

	got := MergeQuotesNBBO(nbbo, quotes, false)
	require.Len(t, got, 2)
	assert.Equal(t, int64(5), got[0].SeqNum, "ordered by seqnum within the microsecond")
	assert.Equal(t, int64(9), got[1].SeqNum)
}
