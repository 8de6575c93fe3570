package taq

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func measuredRow(sym string, measure string, value, dollar, size float64) TradeNBBO {
	r := TradeNBBO{
		Trade: Trade{
			Timestamp: testDay.Add(10 * time.Hour),
			Symbol:    sym,
			Dollar:    dollar,
			Size:      size,
		},
	}
	r.setMeasure(measure, value)
	return r
}

func TestComputeAverages(t *testing.T) {
	rows := []TradeNBBO{
		measuredRow("IBM", "X", 5, 1, 1),
		measuredRow("IBM", "X", 15, 3, 3),
	}

	got, err := ComputeAverages(rows, []string{"X"}, DefaultWeightings)
	require.NoError(t, err)
	require.Contains(t, got, "IBM")

	assert.InDelta(t, 10.0, got["IBM"]["X_Ave"], 1e-9)
	assert.InDelta(t, 12.5, got["IBM"]["X_DW"], 1e-9, "(5*1+15*3)/4")
	assert.InDelta(t, 12.5, got["IBM"]["X_SW"], 1e-9)
}

func TestComputeAveragesExcludesNullsPerCell(t *testing.T) {
	rows := []TradeNBBO{
		measuredRow("IBM", "X", 5, 1, 1),
		measuredRow("IBM", "X", 15, 3, 3),
		// Null measure: excluded everywhere, even with a huge weight.
		measuredRow("IBM", "X", math.NaN(), 1000, 1000),
		// Null dollar weight: still counts for the simple and size
		// weighted averages.
		measuredRow("IBM", "X", 10, math.NaN(), 1),
	}

	got, err := ComputeAverages(rows, []string{"X"}, DefaultWeightings)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, got["IBM"]["X_Ave"], 1e-9, "(5+15+10)/3")
	assert.InDelta(t, 12.5, got["IBM"]["X_DW"], 1e-9, "row without dollar weight drops from this cell only")
	assert.InDelta(t, 12.0, got["IBM"]["X_SW"], 1e-9, "(5*1+15*3+10*1)/5")
}

func TestComputeAveragesEmptyCellIsNaN(t *testing.T) {
	rows := []TradeNBBO{measuredRow("IBM", "X", 5, 1, 1)}

	got, err := ComputeAverages(rows, []string{"X", "Y"}, DefaultWeightings)
	require.NoError(t, err)

	assert.InDelta(t, 5.0, got["IBM"]["X_Ave"], 1e-9)
	assert.True(t, math.IsNaN(got["IBM"]["Y_Ave"]), "measure never set stays null, not zero")
}

func TestComputeAveragesGroupsBySymbol(t *testing.T) {
	rows := []TradeNBBO{
		measuredRow("IBM", "X", 5, 1, 1),
		measuredRow("MSFT", "X", 9, 1, 1),
	}

	got, err := ComputeAverages(rows, []string{"X"}, DefaultWeightings)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 5.0, got["IBM"]["X_Ave"], 1e-9)
	assert.InDelta(t, 9.0, got["MSFT"]["X_Ave"], 1e-9)
}

func TestComputeAveragesUnknownWeightColumn(t *testing.T) {
	rows := []TradeNBBO{measuredRow("IBM", "X", 5, 1, 1)}

	_, err := ComputeAverages(rows, []string{"X"}, []Weighting{{Column: "volume", Suffix: "_VW"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "volume")
}

func TestComputeAveragesBy(t *testing.T) {
	rows := []TradeNBBO{
		measuredRow("IBM", "X", 4, 1, 1),
		measuredRow("MSFT", "X", 6, 1, 1),
	}

	got, err := ComputeAveragesBy(rows, func(*TradeNBBO) string { return "ALL" },
		[]string{"X"}, DefaultWeightings)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 5.0, got["ALL"]["X_Ave"], 1e-9)
}
