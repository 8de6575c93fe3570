package taq

import (
	"math"
	"sort"
	"time"

	"github.com/Open-Empirical-Finance/gotaq/internal/floatapprox"
)

// CleanConfig carries every filter threshold and option used by the
// cleaning and classification pipeline. It is an immutable value passed
// explicitly through each stage; defaults follow Holden & Jacobsen (2014).
type CleanConfig struct {
	// Quote condition codes to keep. Empty means keep all conditions.
	KeepQuoteConds []string

	DeleteCanceledQuotes  bool
	DeleteEmptyQuotes     bool
	DeleteCrossedMarkets  bool
	DeleteWithdrawnQuotes bool
	DeleteAbnormalSpreads bool
	KeepChangesOnly       bool
	NBBOOnly              bool

	// OutputFlags keeps the raw condition/cancel/source flags on cleaned
	// quote rows instead of clearing them.
	OutputFlags bool

	// TrackRetail enables the BJZ retail sign and the notBJZ variants of
	// the base classification schemes.
	TrackRetail bool

	MaxSpread      float64 // dollars
	MaxQuoteChange float64 // dollars
	CLNVThreshold  float64 // fraction of the spread
	Atol           float64 // absolute tolerance for price comparisons

	// Trading session windows, as time of day since midnight. Quotes are
	// pulled from before the open so an NBBO is standing at 09:30.
	QuoteStart time.Duration
	QuoteEnd   time.Duration
	TradeStart time.Duration
	TradeEnd   time.Duration

	// Horizon for realized spreads and price impacts, and the suffix
	// appended to the resulting measure names (e.g. "5min").
	RealizedDelay  time.Duration
	RealizedSuffix string
}

// DefaultCleanConfig returns the Holden & Jacobsen (2014) defaults.
func DefaultCleanConfig() CleanConfig {
	return CleanConfig{
		KeepQuoteConds:        []string{"A", "B", "H", "O", "R", "W"},
		DeleteCanceledQuotes:  true,
		DeleteEmptyQuotes:     true,
		DeleteCrossedMarkets:  true,
		DeleteWithdrawnQuotes: true,
		DeleteAbnormalSpreads: true,
		KeepChangesOnly:       true,
		NBBOOnly:              true,
		MaxSpread:             5.0,
		MaxQuoteChange:        2.5,
		CLNVThreshold:         0.3,
		Atol:                  floatapprox.DefaultAtol,
		QuoteStart:            9 * time.Hour,
		QuoteEnd:              16 * time.Hour,
		TradeStart:            9*time.Hour + 30*time.Minute,
		TradeEnd:              16 * time.Hour,
		RealizedDelay:         5 * time.Minute,
		RealizedSuffix:        "5min",
	}
}

func (c CleanConfig) keepCond(cond string) bool {
	if len(c.KeepQuoteConds) == 0 {
		return true
	}
	for _, k := range c.KeepQuoteConds {
		if cond == k {
			return true
		}
	}
	return false
}

// QuoteRow is a raw per-exchange quote record (cqm table schema).
// Sizes are in round lots.
type QuoteRow struct {
	Date         time.Time
	TimeOfDay    time.Duration
	Exchange     string
	SymbolRoot   string
	SymbolSuffix string
	Bid          float64
	BidLots      float64
	Ask          float64
	AskLots      float64
	Cond         string
	SeqNum       int64
	NatBBOInd    string
	Source       string
	Cancel       string
}

// NBBORow is a raw NBBO record (nbbom table schema). Sizes are in round
// lots.
type NBBORow struct {
	Date         time.Time
	TimeOfDay    time.Duration
	SymbolRoot   string
	SymbolSuffix string
	BestBid      float64
	BestBidLots  float64
	BestAsk      float64
	BestAskLots  float64
	Cond         string
	SeqNum       int64
	BestAskEx    string
	BestBidEx    string
	Cancel       string
}

// OfficialNBBORow is a raw record from the vendor's official complete
// NBBO table (complete_nbbo schema). Sizes are already in shares.
type OfficialNBBORow struct {
	Date          time.Time
	TimeOfDay     time.Duration
	SymbolRoot    string
	SymbolSuffix  string
	BestBid       float64
	BestBidShares float64
	BestAsk       float64
	BestAskShares float64
}

// TradeRow is a raw trade record (ctm table schema).
type TradeRow struct {
	Date           time.Time
	TimeOfDay      time.Duration
	Exchange       string
	SymbolRoot     string
	SymbolSuffix   string
	Size           float64
	Price          float64
	SeqNum         int64
	Cond           string
	CorrectionCode string
}

// BBO is a cleaned best bid and offer observation. Both CleanNBBO and
// CleanQuotes produce this schema so their outputs can be unioned into
// the official complete NBBO. Sizes are in shares. A missing side has
// both its price and size set to NaN, never one of the two.
type BBO struct {
	Timestamp     time.Time
	Symbol        string
	BestBid       float64
	BestBidShares float64
	BestBidEx     string
	BestAsk       float64
	BestAskShares float64
	BestAskEx     string
	SeqNum        int64

	// Flags from the raw record, populated only when
	// CleanConfig.OutputFlags is set.
	Cond      string
	NatBBOInd string
	Source    string
	Cancel    string

	// Derived while cleaning; valid only when both sides are present.
	Spread   float64
	Midpoint float64
}

// Trade is a cleaned trade record.
type Trade struct {
	Timestamp time.Time
	Symbol    string
	Exchange  string
	Size      float64
	Price     float64
	Dollar    float64
	SeqNum    int64
	Cond      string
}

// Scheme identifies a trade direction classification scheme.
type Scheme string

const (
	SchemeLR   Scheme = "LR"
	SchemeEMO  Scheme = "EMO"
	SchemeCLNV Scheme = "CLNV"
	SchemeBJZ  Scheme = "BJZ"
)

// NotRetail returns the non-retail variant of a base scheme: the scheme's
// sign restricted to trades the BJZ retail test could not classify.
func (s Scheme) NotRetail() Scheme {
	return s + "notBJZ"
}

// BaseSchemes are the schemes always computed by SignTrades.
var BaseSchemes = []Scheme{SchemeLR, SchemeEMO, SchemeCLNV}

// RetailSchemes are the additional schemes computed when retail tracking
// is enabled.
var RetailSchemes = []Scheme{
	SchemeBJZ,
	SchemeLR.NotRetail(),
	SchemeEMO.NotRetail(),
	SchemeCLNV.NotRetail(),
}

// TradeNBBO is a trade matched with the NBBO in force strictly before the
// trade. Quote fields are NaN when no prior quote existed for the symbol.
type TradeNBBO struct {
	Trade

	BestBid       float64
	BestBidShares float64
	BestAsk       float64
	BestAskShares float64
	Midpoint      float64
	Lock          bool
	Cross         bool

	// Quote standing RealizedDelay after the trade, attached by the
	// realized spread computation.
	BestBidNext  float64
	BestAskNext  float64
	MidpointNext float64

	// Signs holds the per-scheme direction (+1, -1 or NaN).
	Signs map[Scheme]float64

	// Measures holds named measure columns (effective spreads, realized
	// spreads, price impacts).
	Measures map[string]float64
}

// Sign returns the trade direction under the given scheme, or NaN if the
// scheme has not been computed.
func (t *TradeNBBO) Sign(s Scheme) float64 {
	if v, ok := t.Signs[s]; ok {
		return v
	}
	return math.NaN()
}

// Measure returns a named measure value, or NaN if absent.
func (t *TradeNBBO) Measure(name string) float64 {
	if v, ok := t.Measures[name]; ok {
		return v
	}
	return math.NaN()
}

func (t *TradeNBBO) setSign(s Scheme, v float64) {
	if t.Signs == nil {
		t.Signs = make(map[Scheme]float64, 4)
	}
	t.Signs[s] = v
}

func (t *TradeNBBO) setMeasure(name string, v float64) {
	if t.Measures == nil {
		t.Measures = make(map[string]float64, 8)
	}
	t.Measures[name] = v
}

// CombineSymbol builds the full symbol from root and suffix. A missing
// suffix means the symbol is just the root.
func CombineSymbol(root, suffix string) string {
	if suffix == "" {
		return root
	}
	return root + " " + suffix
}

// CombineTimestamp merges a date and a time of day into one instant.
func CombineTimestamp(date time.Time, tod time.Duration) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, date.Location()).Add(tod)
}

func isNull(x float64) bool {
	return math.IsNaN(x)
}

// nonPositive reports x <= 0 for present values; a missing value is not
// "non-positive" (mirrors SQL/pandas comparison semantics with nulls).
func nonPositive(x float64) bool {
	return !isNull(x) && x <= 0
}

// missingOrNonPositive is the "no usable value" test used when nulling
// out one side of a quote.
func missingOrNonPositive(x float64) bool {
	return isNull(x) || x <= 0
}

// differs is the three-valued comparison used by changes-only collapsing:
// two missing values are equal, a missing and a present value differ, and
// two present values compare exactly.
func differs(a, b float64) bool {
	if isNull(a) || isNull(b) {
		return isNull(a) != isNull(b)
	}
	return a != b
}

// SortBBO sorts quote observations by (symbol, timestamp, sequence
// number). Sequence numbers break ties among same-microsecond updates.
func SortBBO(rows []BBO) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Symbol != rows[j].Symbol {
			return rows[i].Symbol < rows[j].Symbol
		}
		if !rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].Timestamp.Before(rows[j].Timestamp)
		}
		return rows[i].SeqNum < rows[j].SeqNum
	})
}

// SortTradesByTime sorts trades by (timestamp, symbol).
func SortTradesByTime(rows []Trade) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].Timestamp.Before(rows[j].Timestamp)
		}
		return rows[i].Symbol < rows[j].Symbol
	})
}

// SortTradeNBBOByTime sorts merged rows by (timestamp, symbol).
func SortTradeNBBOByTime(rows []TradeNBBO) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].Timestamp.Before(rows[j].Timestamp)
		}
		return rows[i].Symbol < rows[j].Symbol
	})
}

// CloneTradeNBBO deep-copies merged rows, including sign and measure
// maps, for callers that need the original after an in-place stage.
func CloneTradeNBBO(rows []TradeNBBO) []TradeNBBO {
	out := make([]TradeNBBO, len(rows))
	for i, r := range rows {
		out[i] = r
		if r.Signs != nil {
			out[i].Signs = make(map[Scheme]float64, len(r.Signs))
			for k, v := range r.Signs {
				out[i].Signs[k] = v
			}
		}
		if r.Measures != nil {
			out[i].Measures = make(map[string]float64, len(r.Measures))
			for k, v := range r.Measures {
				out[i].Measures[k] = v
			}
		}
	}
	return out
}
