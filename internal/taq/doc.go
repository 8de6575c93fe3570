// Package taq implements the cleaning, matching and classification pipeline
// for daily TAQ (trade and quote) data.
//
// The pipeline turns raw intraday quote and trade records into
// research-grade microstructure measures:
//
//  1. Table cleaners: CleanNBBO, CleanQuotes, CleanOfficialNBBO and
//     CleanTrades apply the Holden & Jacobsen (2014) filters in a fixed
//     order (condition codes, cancels, empty and withdrawn quotes,
//     abnormal spreads, changes-only collapse).
//  2. Table mergers: MergeQuotesNBBO synthesizes the official complete
//     NBBO from the cleaned NBBO and quote tables; MergeTradesNBBO
//     attaches the quote in force strictly before each trade.
//  3. Trade classification: SignTrades computes buy/sell indicators per
//     scheme (tick test, Lee-Ready, EMO, CLNV, and the BJZ retail sign).
//  4. Measures: effective spreads, quoted spreads with time-in-force
//     weighting, and realized spreads / price impacts at a configurable
//     horizon.
//  5. Aggregation: ComputeAverages produces simple, share-weighted and
//     dollar-weighted per-symbol averages.
//
// Missing values are represented as NaN, matching the semantics of the
// source data where either side of a quote can be absent. All price
// equality tests go through the floatapprox package so that locks,
// at-the-quote trades and zero-difference measures are detected despite
// floating point noise.
//
// Cleaning and classification functions operate on slices of plain row
// structs and mutate rows in place where documented. Callers that need
// to keep the original table should use the Copy variants or clone the
// slice first. There is no shared mutable state; one (date, symbol
// universe) unit is independent of any other, so callers can process
// days in parallel.
//
// All filter thresholds come from a CleanConfig value threaded through
// each stage. DefaultCleanConfig matches the published Holden & Jacobsen
// (2014) specification.
package taq
