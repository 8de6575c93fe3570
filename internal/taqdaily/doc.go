// Package taqdaily orchestrates the per-day pipeline: pull raw tables
// from a data source, clean them, match trades to quotes, sign the
// trades and compute the liquidity measures.
//
// The Service owns no connection state beyond the DataSource handed to
// it and is safe for concurrent use across dates; each call works on
// its own slices.
package taqdaily
