package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Open-Empirical-Finance/gotaq/internal/taq"
)

// ErrUnsupportedBackend is returned by Open before any query is issued
// when the configured backend name is unknown or missing.
var ErrUnsupportedBackend = errors.New("source: unsupported backend")

// Query selects a slice of one day's raw records. Symbols restricts the
// result to those symbol roots (records with a symbol suffix are always
// excluded); nil means all symbols. Start and End bound the time of day;
// zero leaves a bound open.
type Query struct {
	Date    time.Time
	Symbols []string
	Start   time.Duration
	End     time.Duration
}

// DataSource returns raw daily TAQ tables per the documented schemas.
// Implementations own connection management; callers own retry and
// timeout policy via ctx.
type DataSource interface {
	Quotes(ctx context.Context, q Query) ([]taq.QuoteRow, error)
	NBBO(ctx context.Context, q Query) ([]taq.NBBORow, error)
	OfficialNBBO(ctx context.Context, q Query) ([]taq.OfficialNBBORow, error)
	Trades(ctx context.Context, q Query) ([]taq.TradeRow, error)

	// Symbols lists the distinct symbol roots present in the day's NBBO
	// table.
	Symbols(ctx context.Context, date time.Time) ([]string, error)
}

// Options configures Open.
type Options struct {
	// DSN and Library apply to the postgres backend.
	DSN     string
	Library string

	// ExtractDir applies to the csv backend: the directory holding
	// per-day flat extracts named like the vendor tables
	// (e.g. ctm_20240115.csv).
	ExtractDir string
}

// Open constructs the configured DataSource. Backend is "postgres" or
// "csv"; anything else is a configuration error raised before any query.
func Open(ctx context.Context, backend string, opts Options) (DataSource, error) {
	switch backend {
	case "postgres":
		return NewPostgres(ctx, opts.DSN, opts.Library)
	case "csv":
		return NewCSV(opts.ExtractDir)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, backend)
	}
}
