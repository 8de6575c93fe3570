package taqdaily

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Open-Empirical-Finance/gotaq/internal/source"
	"github.com/Open-Empirical-Finance/gotaq/internal/taq"
)

// Service runs the daily pipeline against one data source with one
// cleaning configuration.
type Service struct {
	src    source.DataSource
	cfg    taq.CleanConfig
	logger *slog.Logger
}

// New creates a Service. A nil logger falls back to slog.Default.
func New(src source.DataSource, cfg taq.CleanConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{src: src, cfg: cfg, logger: logger}
}

// DailyResult holds everything the pipeline produces for one date.
type DailyResult struct {
	Date time.Time

	// Trades carries the matched, signed trades with all per-trade
	// measures attached.
	Trades []taq.TradeNBBO

	// QuotedSpreads holds the time-weighted quote measures per symbol.
	QuotedSpreads map[string]taq.QuotedSpread

	// Averages holds the per-symbol aggregated trade measures, keyed by
	// symbol then by measure_weighting column name.
	Averages map[string]map[string]float64
}

// Symbols lists the symbol roots present in the day's NBBO table.
func (s *Service) Symbols(ctx context.Context, date time.Time) ([]string, error) {
	syms, err := s.src.Symbols(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list symbols for %s: %w", date.Format("2006-01-02"), err)
	}
	return syms, nil
}

// CleanedNBBO pulls and cleans the day's NBBO table over the quote
// window.
func (s *Service) CleanedNBBO(ctx context.Context, date time.Time, symbols []string) ([]taq.BBO, error) {
	rows, err := s.src.NBBO(ctx, s.quoteQuery(date, symbols))
	if err != nil {
		return nil, fmt.Errorf("fetch nbbo: %w", err)
	}
	cleaned := taq.CleanNBBO(rows, s.cfg)
	s.logger.InfoContext(ctx, "cleaned nbbo",
		slog.String("date", date.Format("2006-01-02")),
		slog.Int("raw", len(rows)),
		slog.Int("kept", len(cleaned)))
	return cleaned, nil
}

// CleanedQuotes pulls and cleans the day's per-exchange quote table over
// the quote window.
func (s *Service) CleanedQuotes(ctx context.Context, date time.Time, symbols []string) ([]taq.BBO, error) {
	rows, err := s.src.Quotes(ctx, s.quoteQuery(date, symbols))
	if err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}
	cleaned := taq.CleanQuotes(rows, s.cfg)
	s.logger.InfoContext(ctx, "cleaned quotes",
		slog.String("date", date.Format("2006-01-02")),
		slog.Int("raw", len(rows)),
		slog.Int("kept", len(cleaned)))
	return cleaned, nil
}

// CleanedTrades pulls and cleans the day's trade table over the trading
// window.
func (s *Service) CleanedTrades(ctx context.Context, date time.Time, symbols []string) ([]taq.Trade, error) {
	rows, err := s.src.Trades(ctx, source.Query{
		Date:    date,
		Symbols: symbols,
		Start:   s.cfg.TradeStart,
		End:     s.cfg.TradeEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch trades: %w", err)
	}
	cleaned := taq.CleanTrades(rows)
	s.logger.InfoContext(ctx, "cleaned trades",
		slog.String("date", date.Format("2006-01-02")),
		slog.Int("count", len(cleaned)))
	return cleaned, nil
}

// OfficialNBBO pulls the day's precomputed complete NBBO table and
// derives spreads and midpoints.
func (s *Service) OfficialNBBO(ctx context.Context, date time.Time, symbols []string) ([]taq.BBO, error) {
	rows, err := s.src.OfficialNBBO(ctx, s.quoteQuery(date, symbols))
	if err != nil {
		return nil, fmt.Errorf("fetch official nbbo: %w", err)
	}
	return taq.CleanOfficialNBBO(rows), nil
}

// NationalBBO reconstructs the day's official complete NBBO from the
// NBBO and quote tables: both are cleaned, unioned and deduplicated so
// the last update at each timestamp wins. This is the quote stream the
// matching and measure stages consume.
func (s *Service) NationalBBO(ctx context.Context, date time.Time, symbols []string) ([]taq.BBO, error) {
	nbbo, err := s.CleanedNBBO(ctx, date, symbols)
	if err != nil {
		return nil, err
	}
	quotes, err := s.CleanedQuotes(ctx, date, symbols)
	if err != nil {
		return nil, err
	}
	merged := taq.MergeQuotesNBBO(nbbo, quotes, true)
	s.logger.InfoContext(ctx, "merged national bbo",
		slog.String("date", date.Format("2006-01-02")),
		slog.Int("count", len(merged)))
	return merged, nil
}

// MatchedTrades merges the day's cleaned trades with a quote stream
// using strictly-before as-of matching. The quote stream and the
// matched trades are both returned so callers can reuse the quotes for
// the future-quote stages.
func (s *Service) MatchedTrades(ctx context.Context, date time.Time, symbols []string) ([]taq.TradeNBBO, []taq.BBO, error) {
	nbbo, err := s.NationalBBO(ctx, date, symbols)
	if err != nil {
		return nil, nil, err
	}
	trades, err := s.CleanedTrades(ctx, date, symbols)
	if err != nil {
		return nil, nil, err
	}
	matched := taq.MergeTradesNBBO(trades, nbbo, s.cfg.Atol)
	return matched, nbbo, nil
}

// DailyMeasures runs the full pipeline for one date: clean, match,
// sign, compute effective spreads, realized spreads and price impacts,
// time-weighted quoted spreads, and per-symbol averages.
func (s *Service) DailyMeasures(ctx context.Context, date time.Time, symbols []string) (*DailyResult, error) {
	began := time.Now()

	matched, nbbo, err := s.MatchedTrades(ctx, date, symbols)
	if err != nil {
		return nil, err
	}

	taq.SignTrades(matched, s.cfg)
	matched = taq.ComputeEffectiveSpreads(matched)
	matched, err = taq.ComputeRealizedSpreadPriceImpact(matched, nbbo, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("realized spreads for %s: %w", date.Format("2006-01-02"), err)
	}

	quoted := taq.ComputeQuotedSpreads(date, nbbo, s.cfg.TradeStart, s.cfg.TradeEnd, s.cfg.Atol)

	averages, err := taq.ComputeAverages(matched, taq.MeasureNames(s.cfg), taq.DefaultWeightings)
	if err != nil {
		return nil, fmt.Errorf("average measures for %s: %w", date.Format("2006-01-02"), err)
	}

	s.logger.InfoContext(ctx, "daily measures complete",
		slog.String("date", date.Format("2006-01-02")),
		slog.Int("trades", len(matched)),
		slog.Int("symbols", len(averages)),
		slog.Duration("elapsed", time.Since(began)))

	return &DailyResult{
		Date:          date,
		Trades:        matched,
		QuotedSpreads: quoted,
		Averages:      averages,
	}, nil
}

func (s *Service) quoteQuery(date time.Time, symbols []string) source.Query {
	return source.Query{
		Date:    date,
		Symbols: symbols,
		Start:   s.cfg.QuoteStart,
		End:     s.cfg.QuoteEnd,
	}
}
