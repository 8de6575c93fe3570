package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Open-Empirical-Finance/gotaq/internal/config"
	"github.com/Open-Empirical-Finance/gotaq/internal/exporter"
	"github.com/Open-Empirical-Finance/gotaq/internal/infrastructure"
	"github.com/Open-Empirical-Finance/gotaq/internal/source"
	"github.com/Open-Empirical-Finance/gotaq/internal/taq"
	"github.com/Open-Empirical-Finance/gotaq/internal/taqdaily"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	dates := flag.String("dates", "", "trading dates: comma-separated YYYYMMDD values or a YYYYMMDD:YYYYMMDD range")
	symbols := flag.String("symbols", "", "comma-separated symbol roots (default: all symbols in the NBBO table)")
	outDir := flag.String("out", "", "output directory (overrides config)")
	parallel := flag.Int("parallel", 1, "number of dates to process concurrently")
	flag.Parse()

	if *dates == "" {
		fmt.Fprintln(os.Stderr, "taqdaily: -dates is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	logger := infrastructure.NewLogger(cfg.Logging)
	logger = logger.With(slog.String("run_id", uuid.NewString()))

	days, err := parseDates(*dates)
	if err != nil {
		logger.Error("Failed to parse dates", "error", err)
		os.Exit(1)
	}
	var syms []string
	if *symbols != "" {
		syms = strings.Split(*symbols, ",")
		for i := range syms {
			syms[i] = strings.TrimSpace(syms[i])
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, days, syms, *parallel); err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, days []time.Time, symbols []string, parallel int) error {
	src, err := source.Open(ctx, cfg.Source.Backend, source.Options{
		DSN:        cfg.Source.DSN,
		Library:    cfg.Source.Library,
		ExtractDir: cfg.Source.ExtractDir,
	})
	if err != nil {
		return fmt.Errorf("open data source: %w", err)
	}
	if closer, ok := src.(interface{ Close() }); ok {
		defer closer.Close()
	}

	cleanCfg := cfg.CleanConfig()
	svc := taqdaily.New(src, cleanCfg, logger)
	out := exporter.NewWriter(cfg.Output.Dir, logger)

	measures := taq.MeasureNames(cleanCfg)
	schemes := append([]taq.Scheme{}, taq.BaseSchemes...)
	if cleanCfg.TrackRetail {
		schemes = append(schemes, taq.RetailSchemes...)
	}

	g, gctx := errgroup.WithContext(ctx)
	if parallel < 1 {
		parallel = 1
	}
	g.SetLimit(parallel)

	for _, day := range days {
		day := day
		g.Go(func() error {
			logger.InfoContext(gctx, "processing date", slog.String("date", day.Format("2006-01-02")))

			res, err := svc.DailyMeasures(gctx, day, symbols)
			if err != nil {
				return fmt.Errorf("date %s: %w", day.Format("2006-01-02"), err)
			}
			if err := out.WriteAverages(day, res.Averages, measures, taq.DefaultWeightings); err != nil {
				return fmt.Errorf("date %s: %w", day.Format("2006-01-02"), err)
			}
			if err := out.WriteQuotedSpreads(day, res.QuotedSpreads); err != nil {
				return fmt.Errorf("date %s: %w", day.Format("2006-01-02"), err)
			}
			if cfg.Output.WriteTrades {
				if err := out.WriteTrades(day, res.Trades, schemes, measures); err != nil {
					return fmt.Errorf("date %s: %w", day.Format("2006-01-02"), err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// parseDates accepts a comma-separated list of dates or an inclusive
// colon-separated range. Weekends inside a range are skipped.
func parseDates(s string) ([]time.Time, error) {
	if from, to, ok := strings.Cut(s, ":"); ok {
		start, err := parseDate(from)
		if err != nil {
			return nil, err
		}
		end, err := parseDate(to)
		if err != nil {
			return nil, err
		}
		if end.Before(start) {
			return nil, fmt.Errorf("date range %s ends before it starts", s)
		}
		var out []time.Time
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}
			out = append(out, d)
		}
		return out, nil
	}

	var out []time.Time
	for _, part := range strings.Split(s, ",") {
		d, err := parseDate(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
