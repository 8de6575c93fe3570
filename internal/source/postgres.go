package source

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Open-Empirical-Finance/gotaq/internal/taq"
)

// Postgres reads raw TAQ tables from the vendor database over a pgx
// connection pool.
type Postgres struct {
	pool    *pgxpool.Pool
	library string
}

// NewPostgres opens a connection pool against the vendor database.
func NewPostgres(ctx context.Context, dsn, library string) (*Postgres, error) {
	if library == "" {
		library = DefaultLibrary
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("source: connect postgres: %w", err)
	}
	return &Postgres{pool: pool, library: library}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Quotes implements DataSource.
func (p *Postgres) Quotes(ctx context.Context, q Query) ([]taq.QuoteRow, error) {
	sql := BuildQuery(QuoteColumns, TableForDate(TableQuotes, q.Date), p.library, q.Symbols, q.Start, q.End, "")
	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("source: query quotes: %w", err)
	}
	defer rows.Close()

	var out []taq.QuoteRow
	for rows.Next() {
		var (
			date                     time.Time
			tm                       pgtype.Time
			ex, root                 string
			suffix                   *string
			bid, bidsiz, ask, asksiz *float64
			cond                     *string
			seq                      *int64
			natbbo, src, cancel      *string
		)
		if err := rows.Scan(&date, &tm, &ex, &root, &suffix, &bid, &bidsiz, &ask, &asksiz, &cond, &seq, &natbbo, &src, &cancel); err != nil {
			return nil, fmt.Errorf("source: scan quote row: %w", err)
		}
		out = append(out, taq.QuoteRow{
			Date:         date,
			TimeOfDay:    timeOfDay(tm),
			Exchange:     ex,
			SymbolRoot:   root,
			SymbolSuffix: strOrEmpty(suffix),
			Bid:          floatOrNaN(bid),
			BidLots:      floatOrNaN(bidsiz),
			Ask:          floatOrNaN(ask),
			AskLots:      floatOrNaN(asksiz),
			Cond:         strOrEmpty(cond),
			SeqNum:       intOrZero(seq),
			NatBBOInd:    strOrEmpty(natbbo),
			Source:       strOrEmpty(src),
			Cancel:       strOrEmpty(cancel),
		})
	}
	return out, rows.Err()
}

// NBBO implements DataSource.
func (p *Postgres) NBBO(ctx context.Context, q Query) ([]taq.NBBORow, error) {
	sql := BuildQuery(NBBOColumns, TableForDate(TableNBBO, q.Date), p.library, q.Symbols, q.Start, q.End, "")
	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("source: query nbbo: %w", err)
	}
	defer rows.Close()

	var out []taq.NBBORow
	for rows.Next() {
		var (
			date               time.Time
			tm                 pgtype.Time
			root               string
			suffix             *string
			bb, bbs, ba, bas   *float64
			cond               *string
			seq                *int64
			askex, bidex, canc *string
		)
		if err := rows.Scan(&date, &tm, &root, &suffix, &bb, &bbs, &ba, &bas, &cond, &seq, &askex, &bidex, &canc); err != nil {
			return nil, fmt.Errorf("source: scan nbbo row: %w", err)
		}
		out = append(out, taq.NBBORow{
			Date:         date,
			TimeOfDay:    timeOfDay(tm),
			SymbolRoot:   root,
			SymbolSuffix: strOrEmpty(suffix),
			BestBid:      floatOrNaN(bb),
			BestBidLots:  floatOrNaN(bbs),
			BestAsk:      floatOrNaN(ba),
			BestAskLots:  floatOrNaN(bas),
			Cond:         strOrEmpty(cond),
			SeqNum:       intOrZero(seq),
			BestAskEx:    strOrEmpty(askex),
			BestBidEx:    strOrEmpty(bidex),
			Cancel:       strOrEmpty(canc),
		})
	}
	return out, rows.Err()
}

// OfficialNBBO implements DataSource.
func (p *Postgres) OfficialNBBO(ctx context.Context, q Query) ([]taq.OfficialNBBORow, error) {
	sql := BuildQuery(OfficialNBBOColumns, TableForDate(TableOfficialNBBO, q.Date), p.library, q.Symbols, q.Start, q.End, "")
	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("source: query official nbbo: %w", err)
	}
	defer rows.Close()

	var out []taq.OfficialNBBORow
	for rows.Next() {
		var (
			date             time.Time
			tm               pgtype.Time
			root             string
			suffix           *string
			bb, bbs, ba, bas *float64
		)
		if err := rows.Scan(&date, &tm, &root, &suffix, &bb, &bbs, &ba, &bas); err != nil {
			return nil, fmt.Errorf("source: scan official nbbo row: %w", err)
		}
		out = append(out, taq.OfficialNBBORow{
			Date:          date,
			TimeOfDay:     timeOfDay(tm),
			SymbolRoot:    root,
			SymbolSuffix:  strOrEmpty(suffix),
			BestBid:       floatOrNaN(bb),
			BestBidShares: floatOrNaN(bbs),
			BestAsk:       floatOrNaN(ba),
			BestAskShares: floatOrNaN(bas),
		})
	}
	return out, rows.Err()
}

// Trades implements DataSource. Corrected trades and non-positive
// prices are filtered server-side.
func (p *Postgres) Trades(ctx context.Context, q Query) ([]taq.TradeRow, error) {
	sql := BuildQuery(TradeColumns, TableForDate(TableTrades, q.Date), p.library, q.Symbols, q.Start, q.End, TradeCondition)
	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("source: query trades: %w", err)
	}
	defer rows.Close()

	var out []taq.TradeRow
	for rows.Next() {
		var (
			date        time.Time
			tm          pgtype.Time
			ex, root    string
			suffix      *string
			size, price *float64
			seq         *int64
			cond, corr  *string
		)
		if err := rows.Scan(&date, &tm, &ex, &root, &suffix, &size, &price, &seq, &cond, &corr); err != nil {
			return nil, fmt.Errorf("source: scan trade row: %w", err)
		}
		out = append(out, taq.TradeRow{
			Date:           date,
			TimeOfDay:      timeOfDay(tm),
			Exchange:       ex,
			SymbolRoot:     root,
			SymbolSuffix:   strOrEmpty(suffix),
			Size:           floatOrNaN(size),
			Price:          floatOrNaN(price),
			SeqNum:         intOrZero(seq),
			Cond:           strOrEmpty(cond),
			CorrectionCode: strOrEmpty(corr),
		})
	}
	return out, rows.Err()
}

// Symbols implements DataSource.
func (p *Postgres) Symbols(ctx context.Context, date time.Time) ([]string, error) {
	sql := "SELECT DISTINCT sym_root FROM " + p.library + "." + TableForDate(TableNBBO, date)
	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("source: query symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("source: scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func timeOfDay(t pgtype.Time) time.Duration {
	return time.Duration(t.Microseconds) * time.Microsecond
}

func floatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func strOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func intOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
