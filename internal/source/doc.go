// Package source provides access to raw daily TAQ tables.
//
// A DataSource is a small capability interface returning the documented
// raw row schemas for a given date, symbol list and time-of-day window.
// Two implementations exist: Postgres, which queries the vendor's
// per-day tables over a pgx connection pool, and CSV, which reads flat
// extracts with the same column layouts. Cleaning never depends on the
// backend; it only sees the raw rows.
//
// The package also owns the SQL query construction contract: per-day
// table names (nbbom_YYYYMMDD, cqm_, ctm_, complete_nbbo_), root-only
// symbol matching with a null suffix, and time-of-day windows
// serialized as HH:MM:SS.mmm.
package source
