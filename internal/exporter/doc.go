// Package exporter writes pipeline results to per-day CSV files. Null
// measures serialize as empty fields so spreadsheet tools and pandas
// read them back as missing values.
package exporter
