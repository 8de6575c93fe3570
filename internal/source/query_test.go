package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTableForDate(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "nbbom_20240115", TableForDate(TableNBBO, date))
	assert.Equal(t, "cqm_20240115", TableForDate(TableQuotes, date))
	assert.Equal(t, "ctm_20240115", TableForDate(TableTrades, date))
	assert.Equal(t, "complete_nbbo_20240115", TableForDate(TableOfficialNBBO, date))
}

func TestTimeToSQL(t *testing.T) {
	tests := []struct {
		name string
		tod  time.Duration
		want string
	}{
		{name: "whole_time", tod: 9*time.Hour + 30*time.Minute, want: "'09:30:00.000'"},
		{name: "with_millis", tod: 9*time.Hour + 30*time.Minute + 123*time.Millisecond, want: "'09:30:00.123'"},
		{name: "micros_round_down", tod: 16*time.Hour + 123400*time.Microsecond, want: "'16:00:00.123'"},
		{name: "micros_round_up", tod: 16*time.Hour + 123500*time.Microsecond, want: "'16:00:00.124'"},
		{name: "rounding_carries_into_seconds", tod: 10*time.Hour + 999600*time.Microsecond, want: "'10:00:01.000'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeToSQL(tt.tod, "'"))
		})
	}
}

func TestBuildQuery(t *testing.T) {
	start := 9 * time.Hour
	end := 16 * time.Hour

	got := BuildQuery([]string{"date", "time_m", "price"}, "ctm_20240115", "", []string{"IBM", "MSFT"}, start, end, TradeCondition)
	want := "SELECT date, time_m, price FROM taqmsec.ctm_20240115" +
		" WHERE sym_root IN ('IBM','MSFT') AND sym_suffix IS NULL" +
		" AND (time_m BETWEEN '09:00:00.000' AND '16:00:00.000')" +
		" AND tr_corr = '00' AND price > 0"
	assert.Equal(t, want, got)
}

func TestBuildQueryAllSymbols(t *testing.T) {
	got := BuildQuery([]string{"date"}, "nbbom_20240115", "mylib", nil, 0, 0, "")
	assert.Equal(t, "SELECT date FROM mylib.nbbom_20240115 WHERE sym_suffix IS NULL", got)
}

func TestBuildQueryOpenEndedWindows(t *testing.T) {
	startOnly := BuildQuery([]string{"date"}, "t", "lib", nil, 9*time.Hour, 0, "")
	assert.Contains(t, startOnly, "AND (time_m > '09:00:00.000')")

	endOnly := BuildQuery([]string{"date"}, "t", "lib", nil, 0, 16*time.Hour, "")
	assert.Contains(t, endOnly, "AND (time_m < '16:00:00.000')")
}
