package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"ForecastAPI/internal/domain/models"
	domrepo "ForecastAPI/internal/domain/repository"
	pkgch "ForecastAPI/pkg/clickhouse"
	applogger "ForecastAPI/pkg/logger"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// CHHistory reads daily closes loaded into ClickHouse by the external ETL.
type CHHistory struct {
	db     *sql.DB
	table  string
	symbol string
	l      *applogger.Logger
}

func NewCHHistory(ch *pkgch.Client, table, symbol string, l *applogger.Logger) (*CHHistory, error) {
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid clickhouse table name %q", table)
	}
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHHistory{db: ch.DB(), table: table, symbol: symbol, l: l}, nil
}

func (s *CHHistory) Name() string   { return "clickhouse" }
func (s *CHHistory) Source() string { return models.SourceClickHouse }

// HistorySchema returns the DDL for the daily close table.
func HistorySchema(table string) []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            symbol LowCardinality(String),
            day    Date,
            close  Float64
        ) ENGINE = ReplacingMergeTree
        ORDER BY (symbol, day)
    `, table)}
}

// FetchDailyCloses returns the latest n closes in ascending day order.
func (s *CHHistory) FetchDailyCloses(ctx context.Context, n int) ([]float64, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT close
        FROM %s FINAL
        WHERE symbol = ? AND close > 0
        ORDER BY day DESC
        LIMIT ?
    `, s.table)

	rows, err := s.db.QueryContext(ctx, q, s.symbol, n)
	if err != nil {
		s.l.Error("clickhouse history query error",
			applogger.String("table", s.table),
			applogger.String("symbol", s.symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]float64, 0, n)
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan close: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	reverse(out)
	s.l.Debug("clickhouse history ok",
		applogger.String("symbol", s.symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)

	if len(out) < n {
		return nil, fmt.Errorf("%w: got %d, want %d", domrepo.ErrInsufficientData, len(out), n)
	}
	return out, nil
}

func reverse(v []float64) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}

var _ domrepo.MarketDataProvider = (*CHHistory)(nil)
