package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"CoinSense/internal/domain/models"
	applogger "CoinSense/pkg/logger"
)

const defaultDecisionTable = "decisions"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

const insertColumns = "id, ts, coin_id, symbol, persona, decision, trending, market_cap, liquidity, stability, total, reasoning"

// ClickHouseDecisionStore keeps decision history in a MergeTree table.
type ClickHouseDecisionStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewClickHouseDecisionStore returns a store over db. An empty table means "decisions".
func NewClickHouseDecisionStore(db *sql.DB, table string, l *applogger.Logger) (*ClickHouseDecisionStore, error) {
	if table == "" {
		table = defaultDecisionTable
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("clickhouse decision store: invalid table name %q", table)
	}
	if l == nil {
		l = applogger.NewNop()
	}
	return &ClickHouseDecisionStore{db: db, table: table, l: l}, nil
}

// SchemaStatements returns the DDL for the decisions table.
func (s *ClickHouseDecisionStore) SchemaStatements() []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id String,
	ts DateTime64(3, 'UTC'),
	coin_id LowCardinality(String),
	symbol String,
	persona LowCardinality(String),
	decision LowCardinality(String),
	trending Float64,
	market_cap Float64,
	liquidity Float64,
	stability Float64,
	total Float64,
	reasoning String
) ENGINE = ReplacingMergeTree
ORDER BY (coin_id, ts, id)
TTL toDateTime(ts) + INTERVAL 90 DAY`, s.table)}
}

func (s *ClickHouseDecisionStore) Init(ctx context.Context) error {
	for _, stmt := range s.SchemaStatements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init %s: %w", s.table, err)
		}
	}
	return nil
}

func (s *ClickHouseDecisionStore) Store(ctx context.Context, r *models.DecisionRecord) error {
	return s.StoreBatch(ctx, []*models.DecisionRecord{r})
}

// StoreBatch inserts records with multi-row VALUES, 2000 rows per statement.
// Records without id or coin are skipped.
func (s *ClickHouseDecisionStore) StoreBatch(ctx context.Context, records []*models.DecisionRecord) error {
	const chunkSize = 2000
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*12)
		for _, r := range records[start:end] {
			if r == nil || r.ID == "" || r.CoinID == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.ID,
				r.CreatedAt.UTC(),
				r.CoinID,
				r.Symbol,
				r.Persona,
				string(r.Outcome),
				r.Scores.Trending,
				r.Scores.MarketCap,
				r.Scores.Liquidity,
				r.Scores.Stability,
				r.Scores.Total,
				r.Reasoning,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, insertColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert decisions failed",
				applogger.String("table", s.table),
				applogger.Int("rows", len(values)),
				applogger.Error(err),
			)
			return fmt.Errorf("insert decisions: %w", err)
		}
	}
	return nil
}

// Query returns the latest decisions for a coin, newest first.
func (s *ClickHouseDecisionStore) Query(ctx context.Context, coinID string, limit int) ([]*models.DecisionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	q := fmt.Sprintf("SELECT %s FROM %s WHERE coin_id = ? ORDER BY ts DESC LIMIT ?", insertColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, coinID, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	out := make([]*models.DecisionRecord, 0, limit)
	for rows.Next() {
		var (
			r       models.DecisionRecord
			ts      time.Time
			outcome string
		)
		if err := rows.Scan(
			&r.ID, &ts, &r.CoinID, &r.Symbol, &r.Persona, &outcome,
			&r.Scores.Trending, &r.Scores.MarketCap, &r.Scores.Liquidity, &r.Scores.Stability, &r.Scores.Total,
			&r.Reasoning,
		); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		r.CreatedAt = ts.UTC()
		r.Outcome = models.Outcome(outcome)
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *ClickHouseDecisionStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.
func (s *ClickHouseDecisionStore) Close() error { return nil }
