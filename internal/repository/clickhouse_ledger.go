package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"NotifyInvest/internal/domain/models"
	pkgch "NotifyInvest/pkg/clickhouse"
)

// ClickHouseLedger implements SignalLedger on ClickHouse. Sequence numbers
// come from an in-process atomic counter seeded from max(seq) at Init; the
// single ingest path (kafka consumer with max in-flight 1 per partition, or
// the direct HTTP handler) keeps assignment race-free across appends.
type ClickHouseLedger struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
	seq    atomic.Uint64
}

func NewClickHouseLedger(client *pkgch.Client, table string) *ClickHouseLedger {
	return &ClickHouseLedger{client: client, db: client.DB(), table: table}
}

// Schema returns the idempotent DDL for the ledger table.
func Schema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq UInt64,
			ts DateTime,
			title String,
			body String,
			url String,
			source_type LowCardinality(String),
			source_name String,
			tickers String
		) ENGINE = MergeTree ORDER BY seq`, table),
	}
}

func (l *ClickHouseLedger) Init(ctx context.Context) error {
	var max sql.NullInt64
	q := fmt.Sprintf("SELECT max(seq) FROM %s", l.table)
	if err := l.db.QueryRowContext(ctx, q).Scan(&max); err != nil {
		return fmt.Errorf("seed sequence: %w", err)
	}
	if max.Valid {
		l.seq.Store(uint64(max.Int64))
	}
	return nil
}

func (l *ClickHouseLedger) Append(ctx context.Context, sig *models.Signal) (uint64, error) {
	seq := l.seq.Add(1)

	q := fmt.Sprintf("INSERT INTO %s (seq, ts, title, body, url, source_type, source_name, tickers) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", l.table)
	_, err := l.db.ExecContext(ctx, q,
		seq,
		time.Unix(sig.Timestamp, 0),
		sig.Title,
		sig.Body,
		sig.Data.URL,
		sig.Data.SourceType,
		sig.Data.SourceName,
		strings.Join(sig.Tickers, ","),
	)
	if err != nil {
		return 0, fmt.Errorf("append signal: %w", err)
	}
	sig.Seq = seq
	return seq, nil
}

func (l *ClickHouseLedger) Query(ctx context.Context, limit int, search string) ([]*models.Signal, error) {
	var (
		where string
		args  []interface{}
	)
	if search != "" {
		where = "WHERE positionCaseInsensitiveUTF8(title, ?) > 0 OR positionCaseInsensitiveUTF8(body, ?) > 0"
		args = append(args, search, search)
	}
	args = append(args, limit)

	// Newest limit rows, then reversed below to the oldest-first contract.
	q := fmt.Sprintf("SELECT seq, ts, title, body, url, source_type, source_name, tickers FROM %s %s ORDER BY seq DESC LIMIT ?", l.table, where)
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var signals []*models.Signal
	for rows.Next() {
		var (
			s       models.Signal
			ts      time.Time
			tickers string
		)
		if err := rows.Scan(&s.Seq, &ts, &s.Title, &s.Body, &s.Data.URL, &s.Data.SourceType, &s.Data.SourceName, &tickers); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		s.Timestamp = ts.Unix()
		if tickers != "" {
			s.Tickers = strings.Split(tickers, ",")
		}
		signals = append(signals, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(signals)-1; i < j; i, j = i+1, j-1 {
		signals[i], signals[j] = signals[j], signals[i]
	}
	return signals, nil
}

func (l *ClickHouseLedger) Health(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

func (l *ClickHouseLedger) Close() error {
	return l.client.Close()
}
