package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TiltGuard/internal/domain/models"
	"TiltGuard/internal/domain/repository"
)

// ClickHouseLedger implements TradeLedger on ClickHouse. Reads are pure
// and restartable; writes come only from the event-ingest path.
type ClickHouseLedger struct {
	db    *sql.DB
	table string
}

func NewClickHouseLedger(db *sql.DB, table string) repository.TradeLedger {
	return &ClickHouseLedger{db: db, table: table}
}

func (l *ClickHouseLedger) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

// Read returns the trader's events ascending by timestamp. A count
// lookback takes the most recent N events; a window lookback takes
// everything inside the trailing duration. Empty result is not an error.
func (l *ClickHouseLedger) Read(ctx context.Context, traderID, ticker string, lb models.Lookback) ([]models.TradeEvent, error) {
	if err := lb.Validate(); err != nil {
		return nil, err
	}

	var rows *sql.Rows
	var err error
	if lb.Count > 0 {
		// newest-first limit, re-sorted ascending in the outer select
		q := fmt.Sprintf(`SELECT ts, trader_id, ticker, action, price, quantity, realized_pnl, note FROM (
			SELECT ts, trader_id, ticker, action, price, quantity, realized_pnl, note FROM %s
			WHERE trader_id = ? AND ticker = ? ORDER BY ts DESC LIMIT ?
		) ORDER BY ts ASC`, l.table)
		rows, err = l.db.QueryContext(ctx, q, traderID, ticker, lb.Count)
	} else {
		q := fmt.Sprintf(`SELECT ts, trader_id, ticker, action, price, quantity, realized_pnl, note FROM %s
			WHERE trader_id = ? AND ticker = ? AND ts >= ? ORDER BY ts ASC`, l.table)
		rows, err = l.db.QueryContext(ctx, q, traderID, ticker, time.Now().UTC().Add(-lb.Window))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: ledger read: %v", models.ErrUpstreamUnavailable, err)
	}
	defer rows.Close()

	var events []models.TradeEvent
	for rows.Next() {
		var e models.TradeEvent
		var action string
		var pnl sql.NullFloat64
		if err := rows.Scan(&e.Timestamp, &e.TraderID, &e.Ticker, &action, &e.Price, &e.Quantity, &pnl, &e.Note); err != nil {
			return nil, fmt.Errorf("%w: ledger scan: %v", models.ErrUpstreamUnavailable, err)
		}
		e.Timestamp = e.Timestamp.UTC()
		e.Action = models.ActionKind(action)
		if pnl.Valid {
			v := pnl.Float64
			e.RealizedPnL = &v
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ledger rows: %v", models.ErrUpstreamUnavailable, err)
	}
	return events, nil
}

func (l *ClickHouseLedger) Store(ctx context.Context, e *models.TradeEvent) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, trader_id, ticker, action, price, quantity, realized_pnl, note) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", l.table)
	_, err := l.db.ExecContext(ctx, q,
		e.Timestamp.UTC(),
		e.TraderID,
		e.Ticker,
		string(e.Action),
		e.Price,
		e.Quantity,
		nullablePnL(e),
		e.Note,
	)
	return err
}

func (l *ClickHouseLedger) StoreBatch(ctx context.Context, events []*models.TradeEvent) error {
	if len(events) == 0 {
		return nil
	}
	// multi-row VALUES insert to reduce round-trips
	const chunkSize = 2000
	for start := 0; start < len(events); start += chunkSize {
		end := start + chunkSize
		if end > len(events) {
			end = len(events)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, e := range events[start:end] {
			if e == nil || e.TraderID == "" || e.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				e.Timestamp.UTC(),
				e.TraderID,
				e.Ticker,
				string(e.Action),
				e.Price,
				e.Quantity,
				nullablePnL(e),
				e.Note,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, trader_id, ticker, action, price, quantity, realized_pnl, note) VALUES %s", l.table, strings.Join(values, ","))
		if _, err := l.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (l *ClickHouseLedger) Health(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

func (l *ClickHouseLedger) Close() error {
	return nil // Managed by pkg
}

func nullablePnL(e *models.TradeEvent) interface{} {
	if e.RealizedPnL == nil {
		return nil
	}
	return *e.RealizedPnL
}
