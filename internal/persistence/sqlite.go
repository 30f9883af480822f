package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/types"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteRepository implements Repository using SQLite. Decimals are stored
// as TEXT to avoid float round-trips.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at path and
// runs migrations.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{db: db}

	if err := repo.Migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return repo, nil
}

// Migrate runs database migrations.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS fills (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			order_id TEXT NOT NULL,
			side INTEGER NOT NULL,
			quantity TEXT NOT NULL,
			price TEXT NOT NULL,
			fee TEXT NOT NULL,
			realized_pnl TEXT NOT NULL,
			seq INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fills_run ON fills(run_id, seq)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			type INTEGER NOT NULL,
			side INTEGER NOT NULL,
			quantity TEXT NOT NULL,
			price TEXT,
			sibling_id TEXT,
			status INTEGER NOT NULL,
			filled_price TEXT,
			filled_seq INTEGER,
			fee TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_run ON orders(run_id, seq)`,

		`CREATE TABLE IF NOT EXISTS equity_points (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			balance TEXT NOT NULL,
			equity TEXT NOT NULL,
			drawdown TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_equity_run ON equity_points(run_id, seq)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// SaveFill persists one fill.
func (r *SQLiteRepository) SaveFill(ctx context.Context, runID string, fill types.Fill) error {
	query := `INSERT INTO fills (id, run_id, order_id, side, quantity, price, fee, realized_pnl, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		fill.ID,
		runID,
		fill.OrderID,
		int(fill.Side),
		fill.Quantity.String(),
		fill.Price.String(),
		fill.Fee.String(),
		fill.RealizedPnL.String(),
		fill.Seq,
	)
	if err != nil {
		return fmt.Errorf("save fill: %w", err)
	}
	return nil
}

// GetFills returns a run's fills in execution order.
func (r *SQLiteRepository) GetFills(ctx context.Context, runID string) ([]types.Fill, error) {
	query := `SELECT id, order_id, side, quantity, price, fee, realized_pnl, seq
		FROM fills WHERE run_id = ? ORDER BY seq, created_at`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query fills: %w", err)
	}
	defer rows.Close()

	var fills []types.Fill
	for rows.Next() {
		var f types.Fill
		var side int
		var quantity, price, fee, realized string

		if err := rows.Scan(&f.ID, &f.OrderID, &side, &quantity, &price, &fee, &realized, &f.Seq); err != nil {
			return nil, fmt.Errorf("scan fill: %w", err)
		}

		f.Side = types.Side(side)
		if f.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("parse quantity: %w", err)
		}
		if f.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price: %w", err)
		}
		if f.Fee, err = decimal.NewFromString(fee); err != nil {
			return nil, fmt.Errorf("parse fee: %w", err)
		}
		if f.RealizedPnL, err = decimal.NewFromString(realized); err != nil {
			return nil, fmt.Errorf("parse realized pnl: %w", err)
		}

		fills = append(fills, f)
	}

	return fills, rows.Err()
}

// SaveOrder persists one order in its current state.
func (r *SQLiteRepository) SaveOrder(ctx context.Context, runID string, order types.Order) error {
	query := `INSERT OR REPLACE INTO orders
		(id, run_id, seq, type, side, quantity, price, sibling_id, status, filled_price, filled_seq, fee)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		order.ID,
		runID,
		order.Seq,
		int(order.Type),
		int(order.Side),
		order.Quantity.String(),
		order.Price.String(),
		order.SiblingID,
		int(order.Status),
		order.FilledPrice.String(),
		order.FilledSeq,
		order.Fee.String(),
	)
	if err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}

// GetOrders returns a run's orders in placement order.
func (r *SQLiteRepository) GetOrders(ctx context.Context, runID string) ([]types.Order, error) {
	query := `SELECT id, seq, type, side, quantity, price, sibling_id, status, filled_price, filled_seq, fee
		FROM orders WHERE run_id = ? ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []types.Order
	for rows.Next() {
		var o types.Order
		var typ, side, status int
		var quantity, price, filledPrice, fee string

		if err := rows.Scan(&o.ID, &o.Seq, &typ, &side, &quantity, &price,
			&o.SiblingID, &status, &filledPrice, &o.FilledSeq, &fee); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		o.Type = types.OrderType(typ)
		o.Side = types.Side(side)
		o.Status = types.OrderStatus(status)
		if o.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("parse quantity: %w", err)
		}
		if o.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price: %w", err)
		}
		if o.FilledPrice, err = decimal.NewFromString(filledPrice); err != nil {
			return nil, fmt.Errorf("parse filled price: %w", err)
		}
		if o.Fee, err = decimal.NewFromString(fee); err != nil {
			return nil, fmt.Errorf("parse fee: %w", err)
		}

		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// SaveEquityPoint persists one equity-curve point.
func (r *SQLiteRepository) SaveEquityPoint(ctx context.Context, runID string, point EquityPoint) error {
	query := `INSERT INTO equity_points (run_id, seq, balance, equity, drawdown)
		VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		runID,
		point.Seq,
		point.Balance.String(),
		point.Equity.String(),
		point.Drawdown.String(),
	)
	if err != nil {
		return fmt.Errorf("save equity point: %w", err)
	}
	return nil
}

// GetEquityCurve returns a run's equity curve in order.
func (r *SQLiteRepository) GetEquityCurve(ctx context.Context, runID string) ([]EquityPoint, error) {
	query := `SELECT seq, balance, equity, drawdown
		FROM equity_points WHERE run_id = ? ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query equity points: %w", err)
	}
	defer rows.Close()

	var points []EquityPoint
	for rows.Next() {
		var p EquityPoint
		var balance, equity, drawdown string

		if err := rows.Scan(&p.Seq, &balance, &equity, &drawdown); err != nil {
			return nil, fmt.Errorf("scan equity point: %w", err)
		}

		if p.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("parse balance: %w", err)
		}
		if p.Equity, err = decimal.NewFromString(equity); err != nil {
			return nil, fmt.Errorf("parse equity: %w", err)
		}
		if p.Drawdown, err = decimal.NewFromString(drawdown); err != nil {
			return nil, fmt.Errorf("parse drawdown: %w", err)
		}

		points = append(points, p)
	}

	return points, rows.Err()
}

// Close closes the underlying database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteRepository implements Repository.
var _ Repository = (*SQLiteRepository)(nil)
