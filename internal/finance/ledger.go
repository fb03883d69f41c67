// Package finance provides a SQLite-backed ledger that the finance tools
// operate on.
package finance

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Ledger implements types.FinanceOperations using SQLite.
type Ledger struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ types.FinanceOperations = (*Ledger)(nil)

// Open opens (or creates) the ledger at path and runs migrations.
func Open(path string, logger *zap.Logger) (*Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("finance ledger: open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("finance ledger: wal: %w", err)
	}

	l := &Ledger{db: db, logger: logger}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) migrate() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id          TEXT PRIMARY KEY,
			amount      REAL NOT NULL,
			category    TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			occurred_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS budgets (
			category    TEXT PRIMARY KEY,
			limit_value REAL NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category);
		CREATE INDEX IF NOT EXISTS idx_transactions_occurred ON transactions(occurred_at);
	`)
	if err != nil {
		return fmt.Errorf("finance ledger: migrate: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// AddTransaction records tx, assigning an id and timestamp when missing.
func (l *Ledger) AddTransaction(ctx context.Context, tx types.Transaction) (types.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = time.Now()
	}
	tx.Category = normalizeCategory(tx.Category)

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO transactions (id, amount, category, description, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`, tx.ID, tx.Amount, tx.Category, tx.Description, tx.OccurredAt.UnixMilli())
	if err != nil {
		return types.Transaction{}, fmt.Errorf("finance ledger: add transaction: %w", err)
	}

	l.logger.Info("Transaction recorded",
		zap.String("id", tx.ID),
		zap.String("category", tx.Category),
		zap.Float64("amount", tx.Amount))
	return tx, nil
}

// GetTransactions returns matching transactions, newest first.
func (l *Ledger) GetTransactions(ctx context.Context, filter types.TransactionFilter) ([]types.Transaction, error) {
	query := "SELECT id, amount, category, description, occurred_at FROM transactions WHERE 1=1"
	var args []any

	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, normalizeCategory(filter.Category))
	}
	if !filter.Since.IsZero() {
		query += " AND occurred_at >= ?"
		args = append(args, filter.Since.UnixMilli())
	}
	query += " ORDER BY occurred_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finance ledger: list transactions: %w", err)
	}
	defer rows.Close()

	var out []types.Transaction
	for rows.Next() {
		var (
			tx types.Transaction
			ms int64
		)
		if err := rows.Scan(&tx.ID, &tx.Amount, &tx.Category, &tx.Description, &ms); err != nil {
			return nil, fmt.Errorf("finance ledger: scan transaction: %w", err)
		}
		tx.OccurredAt = time.UnixMilli(ms)
		out = append(out, tx)
	}
	return out, rows.Err()
}

// GetFinancialReport totals activity since the given time and flags
// categories whose spending exceeds their budget.
func (l *Ledger) GetFinancialReport(ctx context.Context, since time.Time) (types.FinancialReport, error) {
	txs, err := l.GetTransactions(ctx, types.TransactionFilter{Since: since})
	if err != nil {
		return types.FinancialReport{}, err
	}

	report := types.FinancialReport{Since: since, ByCategory: make(map[string]float64)}
	spent := make(map[string]float64)
	for _, tx := range txs {
		report.ByCategory[tx.Category] += tx.Amount
		if tx.Amount >= 0 {
			report.Income += tx.Amount
		} else {
			report.Expenses += -tx.Amount
			spent[tx.Category] += -tx.Amount
		}
	}
	report.Net = report.Income - report.Expenses

	budgets, err := l.GetBudgets(ctx)
	if err != nil {
		return types.FinancialReport{}, err
	}
	for _, b := range budgets {
		if spent[b.Category] > b.Limit {
			report.OverBudget = append(report.OverBudget, b.Category)
		}
	}
	sort.Strings(report.OverBudget)
	return report, nil
}

// SetBudget creates or replaces the budget of a category.
func (l *Ledger) SetBudget(ctx context.Context, budget types.Budget) error {
	if budget.Limit <= 0 {
		return fmt.Errorf("finance ledger: budget limit must be positive")
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO budgets (category, limit_value) VALUES (?, ?)
		ON CONFLICT(category) DO UPDATE SET limit_value=excluded.limit_value
	`, normalizeCategory(budget.Category), budget.Limit)
	if err != nil {
		return fmt.Errorf("finance ledger: set budget: %w", err)
	}
	return nil
}

// GetBudgets returns all budgets ordered by category.
func (l *Ledger) GetBudgets(ctx context.Context) ([]types.Budget, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT category, limit_value FROM budgets ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("finance ledger: list budgets: %w", err)
	}
	defer rows.Close()

	var out []types.Budget
	for rows.Next() {
		var b types.Budget
		if err := rows.Scan(&b.Category, &b.Limit); err != nil {
			return nil, fmt.Errorf("finance ledger: scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func normalizeCategory(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return "uncategorized"
	}
	return c
}
