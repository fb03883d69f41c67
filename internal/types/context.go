package types

import (
	"context"
	"sort"
	"time"
)

// ToolSet is a set of tool names.
type ToolSet map[string]struct{}

// NewToolSet builds a set from names, skipping empty ones.
func NewToolSet(names ...string) ToolSet {
	s := make(ToolSet, len(names))
	for _, n := range names {
		if n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// Has reports whether name is in the set.
func (s ToolSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the members in sorted order.
func (s ToolSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ExecutionContext is built once per request and is read-only to the loop.
// Capability fields may have side effects of their own.
type ExecutionContext struct {
	APIKey         string
	ModelName      string
	AllowedTools   ToolSet
	AvailableTools []ToolDescriptor
	SearchAPIKey   string
	Finance        FinanceOperations
	Capabilities   map[string]any
}

// IsAllowed reports whether a tool may be executed in this context.
func (ec *ExecutionContext) IsAllowed(name string) bool {
	if IsTerminalTool(name) {
		return true
	}
	return ec != nil && ec.AllowedTools.Has(name)
}

// Transaction is a single ledger movement. Negative amounts are expenses.
type Transaction struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// TransactionFilter narrows GetTransactions.
type TransactionFilter struct {
	Category string
	Since    time.Time
	Limit    int
}

// Budget caps spending for a category.
type Budget struct {
	Category string  `json:"category"`
	Limit    float64 `json:"limit"`
}

// FinancialReport summarizes a period of activity.
type FinancialReport struct {
	Since      time.Time          `json:"since"`
	Income     float64            `json:"income"`
	Expenses   float64            `json:"expenses"`
	Net        float64            `json:"net"`
	ByCategory map[string]float64 `json:"byCategory"`
	OverBudget []string           `json:"overBudget,omitempty"`
}

// FinanceOperations is the finance capability set a caller may supply.
type FinanceOperations interface {
	AddTransaction(ctx context.Context, tx Transaction) (Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	GetFinancialReport(ctx context.Context, since time.Time) (FinancialReport, error)
	SetBudget(ctx context.Context, budget Budget) error
	GetBudgets(ctx context.Context) ([]Budget, error)
}
