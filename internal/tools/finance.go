package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/ashutoshrp06/brainhands/internal/types"
)

// financeTools exposes the caller-supplied finance capabilities as tools.
func financeTools() []Tool {
	return []Tool{
		Func{ToolName: "add_transaction", Fn: addTransaction},
		Func{ToolName: "get_transactions", Fn: getTransactions},
		Func{ToolName: "get_financial_report", Fn: getFinancialReport},
		Func{ToolName: "set_budget", Fn: setBudget},
		Func{ToolName: "get_budgets", Fn: getBudgets},
	}
}

func finance(ec *types.ExecutionContext) (types.FinanceOperations, error) {
	if ec == nil || ec.Finance == nil {
		return nil, fmt.Errorf("finance features are not available in this conversation")
	}
	return ec.Finance, nil
}

func addTransaction(ctx context.Context, params map[string]any, ec *types.ExecutionContext) (*Output, error) {
	fin, err := finance(ec)
	if err != nil {
		return nil, err
	}
	amount, ok := numberParam(params, "amount")
	if !ok || amount == 0 {
		return failure("amount must be a non-zero number"), nil
	}
	category := stringParam(params, "category")
	if category == "" {
		return failure("category is required"), nil
	}

	tx, err := fin.AddTransaction(ctx, types.Transaction{
		Amount:      amount,
		Category:    category,
		Description: stringParam(params, "description"),
		OccurredAt:  time.Now(),
	})
	if err != nil {
		return nil, err
	}

	kind := "income"
	if amount < 0 {
		kind = "expense"
	}
	return &Output{
		Success: true,
		Message: fmt.Sprintf("Recorded %s of %.2f in %s", kind, amount, category),
		Data:    map[string]any{"transaction": tx},
	}, nil
}

func getTransactions(ctx context.Context, params map[string]any, ec *types.ExecutionContext) (*Output, error) {
	fin, err := finance(ec)
	if err != nil {
		return nil, err
	}
	filter := types.TransactionFilter{Category: stringParam(params, "category")}
	if limit, ok := numberParam(params, "limit"); ok && limit > 0 {
		filter.Limit = int(limit)
	}
	if days, ok := numberParam(params, "days"); ok && days > 0 {
		filter.Since = time.Now().Add(-time.Duration(days*24) * time.Hour)
	}

	txs, err := fin.GetTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Output{
		Success: true,
		Message: fmt.Sprintf("Found %d transactions", len(txs)),
		Data:    map[string]any{"transactions": txs, "count": len(txs)},
	}, nil
}

func getFinancialReport(ctx context.Context, params map[string]any, ec *types.ExecutionContext) (*Output, error) {
	fin, err := finance(ec)
	if err != nil {
		return nil, err
	}
	days, ok := numberParam(params, "days")
	if !ok || days <= 0 {
		days = 30
	}

	report, err := fin.GetFinancialReport(ctx, time.Now().Add(-time.Duration(days*24)*time.Hour))
	if err != nil {
		return nil, err
	}
	return &Output{
		Success: true,
		Message: fmt.Sprintf("Last %.0f days: income %.2f, expenses %.2f, net %.2f",
			days, report.Income, report.Expenses, report.Net),
		Data: map[string]any{"report": report},
	}, nil
}

func setBudget(ctx context.Context, params map[string]any, ec *types.ExecutionContext) (*Output, error) {
	fin, err := finance(ec)
	if err != nil {
		return nil, err
	}
	category := stringParam(params, "category")
	limit, ok := numberParam(params, "limit")
	if category == "" || !ok || limit <= 0 {
		return failure("category and a positive limit are required"), nil
	}

	budget := types.Budget{Category: category, Limit: limit}
	if err := fin.SetBudget(ctx, budget); err != nil {
		return nil, err
	}
	return &Output{
		Success: true,
		Message: fmt.Sprintf("Budget for %s set to %.2f", category, limit),
		Data:    map[string]any{"budget": budget},
	}, nil
}

func getBudgets(ctx context.Context, _ map[string]any, ec *types.ExecutionContext) (*Output, error) {
	fin, err := finance(ec)
	if err != nil {
		return nil, err
	}
	budgets, err := fin.GetBudgets(ctx)
	if err != nil {
		return nil, err
	}
	return &Output{
		Success: true,
		Message: fmt.Sprintf("%d budgets configured", len(budgets)),
		Data:    map[string]any{"budgets": budgets},
	}, nil
}
