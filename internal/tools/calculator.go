package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/ashutoshrp06/brainhands/internal/types"
)

// CalculatorTool evaluates arithmetic expressions.
type CalculatorTool struct{}

func (CalculatorTool) Name() string { return "calculator" }

func (CalculatorTool) Execute(_ context.Context, params map[string]any, _ *types.ExecutionContext) (*Output, error) {
	expression := stringParam(params, "expression")
	if expression == "" {
		return failure("expression is required"), nil
	}

	v, err := Evaluate(expression)
	if err != nil {
		return failure("cannot evaluate %q: %v", expression, err), nil
	}

	return &Output{
		Success: true,
		Message: fmt.Sprintf("%s = %s", expression, strconv.FormatFloat(v, 'g', -1, 64)),
		Data:    map[string]any{"expression": expression, "result": v},
	}, nil
}

// Evaluate computes an arithmetic expression supporting + - * / % ^,
// unary signs and parentheses. ^ is right-associative. Identifiers and
// function calls are rejected.
func Evaluate(expression string) (float64, error) {
	if strings.TrimSpace(expression) == "" {
		return 0, errors.New("empty expression")
	}

	program, err := expr.Compile(expression,
		expr.Env(map[string]any{}),
		expr.DisableAllBuiltins(),
		expr.AsFloat64(),
	)
	if err != nil {
		return 0, err
	}

	out, err := expr.Run(program, map[string]any{})
	if err != nil {
		return 0, err
	}
	v, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("result %v is not a number", out)
	}
	if math.IsInf(v, 0) {
		return 0, errors.New("division by zero")
	}
	if math.IsNaN(v) {
		return 0, errors.New("result is not a finite number")
	}
	return v, nil
}
