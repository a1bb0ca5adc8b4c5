package tool

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

// CalculateArgs are the parameters of the calculate tool.
type CalculateArgs struct {
	Expression string `json:"expression" jsonschema:"Arithmetic expression to evaluate, for example 2+2 or sqrt(16)*3"`
}

// mathEnv is the evaluation environment for calculator expressions. Builtins
// such as abs, floor, ceil, round, min and max come from expr itself.
var mathEnv = map[string]any{
	"pi":   math.Pi,
	"e":    math.E,
	"sqrt": math.Sqrt,
	"pow":  math.Pow,
	"log":  math.Log,
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
}

// Calculator returns the calculate tool.
func Calculator() Descriptor {
	return Func("calculate",
		"Evaluate an arithmetic expression and return the numeric result.",
		func(ctx context.Context, args CalculateArgs) (string, error) {
			v, err := Evaluate(args.Expression)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s = %s", strings.TrimSpace(args.Expression), FormatNumber(v)), nil
		})
}

// Evaluate computes the value of an arithmetic expression.
// Identifiers outside the math environment are rejected at compile time.
func Evaluate(expression string) (float64, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return 0, fmt.Errorf("empty expression")
	}

	program, err := expr.Compile(expression,
		expr.Env(mathEnv),
		expr.AsFloat64(),
		expr.MaxNodes(256),
	)
	if err != nil {
		return 0, fmt.Errorf("invalid expression %q: %w", expression, err)
	}

	out, err := expr.Run(program, mathEnv)
	if err != nil {
		return 0, fmt.Errorf("evaluate %q: %w", expression, err)
	}

	v, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("expression %q did not produce a number", expression)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("expression %q has no finite result", expression)
	}
	return v, nil
}

// FormatNumber renders v without a trailing fraction for whole numbers.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
