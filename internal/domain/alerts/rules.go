// Package alerts evaluates low-stock rules over the ingredient catalog.
// Rules are CEL expressions over the variables {name, unit, stock, limit},
// so operators can add site-specific conditions without a deploy.
package alerts

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"rasoi/internal/core/apperror"
)

// Severity orders alerts for display.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rule is one stock condition. The expression must evaluate to bool.
type Rule struct {
	Name       string   `json:"name"`
	Expression string   `json:"expression"`
	Severity   Severity `json:"severity"`
}

// DefaultRules are the built-in thresholds: stock at or below the
// ingredient's low-stock limit warns, stock at or below zero is critical.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:       "out_of_stock",
			Expression: "stock <= 0.0",
			Severity:   SeverityCritical,
		},
		{
			Name:       "low_stock",
			Expression: "stock > 0.0 && stock <= limit",
			Severity:   SeverityWarning,
		},
	}
}

// Evaluator compiles and caches rule programs. Safe for concurrent use.
type Evaluator struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewEvaluator builds the CEL environment with the rule variable set.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("name", cel.StringType),
		cel.Variable("unit", cel.StringType),
		cel.Variable("stock", cel.DoubleType),
		cel.Variable("limit", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel environment: %w", err)
	}
	return &Evaluator{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Compile validates a rule expression and caches its program. Returns a
// VALIDATION_ERROR for expressions that do not compile or do not produce
// a boolean.
func (e *Evaluator) Compile(rule Rule) error {
	_, err := e.program(rule)
	return err
}

func (e *Evaluator) program(rule Rule) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.programs[rule.Expression]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, iss := e.env.Compile(rule.Expression)
	if iss.Err() != nil {
		return nil, apperror.NewValidation("rule expression does not compile").
			WithDetail("rule", rule.Name).
			WithDetail("expression", rule.Expression).
			WithCause(iss.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, apperror.NewValidation("rule expression must evaluate to bool").
			WithDetail("rule", rule.Name).
			WithDetail("expression", rule.Expression)
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, apperror.NewValidation("rule expression cannot be planned").
			WithDetail("rule", rule.Name).
			WithCause(err)
	}

	e.mu.Lock()
	e.programs[rule.Expression] = prg
	e.mu.Unlock()
	return prg, nil
}

// Matches evaluates a rule against one ingredient's state.
func (e *Evaluator) Matches(rule Rule, vars map[string]any) (bool, error) {
	prg, err := e.program(rule)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("evaluate rule %q: %w", rule.Name, err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q returned %T, want bool", rule.Name, out.Value())
	}
	return matched, nil
}
