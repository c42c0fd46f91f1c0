package compat

import (
	"errors"
	"math"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/spin-match/spin-match/internal/domain/participant"
)

// Rule is an optional operator-configured compatibility expression applied
// on top of the built-in preference checks. The expression sees both
// participants' attributes as flat parameters (a_age, b_gender, distance_km,
// ...) and must evaluate to a boolean. An empty expression matches all.
type Rule struct {
	expr *govaluate.EvaluableExpression
}

var ruleFunctions = map[string]govaluate.ExpressionFunction{
	"abs": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, errors.New("abs expects one argument")
		}
		f, ok := args[0].(float64)
		if !ok {
			return nil, errors.New("abs expects a number")
		}
		return math.Abs(f), nil
	},
}

// NewRule parses a compatibility expression. An empty string yields a rule
// that always matches.
func NewRule(expression string) (*Rule, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return &Rule{}, nil
	}
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(expression, ruleFunctions)
	if err != nil {
		return nil, err
	}
	return &Rule{expr: expr}, nil
}

// Match evaluates the rule against both participants. A rule that fails to
// evaluate rejects the pair; a broken expression must never widen matching.
func (r *Rule) Match(a, b *participant.Participant) (bool, error) {
	if r == nil || r.expr == nil {
		return true, nil
	}
	params := map[string]interface{}{
		"a_age":       float64(a.Age),
		"b_age":       float64(b.Age),
		"a_gender":    string(a.Gender),
		"b_gender":    string(b.Gender),
		"distance_km": participant.DistanceKm(a, b),
	}
	result, err := r.expr.Evaluate(params)
	if err != nil {
		return false, err
	}
	v, ok := result.(bool)
	if !ok {
		return false, errors.New("compatibility rule did not evaluate to boolean")
	}
	return v, nil
}
