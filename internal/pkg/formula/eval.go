package formula

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// Result is the outcome of evaluating an Expression.
type Result struct {
	Value decimal.Decimal
	// Unresolved lists identifiers that were not bound in the context and
	// therefore evaluated as empty values.
	Unresolved []string
}

// Evaluate parses and evaluates src against ctx in one step.
func Evaluate(src string, ctx Context) (decimal.Decimal, error) {
	expr, err := Parse(src)
	if err != nil {
		return decimal.Zero, err
	}
	res, err := expr.Eval(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return res.Value, nil
}

// Eval evaluates the expression against ctx. ctx is never modified.
func (e *Expression) Eval(ctx Context) (Result, error) {
	var unresolved []string
	for _, name := range e.identifiers {
		if _, ok := ctx[name]; !ok {
			unresolved = append(unresolved, name)
		}
	}

	v, err := eval(e.root, ctx)
	if err != nil {
		return Result{Unresolved: unresolved}, err
	}

	var out decimal.Decimal
	switch v.Kind() {
	case KindString:
		d, ok := v.Number()
		if !ok {
			return Result{Unresolved: unresolved}, evalErrorf("expression produced non-numeric value %q", v.str)
		}
		out = d
	default:
		out, _ = v.Number()
	}
	return Result{Value: out, Unresolved: unresolved}, nil
}

func eval(n Node, ctx Context) (Value, error) {
	switch n := n.(type) {
	case *Literal:
		return n.Value, nil
	case *Identifier:
		if v, ok := ctx[n.Name]; ok {
			return v, nil
		}
		return Null(), nil
	case *Unary:
		operand, err := eval(n.Operand, ctx)
		if err != nil {
			return Value{}, err
		}
		if n.Op == "!" {
			return Bool(!operand.Truthy()), nil
		}
		d, ok := operand.Number()
		if !ok {
			return Value{}, evalErrorf("cannot negate %s %q at position %d", operand.Kind(), operand.String(), n.At)
		}
		return Number(d.Neg()), nil
	case *BinaryOp:
		return evalBinary(n, ctx)
	case *Ternary:
		cond, err := eval(n.Cond, ctx)
		if err != nil {
			return Value{}, err
		}
		if cond.Truthy() {
			return eval(n.Then, ctx)
		}
		return eval(n.Else, ctx)
	case *Call:
		return evalCall(n, ctx)
	default:
		return Value{}, evalErrorf("unsupported node %T", n)
	}
}

func evalBinary(n *BinaryOp, ctx Context) (Value, error) {
	left, err := eval(n.Left, ctx)
	if err != nil {
		return Value{}, err
	}

	switch n.Op {
	case "&&":
		if !left.Truthy() {
			return Bool(false), nil
		}
		right, err := eval(n.Right, ctx)
		if err != nil {
			return Value{}, err
		}
		return Bool(right.Truthy()), nil
	case "||":
		if left.Truthy() {
			return Bool(true), nil
		}
		right, err := eval(n.Right, ctx)
		if err != nil {
			return Value{}, err
		}
		return Bool(right.Truthy()), nil
	}

	right, err := eval(n.Right, ctx)
	if err != nil {
		return Value{}, err
	}

	switch n.Op {
	case "==":
		return Bool(equal(left, right)), nil
	case "!=":
		return Bool(!equal(left, right)), nil
	case "<", "<=", ">", ">=":
		cmp, err := compare(left, right, n.At)
		if err != nil {
			return Value{}, err
		}
		switch n.Op {
		case "<":
			return Bool(cmp < 0), nil
		case "<=":
			return Bool(cmp <= 0), nil
		case ">":
			return Bool(cmp > 0), nil
		default:
			return Bool(cmp >= 0), nil
		}
	case "+":
		if (left.Kind() == KindString || right.Kind() == KindString) && !(isNumeric(left) && isNumeric(right)) {
			return String(left.String() + right.String()), nil
		}
		fallthrough
	case "-", "*", "/":
		l, lok := left.Number()
		r, rok := right.Number()
		if !lok || !rok {
			return Value{}, evalErrorf("operator %s needs numbers, got %s and %s at position %d", n.Op, left.Kind(), right.Kind(), n.At)
		}
		switch n.Op {
		case "+":
			return Number(l.Add(r)), nil
		case "-":
			return Number(l.Sub(r)), nil
		case "*":
			return Number(l.Mul(r)), nil
		default:
			if r.IsZero() {
				return Value{}, evalErrorf("division by zero at position %d", n.At)
			}
			return Number(l.Div(r)), nil
		}
	}
	return Value{}, evalErrorf("unknown operator %s", n.Op)
}

func evalCall(n *Call, ctx Context) (Value, error) {
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := eval(a, ctx)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	switch n.Func {
	case "NORM":
		return String(Normalize(args[0].String())), nil
	}
	return Value{}, evalErrorf("unknown function %s", n.Func)
}

// Normalize trims s, collapses inner whitespace and case-folds it.
func Normalize(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

// equal compares as strings when either side is a string and numerically otherwise.
func equal(a, b Value) bool {
	if a.Kind() == KindString || b.Kind() == KindString {
		if a.Kind() != KindString || b.Kind() != KindString {
			an, aok := a.Number()
			bn, bok := b.Number()
			if aok && bok && a.Kind() != KindNull && b.Kind() != KindNull {
				return an.Equal(bn)
			}
		}
		return a.String() == b.String()
	}
	an, _ := a.Number()
	bn, _ := b.Number()
	return an.Equal(bn)
}

func compare(a, b Value, pos int) (int, error) {
	if a.Kind() == KindString && b.Kind() == KindString && !(isNumeric(a) && isNumeric(b)) {
		return strings.Compare(a.str, b.str), nil
	}
	an, aok := a.Number()
	bn, bok := b.Number()
	if !aok || !bok {
		return 0, evalErrorf("cannot compare %s %q with %s %q at position %d", a.Kind(), a.String(), b.Kind(), b.String(), pos)
	}
	return an.Cmp(bn), nil
}

func isNumeric(v Value) bool {
	if v.Kind() != KindString {
		return true
	}
	if strings.TrimSpace(v.str) == "" {
		return false
	}
	_, ok := v.Number()
	return ok
}
