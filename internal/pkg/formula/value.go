package formula

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Kind int

const (
	// KindNull is the value of an identifier missing from the context.
	// It reads as 0, "" or false depending on where it is used.
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

type Value struct {
	kind Kind
	num  decimal.Decimal
	str  string
	b    bool
}

func Null() Value { return Value{} }

func Number(d decimal.Decimal) Value { return Value{kind: KindNumber, num: d} }

func Float(f float64) Value { return Number(decimal.NewFromFloat(f)) }

func Int(i int64) Value { return Number(decimal.NewFromInt(i)) }

func String(s string) Value { return Value{kind: KindString, str: s} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func (v Value) Kind() Kind { return v.kind }

// Number converts v for arithmetic. ok is false for strings that do not hold a number.
func (v Value) Number() (decimal.Decimal, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindBool:
		if v.b {
			return decimal.NewFromInt(1), true
		}
		return decimal.Zero, true
	case KindString:
		s := strings.TrimSpace(v.str)
		if s == "" {
			return decimal.Zero, true
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return v.num.String()
	case KindString:
		return v.str
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func (v Value) Truthy() bool {
	switch v.kind {
	case KindNumber:
		return !v.num.IsZero()
	case KindString:
		return v.str != ""
	case KindBool:
		return v.b
	default:
		return false
	}
}

// Context binds identifiers to values for one evaluation.
type Context map[string]Value

func (c Context) SetNumber(name string, d decimal.Decimal) { c[name] = Number(d) }

func (c Context) SetFloat(name string, f float64) { c[name] = Float(f) }

func (c Context) SetString(name, s string) { c[name] = String(s) }

// ContextFromMap converts decoded JSON into a Context.
func ContextFromMap(m map[string]interface{}) (Context, error) {
	ctx := make(Context, len(m))
	for k, raw := range m {
		switch v := raw.(type) {
		case nil:
			ctx[k] = Null()
		case float64:
			ctx[k] = Float(v)
		case int:
			ctx[k] = Int(int64(v))
		case int64:
			ctx[k] = Int(v)
		case json.Number:
			d, err := decimal.NewFromString(v.String())
			if err != nil {
				return nil, fmt.Errorf("context %q: %w", k, err)
			}
			ctx[k] = Number(d)
		case decimal.Decimal:
			ctx[k] = Number(v)
		case string:
			ctx[k] = String(v)
		case bool:
			ctx[k] = Bool(v)
		default:
			return nil, fmt.Errorf("context %q: unsupported value type %T", k, raw)
		}
	}
	return ctx, nil
}
