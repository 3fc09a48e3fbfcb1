package formula

import (
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_SweeperAllowance(t *testing.T) {
	ctx := Context{
		"designation":    String("sweeper "),
		"present":        Int(20),
		"leave":          Int(2),
		"lossOfPayLeave": Int(1),
	}

	got, err := Evaluate(`NORM(designation) == NORM("Sweeper") ? (present + (leave - lossOfPayLeave)) * 100 : 0`, ctx)

	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(2100)), "got %s", got)
}

func TestEvaluate_SweeperAllowance_OtherDesignation(t *testing.T) {
	ctx := Context{
		"designation": String("Clerk"),
		"present":     Int(20),
	}

	got, err := Evaluate(`NORM(designation) == NORM("Sweeper") ? present * 100 : 0`, ctx)

	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestEvaluate_Operators(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"2 + 3 * 4", "14"},
		{"(2 + 3) * 4", "20"},
		{"10 - 4 - 3", "3"},
		{"12 / 4 / 3", "1"},
		{"-2 * 3", "-6"},
		{"7 / 2", "3.5"},
		{"0.1 + 0.2", "0.3"},
		{"1 < 2 && 3 > 2", "1"},
		{"1 >= 2 || 2 <= 1", "0"},
		{"!0", "1"},
		{"5 != 5", "0"},
		{"5 === 5", "1"},
		{"true ? 5 : 6", "5"},
		{"'a' < 'b'", "1"},
		{"\"10\" + 5", "15"},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			got, err := Evaluate(c.expr, Context{})
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(c.want)), "%s = %s, want %s", c.expr, got, c.want)
		})
	}
}

func TestEvaluate_TernaryIsRightAssociative(t *testing.T) {
	expr, err := Parse("x > 10 ? 1 : x > 5 ? 2 : 3")
	require.NoError(t, err)

	for x, want := range map[int64]int64{11: 1, 7: 2, 1: 3} {
		res, err := expr.Eval(Context{"x": Int(x)})
		require.NoError(t, err)
		assert.True(t, res.Value.Equal(decimal.NewFromInt(want)), "x=%d got %s", x, res.Value)
	}
	assert.Equal(t, "((x > 10) ? 1 : ((x > 5) ? 2 : 3))", expr.String())
}

func TestEvaluate_UnknownIdentifiersDefault(t *testing.T) {
	expr, err := Parse(`BASC * 2 + 5 + (department == "" ? 1 : 0)`)
	require.NoError(t, err)

	res, err := expr.Eval(Context{"BASIC": Int(1000)})

	require.NoError(t, err)
	assert.True(t, res.Value.Equal(decimal.NewFromInt(6)), "got %s", res.Value)
	assert.Equal(t, []string{"BASC", "department"}, res.Unresolved)
}

func TestEvaluate_ComponentCodesAreCaseSensitive(t *testing.T) {
	res, err := mustParse(t, "basic").Eval(Context{"BASIC": Int(1000)})

	require.NoError(t, err)
	assert.True(t, res.Value.IsZero())
	assert.Equal(t, []string{"basic"}, res.Unresolved)
}

func TestParse_SyntaxErrors(t *testing.T) {
	cases := []string{
		"",
		"1 +",
		"(1 + 2",
		"a ? b",
		"FOO(1)",
		"NORM()",
		"NORM(a, b)",
		"1 = 2",
		"'abc",
		"2 3",
		"a # b",
		"12abc",
		strings.Repeat("(", MaxDepth+1) + "1" + strings.Repeat(")", MaxDepth+1),
		strings.Repeat("1+", MaxExpressionLength),
	}
	for _, src := range cases {
		name := src
		if len(name) > 20 {
			name = name[:20]
		}
		t.Run(name, func(t *testing.T) {
			_, err := Parse(src)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)

			var syntaxErr *SyntaxError
			assert.ErrorAs(t, err, &syntaxErr)
		})
	}
}

func TestEvaluate_RuntimeErrors(t *testing.T) {
	cases := []string{
		"10 / 0",
		"10 / (present - present)",
		`"abc" * 2`,
		`"abc"`,
		`"abc" < 2`,
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			_, err := Evaluate(src, Context{"present": Int(3)})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrEvaluation)
			assert.NotErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestEvaluate_ShortCircuitSkipsRightSide(t *testing.T) {
	got, err := Evaluate("0 && 1 / 0", Context{})
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = Evaluate("1 || 1 / 0", Context{})
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(1)))
}

func TestExpression_EvalIsDeterministic(t *testing.T) {
	expr := mustParse(t, "BASIC * present / daysInMonth - (late > 3 ? 250 : 0)")
	ctx := Context{
		"BASIC":       Int(31000),
		"present":     Int(29),
		"daysInMonth": Int(31),
		"late":        Int(4),
	}
	first, err := expr.Eval(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]decimal.Decimal, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := expr.Eval(ctx)
			if err == nil {
				results[i] = res.Value
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.True(t, first.Value.Equal(r), "got %s want %s", r, first.Value)
	}
	assert.Len(t, ctx, 4)
}

func TestExpression_Identifiers(t *testing.T) {
	expr := mustParse(t, "BASIC * 0.12 + HRA + BASIC - NORM(designation) == 'x'")

	assert.Equal(t, []string{"BASIC", "HRA", "designation"}, expr.Identifiers())
}

func TestIsKeyword(t *testing.T) {
	assert.True(t, IsKeyword("true"))
	assert.True(t, IsKeyword("false"))
	assert.True(t, IsKeyword("NORM"))
	assert.False(t, IsKeyword("BASIC"))
	assert.False(t, IsKeyword("norm"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "senior sweeper", Normalize("  Senior   SWEEPER \t"))
	assert.Equal(t, "", Normalize("   "))
}

func TestContextFromMap(t *testing.T) {
	ctx, err := ContextFromMap(map[string]interface{}{
		"present":     float64(20),
		"designation": "Sweeper",
		"active":      true,
		"missing":     nil,
	})
	require.NoError(t, err)

	assert.Equal(t, KindNumber, ctx["present"].Kind())
	assert.Equal(t, KindString, ctx["designation"].Kind())
	assert.Equal(t, KindBool, ctx["active"].Kind())
	assert.Equal(t, KindNull, ctx["missing"].Kind())

	_, err = ContextFromMap(map[string]interface{}{"bad": []int{1}})
	assert.Error(t, err)
}

func mustParse(t *testing.T, src string) *Expression {
	t.Helper()
	expr, err := Parse(src)
	require.NoError(t, err)
	return expr
}
