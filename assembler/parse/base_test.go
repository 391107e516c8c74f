package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/gxasm/assembler/ast"
)

func TestAnyOfExpected(t *testing.T) {
	ctx := context.Background()

	_, i, err := AnyOf{Const("a"), Keyword("bb"), Named{Name: "thing", Of: Ident{}}}.Parse(ctx, []byte("1"), 0)
	assert.Equal(t, 0, i)
	assert.EqualError(t, err, `"a", "bb" or thing expected`)
}

func TestAnyOfFurthestError(t *testing.T) {
	ctx := context.Background()

	p := AnyOf{
		AllOf{Const("ab"), Const("c")},
		AllOf{Const("a"), Const("b"), Const("x"), Const("y")},
	}

	_, i, err := p.Parse(ctx, []byte("abxz"), 0)
	assert.Equal(t, 3, i)
	assert.EqualError(t, err, `"y" expected`)
}

func TestManyAndOptional(t *testing.T) {
	ctx := context.Background()

	x, i, err := Many{Of: Spaced(Number{})}.Parse(ctx, []byte("1 2 ; three\n 3 x"), 0)
	require.NoError(t, err)
	assert.Len(t, x, 3)
	assert.Equal(t, 14, i)

	x, i, err = Optional{Const("-")}.Parse(ctx, []byte("5"), 0)
	require.NoError(t, err)
	assert.Equal(t, None{}, x)
	assert.Equal(t, 0, i)
}

func TestKeyword(t *testing.T) {
	ctx := context.Background()

	_, i, err := Keyword("dat").Parse(ctx, []byte("DAT 1"), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, i)

	_, _, err = Keyword("dat").Parse(ctx, []byte("datl 1"), 0)
	assert.Error(t, err)

	_, _, err = Keyword("dat").Parse(ctx, []byte("da"), 0)
	assert.Error(t, err)
}

func TestNumber(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		in     string
		digits string
		radix  int
	}{
		{"0", "0", 10},
		{"255", "255", 10},
		{"0xfF", "fF", 16},
		{"0X10", "10", 16},
		{"0b1010", "1010", 2},
	} {
		x, i, err := Number{}.Parse(ctx, []byte(tc.in), 0)
		require.NoError(t, err, tc.in)
		assert.Equal(t, len(tc.in), i)

		n := x.(ast.Number)
		assert.Equal(t, tc.digits, n.Digits, tc.in)
		assert.Equal(t, tc.radix, n.Radix, tc.in)
	}

	for _, in := range []string{"x1", "0b2", "0xg", "12ab"} {
		_, _, err := Number{}.Parse(ctx, []byte(in), 0)
		assert.Error(t, err, in)
	}
}

func TestString(t *testing.T) {
	ctx := context.Background()

	x, i, err := String{}.Parse(ctx, []byte(`"a\tb\\c\"d\0" rest`), 0)
	require.NoError(t, err)
	assert.Equal(t, 14, i)
	assert.Equal(t, "a\tb\\c\"d\x00", x.(ast.String).Value)

	_, _, err = String{}.Parse(ctx, []byte(`"abc`), 0)
	assert.EqualError(t, err, "unterminated string")
}

func TestGapSkip(t *testing.T) {
	b := []byte(" \t; note\r\n;x\n  nop")

	assert.Equal(t, len(b)-3, Gap.Skip(b, 0))
	assert.Equal(t, 1, Space.Skip(b, 0))
	assert.Equal(t, 2, SpaceTab.Skip(b, 0))
}
