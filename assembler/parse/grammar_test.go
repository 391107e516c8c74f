package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/gxasm/assembler/ast"
	"github.com/slowlang/gxasm/assembler/isa"
)

func parseString(t *testing.T, text string) *ast.Program {
	t.Helper()

	p, err := Parse(context.Background(), []byte(text))
	require.NoError(t, err)

	return p
}

func TestParseLabelAndJump(t *testing.T) {
	p := parseString(t, "lbl: nop \n jmp lbl")

	require.Len(t, p.Stmts, 3)

	assert.Equal(t, "lbl", p.Stmts[0].(ast.Label).Name)
	assert.Equal(t, isa.NOP, p.Stmts[1].(ast.Instr).Desc.Op)

	jmp := p.Stmts[2].(ast.Instr)
	assert.Equal(t, isa.JMP, jmp.Desc.Op)
	require.Len(t, jmp.Args, 1)
	assert.Equal(t, "lbl", jmp.Args[0].(ast.Ident).Name)
}

func TestParseOperands(t *testing.T) {
	p := parseString(t, "set %h 0x10 ; comment\nadd %1 %R %31\nld %0 0b101\ncj r done")

	require.Len(t, p.Stmts, 4)

	set := p.Stmts[0].(ast.Instr)
	assert.Equal(t, byte('h'), set.Args[0].(ast.Reg).Alias)
	assert.Equal(t, ast.Number{Base: ast.Base{Pos: 7, End: 11}, Digits: "10", Radix: 16}, set.Args[1])

	add := p.Stmts[1].(ast.Instr)
	assert.Equal(t, "1", add.Args[0].(ast.Reg).Num.Digits)
	assert.Equal(t, byte('r'), add.Args[1].(ast.Reg).Alias)
	assert.Equal(t, "31", add.Args[2].(ast.Reg).Num.Digits)

	ld := p.Stmts[2].(ast.Instr)
	assert.Equal(t, 2, ld.Args[1].(ast.Number).Radix)

	cj := p.Stmts[3].(ast.Instr)
	assert.Equal(t, "r", cj.Args[0].(ast.Ident).Name, "bare r is a symbol, not the alias")
	assert.Equal(t, "done", cj.Args[1].(ast.Ident).Name)
}

func TestParseCaseInsensitiveMnemonic(t *testing.T) {
	p := parseString(t, "NOP\nJmp 0")

	assert.Equal(t, isa.NOP, p.Stmts[0].(ast.Instr).Desc.Op)
	assert.Equal(t, isa.JMP, p.Stmts[1].(ast.Instr).Desc.Op)
}

func TestParseDeclarations(t *testing.T) {
	p := parseString(t, "val ten 10\naddr screen 0xE000\nreg acc %5\nval l lo(screen)\nval h HI(screen)")

	require.Len(t, p.Stmts, 5)

	v := p.Stmts[0].(ast.ValDecl)
	assert.Equal(t, "ten", v.Name)
	assert.Equal(t, "10", v.Value.(ast.Number).Digits)

	a := p.Stmts[1].(ast.AddrDecl)
	assert.Equal(t, "screen", a.Name)
	assert.Equal(t, "E000", a.Addr.(ast.Number).Digits)

	r := p.Stmts[2].(ast.RegDecl)
	assert.Equal(t, "acc", r.Name)
	assert.Equal(t, "5", r.Reg.(ast.Reg).Num.Digits)

	lo := p.Stmts[3].(ast.ValDecl).Value.(ast.LoHi)
	assert.False(t, lo.Hi)
	assert.Equal(t, "screen", lo.Addr.(ast.Ident).Name)

	hi := p.Stmts[4].(ast.ValDecl).Value.(ast.LoHi)
	assert.True(t, hi.Hi)
}

func TestParseData(t *testing.T) {
	p := parseString(t, "dat 1, \"hi\\n\", lo(x),\n  name\ndatl x, 0x1234")

	require.Len(t, p.Stmts, 2)

	d := p.Stmts[0].(ast.Data)
	require.Len(t, d.Items, 4)
	assert.Equal(t, "1", d.Items[0].(ast.Number).Digits)
	assert.Equal(t, "hi\n", d.Items[1].(ast.String).Value)
	assert.IsType(t, ast.LoHi{}, d.Items[2])
	assert.Equal(t, "name", d.Items[3].(ast.Ident).Name)

	dl := p.Stmts[1].(ast.DataLong)
	require.Len(t, dl.Items, 2)
	assert.Equal(t, "x", dl.Items[0].(ast.Ident).Name)
	assert.Equal(t, "1234", dl.Items[1].(ast.Number).Digits)
}

func TestParseBlocks(t *testing.T) {
	p := parseString(t, "{\n val x 1\n { inner: set %0 x }\n}\n{}")

	require.Len(t, p.Stmts, 2)

	b := p.Stmts[0].(ast.Block)
	require.Len(t, b.Stmts, 2)
	assert.IsType(t, ast.ValDecl{}, b.Stmts[0])

	in := b.Stmts[1].(ast.Block)
	require.Len(t, in.Stmts, 2)
	assert.Equal(t, "inner", in.Stmts[0].(ast.Label).Name)

	assert.Empty(t, p.Stmts[1].(ast.Block).Stmts)
}

func TestParseInlineRegisters(t *testing.T) {
	p := parseString(t, "add (%1:5) [%2:buf] %3")

	add := p.Stmts[0].(ast.Instr)

	load := add.Args[0].(ast.RegLoad)
	assert.Equal(t, "1", load.Reg.(ast.Reg).Num.Digits)
	assert.Equal(t, "5", load.Value.(ast.Number).Digits)

	fetch := add.Args[1].(ast.RegFetch)
	assert.Equal(t, "2", fetch.Reg.(ast.Reg).Num.Digits)
	assert.Equal(t, "buf", fetch.Addr.(ast.Ident).Name)
}

func TestParseEmpty(t *testing.T) {
	p := parseString(t, "\n ; only a comment\n\n")

	assert.Empty(t, p.Stmts)
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		text string
		line int
		msg  string
	}{
		{"unknown instruction", "nop\nfoo %1", 2, "unknown instruction"},
		{"reserved", "snd %1", 1, "reserved"},
		{"missing operand", "set %1", 1, "value expected"},
		{"bad register", "add %x %1 %2", 1, "register number"},
		{"bad digit", "set %1 12a", 1, "invalid digit"},
		{"empty hex", "jmp 0x", 1, "digits expected"},
		{"unclosed block", "{ nop", 1, "\"}\" expected"},
		{"unterminated string", "dat \"abc\nnop", 1, "unterminated string"},
		{"bad escape", `dat "\q"`, 1, "invalid string escape"},
		{"stray close", "nop\n}", 2, "expected"},
	} {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(context.Background(), []byte(tc.text))
			require.Error(t, err)

			var ge *GrammarError
			require.ErrorAs(t, err, &ge)

			assert.Equal(t, tc.line, ge.Line)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestGrammarErrorLocation(t *testing.T) {
	text := []byte("nop\n  set %1 zz!")

	e := NewGrammarError(text, 15, assert.AnError)

	assert.Equal(t, 2, e.Line)
	assert.Equal(t, 12, e.Col)
	assert.Equal(t, "  set %1 zz!", e.Text)
	assert.Equal(t, "2:12", e.Location())
	assert.ErrorIs(t, e, assert.AnError)
}
