package parse

import (
	"bytes"
	"context"
	"fmt"

	"tlog.app/go/tlog"

	"github.com/slowlang/gxasm/assembler/ast"
)

type (
	Parser interface {
		Parse(ctx context.Context, b []byte, st int) (x any, i int, err error)
	}

	// GrammarError is returned when the text does not match the grammar.
	GrammarError struct {
		Pos  int
		Line int
		Col  int
		Text string // the offending line
		Err  error
	}
)

// Parse matches the whole expanded source against the gx grammar.
func Parse(ctx context.Context, text []byte) (p *ast.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "parse", "size", len(text))
	defer tr.Finish("err", &err)

	x, i, err := Program{}.Parse(ctx, text, 0)
	if err != nil {
		return nil, NewGrammarError(text, i, err)
	}

	p = x.(*ast.Program)

	tr.Printw("parsed", "stmts", len(p.Stmts))

	return p, nil
}

func NewGrammarError(text []byte, pos int, err error) *GrammarError {
	if pos > len(text) {
		pos = len(text)
	}

	st := bytes.LastIndexByte(text[:pos], '\n') + 1

	end := bytes.IndexByte(text[pos:], '\n')
	if end < 0 {
		end = len(text)
	} else {
		end += pos
	}

	return &GrammarError{
		Pos:  pos,
		Line: 1 + bytes.Count(text[:st], []byte{'\n'}),
		Col:  1 + pos - st,
		Text: string(bytes.TrimRight(text[st:end], "\r")),
		Err:  err,
	}
}

func (e *GrammarError) Error() string {
	return fmt.Sprintf("%d:%d: %v\n\t%s", e.Line, e.Col, e.Err, e.Text)
}

func (e *GrammarError) Unwrap() error { return e.Err }

// Location is line:col in the expanded text.
func (e *GrammarError) Location() string {
	return fmt.Sprintf("%d:%d", e.Line, e.Col)
}
