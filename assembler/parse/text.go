package parse

import (
	"bytes"
	"context"
	"strings"

	"tlog.app/go/errors"

	"github.com/slowlang/gxasm/assembler/ast"
)

type (
	Const []byte

	// Keyword is a case-insensitive word not followed by an identifier char.
	Keyword string

	Ident struct{}

	String struct{}
)

func (p Const) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	if bytes.HasPrefix(b[st:], p) {
		return Const(b[st : st+len(p)]), st + len(p), nil
	}

	return nil, st, errors.New("%q expected", []byte(p))
}

func (p Keyword) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	end := st + len(p)

	if end > len(b) || !strings.EqualFold(string(b[st:end]), string(p)) || end < len(b) && isIdentChar(b[end]) {
		return nil, st, errors.New("%q expected", string(p))
	}

	return p, end, nil
}

func (p Ident) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	if st == len(b) || !isIdentStart(b[st]) {
		return nil, st, errors.New("identifier expected")
	}

	i = st + 1

	for i < len(b) && isIdentChar(b[i]) {
		i++
	}

	return ast.Ident{
		Base: ast.Base{Pos: st, End: i},
		Name: string(b[st:i]),
	}, i, nil
}

func (p String) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	if st == len(b) || b[st] != '"' {
		return nil, st, errors.New("string expected")
	}

	var val []byte

	for i = st + 1; i < len(b); i++ {
		c := b[i]

		switch c {
		case '"':
			return ast.String{
				Base:  ast.Base{Pos: st, End: i + 1},
				Value: string(val),
			}, i + 1, nil
		case '\n':
			return nil, i, errors.New("unterminated string")
		case '\\':
		default:
			val = append(val, c)
			continue
		}

		i++
		if i == len(b) {
			break
		}

		switch b[i] {
		case 'n':
			val = append(val, '\n')
		case 'r':
			val = append(val, '\r')
		case 't':
			val = append(val, '\t')
		case '0':
			val = append(val, 0)
		case '\\':
			val = append(val, '\\')
		case '"':
			val = append(val, '"')
		default:
			return nil, i, errors.New("invalid string escape '\\%c'", b[i])
		}
	}

	return nil, i, errors.New("unterminated string")
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}
