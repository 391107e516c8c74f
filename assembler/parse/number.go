package parse

import (
	"context"

	"tlog.app/go/errors"

	"github.com/slowlang/gxasm/assembler/ast"
)

type (
	// Number is a decimal, 0x hex or 0b binary literal.
	Number struct{}
)

func (p Number) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	i = st

	if i == len(b) || b[i] < '0' || b[i] > '9' {
		return nil, st, errors.New("number expected")
	}

	radix := 10

	if b[i] == '0' && i+1 < len(b) {
		switch b[i+1] {
		case 'x', 'X':
			radix = 16
			i += 2
		case 'b', 'B':
			radix = 2
			i += 2
		}
	}

	dst := i

	for i < len(b) && isDigit(b[i], radix) {
		i++
	}

	if i == dst {
		return nil, i, errors.New("digits expected after base prefix")
	}

	if i < len(b) && isIdentChar(b[i]) {
		return nil, i, errors.New("invalid digit %q in base %d number", b[i], radix)
	}

	return ast.Number{
		Base:   ast.Base{Pos: st, End: i},
		Digits: string(b[dst:i]),
		Radix:  radix,
	}, i, nil
}

func isDigit(c byte, radix int) bool {
	switch radix {
	case 2:
		return c == '0' || c == '1'
	case 16:
		return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
	default:
		return c >= '0' && c <= '9'
	}
}
