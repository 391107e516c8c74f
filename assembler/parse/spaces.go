package parse

import (
	"context"
)

type (
	Spaces uint64

	// Blank skips spaces and line comments.
	Blank struct {
		Spaces  Spaces
		Comment byte
	}

	Spacer struct {
		Blank Blank
		Of    Parser
	}
)

var (
	Space    = NewSpaces(' ')
	SpaceTab = NewSpaces(' ', '\t')
	SpaceAll = NewSpaces(' ', '\t', '\r', '\n')

	// Gap separates gx tokens.
	Gap = Blank{Spaces: SpaceAll, Comment: ';'}
)

func NewSpaces(skip ...byte) (ss Spaces) {
	for _, q := range skip {
		if q >= 64 {
			panic("too high char code")
		}

		ss |= 1 << q
	}

	return
}

func (s Spaces) Skip(b []byte, st int) (i int) {
	i = st

	for i < len(b) && b[i] < 64 && s&(1<<b[i]) != 0 {
		i++
	}

	return
}

func (s Spaces) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	return None{}, s.Skip(b, st), nil
}

func (s Blank) Skip(b []byte, st int) (i int) {
	i = s.Spaces.Skip(b, st)

	for s.Comment != 0 && i < len(b) && b[i] == s.Comment {
		for i < len(b) && b[i] != '\n' {
			i++
		}

		i = s.Spaces.Skip(b, i)
	}

	return i
}

// Spaced skips the gap before p.
func Spaced(p Parser) Spacer {
	return Spacer{
		Blank: Gap,
		Of:    p,
	}
}

func (p Spacer) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	vst := p.Blank.Skip(b, st)

	x, i, err = p.Of.Parse(ctx, b, vst)
	if err != nil && i == vst {
		i = st
	}

	return
}
