package parse

import (
	"context"
	"fmt"
	"strings"

	"tlog.app/go/errors"
)

type (
	None struct{}

	Optional struct {
		Parser
	}

	// Many applies Of until it stops matching.
	// A failure after consuming input is an error.
	Many struct {
		Of Parser
	}

	Context struct {
		Pre  Parser
		Of   Parser
		Post Parser
	}

	// Named reports failures as "Name expected".
	Named struct {
		Name string
		Of   Parser
	}

	AllOf []Parser

	AnyOf []Parser
)

func (None) Parse(ctx context.Context, b []byte, st int) (_ any, i int, err error) {
	return None{}, st, nil
}

func (p Optional) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	x, i, err = p.Parser.Parse(ctx, b, st)
	if err != nil && i == st {
		return None{}, st, nil
	}

	return
}

func (p Many) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	var res []any

	i = st

	for {
		var y any

		j := i

		y, j, err = p.Of.Parse(ctx, b, i)
		if err != nil {
			if j == i {
				return res, i, nil
			}

			return res, j, err
		}

		if j == i {
			return res, i, nil
		}

		res = append(res, y)
		i = j
	}
}

func (p Context) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	i = st

	if p.Pre != nil {
		_, i, err = p.Pre.Parse(ctx, b, i)
		if err != nil {
			return nil, i, err
		}
	}

	vst := i

	x, i, err = p.Of.Parse(ctx, b, i)
	if err != nil {
		if i == vst {
			i = st
		}

		return nil, i, err
	}

	if p.Post != nil {
		_, i, err = p.Post.Parse(ctx, b, i)
		if err != nil {
			return nil, i, err
		}
	}

	return x, i, nil
}

func (p Named) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	x, i, err = p.Of.Parse(ctx, b, st)
	if err != nil && i == st {
		return nil, st, errors.New("%v expected", p.Name)
	}

	return
}

func (p AllOf) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	i = st

	res := make([]any, len(p))

	for j, r := range p {
		x, i, err = r.Parse(ctx, b, i)
		if err != nil {
			return nil, i, err
		}

		res[j] = x
	}

	return res, i, nil
}

func (p AnyOf) Parse(ctx context.Context, b []byte, st int) (_ any, i int, err error) {
	var names []Parser

	for _, r := range p {
		x, j, e := r.Parse(ctx, b, st)
		if e == nil {
			return x, j, nil
		}
		if j == st {
			names = append(names, r)
			continue
		}
		if err == nil || j > i {
			i = j
			err = e
		}
	}

	if err != nil {
		return nil, i, err
	}

	return nil, st, errors.New("%v expected", joinHuman(names...))
}

func joinHuman(l ...Parser) string {
	switch len(l) {
	case 0:
		return "<none>"
	case 1:
		return parserName(l[0])
	}

	var b strings.Builder

	for i, r := range l {
		if i+1 == len(l) {
			b.WriteString(" or ")
		} else if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(parserName(r))
	}

	return b.String()
}

func parserName(p Parser) string {
	switch p := p.(type) {
	case Named:
		return p.Name
	case Const:
		return fmt.Sprintf("%q", []byte(p))
	case Keyword:
		return fmt.Sprintf("%q", string(p))
	case Spacer:
		return parserName(p.Of)
	default:
		return fmt.Sprintf("%T", p)
	}
}
