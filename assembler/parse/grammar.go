package parse

import (
	"context"
	"strings"

	"tlog.app/go/errors"

	"github.com/slowlang/gxasm/assembler/ast"
	"github.com/slowlang/gxasm/assembler/isa"
)

type (
	Program struct{}

	Stmt struct{}

	Label struct{}

	Block struct{}

	Instr struct{}

	Data struct{}

	DataLong struct{}

	ValDecl struct{}

	AddrDecl struct{}

	RegDecl struct{}

	Register struct{}

	RegLit struct{}

	RegLoad struct{}

	RegFetch struct{}

	Value struct{}

	LoHi struct{}

	Address struct{}

	DataItem struct{}
)

func (p Program) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	x, i, err = Many{Of: Spaced(Stmt{})}.Parse(ctx, b, st)
	if err != nil {
		return nil, i, err
	}

	i = Gap.Skip(b, i)

	if i != len(b) {
		_, _, err = Stmt{}.Parse(ctx, b, i)
		if err == nil {
			err = errors.New("unexpected input")
		}

		return nil, i, err
	}

	return &ast.Program{
		Base:  ast.Base{Pos: st, End: i},
		Stmts: stmts(x),
	}, i, nil
}

func (p Stmt) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	r := AnyOf{
		Named{Name: "label", Of: Label{}},
		Named{Name: "block", Of: Block{}},
		Named{Name: "dat", Of: Data{}},
		Named{Name: "datl", Of: DataLong{}},
		Named{Name: "val", Of: ValDecl{}},
		Named{Name: "addr", Of: AddrDecl{}},
		Named{Name: "reg", Of: RegDecl{}},
		Named{Name: "instruction", Of: Instr{}},
	}

	return r.Parse(ctx, b, st)
}

func (p Label) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	x, i, err = AllOf{Ident{}, Context{Pre: SpaceTab, Of: Const(":")}}.Parse(ctx, b, st)
	if err != nil {
		return nil, st, err
	}

	xt := x.([]any)

	return ast.Label{
		Base: ast.Base{Pos: st, End: i},
		Name: xt[0].(ast.Ident).Name,
	}, i, nil
}

func (p Block) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	r := AllOf{
		Const("{"),
		Many{Of: Spaced(Stmt{})},
		Spaced(Const("}")),
	}

	x, i, err = r.Parse(ctx, b, st)
	if err != nil {
		return nil, i, err
	}

	xt := x.([]any)

	return ast.Block{
		Base:  ast.Base{Pos: st, End: i},
		Stmts: stmts(xt[1]),
	}, i, nil
}

func (p Instr) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	x, i, err = Ident{}.Parse(ctx, b, st)
	if err != nil {
		return nil, st, err
	}

	name := x.(ast.Ident).Name

	d, ok := isa.Lookup(name)
	if !ok {
		if strings.EqualFold(name, isa.SND.String()) {
			return nil, i, errors.New("instruction %q is reserved", name)
		}

		return nil, i, errors.New("unknown instruction %q", name)
	}

	res := ast.Instr{
		Desc: d,
		Args: make([]ast.Expr, len(d.Args)),
	}

	for j, k := range d.Args {
		x, i, err = Spaced(operand(k)).Parse(ctx, b, i)
		if err != nil {
			return nil, i, errors.Wrap(err, "%v operand %d", d.Name, j+1)
		}

		res.Args[j] = x.(ast.Expr)
	}

	res.Base = ast.Base{Pos: st, End: i}

	return res, i, nil
}

func (p Data) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	items, i, err := list(ctx, b, st, "dat", DataItem{})
	if err != nil {
		return nil, i, err
	}

	return ast.Data{
		Base:  ast.Base{Pos: st, End: i},
		Items: items,
	}, i, nil
}

func (p DataLong) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	items, i, err := list(ctx, b, st, "datl", Address{})
	if err != nil {
		return nil, i, err
	}

	return ast.DataLong{
		Base:  ast.Base{Pos: st, End: i},
		Items: items,
	}, i, nil
}

func (p ValDecl) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	name, val, i, err := decl(ctx, b, st, "val", Value{})
	if err != nil {
		return nil, i, err
	}

	return ast.ValDecl{
		Base:  ast.Base{Pos: st, End: i},
		Name:  name,
		Value: val,
	}, i, nil
}

func (p AddrDecl) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	name, val, i, err := decl(ctx, b, st, "addr", Address{})
	if err != nil {
		return nil, i, err
	}

	return ast.AddrDecl{
		Base: ast.Base{Pos: st, End: i},
		Name: name,
		Addr: val,
	}, i, nil
}

func (p RegDecl) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	name, val, i, err := decl(ctx, b, st, "reg", Register{})
	if err != nil {
		return nil, i, err
	}

	return ast.RegDecl{
		Base: ast.Base{Pos: st, End: i},
		Name: name,
		Reg:  val,
	}, i, nil
}

func (p Register) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	r := AnyOf{
		RegLit{},
		RegLoad{},
		RegFetch{},
		Ident{},
	}

	return Named{Name: "register", Of: r}.Parse(ctx, b, st)
}

func (p RegLit) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	_, i, err = Const("%").Parse(ctx, b, st)
	if err != nil {
		return nil, st, err
	}

	if i < len(b) {
		switch c := b[i] | 0x20; c {
		case 'h', 'r':
			if i+1 == len(b) || !isIdentChar(b[i+1]) {
				return ast.Reg{
					Base:  ast.Base{Pos: st, End: i + 1},
					Alias: c,
				}, i + 1, nil
			}
		}
	}

	x, i, err = Number{}.Parse(ctx, b, i)
	if err != nil {
		return nil, i, errors.New("register number, h or r expected after %q", "%")
	}

	n := x.(ast.Number)

	return ast.Reg{
		Base: ast.Base{Pos: st, End: i},
		Num:  &n,
	}, i, nil
}

func (p RegLoad) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	reg, val, i, err := inline(ctx, b, st, "(", ")", Value{})
	if err != nil {
		return nil, i, err
	}

	return ast.RegLoad{
		Base:  ast.Base{Pos: st, End: i},
		Reg:   reg,
		Value: val,
	}, i, nil
}

func (p RegFetch) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	reg, addr, i, err := inline(ctx, b, st, "[", "]", Address{})
	if err != nil {
		return nil, i, err
	}

	return ast.RegFetch{
		Base: ast.Base{Pos: st, End: i},
		Reg:  reg,
		Addr: addr,
	}, i, nil
}

func (p Value) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	r := AnyOf{
		Number{},
		LoHi{},
		Ident{},
	}

	return Named{Name: "value", Of: r}.Parse(ctx, b, st)
}

func (p LoHi) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	r := AllOf{
		AnyOf{Keyword("lo"), Keyword("hi")},
		Spaced(Const("(")),
		Spaced(Address{}),
		Spaced(Const(")")),
	}

	x, i, err = r.Parse(ctx, b, st)
	if err != nil {
		return nil, i, err
	}

	xt := x.([]any)

	return ast.LoHi{
		Base: ast.Base{Pos: st, End: i},
		Hi:   xt[0].(Keyword) == "hi",
		Addr: xt[2].(ast.Expr),
	}, i, nil
}

func (p Address) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	r := AnyOf{
		Number{},
		Ident{},
	}

	return Named{Name: "address", Of: r}.Parse(ctx, b, st)
}

func (p DataItem) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	return AnyOf{String{}, Value{}}.Parse(ctx, b, st)
}

func operand(k isa.Kind) Parser {
	switch k {
	case isa.Register:
		return Register{}
	case isa.Address:
		return Address{}
	default:
		return Value{}
	}
}

func list(ctx context.Context, b []byte, st int, kw Keyword, item Parser) (items []ast.Expr, i int, err error) {
	r := AllOf{
		kw,
		Spaced(item),
		Many{Of: AllOf{Spaced(Const(",")), Spaced(item)}},
	}

	x, i, err := r.Parse(ctx, b, st)
	if err != nil {
		return nil, i, errors.Wrap(err, "%v", string(kw))
	}

	xt := x.([]any)

	items = append(items, xt[1].(ast.Expr))

	for _, y := range xt[2].([]any) {
		items = append(items, y.([]any)[1].(ast.Expr))
	}

	return items, i, nil
}

func decl(ctx context.Context, b []byte, st int, kw Keyword, of Parser) (name string, x ast.Expr, i int, err error) {
	r := AllOf{
		kw,
		Spaced(Ident{}),
		Spaced(of),
	}

	y, i, err := r.Parse(ctx, b, st)
	if err != nil {
		return "", nil, i, errors.Wrap(err, "%v", string(kw))
	}

	xt := y.([]any)

	return xt[1].(ast.Ident).Name, xt[2].(ast.Expr), i, nil
}

func inline(ctx context.Context, b []byte, st int, open, close string, of Parser) (reg, x ast.Expr, i int, err error) {
	r := AllOf{
		Const(open),
		Spaced(Register{}),
		Spaced(Const(":")),
		Spaced(of),
		Spaced(Const(close)),
	}

	y, i, err := r.Parse(ctx, b, st)
	if err != nil {
		return nil, nil, i, err
	}

	xt := y.([]any)

	return xt[1].(ast.Expr), xt[3].(ast.Expr), i, nil
}

func stmts(x any) (res []ast.Stmt) {
	l, _ := x.([]any)

	for _, y := range l {
		res = append(res, y.(ast.Stmt))
	}

	return res
}
