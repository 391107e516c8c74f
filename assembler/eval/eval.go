// Package eval walks the parse tree, emits the image bytes and resolves
// forward label references.
package eval

import (
	"context"
	"fmt"
	"strconv"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/gxasm/assembler/ast"
	"github.com/slowlang/gxasm/assembler/image"
	"github.com/slowlang/gxasm/assembler/isa"
	"github.com/slowlang/gxasm/assembler/scope"
)

type (
	State struct {
		Out    *image.Buffer
		Scopes *scope.Stack

		// Refs are forward references waiting for Backpatch.
		Refs []Ref

		label    string
		labelPos int

		// failed are the scopes live when an error left a block.
		failed []scope.Scope
	}

	// Part is the piece of an address a reference needs.
	Part int

	Ref struct {
		Pos     int
		Name    string
		Context string
		Part    Part
	}
)

const (
	Word Part = iota
	Lo
	Hi
)

func New() *State {
	return &State{
		Out:    image.NewBuffer(),
		Scopes: scope.New(),
	}
}

// Program evaluates every statement in order.
func (s *State) Program(ctx context.Context, p *ast.Program) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "eval", "stmts", len(p.Stmts))
	defer tr.Finish("err", &err)

	depth := s.Scopes.Depth()

	err = s.stmts(ctx, p.Stmts)
	if err != nil {
		return err
	}

	if d := s.Scopes.Depth(); d != depth {
		return errors.New("scope depth %d after evaluation, started with %d", d, depth)
	}

	tr.Printw("evaluated", "size", s.Out.Len(), "refs", len(s.Refs))

	return nil
}

func (s *State) stmts(ctx context.Context, l []ast.Stmt) error {
	for _, x := range l {
		err := s.Eval(ctx, x)
		if err != nil {
			return err
		}
	}

	return nil
}

// Eval evaluates a statement for its effect on the output and the scopes.
func (s *State) Eval(ctx context.Context, x ast.Stmt) (err error) {
	if tlog.If("eval") {
		tlog.Printw("eval", "pos", s.Out.Len(), "stmt", fmt.Sprintf("%T", x))
	}

	if b, ok := x.(ast.Block); ok {
		return s.block(ctx, b)
	}

	pos := s.Out.Len()

	switch x := x.(type) {
	case ast.Label:
		err = s.defineLabel(x)
	case ast.Instr:
		err = s.instr(x)
	case ast.Data:
		err = s.data(x)
	case ast.DataLong:
		for _, a := range x.Items {
			err = s.address(a)
			if err != nil {
				break
			}
		}
	case ast.ValDecl:
		var v uint16

		v, err = s.Value(x.Value, isa.Value)
		if err == nil {
			err = s.Scopes.Bind(scope.Symbol{Name: x.Name, Kind: isa.Value, Value: v})
		}
	case ast.AddrDecl:
		var v uint16

		v, err = s.Value(x.Addr, isa.Address)
		if err == nil {
			err = s.Scopes.Bind(scope.Symbol{Name: x.Name, Kind: isa.Address, Value: v})
		}
	case ast.RegDecl:
		var r byte

		err = s.prelude(x.Reg)
		if err == nil {
			r, err = s.register(x.Reg)
		}
		if err == nil {
			err = s.Scopes.Bind(scope.Symbol{Name: x.Name, Kind: isa.Register, Value: uint16(r)})
		}
	default:
		err = errors.New("unsupported statement %T", x)
	}

	if err != nil {
		return errors.Wrap(err, "at %v", s.Where(pos))
	}

	return nil
}

func (s *State) block(ctx context.Context, x ast.Block) (err error) {
	s.Scopes.Push()

	defer func() {
		if err != nil && s.failed == nil {
			s.failed = append([]scope.Scope{}, s.Scopes.Scopes()...)
		}

		e := s.Scopes.Pop()
		if err == nil {
			err = e
		}
	}()

	return s.stmts(ctx, x.Stmts)
}

func (s *State) defineLabel(x ast.Label) error {
	pos := s.Out.Len()

	err := s.Scopes.BindGlobal(scope.Symbol{Name: x.Name, Kind: isa.Address, Value: uint16(pos)})
	if err != nil {
		return err
	}

	s.label = x.Name
	s.labelPos = pos

	return nil
}

func (s *State) instr(x ast.Instr) (err error) {
	if len(x.Args) != len(x.Desc.Args) {
		return errors.New("%v takes %d operands, got %d", x.Desc.Name, len(x.Desc.Args), len(x.Args))
	}

	for i, a := range x.Args {
		if x.Desc.Args[i] != isa.Register {
			continue
		}

		err = s.prelude(a)
		if err != nil {
			return errors.Wrap(err, "%v operand %d", x.Desc.Name, i+1)
		}
	}

	err = s.Out.Push(byte(x.Desc.Op))
	if err != nil {
		return err
	}

	for i, a := range x.Args {
		switch x.Desc.Args[i] {
		case isa.Register:
			var r byte

			r, err = s.register(a)
			if err == nil {
				err = s.Out.Push(r)
			}
		case isa.Address:
			err = s.address(a)
		default:
			err = s.value8(a)
		}

		if err != nil {
			return errors.Wrap(err, "%v operand %d", x.Desc.Name, i+1)
		}
	}

	return nil
}

// prelude emits the instruction an inline register operand stands for.
func (s *State) prelude(x ast.Expr) (err error) {
	var r byte

	switch x := x.(type) {
	case ast.RegLoad:
		err = s.prelude(x.Reg)
		if err != nil {
			return err
		}

		r, err = s.register(x.Reg)
		if err != nil {
			return err
		}

		err = s.Out.Push(byte(isa.SET), r)
		if err != nil {
			return err
		}

		return s.value8(x.Value)
	case ast.RegFetch:
		err = s.prelude(x.Reg)
		if err != nil {
			return err
		}

		r, err = s.register(x.Reg)
		if err != nil {
			return err
		}

		err = s.Out.Push(byte(isa.LD), r)
		if err != nil {
			return err
		}

		return s.address(x.Addr)
	}

	return nil
}

func (s *State) data(x ast.Data) (err error) {
	for _, it := range x.Items {
		switch it := it.(type) {
		case ast.String:
			err = s.Out.Push(append([]byte(it.Value), 0)...)
		case ast.Ident:
			err = s.dataIdent(it)
		default:
			err = s.value8(it)
		}

		if err != nil {
			return errors.Wrap(err, "dat")
		}
	}

	return nil
}

// dataIdent emits a value symbol as one byte or an address as two.
func (s *State) dataIdent(x ast.Ident) error {
	sym, err := s.Scopes.Lookup(x.Name, isa.Value, isa.Address)
	if isNotFound(err) {
		return s.deferRef(x.Name, Word)
	}
	if err != nil {
		return err
	}

	if sym.Kind == isa.Value {
		return s.Out.Push(byte(sym.Value))
	}

	return s.Out.Push16(sym.Value)
}

// address emits a two byte address, deferring unknown labels.
func (s *State) address(x ast.Expr) error {
	if id, ok := x.(ast.Ident); ok {
		sym, err := s.Scopes.Lookup(id.Name, isa.Address)
		if isNotFound(err) {
			return s.deferRef(id.Name, Word)
		}
		if err != nil {
			return err
		}

		return s.Out.Push16(sym.Value)
	}

	v, err := s.Value(x, isa.Address)
	if err != nil {
		return err
	}

	return s.Out.Push16(v)
}

// value8 emits a one byte value.
func (s *State) value8(x ast.Expr) error {
	if lh, ok := x.(ast.LoHi); ok {
		if id, ok := lh.Addr.(ast.Ident); ok {
			_, err := s.Scopes.Lookup(id.Name, isa.Address)
			if isNotFound(err) {
				part := Lo
				if lh.Hi {
					part = Hi
				}

				return s.deferRef(id.Name, part)
			}
		}
	}

	v, err := s.Value(x, isa.Value)
	if err != nil {
		return err
	}

	return s.Out.Push(byte(v))
}

func (s *State) register(x ast.Expr) (byte, error) {
	v, err := s.Value(x, isa.Register)

	return byte(v), err
}

// Value computes x in the given context without emitting anything.
func (s *State) Value(x ast.Expr, kind isa.Kind) (uint16, error) {
	switch x := x.(type) {
	case ast.Number:
		return s.number(x, kind)
	case ast.Ident:
		sym, err := s.Scopes.Lookup(x.Name, kind)
		if err != nil {
			return 0, err
		}

		return sym.Value, nil
	case ast.LoHi:
		if kind != isa.Value {
			return 0, errors.New("lo/hi used as %v", kind)
		}

		a, err := s.Value(x.Addr, isa.Address)
		if err != nil {
			return 0, err
		}

		if x.Hi {
			return a >> 8, nil
		}

		return a & 0xff, nil
	case ast.Reg:
		if kind != isa.Register {
			return 0, errors.New("register used as %v", kind)
		}

		switch x.Alias {
		case 'h':
			return isa.RegHigh, nil
		case 'r':
			return isa.RegRem, nil
		}

		return s.number(*x.Num, isa.Register)
	case ast.RegLoad:
		return s.Value(x.Reg, kind)
	case ast.RegFetch:
		return s.Value(x.Reg, kind)
	case ast.String:
		return 0, errors.New("string used as %v", kind)
	default:
		return 0, errors.New("unsupported expression %T", x)
	}
}

func (s *State) number(x ast.Number, kind isa.Kind) (uint16, error) {
	v, err := strconv.ParseUint(x.Digits, x.Radix, 64)
	if err != nil {
		return 0, &RangeError{Text: x.Digits, Radix: x.Radix, Max: 0xffff}
	}

	if v > 0xffff {
		return 0, &RangeError{Value: v, Max: 0xffff}
	}

	switch kind {
	case isa.Register:
		if v > isa.MaxReg {
			return 0, &RegisterRangeError{Reg: v}
		}
	case isa.Value:
		if v > 0xff {
			return 0, &RangeError{Value: v, Max: 0xff}
		}
	}

	return uint16(v), nil
}

func (s *State) deferRef(name string, part Part) error {
	n := 2
	if part != Word {
		n = 1
	}

	pos, err := s.Out.Reserve(n)
	if err != nil {
		return err
	}

	r := Ref{Pos: pos, Name: name, Context: s.Where(pos), Part: part}

	s.Refs = append(s.Refs, r)

	tlog.V("eval").Printw("deferred", "ref", r)

	return nil
}

// Where names a buffer position by the nearest preceding label.
func (s *State) Where(pos int) string {
	if s.label == "" {
		return fmt.Sprintf("%#04x", pos)
	}

	return fmt.Sprintf("%s+%d (%#04x)", s.label, pos-s.labelPos, pos)
}

func isNotFound(err error) bool {
	var nf *scope.NotFoundError

	return errors.As(err, &nf)
}

func (p Part) String() string {
	switch p {
	case Lo:
		return "lo"
	case Hi:
		return "hi"
	default:
		return "word"
	}
}

func (r Ref) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 4)

	b = e.AppendKeyInt(b, "pos", r.Pos)
	b = e.AppendKeyString(b, "name", r.Name)
	b = e.AppendKeyString(b, "part", r.Part.String())
	b = e.AppendKeyString(b, "at", r.Context)

	return b
}
