// Package scope implements the typed symbol table: a stack of name->Symbol
// maps with a permanent global scope at the bottom.
package scope

import (
	"fmt"
	"sort"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/gxasm/assembler/isa"
)

type (
	Symbol struct {
		Name  string
		Kind  isa.Kind
		Value uint16
	}

	Scope map[string]Symbol

	Stack struct {
		scopes []Scope
	}

	NotFoundError struct {
		Name string
		Want []isa.Kind
	}

	KindMismatchError struct {
		Name string
		Have isa.Kind
		Want []isa.Kind
	}
)

var ErrGlobalPop = errors.New("pop of the global scope")

func New() *Stack {
	return &Stack{
		scopes: []Scope{make(Scope)},
	}
}

// Depth is the number of scopes including the global one.
func (s *Stack) Depth() int { return len(s.scopes) }

func (s *Stack) Push() {
	s.scopes = append(s.scopes, make(Scope))

	tlog.V("scope").Printw("scope pushed", "depth", len(s.scopes), "from", loc.Caller(1))
}

func (s *Stack) Pop() error {
	if len(s.scopes) == 1 {
		return ErrGlobalPop
	}

	s.scopes = s.scopes[:len(s.scopes)-1]

	tlog.V("scope").Printw("scope popped", "depth", len(s.scopes), "from", loc.Caller(1))

	return nil
}

// Bind adds sym to the innermost scope.
func (s *Stack) Bind(sym Symbol) error {
	return bind(s.scopes[len(s.scopes)-1], sym)
}

// BindGlobal adds sym to the global scope regardless of nesting.
func (s *Stack) BindGlobal(sym Symbol) error {
	return bind(s.scopes[0], sym)
}

func bind(sc Scope, sym Symbol) error {
	if old, ok := sc[sym.Name]; ok && old.Kind != sym.Kind {
		return &KindMismatchError{Name: sym.Name, Have: old.Kind, Want: []isa.Kind{sym.Kind}}
	}

	sc[sym.Name] = sym

	tlog.V("scope").Printw("bind", "sym", sym)

	return nil
}

// Lookup finds name in the innermost scope that binds it.
// The binding must be of one of the wanted kinds, an inner binding of
// another kind shadows outer ones and is a KindMismatchError.
func (s *Stack) Lookup(name string, want ...isa.Kind) (Symbol, error) {
	return lookup(s.scopes, name, want)
}

// LookupGlobal is Lookup restricted to the global scope.
func (s *Stack) LookupGlobal(name string, want ...isa.Kind) (Symbol, error) {
	return lookup(s.scopes[:1], name, want)
}

func lookup(scopes []Scope, name string, want []isa.Kind) (Symbol, error) {
	for i := len(scopes) - 1; i >= 0; i-- {
		sym, ok := scopes[i][name]
		if !ok {
			continue
		}

		for _, k := range want {
			if sym.Kind == k {
				return sym, nil
			}
		}

		return Symbol{}, &KindMismatchError{Name: name, Have: sym.Kind, Want: want}
	}

	return Symbol{}, &NotFoundError{Name: name, Want: want}
}

// Scopes returns the scopes from global to innermost.
func (s *Stack) Scopes() []Scope { return s.scopes }

// Sorted lists the scope symbols ordered by name.
func (sc Scope) Sorted() []Symbol {
	l := make([]Symbol, 0, len(sc))

	for _, sym := range sc {
		l = append(l, sym)
	}

	sort.Slice(l, func(i, j int) bool { return l[i].Name < l[j].Name })

	return l
}

// Bytes is the symbol payload: one byte below 256, else high and low bytes.
func (sym Symbol) Bytes() []byte {
	if sym.Value < 0x100 {
		return []byte{byte(sym.Value)}
	}

	return []byte{byte(sym.Value >> 8), byte(sym.Value)}
}

func (sym Symbol) String() string {
	return fmt.Sprintf("%v %s = %#x", sym.Kind, sym.Name, sym.Value)
}

func (sym Symbol) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 3)

	b = e.AppendKeyString(b, "name", sym.Name)
	b = e.AppendKeyString(b, "kind", sym.Kind.String())
	b = e.AppendKeyInt(b, "value", int(sym.Value))

	return b
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", kinds(e.Want), e.Name)
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("'%s' is of type %v, expected %s", e.Name, e.Have, kinds(e.Want))
}

func kinds(l []isa.Kind) string {
	switch len(l) {
	case 0:
		return "symbol"
	case 1:
		return l[0].String()
	}

	s := l[0].String()

	for _, k := range l[1:] {
		s += " or " + k.String()
	}

	return s
}
