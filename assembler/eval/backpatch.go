package eval

import (
	"context"

	"nikand.dev/go/heap"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/gxasm/assembler/isa"
	"github.com/slowlang/gxasm/assembler/scope"
)

// Backpatch fills deferred references with the final label addresses.
// References are taken grouped by label so each label is looked up once.
// Patched references are consumed, the ones that failed stay in Refs and
// the earliest of them is reported.
func (s *State) Backpatch(ctx context.Context) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "backpatch", "refs", len(s.Refs))
	defer tr.Finish("err", &err)

	h := heap.Heap[Ref]{Less: refsLess}

	for _, r := range s.Refs {
		h.Push(r)
	}

	var (
		left   []Ref
		first  int
		failed error

		cur    string
		sym    scope.Symbol
		lookup error
	)

	for h.Len() != 0 {
		r := h.Pop()

		if r.Name != cur {
			cur = r.Name
			sym, lookup = s.Scopes.LookupGlobal(r.Name, isa.Address)
		}

		e := lookup
		if e == nil {
			e = s.patch(r, sym.Value)
		}

		if e == nil {
			if tr.If("patch") {
				tr.Printw("patched", "name", r.Name, "pos", r.Pos, "part", r.Part, "addr", sym.Value)
			}

			continue
		}

		if failed == nil || r.Pos < left[first].Pos {
			first = len(left)
			failed = e
		}

		left = append(left, r)
	}

	s.Refs = left

	if failed == nil {
		return nil
	}

	r := left[first]

	if isNotFound(failed) {
		return &UnresolvedLabelError{Name: r.Name, Context: r.Context}
	}

	return errors.Wrap(failed, "%v at %v", r.Name, r.Context)
}

func (s *State) patch(r Ref, a uint16) error {
	switch r.Part {
	case Lo:
		return s.Out.Patch(r.Pos, byte(a))
	case Hi:
		return s.Out.Patch(r.Pos, byte(a>>8))
	default:
		return s.Out.Patch(r.Pos, byte(a>>8), byte(a))
	}
}

func refsLess(d []Ref, i, j int) bool {
	if d[i].Name != d[j].Name {
		return d[i].Name < d[j].Name
	}

	return d[i].Pos < d[j].Pos
}
