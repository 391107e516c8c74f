package assembler

import (
	"context"
	"io"
	"os"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/gxasm/assembler/eval"
	"github.com/slowlang/gxasm/assembler/image"
	"github.com/slowlang/gxasm/assembler/macro"
	"github.com/slowlang/gxasm/assembler/parse"
)

type (
	Options struct {
		// Debug makes a failed assembly dump its partial state to Dump.
		Debug bool
		Dump  io.Writer

		// ReadFile overrides os.ReadFile for the source and includes.
		ReadFile func(name string) ([]byte, error)
	}

	Assembler struct {
		Options
	}
)

func New(opts Options) *Assembler {
	return &Assembler{Options: opts}
}

func AssembleFile(ctx context.Context, name string) (*image.Buffer, error) {
	return New(Options{}).AssembleFile(ctx, name)
}

func (a *Assembler) AssembleFile(ctx context.Context, name string) (*image.Buffer, error) {
	read := a.ReadFile
	if read == nil {
		read = os.ReadFile
	}

	text, err := read(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return a.Assemble(ctx, name, text)
}

// Assemble runs the whole pipeline on the source text of file name.
func (a *Assembler) Assemble(ctx context.Context, name string, text []byte) (buf *image.Buffer, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "assemble", "name", name)
	defer tr.Finish("err", &err)

	e := macro.New()
	e.ReadFile = a.ReadFile

	lines, err := e.Expand(ctx, name, string(text))
	if err != nil {
		return nil, errors.Wrap(err, "expand macros")
	}

	expanded := []byte(strings.Join(lines, "\n"))

	if tr.If("expanded") {
		tr.Printw("expanded text", "text", expanded)
	}

	p, err := parse.Parse(ctx, expanded)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	st := eval.New()

	defer func() {
		if err == nil || !a.Debug || a.Dump == nil {
			return
		}

		if e := st.Dump(a.Dump); e != nil {
			tr.Printw("dump", "err", e)
		}
	}()

	err = st.Program(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "evaluate")
	}

	err = st.Backpatch(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "backpatch")
	}

	err = st.Out.Check()
	if err != nil {
		return nil, errors.Wrap(err, "image")
	}

	tr.Printw("assembled", "size", st.Out.Len())

	return st.Out, nil
}
