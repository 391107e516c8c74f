// Package macro expands directive lines (".name args...") before parsing.
package macro

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/gxasm/assembler/isa"
)

type (
	// Line is a source line with its origin.
	Line struct {
		Text  string
		File  string
		Depth int
	}

	// Macro expands one directive into replacement lines.
	Macro struct {
		Args   int
		Expand func(ctx context.Context, e *Expander, at Line, args []string) ([]Line, error)
	}

	Expander struct {
		Macros   map[string]Macro
		MaxDepth int

		// ReadFile is used by include. os.ReadFile if nil.
		ReadFile func(name string) ([]byte, error)
	}

	ArgCountError struct {
		Macro string
		Want  int
		Got   int
	}

	FileNotFoundError struct {
		Path string
		Err  error
	}

	UnknownError struct {
		Macro string
	}

	DepthError struct {
		Macro string
		Depth int
	}
)

const (
	Marker = '.'

	DefaultMaxDepth = 64
)

func New() *Expander {
	return &Expander{
		Macros:   Builtin(),
		MaxDepth: DefaultMaxDepth,
	}
}

// Expand consumes lines as a work list until no directive is left.
// Expansions go to the front of the list so they are scanned again.
func (e *Expander) Expand(ctx context.Context, file string, text string) (res []string, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "macro expand", "file", file)
	defer tr.Finish("err", &err)

	work := toLines(text, file, 0)

	// work is kept reversed so the front of the list is the slice tail.
	reverse(work)

	expanded := 0

	for len(work) != 0 {
		l := work[len(work)-1]
		work = work[:len(work)-1]

		name, args, ok := directive(l.Text)
		if !ok {
			res = append(res, l.Text)
			continue
		}

		out, err := e.expand(ctx, l, name, args)
		if err != nil {
			return nil, errors.Wrap(err, "%v", where(l))
		}

		expanded++

		if tlog.If("macro") {
			tr.Printw("expanded", "macro", name, "args", args, "lines", len(out), "depth", l.Depth)
		}

		for i := len(out) - 1; i >= 0; i-- {
			work = append(work, out[i])
		}
	}

	tr.Printw("expanded", "directives", expanded, "lines", len(res))

	return res, nil
}

func (e *Expander) expand(ctx context.Context, l Line, name string, args []string) ([]Line, error) {
	m, ok := e.Macros[name]
	if !ok {
		return nil, &UnknownError{Macro: name}
	}

	if len(args) != m.Args {
		return nil, &ArgCountError{Macro: name, Want: m.Args, Got: len(args)}
	}

	max := e.MaxDepth
	if max == 0 {
		max = DefaultMaxDepth
	}

	if l.Depth >= max {
		return nil, &DepthError{Macro: name, Depth: l.Depth}
	}

	return m.Expand(ctx, e, l, args)
}

// directive splits a directive line into the macro name and arguments.
func directive(text string) (name string, args []string, ok bool) {
	if i := strings.IndexByte(text, ';'); i >= 0 {
		text = text[:i]
	}

	f := strings.Fields(text)
	if len(f) == 0 || f[0][0] != Marker {
		return "", nil, false
	}

	return f[0][1:], f[1:], true
}

func (e *Expander) readFile(name string) ([]byte, error) {
	if e.ReadFile != nil {
		return e.ReadFile(name)
	}

	return os.ReadFile(name)
}

// includePath resolves p relative to the directory of the including file.
func includePath(at Line, p string) string {
	p = strings.Trim(p, `"`)

	if filepath.IsAbs(p) || at.File == "" {
		return p
	}

	return filepath.Join(filepath.Dir(at.File), p)
}

func include(ctx context.Context, e *Expander, at Line, args []string) ([]Line, error) {
	name := includePath(at, args[0])

	data, err := e.readFile(name)
	if errors.Is(err, fs.ErrNotExist) && name != strings.Trim(args[0], `"`) {
		name = strings.Trim(args[0], `"`)
		data, err = e.readFile(name)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &FileNotFoundError{Path: name, Err: err}
	}
	if err != nil {
		return nil, errors.Wrap(err, "include %v", name)
	}

	tlog.SpanFromContext(ctx).Printw("include", "name", name, "size", len(data), "depth", at.Depth+1)

	return toLines(string(data), name, at.Depth+1), nil
}

// SplitLines splits on \r\n, \r and \n.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return strings.Split(text, "\n")
}

// Builtin returns the standard macro table.
func Builtin() map[string]Macro {
	m := map[string]Macro{
		"include": {Args: 1, Expand: include},
		"keyj":    {Args: 2, Expand: keyJump(isa.CJ)},
		"keyjs":   {Args: 2, Expand: keyJump(isa.CJS)},
		"mov":     {Args: 2, Expand: mov},
	}

	for _, cmp := range []isa.Opcode{isa.LT, isa.GT, isa.EQ} {
		m[cmp.String()+"j"] = Macro{Args: 3, Expand: compareJump(cmp, isa.CJ)}
		m[cmp.String()+"js"] = Macro{Args: 3, Expand: compareJump(cmp, isa.CJS)}
	}

	return m
}

func compareJump(cmp, jump isa.Opcode) func(context.Context, *Expander, Line, []string) ([]Line, error) {
	return func(ctx context.Context, e *Expander, at Line, args []string) ([]Line, error) {
		return at.Next(
			fmt.Sprintf("%v %s %s %%%d", cmp, args[0], args[1], isa.Scratch),
			fmt.Sprintf("%v %%%d %s", jump, isa.Scratch, args[2]),
		), nil
	}
}

func keyJump(jump isa.Opcode) func(context.Context, *Expander, Line, []string) ([]Line, error) {
	return func(ctx context.Context, e *Expander, at Line, args []string) ([]Line, error) {
		return at.Next(
			fmt.Sprintf("%v %%%d %s", isa.SET, isa.Scratch, args[0]),
			fmt.Sprintf("%v %%%d %%%[2]d", isa.KEY, isa.Scratch),
			fmt.Sprintf("%v %%%d %s", jump, isa.Scratch, args[1]),
		), nil
	}
}

func mov(ctx context.Context, e *Expander, at Line, args []string) ([]Line, error) {
	return at.Next(
		fmt.Sprintf("%v %%%d 0", isa.SET, isa.Scratch),
		fmt.Sprintf("%v %s %%%d %s", isa.ADD, args[0], isa.Scratch, args[1]),
	), nil
}

// Next makes the lines a directive at l expands to.
func (l Line) Next(text ...string) []Line {
	res := make([]Line, len(text))

	for i, t := range text {
		res[i] = Line{Text: t, File: l.File, Depth: l.Depth + 1}
	}

	return res
}

func toLines(text, file string, depth int) []Line {
	l := SplitLines(text)
	res := make([]Line, len(l))

	for i, t := range l {
		res[i] = Line{Text: t, File: file, Depth: depth}
	}

	return res
}

func reverse(l []Line) {
	for i, j := 0, len(l)-1; i < j; i, j = i+1, j-1 {
		l[i], l[j] = l[j], l[i]
	}
}

func where(l Line) string {
	if l.File == "" {
		return strings.TrimSpace(l.Text)
	}

	return fmt.Sprintf("%s: %s", l.File, strings.TrimSpace(l.Text))
}

func (e *ArgCountError) Error() string {
	return fmt.Sprintf(".%s requires %d arguments but %d were given", e.Macro, e.Want, e.Got)
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("include file %q not found", e.Path)
}

func (e *FileNotFoundError) Unwrap() error { return e.Err }

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown macro .%s", e.Macro)
}

func (e *DepthError) Error() string {
	return fmt.Sprintf(".%s nested %d levels deep, include cycle?", e.Macro, e.Depth)
}
