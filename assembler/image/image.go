// Package image holds the output buffer and writes finished gx images.
package image

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/gxasm/assembler/isa"
)

type (
	// Buffer is the append-only output of the evaluator.
	// Bytes are changed in place only through Patch on reserved positions.
	Buffer struct {
		b       []byte
		max     int
		pending Pending
	}

	TooLargeError struct {
		Size int
		Max  int
	}

	// PatchError is an internal error: a patch aimed at a position that
	// holds no placeholder.
	PatchError struct {
		Pos int
	}
)

const (
	Ext = ".gxa"

	Placeholder = 0xFF
)

var ErrPending = errors.New("unresolved placeholder bytes")

func NewBuffer() *Buffer {
	return &Buffer{max: isa.MaxImage}
}

// NewBufferMax makes a buffer with a custom ceiling.
func NewBufferMax(max int) *Buffer {
	return &Buffer{max: max}
}

func (b *Buffer) Len() int { return len(b.b) }

func (b *Buffer) Bytes() []byte { return b.b }

func (b *Buffer) Max() int { return b.max }

func (b *Buffer) Pending() *Pending { return &b.pending }

func (b *Buffer) Push(p ...byte) error {
	if len(b.b)+len(p) > b.max {
		return &TooLargeError{Size: len(b.b) + len(p), Max: b.max}
	}

	b.b = append(b.b, p...)

	return nil
}

func (b *Buffer) Push16(v uint16) error {
	return b.Push(byte(v>>8), byte(v))
}

// Reserve appends n placeholder bytes and returns their position.
func (b *Buffer) Reserve(n int) (pos int, err error) {
	pos = len(b.b)

	for i := 0; i < n; i++ {
		err = b.Push(Placeholder)
		if err != nil {
			return pos, err
		}

		b.pending.Set(pos + i)
	}

	return pos, nil
}

// Patch overwrites reserved bytes starting at pos.
func (b *Buffer) Patch(pos int, p ...byte) error {
	for i := range p {
		if !b.pending.IsSet(pos + i) {
			return &PatchError{Pos: pos + i}
		}
	}

	for i, c := range p {
		b.b[pos+i] = c
		b.pending.Clear(pos + i)
	}

	return nil
}

// OutputName replaces the extension of the source file name with .gxa.
// A source already named .gxa gets the extension appended instead.
func OutputName(src string) string {
	ext := filepath.Ext(src)

	if strings.EqualFold(ext, Ext) {
		return src + Ext
	}

	return strings.TrimSuffix(src, ext) + Ext
}

// Check verifies the buffer is complete and fits the VM memory.
func (b *Buffer) Check() error {
	if len(b.b) > b.max {
		return &TooLargeError{Size: len(b.b), Max: b.max}
	}

	if n := b.pending.Size(); n != 0 {
		return errors.Wrap(ErrPending, "%d bytes from %#04x", n, b.pending.First())
	}

	return nil
}

// WriteFile writes the finished image.
func (b *Buffer) WriteFile(ctx context.Context, name string) (err error) {
	err = b.Check()
	if err != nil {
		return err
	}

	err = os.WriteFile(name, b.b, 0o644)
	if err != nil {
		return errors.Wrap(err, "write image")
	}

	tlog.SpanFromContext(ctx).Printw("image written", "name", name, "size", len(b.b))

	return nil
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("image size %#x (%d) exceeds %#x by %d bytes", e.Size, e.Size, e.Max, e.Size-e.Max)
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("no placeholder at %#04x", e.Pos)
}
