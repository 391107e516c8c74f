package image

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

type (
	// Pending marks buffer bytes that still hold placeholders.
	Pending struct {
		b []uint64
	}
)

func (s *Pending) Set(i int) {
	i, j := i/64, i%64

	for i >= len(s.b) {
		s.b = append(s.b, 0)
	}

	s.b[i] |= 1 << j
}

func (s *Pending) Clear(i int) {
	i, j := i/64, i%64

	if i >= len(s.b) {
		return
	}

	s.b[i] &^= 1 << j
}

func (s *Pending) IsSet(i int) bool {
	i, j := i/64, i%64

	if i >= len(s.b) {
		return false
	}

	return s.b[i]&(1<<j) != 0
}

func (s *Pending) Size() (n int) {
	for _, x := range s.b {
		n += bits.OnesCount64(x)
	}

	return n
}

// First returns the lowest pending position or -1.
func (s *Pending) First() int {
	for i, x := range s.b {
		if x != 0 {
			return i*64 + bits.TrailingZeros64(x)
		}
	}

	return -1
}

func (s *Pending) Range(f func(i int) bool) {
	for i, x := range s.b {
		for x != 0 {
			j := bits.TrailingZeros64(x)
			x &^= 1 << j

			if !f(i*64 + j) {
				return
			}
		}
	}
}

func (s *Pending) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	if s == nil {
		return e.AppendNil(b)
	}

	b = e.AppendTag(b, tlwire.Array, -1)

	s.Range(func(i int) bool {
		b = e.AppendInt(b, i)

		return true
	})

	b = e.AppendBreak(b)

	return b
}
