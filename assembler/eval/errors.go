package eval

import "fmt"

type (
	// RangeError is a number too big for where it is used.
	RangeError struct {
		Value uint64
		Max   uint64

		// Text and Radix are set when the literal does not fit 64 bits.
		Text  string
		Radix int
	}

	RegisterRangeError struct {
		Reg uint64
	}

	UnresolvedLabelError struct {
		Name    string
		Context string
	}
)

func (e *RangeError) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("number %s (base %d) exceeds %#x", e.Text, e.Radix, e.Max)
	}

	return fmt.Sprintf("number %d (%#x) exceeds %#x", e.Value, e.Value, e.Max)
}

func (e *RegisterRangeError) Error() string {
	return fmt.Sprintf("register %%%d out of range 0-31", e.Reg)
}

func (e *UnresolvedLabelError) Error() string {
	return fmt.Sprintf("label '%s' referenced at %s is never defined", e.Name, e.Context)
}
