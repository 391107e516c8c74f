// Package isa describes the gx instruction set: opcodes and operand layouts.
package isa

import "strings"

type (
	Opcode byte

	// Kind is an operand kind. It also serves as the kind of a symbol.
	Kind int

	Desc struct {
		Name string
		Op   Opcode
		Args []Kind
	}
)

const (
	NOP Opcode = iota
	SET
	LD
	LDI
	ST
	STI
	ADD
	SUB
	MUL
	DIV
	AND
	OR
	XOR
	EQ
	LT
	GT
	JMP
	CJ
	JS
	CJS
	RET
	DW
	AT
	KEY
	SND // reserved, not assembled
	END
)

const (
	Value Kind = iota
	Address
	Register
)

const (
	// RegHigh holds the high byte of the most recent operation.
	RegHigh = 30
	// RegRem holds the division remainder.
	RegRem = 31
	// MaxReg is the highest encodable register.
	MaxReg = 31

	// Scratch is the register reserved for macro expansions.
	Scratch = RegRem

	// MaxImage is the largest image the VM can load.
	MaxImage = 0xFF00
)

var kindNames = []string{"value", "address", "register"}

var (
	r   = Register
	a   = Address
	v   = Value
	rrr = []Kind{r, r, r}
)

// Table lists every assemblable instruction in opcode order.
var Table = []Desc{
	{"nop", NOP, nil},
	{"set", SET, []Kind{r, v}},
	{"ld", LD, []Kind{r, a}},
	{"ldi", LDI, []Kind{r, r}},
	{"st", ST, []Kind{r, a}},
	{"sti", STI, []Kind{r, r}},
	{"add", ADD, rrr},
	{"sub", SUB, rrr},
	{"mul", MUL, rrr},
	{"div", DIV, rrr},
	{"and", AND, rrr},
	{"or", OR, rrr},
	{"xor", XOR, rrr},
	{"eq", EQ, rrr},
	{"lt", LT, rrr},
	{"gt", GT, rrr},
	{"jmp", JMP, []Kind{a}},
	{"cj", CJ, []Kind{r, a}},
	{"js", JS, []Kind{a}},
	{"cjs", CJS, []Kind{r, a}},
	{"ret", RET, nil},
	{"dw", DW, []Kind{r, r, r, r}},
	{"at", AT, []Kind{r, r}},
	{"key", KEY, []Kind{r, r}},
	{"end", END, nil},
}

var byName = func() map[string]*Desc {
	m := make(map[string]*Desc, len(Table))

	for i := range Table {
		m[Table[i].Name] = &Table[i]
	}

	return m
}()

// Lookup finds an instruction by mnemonic, case-insensitively.
func Lookup(name string) (*Desc, bool) {
	d, ok := byName[strings.ToLower(name)]
	return d, ok
}

// Size is the encoded length of the instruction with plain operands.
func (d *Desc) Size() int {
	n := 1

	for _, k := range d.Args {
		n += k.Width()
	}

	return n
}

// Width is the number of bytes an operand of this kind occupies.
func (k Kind) Width() int {
	if k == Address {
		return 2
	}

	return 1
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "kind(?)"
	}

	return kindNames[k]
}

func (op Opcode) String() string {
	for _, d := range Table {
		if d.Op == op {
			return d.Name
		}
	}

	if op == SND {
		return "snd"
	}

	return "op(?)"
}
