package ast

import "github.com/slowlang/gxasm/assembler/isa"

type (
	Node interface {
		Span() Base
	}

	// Stmt is a statement node: something evaluated for its effect.
	Stmt interface {
		Node
		stmt()
	}

	// Expr is an operand node: something that has a value.
	Expr interface {
		Node
		expr()
	}

	Base struct {
		Pos int
		End int
	}

	Program struct {
		Base
		Stmts []Stmt
	}

	Label struct {
		Base `tlog:",embed"`
		Name string
	}

	Block struct {
		Base  `tlog:",embed"`
		Stmts []Stmt
	}

	Instr struct {
		Base `tlog:",embed"`
		Desc *isa.Desc
		Args []Expr
	}

	// Data is a dat line: one-byte values and zero terminated strings.
	Data struct {
		Base  `tlog:",embed"`
		Items []Expr
	}

	// DataLong is a datl line: two-byte addresses.
	DataLong struct {
		Base  `tlog:",embed"`
		Items []Expr
	}

	ValDecl struct {
		Base  `tlog:",embed"`
		Name  string
		Value Expr
	}

	AddrDecl struct {
		Base `tlog:",embed"`
		Name string
		Addr Expr
	}

	RegDecl struct {
		Base `tlog:",embed"`
		Name string
		Reg  Expr
	}

	Number struct {
		Base   `tlog:",embed"`
		Digits string
		Radix  int
	}

	Ident struct {
		Base `tlog:",embed"`
		Name string
	}

	// LoHi selects one byte of an address: lo(x) or hi(x).
	LoHi struct {
		Base `tlog:",embed"`
		Hi   bool
		Addr Expr
	}

	String struct {
		Base  `tlog:",embed"`
		Value string
	}

	// Reg is a register literal: %N, %h or %r.
	// Alias is 0 for numbered registers.
	Reg struct {
		Base  `tlog:",embed"`
		Num   *Number
		Alias byte
	}

	// RegLoad is (reg:value), a register set right before use.
	RegLoad struct {
		Base  `tlog:",embed"`
		Reg   Expr
		Value Expr
	}

	// RegFetch is [reg:address], a register loaded from memory right before use.
	RegFetch struct {
		Base `tlog:",embed"`
		Reg  Expr
		Addr Expr
	}
)

func (b Base) Span() Base { return b }

func (Label) stmt()    {}
func (Block) stmt()    {}
func (Instr) stmt()    {}
func (Data) stmt()     {}
func (DataLong) stmt() {}
func (ValDecl) stmt()  {}
func (AddrDecl) stmt() {}
func (RegDecl) stmt()  {}

func (Number) expr()   {}
func (Ident) expr()    {}
func (LoHi) expr()     {}
func (String) expr()   {}
func (Reg) expr()      {}
func (RegLoad) expr()  {}
func (RegFetch) expr() {}
