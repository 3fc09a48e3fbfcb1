package formula

import (
	"strings"
)

// Node is an immutable node of a parsed expression.
type Node interface {
	Pos() int
	String() string
}

type Literal struct {
	Value Value
	At    int
}

type Identifier struct {
	Name string
	At   int
}

type Unary struct {
	Op      string
	Operand Node
	At      int
}

type BinaryOp struct {
	Op    string
	Left  Node
	Right Node
	At    int
}

// Ternary is cond ? Then : Else.
type Ternary struct {
	Cond Node
	Then Node
	Else Node
	At   int
}

type Call struct {
	Func string
	Args []Node
	At   int
}

func (n *Literal) Pos() int    { return n.At }
func (n *Identifier) Pos() int { return n.At }
func (n *Unary) Pos() int      { return n.At }
func (n *BinaryOp) Pos() int   { return n.At }
func (n *Ternary) Pos() int    { return n.At }
func (n *Call) Pos() int       { return n.At }

func (n *Literal) String() string {
	if n.Value.Kind() == KindString {
		return `"` + strings.ReplaceAll(n.Value.str, `"`, `\"`) + `"`
	}
	return n.Value.String()
}

func (n *Identifier) String() string { return n.Name }

func (n *Unary) String() string {
	return "(" + n.Op + n.Operand.String() + ")"
}

func (n *BinaryOp) String() string {
	return "(" + n.Left.String() + " " + n.Op + " " + n.Right.String() + ")"
}

func (n *Ternary) String() string {
	return "(" + n.Cond.String() + " ? " + n.Then.String() + " : " + n.Else.String() + ")"
}

func (n *Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return n.Func + "(" + strings.Join(args, ", ") + ")"
}

// walk visits every node depth-first.
func walk(n Node, fn func(Node)) {
	fn(n)
	switch n := n.(type) {
	case *Unary:
		walk(n.Operand, fn)
	case *BinaryOp:
		walk(n.Left, fn)
		walk(n.Right, fn)
	case *Ternary:
		walk(n.Cond, fn)
		walk(n.Then, fn)
		walk(n.Else, fn)
	case *Call:
		for _, a := range n.Args {
			walk(a, fn)
		}
	}
}
