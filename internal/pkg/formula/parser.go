package formula

import (
	"sort"

	"github.com/shopspring/decimal"
)

const (
	MaxExpressionLength = 4096
	MaxDepth            = 64
)

var builtins = map[string]int{
	"NORM": 1,
}

// IsKeyword reports whether name is a literal keyword or a callable builtin and
// so cannot be bound as a variable.
func IsKeyword(name string) bool {
	if name == "true" || name == "false" {
		return true
	}
	_, ok := builtins[name]
	return ok
}

// Expression is a parsed formula. It is safe for concurrent use.
type Expression struct {
	root        Node
	identifiers []string
}

// Parse compiles src into an Expression.
func Parse(src string) (*Expression, error) {
	if len(src) > MaxExpressionLength {
		return nil, syntaxErrorf(MaxExpressionLength, "expression longer than %d bytes", MaxExpressionLength)
	}
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 1 {
		return nil, syntaxErrorf(0, "empty expression")
	}

	p := &parser{tokens: tokens}
	root, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, syntaxErrorf(tok.pos, "unexpected %s", describe(tok))
	}

	seen := make(map[string]struct{})
	walk(root, func(n Node) {
		if id, ok := n.(*Identifier); ok {
			seen[id.Name] = struct{}{}
		}
	})
	identifiers := make([]string, 0, len(seen))
	for name := range seen {
		identifiers = append(identifiers, name)
	}
	sort.Strings(identifiers)

	return &Expression{root: root, identifiers: identifiers}, nil
}

// Identifiers returns the sorted distinct identifiers referenced by the expression.
func (e *Expression) Identifiers() []string {
	out := make([]string, len(e.identifiers))
	copy(out, e.identifiers)
	return out
}

func (e *Expression) String() string { return e.root.String() }

type parser struct {
	tokens []token
	pos    int
	depth  int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.next()
	if tok.kind != kind {
		return tok, syntaxErrorf(tok.pos, "expected %s, found %s", kind, describe(tok))
	}
	return tok, nil
}

func (p *parser) enter(pos int) error {
	p.depth++
	if p.depth > MaxDepth {
		return syntaxErrorf(pos, "expression nested deeper than %d levels", MaxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) parseExpression() (Node, error) {
	return p.parseTernary()
}

// parseTernary handles cond ? a : b. The else branch recurses into
// parseTernary, which makes chains right-associative.
func (p *parser) parseTernary() (Node, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokQuestion {
		return cond, nil
	}
	q := p.next()
	if err := p.enter(q.pos); err != nil {
		return nil, err
	}
	defer p.leave()

	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokColon); err != nil {
		return nil, err
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return &Ternary{Cond: cond, Then: then, Else: els, At: q.pos}, nil
}

func (p *parser) parseOr() (Node, error) {
	return p.parseBinary(p.parseAnd, tokOr)
}

func (p *parser) parseAnd() (Node, error) {
	return p.parseBinary(p.parseEquality, tokAnd)
}

func (p *parser) parseEquality() (Node, error) {
	return p.parseBinary(p.parseRelational, tokEq, tokNeq)
}

func (p *parser) parseRelational() (Node, error) {
	return p.parseBinary(p.parseAdditive, tokLt, tokLte, tokGt, tokGte)
}

func (p *parser) parseAdditive() (Node, error) {
	return p.parseBinary(p.parseMultiplicative, tokPlus, tokMinus)
}

func (p *parser) parseMultiplicative() (Node, error) {
	return p.parseBinary(p.parseUnary, tokStar, tokSlash)
}

// parseBinary parses a left-associative chain of the given operators.
func (p *parser) parseBinary(operand func() (Node, error), ops ...tokenKind) (Node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if !isOneOf(tok.kind, ops) {
			return left, nil
		}
		p.next()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: tok.kind.String(), Left: left, Right: right, At: tok.pos}
	}
}

func (p *parser) parseUnary() (Node, error) {
	tok := p.peek()
	if tok.kind != tokMinus && tok.kind != tokNot && tok.kind != tokPlus {
		return p.parsePrimary()
	}
	p.next()
	if err := p.enter(tok.pos); err != nil {
		return nil, err
	}
	defer p.leave()

	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokPlus {
		return operand, nil
	}
	return &Unary{Op: tok.kind.String(), Operand: operand, At: tok.pos}, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		d, err := decimal.NewFromString(tok.text)
		if err != nil {
			return nil, syntaxErrorf(tok.pos, "invalid number %q", tok.text)
		}
		return &Literal{Value: Number(d), At: tok.pos}, nil
	case tokString:
		return &Literal{Value: String(tok.text), At: tok.pos}, nil
	case tokIdent:
		switch tok.text {
		case "true":
			return &Literal{Value: Bool(true), At: tok.pos}, nil
		case "false":
			return &Literal{Value: Bool(false), At: tok.pos}, nil
		}
		if p.peek().kind == tokLParen {
			return p.parseCall(tok)
		}
		return &Identifier{Name: tok.text, At: tok.pos}, nil
	case tokLParen:
		if err := p.enter(tok.pos); err != nil {
			return nil, err
		}
		defer p.leave()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, syntaxErrorf(tok.pos, "unexpected %s", describe(tok))
	}
}

func (p *parser) parseCall(name token) (Node, error) {
	arity, ok := builtins[name.text]
	if !ok {
		return nil, syntaxErrorf(name.pos, "unknown function %q", name.text)
	}
	p.next() // (
	if err := p.enter(name.pos); err != nil {
		return nil, err
	}
	defer p.leave()

	args := make([]Node, 0, arity)
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	if len(args) != arity {
		return nil, syntaxErrorf(name.pos, "%s expects %d argument(s), got %d", name.text, arity, len(args))
	}
	return &Call{Func: name.text, Args: args, At: name.pos}, nil
}

func isOneOf(kind tokenKind, kinds []tokenKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func describe(tok token) string {
	switch tok.kind {
	case tokEOF:
		return "end of expression"
	case tokIdent, tokNumber:
		return tok.kind.String() + " " + tok.text
	case tokString:
		return "string literal"
	default:
		return "'" + tok.kind.String() + "'"
	}
}
