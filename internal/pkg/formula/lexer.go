package formula

import (
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokEq
	tokNeq
	tokLt
	tokLte
	tokGt
	tokGte
	tokAnd
	tokOr
	tokNot
	tokQuestion
	tokColon
	tokLParen
	tokRParen
	tokComma
)

var tokenNames = map[tokenKind]string{
	tokEOF:      "end of expression",
	tokNumber:   "number",
	tokString:   "string",
	tokIdent:    "identifier",
	tokPlus:     "+",
	tokMinus:    "-",
	tokStar:     "*",
	tokSlash:    "/",
	tokEq:       "==",
	tokNeq:      "!=",
	tokLt:       "<",
	tokLte:      "<=",
	tokGt:       ">",
	tokGte:      ">=",
	tokAnd:      "&&",
	tokOr:       "||",
	tokNot:      "!",
	tokQuestion: "?",
	tokColon:    ":",
	tokLParen:   "(",
	tokRParen:   ")",
	tokComma:    ",",
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lex splits src into tokens. The whole input is tokenised up front so the
// parser can work on a slice.
func lex(src string) ([]token, error) {
	tokens := make([]token, 0, len(src)/2+1)
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
			continue
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			seenDot := false
			for i < len(src) && (isDigit(src[i]) || (src[i] == '.' && !seenDot)) {
				if src[i] == '.' {
					seenDot = true
				}
				i++
			}
			if i < len(src) && isIdentStart(src[i]) {
				return nil, syntaxErrorf(i, "unexpected character %q after number", src[i])
			}
			tokens = append(tokens, token{kind: tokNumber, text: src[start:i], pos: start})
			continue
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: src[start:i], pos: start})
			continue
		case c == '"' || c == '\'':
			start := i
			quote := c
			i++
			var sb strings.Builder
			closed := false
			for i < len(src) {
				if src[i] == '\\' && i+1 < len(src) {
					sb.WriteByte(src[i+1])
					i += 2
					continue
				}
				if src[i] == quote {
					closed = true
					i++
					break
				}
				sb.WriteByte(src[i])
				i++
			}
			if !closed {
				return nil, syntaxErrorf(start, "unterminated string literal")
			}
			tokens = append(tokens, token{kind: tokString, text: sb.String(), pos: start})
			continue
		}

		start := i
		two := ""
		if i+1 < len(src) {
			two = src[i : i+2]
		}
		switch two {
		case "==":
			i += 2
			// Accept "===" as an alias of "==".
			if i < len(src) && src[i] == '=' {
				i++
			}
			tokens = append(tokens, token{kind: tokEq, text: "==", pos: start})
			continue
		case "!=":
			i += 2
			if i < len(src) && src[i] == '=' {
				i++
			}
			tokens = append(tokens, token{kind: tokNeq, text: "!=", pos: start})
			continue
		case "<=":
			tokens = append(tokens, token{kind: tokLte, text: two, pos: start})
			i += 2
			continue
		case ">=":
			tokens = append(tokens, token{kind: tokGte, text: two, pos: start})
			i += 2
			continue
		case "&&":
			tokens = append(tokens, token{kind: tokAnd, text: two, pos: start})
			i += 2
			continue
		case "||":
			tokens = append(tokens, token{kind: tokOr, text: two, pos: start})
			i += 2
			continue
		}

		var kind tokenKind
		switch c {
		case '+':
			kind = tokPlus
		case '-':
			kind = tokMinus
		case '*':
			kind = tokStar
		case '/':
			kind = tokSlash
		case '<':
			kind = tokLt
		case '>':
			kind = tokGt
		case '!':
			kind = tokNot
		case '?':
			kind = tokQuestion
		case ':':
			kind = tokColon
		case '(':
			kind = tokLParen
		case ')':
			kind = tokRParen
		case ',':
			kind = tokComma
		default:
			return nil, syntaxErrorf(i, "unexpected character %q", c)
		}
		tokens = append(tokens, token{kind: kind, text: string(c), pos: start})
		i++
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(src)})
	return tokens, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
