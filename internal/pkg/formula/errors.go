package formula

import (
	"errors"
	"fmt"
)

var (
	ErrSyntax     = errors.New("formula syntax error")
	ErrEvaluation = errors.New("formula evaluation error")
)

// SyntaxError reports where parsing stopped. Pos is a byte offset into the expression.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// EvalError is returned for runtime failures such as division by zero.
type EvalError struct {
	Msg string
}

func (e *EvalError) Error() string {
	return "evaluation error: " + e.Msg
}

func (e *EvalError) Is(target error) bool {
	return target == ErrEvaluation
}

func syntaxErrorf(pos int, format string, args ...interface{}) error {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func evalErrorf(format string, args ...interface{}) error {
	return &EvalError{Msg: fmt.Sprintf(format, args...)}
}
