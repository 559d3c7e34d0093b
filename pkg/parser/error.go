package parser

import (
	"errors"
	"fmt"

	"weebasic/pkg/scanner"
)

var (
	ErrInvalidStatement  = errors.New("invalid statement")
	ErrInvalidExpression = errors.New("invalid expression")
	ErrUndeclared        = errors.New("reference to undeclared variable")
	ErrAlreadyDeclared   = errors.New("already declared")
	ErrTooManyLocals     = errors.New("too many local variables")
)

// SyntaxError is a compile error at a source position
type SyntaxError struct {
	Pos scanner.Position
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %v", e.Pos, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// wrap attaches the current cursor position to err
func (p *Parser) wrap(err error) error {
	return p.errorAt(p.sc.Pos(), err)
}

// errorf formats a syntax error at the current cursor position
func (p *Parser) errorf(format string, args ...any) error {
	return p.wrap(fmt.Errorf(format, args...))
}

// errorAt builds a syntax error at pos
func (p *Parser) errorAt(pos scanner.Position, err error) error {
	return &SyntaxError{Pos: pos, Err: err}
}
