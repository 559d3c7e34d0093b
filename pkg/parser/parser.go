// Package parser is a single-pass recursive-descent compiler. Every grammar
// rule emits bytecode as soon as it is recognised; no syntax tree is built.
package parser

import (
	"fmt"
	"os"

	"weebasic/internal/config"
	"weebasic/pkg/bytecode"
	"weebasic/pkg/parser/locals"
	"weebasic/pkg/scanner"

	"github.com/charmbracelet/log"
)

type Parser struct {
	sc     *scanner.Scanner  // scanner over the chunk being compiled
	prog   *bytecode.Program // instructions emitted so far
	locals *locals.Chain     // declared locals, never popped
	limits config.Limits     // capacities
}

// binary operators accepted after the first atom of an expression
var binaryOps = []struct {
	text string
	op   bytecode.Op
}{
	{"+", bytecode.OpAdd},
	{"-", bytecode.OpSub},
	{"==", bytecode.OpEq},
	{"<", bytecode.OpLt},
}

// NewParser creates a parser with an empty program and symbol chain
func NewParser(limits config.Limits) *Parser {
	return &Parser{
		prog:   bytecode.NewProgram(limits.MaxInstructions),
		locals: locals.NewChain(),
		limits: limits,
	}
}

// ParseFile reads a source file and compiles it
func ParseFile(path string, limits config.Limits) (*bytecode.Program, error) {
	input, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file %q: %w", path, err)
	}

	log.Debug("Read source file", "file", path, "bytes", len(input))

	return NewParser(limits).Parse(string(input))
}

// Parse compiles a complete program and terminates it with EXIT
func (p *Parser) Parse(src string) (*bytecode.Program, error) {
	if err := p.ParseChunk(src); err != nil {
		return nil, err
	}

	if err := p.emit(bytecode.OpExit, 0); err != nil {
		return nil, err
	}

	log.Debug("Compiled program", "instructions", p.prog.Len(), "locals", p.prog.NumLocals())

	return p.prog, nil
}

// ParseChunk compiles statements from src onto the end of the current
// program, sharing the symbol chain with earlier chunks
func (p *Parser) ParseChunk(src string) error {
	p.sc = scanner.NewScanner(src, p.limits.MaxIdentLen)

	for {
		p.sc.SkipWhitespace()
		if p.sc.AtEOF() {
			return nil
		}

		if err := p.statement(); err != nil {
			return err
		}
	}
}

// Program returns the program being built
func (p *Parser) Program() *bytecode.Program {
	return p.prog
}

// Locals returns the names declared so far, most recent first
func (p *Parser) Locals() []string {
	return p.locals.Names()
}

// Checkpoint records how much has been compiled
type Checkpoint struct {
	insns     int
	numLocals int
	mark      locals.Mark
}

// Checkpoint returns the current compile state
func (p *Parser) Checkpoint() Checkpoint {
	return Checkpoint{
		insns:     p.prog.Len(),
		numLocals: p.prog.NumLocals(),
		mark:      p.locals.Mark(),
	}
}

// Rollback discards everything compiled since cp was taken
func (p *Parser) Rollback(cp Checkpoint) {
	p.prog.Truncate(cp.insns)
	p.prog.SetNumLocals(cp.numLocals)
	p.locals.Reset(cp.mark)
}

// statement ::= comment | let-decl | if-stmt | begin-block | print-stmt | assert-stmt
func (p *Parser) statement() error {
	p.sc.SkipWhitespace()

	if p.sc.Peek() == '#' {
		p.sc.SkipComment()
		return nil
	}

	if p.sc.Match("let") {
		return p.letDecl()
	}

	if p.sc.Match("if") {
		return p.ifStmt()
	}

	if p.sc.Match("begin") {
		return p.beginBlock()
	}

	if p.sc.Match("print") {
		if err := p.expr(); err != nil {
			return err
		}
		return p.emit(bytecode.OpPrint, 0)
	}

	if p.sc.Match("assert") {
		return p.assertStmt()
	}

	return p.errorf("%w: \"%s [...]\"", ErrInvalidStatement, p.sc.Rest(10))
}

// let-decl ::= 'let' ident '=' expr
func (p *Parser) letDecl() error {
	pos := p.sc.Pos()
	name, err := p.sc.Ident()
	if err != nil {
		return p.wrap(err)
	}

	if err := p.sc.Expect("="); err != nil {
		return p.wrap(err)
	}

	if err := p.expr(); err != nil {
		return err
	}

	if _, ok := p.locals.Lookup(name); ok {
		return p.errorAt(pos, fmt.Errorf("local variable %q %w", name, ErrAlreadyDeclared))
	}

	if p.locals.NextSlot() >= p.limits.MaxLocals {
		return p.errorAt(pos, fmt.Errorf("%w (max %d)", ErrTooManyLocals, p.limits.MaxLocals))
	}

	local := p.locals.Declare(name)
	p.prog.SetNumLocals(local.Slot + 1)

	return p.emit(bytecode.OpSetLocal, int64(local.Slot))
}

// if-stmt ::= 'if' expr 'then' statement
func (p *Parser) ifStmt() error {
	if err := p.expr(); err != nil {
		return err
	}

	if err := p.sc.Expect("then"); err != nil {
		return p.wrap(err)
	}

	jump, err := p.prog.Emit(bytecode.OpIfNot, 0)
	if err != nil {
		return p.wrap(err)
	}

	if err := p.statement(); err != nil {
		return err
	}

	// land on the first instruction after the body
	p.prog.Patch(jump, int64(p.prog.Len()-jump-1))

	return nil
}

// begin-block ::= 'begin' statement* 'end'
func (p *Parser) beginBlock() error {
	for {
		if p.sc.Match("end") {
			return nil
		}

		p.sc.SkipWhitespace()
		if p.sc.AtEOF() {
			return p.wrap(&scanner.ExpectError{Token: "end"})
		}

		if err := p.statement(); err != nil {
			return err
		}
	}
}

// assert-stmt ::= 'assert' expr
func (p *Parser) assertStmt() error {
	if err := p.expr(); err != nil {
		return err
	}

	// a true test skips the ERROR
	if err := p.emit(bytecode.OpIf, 1); err != nil {
		return err
	}

	return p.emit(bytecode.OpError, 0)
}

// expr ::= atom (('+'|'-'|'=='|'<') atom)?
func (p *Parser) expr() error {
	if err := p.atom(); err != nil {
		return err
	}

	p.sc.SkipWhitespace()

	for _, bin := range binaryOps {
		if p.sc.Match(bin.text) {
			if err := p.atom(); err != nil {
				return err
			}
			return p.emit(bin.op, 0)
		}
	}

	return nil
}

// atom ::= 'read_int' | integer-literal | ident
func (p *Parser) atom() error {
	p.sc.SkipWhitespace()

	if p.sc.Match("read_int") {
		return p.emit(bytecode.OpReadInt, 0)
	}

	ch := p.sc.Peek()

	if scanner.IsDigit(ch) {
		return p.emit(bytecode.OpPush, p.sc.Int())
	}

	if scanner.IsIdentStart(ch) {
		pos := p.sc.Pos()
		name, err := p.sc.Ident()
		if err != nil {
			return p.wrap(err)
		}

		local, ok := p.locals.Lookup(name)
		if !ok {
			return p.errorAt(pos, fmt.Errorf("%w %q", ErrUndeclared, name))
		}

		return p.emit(bytecode.OpGetLocal, int64(local.Slot))
	}

	return p.wrap(ErrInvalidExpression)
}

// emit appends an instruction, reporting a full program as a syntax error
func (p *Parser) emit(op bytecode.Op, imm int64) error {
	if _, err := p.prog.Emit(op, imm); err != nil {
		return p.wrap(err)
	}

	return nil
}
