// Package bytecode defines the instruction set shared by the parser and the
// interpreter, and the bounded program store the parser emits into.
package bytecode

import (
	"errors"
	"fmt"
	"strings"
)

var ErrProgramTooLarge = errors.New("program too large")

// Program is a bounded instruction sequence. The parser owns it while it is
// being built; the interpreter only reads it.
type Program struct {
	insns     []Instruction // instruction store
	maxInsns  int           // capacity of the store
	numLocals int           // number of local slots referenced
}

// NewProgram creates an empty program holding at most maxInsns instructions
func NewProgram(maxInsns int) *Program {
	return &Program{
		insns:    make([]Instruction, 0, maxInsns),
		maxInsns: maxInsns,
	}
}

// FromInstructions builds a program from an existing instruction list
func FromInstructions(insns []Instruction, numLocals int) *Program {
	p := NewProgram(len(insns))
	p.insns = append(p.insns, insns...)
	p.numLocals = numLocals
	return p
}

// Emit appends an instruction and returns its index
func (p *Program) Emit(op Op, imm int64) (int, error) {
	if len(p.insns) >= p.maxInsns {
		return -1, fmt.Errorf("%w: more than %d instructions", ErrProgramTooLarge, p.maxInsns)
	}

	p.insns = append(p.insns, Instruction{Op: op, Imm: imm})
	return len(p.insns) - 1, nil
}

// Patch overwrites the immediate of an already emitted instruction
func (p *Program) Patch(idx int, imm int64) {
	p.insns[idx].Imm = imm
}

// Len returns the number of emitted instructions
func (p *Program) Len() int {
	return len(p.insns)
}

// At returns the instruction at idx
func (p *Program) At(idx int) Instruction {
	return p.insns[idx]
}

// Instructions returns a copy of the instruction list
func (p *Program) Instructions() []Instruction {
	return append([]Instruction(nil), p.insns...)
}

// Truncate drops every instruction from n onwards
func (p *Program) Truncate(n int) {
	if n < len(p.insns) {
		p.insns = p.insns[:n]
	}
}

// NumLocals returns the number of local slots the program uses
func (p *Program) NumLocals() int {
	return p.numLocals
}

// SetNumLocals records the number of local slots the program uses
func (p *Program) SetNumLocals(n int) {
	p.numLocals = n
}

// JumpTarget returns the index a jump at idx lands on when taken
func (p *Program) JumpTarget(idx int) int {
	return idx + 1 + int(p.insns[idx].Imm)
}

// String renders a plain listing, one instruction per line
func (p *Program) String() string {
	var b strings.Builder
	for i, in := range p.insns {
		fmt.Fprintf(&b, "%04d %s", i, in)
		if in.Op.IsJump() {
			fmt.Fprintf(&b, " -> %04d", p.JumpTarget(i))
		}
		b.WriteByte('\n')
	}

	return b.String()
}
