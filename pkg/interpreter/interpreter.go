package interpreter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"weebasic/internal/config"
	"weebasic/pkg/bytecode"
)

// Interpreter executes a compiled bytecode program on an operand stack
type Interpreter struct {
	insns []bytecode.Instruction // program being executed, never modified
	pc    int                    // index of the next instruction

	locals []Value // local slots, fixed capacity
	stack  []Value // operand stack, fixed capacity

	in  *bufio.Reader // source for READINT
	out io.Writer     // sink for PRINT and the READINT prompt

	limits   config.Limits
	maxSteps int // maximum steps (0 = unlimited)
	steps    int // steps executed
}

type Option func(*Interpreter)

// WithWriter sets the output writer for print statements
func WithWriter(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

// WithReader sets the input read by read_int
func WithReader(r io.Reader) Option {
	return func(i *Interpreter) {
		if br, ok := r.(*bufio.Reader); ok {
			i.in = br
			return
		}
		i.in = bufio.NewReader(r)
	}
}

// WithLimits sets the capacities of the locals array and operand stack
func WithLimits(l config.Limits) Option {
	return func(i *Interpreter) { i.limits = l }
}

// WithMaxSteps sets a maximum number of interpreter steps before returning ErrMaxStepsExceeded
func WithMaxSteps(n int) Option {
	return func(i *Interpreter) { i.maxSteps = n }
}

// NewInterpreter creates a new Interpreter instance
func NewInterpreter(prog *bytecode.Program, opts ...Option) *Interpreter {
	it := &Interpreter{
		insns:  prog.Instructions(),
		limits: config.DefaultLimits(),
	}

	for _, o := range opts {
		o(it)
	}

	if it.out == nil {
		it.out = os.Stdout
	}

	if it.in == nil {
		it.in = bufio.NewReader(os.Stdin)
	}

	it.Reset()

	return it
}

// Load swaps in a new program, keeping locals and the program counter.
// The new program is expected to extend the old one.
func (i *Interpreter) Load(prog *bytecode.Program) {
	i.insns = prog.Instructions()
}

// Reset clears runtime state (locals, stack, PC, counters)
func (i *Interpreter) Reset() {
	i.pc = 0
	i.locals = make([]Value, i.limits.MaxLocals)
	i.stack = make([]Value, 0, i.limits.MaxStack)
	i.steps = 0
}

// Step executes a single instruction, returning (halted, error)
func (i *Interpreter) Step() (bool, error) {
	if i.maxSteps > 0 && i.steps >= i.maxSteps {
		return false, i.fail(ErrMaxStepsExceeded)
	}

	halted, err := i.exec()
	i.steps++

	return halted, err
}

// Run executes until halt or error
func (i *Interpreter) Run() error {
	for {
		halted, err := i.Step()
		if err != nil {
			return err
		}

		if halted {
			return nil
		}
	}
}

// PC returns the current instruction pointer
func (i *Interpreter) PC() int {
	return i.pc
}

// SetPC sets the current instruction pointer
func (i *Interpreter) SetPC(pc int) {
	i.pc = pc
}

// Steps returns the number of instructions executed since the last reset
func (i *Interpreter) Steps() int {
	return i.steps
}

// Stack returns a copy of the operand stack, bottom first
func (i *Interpreter) Stack() []Value {
	return append([]Value(nil), i.stack...)
}

// DropStack empties the operand stack
func (i *Interpreter) DropStack() {
	i.stack = i.stack[:0]
}

// Local returns the value in slot
func (i *Interpreter) Local(slot int) (Value, bool) {
	if slot < 0 || slot >= len(i.locals) || !i.locals[slot].IsInt() {
		return 0, false
	}

	return i.locals[slot], true
}

func (i *Interpreter) push(v Value) error {
	if len(i.stack) >= i.limits.MaxStack {
		return ErrStackOverflow
	}

	i.stack = append(i.stack, v)
	return nil
}

func (i *Interpreter) pop() (Value, error) {
	if len(i.stack) == 0 {
		return 0, ErrStackUnderflow
	}

	v := i.stack[len(i.stack)-1]
	i.stack = i.stack[:len(i.stack)-1]
	return v, nil
}

// pop2 pops the right operand then the left one
func (i *Interpreter) pop2() (int64, int64, error) {
	right, err := i.pop()
	if err != nil {
		return 0, 0, err
	}

	left, err := i.pop()
	if err != nil {
		return 0, 0, err
	}

	return left.Int(), right.Int(), nil
}

func (i *Interpreter) slot(imm int64) (int, error) {
	if imm < 0 || imm >= int64(len(i.locals)) {
		return 0, fmt.Errorf("%w: slot %d, capacity %d", ErrBadLocal, imm, len(i.locals))
	}

	return int(imm), nil
}

// fail wraps err with the location of the current instruction
func (i *Interpreter) fail(err error) error {
	re := &RuntimeError{PC: i.pc, Err: err}
	if i.pc >= 0 && i.pc < len(i.insns) {
		re.Op = i.insns[i.pc].Op
	}

	return re
}

// RuntimeError is an error raised while executing an instruction
type RuntimeError struct {
	PC  int
	Op  bytecode.Op
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("run-time error at %04d %s: %v", e.PC, e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

var (
	ErrAssertion          = errors.New("assertion failed")
	ErrUnknownOpcode      = errors.New("unknown bytecode instruction")
	ErrStackOverflow      = errors.New("operand stack overflow")
	ErrStackUnderflow     = errors.New("operand stack underflow")
	ErrBadLocal           = errors.New("local slot out of range")
	ErrUninitializedLocal = errors.New("read of uninitialized local")
	ErrMaxStepsExceeded   = errors.New("maximum steps exceeded")
)
