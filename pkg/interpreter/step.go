package interpreter

import (
	"errors"
	"fmt"
	"io"

	"weebasic/pkg/bytecode"

	"github.com/charmbracelet/log"
)

const readIntPrompt = "Input an integer value:\n> "

// exec fetches, dispatches and advances over one instruction
func (i *Interpreter) exec() (bool, error) {
	// running off the end is EXIT
	if i.pc < 0 || i.pc >= len(i.insns) {
		log.Debug("Program finished", "steps", i.steps)
		return true, nil
	}

	in := i.insns[i.pc]
	next := i.pc + 1

	var err error

	switch in.Op {
	case bytecode.OpExit:
		log.Debug("Program exited", "pc", i.pc, "steps", i.steps)
		return true, nil

	case bytecode.OpError:
		return true, i.fail(ErrAssertion)

	case bytecode.OpPush:
		err = i.push(IntValue(in.Imm))

	case bytecode.OpGetLocal:
		var slot int
		if slot, err = i.slot(in.Imm); err == nil {
			v := i.locals[slot]
			if !v.IsInt() {
				err = fmt.Errorf("%w: slot %d", ErrUninitializedLocal, slot)
			} else {
				err = i.push(v)
			}
		}

	case bytecode.OpSetLocal:
		var slot int
		if slot, err = i.slot(in.Imm); err == nil {
			var v Value
			if v, err = i.pop(); err == nil {
				i.locals[slot] = v
			}
		}

	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpEq, bytecode.OpLt:
		var left, right int64
		if left, right, err = i.pop2(); err == nil {
			err = i.push(binary(in.Op, left, right))
		}

	case bytecode.OpIf, bytecode.OpIfNot:
		var test Value
		if test, err = i.pop(); err == nil {
			var b bool
			if b, err = test.AsBool(); err == nil && b == (in.Op == bytecode.OpIf) {
				next += int(in.Imm)
			}
		}

	case bytecode.OpReadInt:
		var n int64
		if n, err = i.readInt(); err == nil {
			err = i.push(IntValue(n))
		}

	case bytecode.OpPrint:
		var v Value
		if v, err = i.pop(); err == nil {
			_, err = fmt.Fprintf(i.out, "print: %d\n", v.Int())
		}

	default:
		err = ErrUnknownOpcode
	}

	if err != nil {
		return true, i.fail(err)
	}

	i.pc = next
	return false, nil
}

// binary applies an arithmetic or comparison operator to untagged operands
func binary(op bytecode.Op, left, right int64) Value {
	switch op {
	case bytecode.OpAdd:
		return IntValue(left + right)
	case bytecode.OpSub:
		return IntValue(left - right)
	case bytecode.OpEq:
		return boolValue(left == right)
	default:
		return boolValue(left < right)
	}
}

// readInt prompts and then reads a maximal run of digits. The byte that ends
// the run is consumed.
func (i *Interpreter) readInt() (int64, error) {
	if _, err := io.WriteString(i.out, readIntPrompt); err != nil {
		return 0, err
	}

	var n uint64
	for {
		c, err := i.in.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading input: %w", err)
		}

		if c < '0' || c > '9' {
			break
		}

		n = 10*n + uint64(c-'0')
	}

	return int64(n), nil
}
