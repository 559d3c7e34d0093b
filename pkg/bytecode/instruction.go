package bytecode

import "fmt"

type Op uint8

// List of bytecode operations
const (
	OpExit     Op = iota // halt normally
	OpError              // run-time error (failed assertion)
	OpPush               // push Imm
	OpGetLocal           // push locals[Imm]
	OpSetLocal           // pop into locals[Imm]
	OpEq                 // pop b, a; push a == b
	OpLt                 // pop b, a; push a < b
	OpIf                 // pop test; jump by Imm if nonzero
	OpIfNot              // pop test; jump by Imm if zero
	OpAdd                // pop b, a; push a + b
	OpSub                // pop b, a; push a - b
	OpReadInt            // push an integer read from input
	OpPrint              // pop and print
)

var opNames = map[Op]string{
	OpExit:     "EXIT",
	OpError:    "ERROR",
	OpPush:     "PUSH",
	OpGetLocal: "GETLOCAL",
	OpSetLocal: "SETLOCAL",
	OpEq:       "EQ",
	OpLt:       "LT",
	OpIf:       "IF",
	OpIfNot:    "IFNOT",
	OpAdd:      "ADD",
	OpSub:      "SUB",
	OpReadInt:  "READINT",
	OpPrint:    "PRINT",
}

// String returns the mnemonic of the operation
func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}

	return fmt.Sprintf("UNKNOWN(%d)", uint8(op))
}

// HasImmediate reports whether the operation reads its immediate
func (op Op) HasImmediate() bool {
	switch op {
	case OpPush, OpGetLocal, OpSetLocal, OpIf, OpIfNot:
		return true
	default:
		return false
	}
}

// IsJump reports whether the immediate is a relative jump offset
func (op Op) IsJump() bool {
	return op == OpIf || op == OpIfNot
}

type Instruction struct {
	Op  Op    `cbor:"1,keyasint"`
	Imm int64 `cbor:"2,keyasint,omitempty"` // literal, slot or relative offset depending on Op
}

// String returns a string representation of the instruction
func (i Instruction) String() string {
	if !i.Op.HasImmediate() {
		return i.Op.String()
	}

	if i.Op.IsJump() {
		return fmt.Sprintf("%s %+d", i.Op, i.Imm)
	}

	return fmt.Sprintf("%s %d", i.Op, i.Imm)
}
