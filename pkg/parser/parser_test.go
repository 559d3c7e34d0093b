package parser_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"weebasic/internal/config"
	"weebasic/pkg/bytecode"
	"weebasic/pkg/parser"
	"weebasic/pkg/scanner"
)

func listing(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestCodegen(t *testing.T) {
	tests := []struct {
		input       string
		expected    string
		description string
	}{
		{
			"print 1+2",
			listing(
				"0000 PUSH 1",
				"0001 PUSH 2",
				"0002 ADD",
				"0003 PRINT",
				"0004 EXIT",
			),
			"addition",
		},
		{
			"let x = 5\nassert x==5\nprint x",
			listing(
				"0000 PUSH 5",
				"0001 SETLOCAL 0",
				"0002 GETLOCAL 0",
				"0003 PUSH 5",
				"0004 EQ",
				"0005 IF +1 -> 0007",
				"0006 ERROR",
				"0007 GETLOCAL 0",
				"0008 PRINT",
				"0009 EXIT",
			),
			"declaration, assertion and print",
		},
		{
			"if 1<2 then print 9",
			listing(
				"0000 PUSH 1",
				"0001 PUSH 2",
				"0002 LT",
				"0003 IFNOT +2 -> 0006",
				"0004 PUSH 9",
				"0005 PRINT",
				"0006 EXIT",
			),
			"conditional",
		},
		{
			"if 0 then begin print 1 print 2 end print 3",
			listing(
				"0000 PUSH 0",
				"0001 IFNOT +4 -> 0006",
				"0002 PUSH 1",
				"0003 PRINT",
				"0004 PUSH 2",
				"0005 PRINT",
				"0006 PUSH 3",
				"0007 PRINT",
				"0008 EXIT",
			),
			"conditional block",
		},
		{
			"let a = read_int\nprint a - 1",
			listing(
				"0000 READINT",
				"0001 SETLOCAL 0",
				"0002 GETLOCAL 0",
				"0003 PUSH 1",
				"0004 SUB",
				"0005 PRINT",
				"0006 EXIT",
			),
			"read_int atom",
		},
		{
			"# header\nprint 1 # trailing\n#\nprint 2\n# end",
			listing(
				"0000 PUSH 1",
				"0001 PRINT",
				"0002 PUSH 2",
				"0003 PRINT",
				"0004 EXIT",
			),
			"comments",
		},
		{
			"",
			listing("0000 EXIT"),
			"empty program",
		},
		{
			"begin end",
			listing("0000 EXIT"),
			"empty block",
		},
	}

	for _, test := range tests {
		prog, err := parser.NewParser(config.DefaultLimits()).Parse(test.input)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.description, err)
			continue
		}

		if got := prog.String(); got != test.expected {
			t.Errorf("%s: unexpected code\n%s\nexpected:\n%s", test.description, got, test.expected)
		}
	}
}

func TestBlocksDoNotScope(t *testing.T) {
	input := `
let a = 1
begin
    let b = 2
    begin
        let c = 3
    end
end
print a + b
print c
`

	p := parser.NewParser(config.DefaultLimits())
	prog, err := p.Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if prog.NumLocals() != 3 {
		t.Errorf("expected 3 locals, got %d", prog.NumLocals())
	}

	if got := strings.Join(p.Locals(), ","); got != "c,b,a" {
		t.Errorf("unexpected chain %s", got)
	}

	// print c reads slot 2
	last := prog.At(prog.Len() - 3)
	if last.Op != bytecode.OpGetLocal || last.Imm != 2 {
		t.Errorf("expected GETLOCAL 2, got %s", last)
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		input       string
		err         error
		message     string
		description string
	}{
		{"print y", parser.ErrUndeclared, `1:7: reference to undeclared variable "y"`, "undeclared variable"},
		{"let x = 1\nlet x = 2", parser.ErrAlreadyDeclared, `2:5: local variable "x" already declared`, "duplicate declaration"},
		{"begin let x = 1 end let x = 2", parser.ErrAlreadyDeclared, "", "duplicate across blocks"},
		{"let x = x", parser.ErrUndeclared, "", "self reference"},
		{"print +", parser.ErrInvalidExpression, "1:7: invalid expression", "missing operand"},
		{"print 1 +", parser.ErrInvalidExpression, "", "missing right operand"},
		{"while 1 do print 2", parser.ErrInvalidStatement, `1:1: invalid statement: "while 1 do [...]"`, "unknown statement"},
		{"print 1\nfoo\nbar baz", parser.ErrInvalidStatement, `2:1: invalid statement: "foo bar ba [...]"`, "newlines in preview"},
		{"print 1+2+3", parser.ErrInvalidStatement, `1:10: invalid statement: "+3 [...]"`, "chained operator"},
		{"let = 1", scanner.ErrExpectedIdent, "", "missing identifier"},
		{"let " + strings.Repeat("v", 40) + " = 1", scanner.ErrIdentTooLong, "", "identifier too long"},
	}

	for _, test := range tests {
		_, err := parser.NewParser(config.DefaultLimits()).Parse(test.input)
		if !errors.Is(err, test.err) {
			t.Errorf("%s: expected %v, got %v", test.description, test.err, err)
			continue
		}

		var syntaxErr *parser.SyntaxError
		if !errors.As(err, &syntaxErr) {
			t.Errorf("%s: expected *SyntaxError, got %T", test.description, err)
		}

		if test.message != "" && err.Error() != test.message {
			t.Errorf("%s: message %q, expected %q", test.description, err.Error(), test.message)
		}
	}
}

func TestMissingTokens(t *testing.T) {
	tests := []struct {
		input       string
		token       string
		description string
	}{
		{"if 1 print 2", "then", "if without then"},
		{"let x 1", "=", "let without ="},
		{"begin print 1", "end", "unterminated block"},
	}

	for _, test := range tests {
		_, err := parser.NewParser(config.DefaultLimits()).Parse(test.input)

		var expectErr *scanner.ExpectError
		if !errors.As(err, &expectErr) {
			t.Errorf("%s: expected missing token error, got %v", test.description, err)
			continue
		}
		if expectErr.Token != test.token {
			t.Errorf("%s: expected missing %q, got %q", test.description, test.token, expectErr.Token)
		}
	}
}

func TestCapacityErrors(t *testing.T) {
	limits := config.DefaultLimits()
	limits.MaxLocals = 2

	_, err := parser.NewParser(limits).Parse("let a = 1 let b = 2 let c = 3")
	if !errors.Is(err, parser.ErrTooManyLocals) {
		t.Errorf("expected ErrTooManyLocals, got %v", err)
	}

	limits = config.DefaultLimits()
	limits.MaxInstructions = 4

	_, err = parser.NewParser(limits).Parse("print 1+2")
	if !errors.Is(err, bytecode.ErrProgramTooLarge) {
		t.Errorf("expected ErrProgramTooLarge for missing EXIT slot, got %v", err)
	}

	limits.MaxInstructions = 5
	if _, err := parser.NewParser(limits).Parse("print 1+2"); err != nil {
		t.Errorf("program at exact capacity rejected: %v", err)
	}
}

func TestChunksAndRollback(t *testing.T) {
	p := parser.NewParser(config.DefaultLimits())

	if err := p.ParseChunk("let x = 1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cp := p.Checkpoint()
	if err := p.ParseChunk("let y = 2 print z"); !errors.Is(err, parser.ErrUndeclared) {
		t.Fatalf("expected ErrUndeclared, got %v", err)
	}
	p.Rollback(cp)

	if p.Program().Len() != 2 || p.Program().NumLocals() != 1 {
		t.Errorf("rollback left %d instructions and %d locals", p.Program().Len(), p.Program().NumLocals())
	}

	if err := p.ParseChunk("let y = x print y"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := p.Program().At(p.Program().Len() - 2); got.Op != bytecode.OpGetLocal || got.Imm != 1 {
		t.Errorf("y should reuse slot 1 after rollback, got %s", got)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.wb")
	if err := os.WriteFile(path, []byte("print 42\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	prog, err := parser.ParseFile(path, config.DefaultLimits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prog.Len() != 3 {
		t.Errorf("expected 3 instructions, got %d", prog.Len())
	}

	if _, err := parser.ParseFile(filepath.Join(t.TempDir(), "missing.wb"), config.DefaultLimits()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
