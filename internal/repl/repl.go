// Package repl runs weebasic statements interactively. Every line is compiled
// onto the same program and symbol chain, so declarations persist for the
// rest of the session.
package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"weebasic/internal/config"
	"weebasic/pkg/color"
	"weebasic/pkg/interpreter"
	"weebasic/pkg/parser"

	"github.com/charmbracelet/log"
	"github.com/peterh/liner"
)

const (
	prompt      = "weebasic> "
	historyFile = ".weebasic_history"
)

const helpText = `Commands:
  :help         show this help
  :quit         leave the session
  :reset        forget every declaration and value
  :dis          show the bytecode compiled so far
  :locals       list declared locals and their values
  :load <file>  compile and run a source file in this session
`

// Session holds the compiler and interpreter state shared by every line
type Session struct {
	cfg    config.Config
	in     io.Reader
	out    io.Writer
	parser *parser.Parser
	intr   *interpreter.Interpreter
}

// NewSession creates an empty session reading read_int input from in and
// writing program output to out
func NewSession(cfg config.Config, in io.Reader, out io.Writer) *Session {
	s := &Session{cfg: cfg, in: in, out: out}
	s.Reset()
	return s
}

// Reset discards all compiled code and runtime state
func (s *Session) Reset() {
	s.parser = parser.NewParser(s.cfg.Limits)
	s.intr = interpreter.NewInterpreter(s.parser.Program(),
		interpreter.WithReader(s.in),
		interpreter.WithWriter(s.out),
		interpreter.WithLimits(s.cfg.Limits),
	)
}

// Eval compiles src after everything entered so far and runs the new code.
// A line that fails to compile leaves no trace; a line that fails at run
// time keeps its declarations but the rest of it is skipped.
func (s *Session) Eval(src string) error {
	cp := s.parser.Checkpoint()
	if err := s.parser.ParseChunk(src); err != nil {
		s.parser.Rollback(cp)
		return err
	}

	prog := s.parser.Program()
	s.intr.Load(prog)

	if err := s.intr.Run(); err != nil {
		s.intr.SetPC(prog.Len())
		s.intr.DropStack()
		return err
	}

	return nil
}

// Listing returns the bytecode compiled so far
func (s *Session) Listing() string {
	return s.parser.Program().String()
}

// Locals describes every declared local, most recent first
func (s *Session) Locals() []string {
	names := s.parser.Locals()
	desc := make([]string, 0, len(names))

	for i, name := range names {
		slot := len(names) - 1 - i
		if v, ok := s.intr.Local(slot); ok {
			desc = append(desc, fmt.Sprintf("%s = %d", name, v.Int()))
		} else {
			desc = append(desc, fmt.Sprintf("%s (unset)", name))
		}
	}

	return desc
}

// Command runs a ':' command and reports whether the session should end
func (s *Session) Command(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case ":help":
		fmt.Fprint(s.out, helpText)

	case ":quit", ":exit":
		return true, nil

	case ":reset":
		s.Reset()
		fmt.Fprintln(s.out, "session reset.")

	case ":dis":
		fmt.Fprint(s.out, s.Listing())

	case ":locals":
		for _, l := range s.Locals() {
			fmt.Fprintln(s.out, l)
		}

	case ":load":
		if len(fields) < 2 {
			return false, errors.New("usage: :load <file>")
		}
		src, err := os.ReadFile(fields[1])
		if err != nil {
			return false, fmt.Errorf("cannot read %s: %w", fields[1], err)
		}
		return false, s.Eval(string(src))

	default:
		return false, fmt.Errorf("unknown command %s (try :help)", fields[0])
	}

	return false, nil
}

// Run starts an interactive session on the terminal
func Run(cfg config.Config) error {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	s := NewSession(cfg, os.Stdin, os.Stdout)
	fmt.Println(color.BoldText("weebasic") + color.GrayText(" interactive session, :help for commands"))

	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return err
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)

		if strings.HasPrefix(strings.TrimSpace(line), ":") {
			done, err := s.Command(line)
			if err != nil {
				fmt.Fprintln(os.Stderr, color.BrightRedText(err.Error()))
			}
			if done {
				return nil
			}
			continue
		}

		if err := s.Eval(line); err != nil {
			log.Debug("Line failed", "line", line, "error", err)
			fmt.Fprintln(os.Stderr, color.BrightRedText(err.Error()))
		}
	}
}
