package compiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"weebasic/internal/config"
	"weebasic/pkg/bytecode"
	"weebasic/pkg/color"
	"weebasic/pkg/interpreter"
	"weebasic/pkg/parser"

	"github.com/charmbracelet/log"
)

// ImageExt marks a compiled bytecode image
const ImageExt = ".wbc"

type Compiler struct {
	Help          bool   // Show help message
	Verbose       bool   // Enable debug logging and the bytecode listing
	NoColor       bool   // Disable colored output
	Interactive   bool   // Start the REPL
	ShouldCompile bool   // Write an image instead of running
	ConfigFile    string // Path to a TOML limits file
	SourceFile    string // Path to the source file or image
	OutputFile    string // Path to the output image

	In  io.Reader // input for read_int, stdin when nil
	Out io.Writer // program output, stdout when nil
	Err io.Writer // listing output, stderr when nil
}

// Config loads the configuration named by ConfigFile, or the defaults
func (opts *Compiler) Config() (config.Config, error) {
	if opts.ConfigFile == "" {
		return config.Default(), nil
	}

	log.Debug("Loading configuration", "file", opts.ConfigFile)
	return config.Load(opts.ConfigFile)
}

// Compile compiles the source file, then either writes an image or runs it.
// Images are run directly.
func (opts *Compiler) Compile() error {
	cfg, err := opts.Config()
	if err != nil {
		return err
	}

	prog, err := opts.load(cfg.Limits)
	if err != nil {
		return err
	}

	if opts.Verbose {
		opts.printListing(prog)
	}

	if opts.ShouldCompile {
		return opts.writeImage(prog)
	}

	log.Debug("Running program", "instructions", prog.Len(), "max_steps", cfg.Run.MaxSteps)

	intr := interpreter.NewInterpreter(prog,
		interpreter.WithReader(opts.input()),
		interpreter.WithWriter(opts.output()),
		interpreter.WithLimits(cfg.Limits),
		interpreter.WithMaxSteps(cfg.Run.MaxSteps),
	)

	if err := intr.Run(); err != nil {
		return fmt.Errorf("%s: %w", opts.SourceFile, err)
	}

	return nil
}

// load compiles a source file or decodes an image
func (opts *Compiler) load(limits config.Limits) (*bytecode.Program, error) {
	log.Info("Processing file", "file", opts.SourceFile)

	if filepath.Ext(opts.SourceFile) == ImageExt {
		data, err := os.ReadFile(opts.SourceFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open image %q: %w", opts.SourceFile, err)
		}

		prog, err := bytecode.UnmarshalImage(data, limits.MaxInstructions)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opts.SourceFile, err)
		}

		log.Debug("Loaded image", "file", opts.SourceFile, "instructions", prog.Len())
		return prog, nil
	}

	return parser.ParseFile(opts.SourceFile, limits)
}

func (opts *Compiler) writeImage(prog *bytecode.Program) error {
	data, err := bytecode.MarshalImage(prog)
	if err != nil {
		return fmt.Errorf("image encoding failed: %w", err)
	}

	if err := os.WriteFile(opts.OutputFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	log.Info("Wrote image", "file", opts.OutputFile, "instructions", prog.Len(), "bytes", len(data))
	return nil
}

func (opts *Compiler) printListing(prog *bytecode.Program) {
	w := opts.errOutput()

	fmt.Fprintln(w, color.GreenText("=== Generated Bytecode ==="))
	if prog.Len() == 0 {
		fmt.Fprintln(w, color.GrayText("No code generated."))
		return
	}

	for i := 0; i < prog.Len(); i++ {
		in := prog.At(i)

		line := color.CyanText(fmt.Sprintf("%04d", i)) + " " + color.YellowText(in.Op.String())
		if in.Op.HasImmediate() {
			if in.Op.IsJump() {
				line += " " + color.BlueText(fmt.Sprintf("%+d", in.Imm)) +
					color.GrayText(fmt.Sprintf(" -> %04d", prog.JumpTarget(i)))
			} else {
				line += " " + color.BlueText(fmt.Sprintf("%d", in.Imm))
			}
		}

		fmt.Fprintln(w, line)
	}
}

// Diagnose renders err for the user, quoting the offending source line for
// syntax errors
func (opts *Compiler) Diagnose(err error) string {
	var syntaxErr *parser.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return color.BrightRedText(err.Error())
	}

	return color.ErrorWithPosition(opts.SourceFile, syntaxErr.Pos.Line, syntaxErr.Pos.Column,
		syntaxErr.Err.Error(), sourceLine(opts.SourceFile, syntaxErr.Pos.Line))
}

// sourceLine returns line n (1-based) of the file, or "" if unavailable
func sourceLine(path string, n int) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	lines := strings.Split(string(data), "\n")
	if n < 1 || n > len(lines) {
		return ""
	}

	return strings.TrimRight(lines[n-1], "\r")
}

func (opts *Compiler) input() io.Reader {
	if opts.In == nil {
		return os.Stdin
	}
	return opts.In
}

func (opts *Compiler) output() io.Writer {
	if opts.Out == nil {
		return os.Stdout
	}
	return opts.Out
}

func (opts *Compiler) errOutput() io.Writer {
	if opts.Err == nil {
		return os.Stderr
	}
	return opts.Err
}
