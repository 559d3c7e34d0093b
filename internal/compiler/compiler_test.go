package compiler_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"weebasic/internal/compiler"
	"weebasic/pkg/bytecode"
	"weebasic/pkg/interpreter"
	"weebasic/pkg/parser"
)

type scenario struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Stdin  string `yaml:"stdin"`
	Stdout string `yaml:"stdout"`
	Error  string `yaml:"error"`
}

func loadScenarios(t *testing.T) []scenario {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", "scenarios.yaml"))
	if err != nil {
		t.Fatalf("read scenarios: %v", err)
	}

	var scenarios []scenario
	if err := yaml.Unmarshal(data, &scenarios); err != nil {
		t.Fatalf("decode scenarios: %v", err)
	}

	return scenarios
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}

	return path
}

func TestScenarios(t *testing.T) {
	for _, sc := range loadScenarios(t) {
		t.Run(sc.Name, func(t *testing.T) {
			var out bytes.Buffer
			opts := compiler.Compiler{
				SourceFile: writeFile(t, "main.wb", sc.Source),
				In:         strings.NewReader(sc.Stdin),
				Out:        &out,
			}

			err := opts.Compile()
			switch {
			case sc.Error == "" && err != nil:
				t.Fatalf("unexpected error: %v", err)
			case sc.Error != "" && err == nil:
				t.Fatalf("expected error containing %q", sc.Error)
			case sc.Error != "" && !strings.Contains(err.Error(), sc.Error):
				t.Fatalf("error %q does not contain %q", err.Error(), sc.Error)
			}

			if out.String() != sc.Stdout {
				t.Errorf("stdout %q, expected %q", out.String(), sc.Stdout)
			}
		})
	}
}

func TestCompileImageAndRun(t *testing.T) {
	src := writeFile(t, "main.wb", "let x = 20\nprint x + 22\n")
	image := filepath.Join(t.TempDir(), "main"+compiler.ImageExt)

	var out bytes.Buffer
	build := compiler.Compiler{SourceFile: src, ShouldCompile: true, OutputFile: image, Out: &out}
	if err := build.Compile(); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("compiling must not run the program, got %q", out.String())
	}

	run := compiler.Compiler{SourceFile: image, Out: &out}
	if err := run.Compile(); err != nil {
		t.Fatalf("run image: %v", err)
	}
	if out.String() != "print: 42\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestBadImage(t *testing.T) {
	image := writeFile(t, "junk"+compiler.ImageExt, "print 1")

	opts := compiler.Compiler{SourceFile: image, Out: &bytes.Buffer{}}
	if err := opts.Compile(); !errors.Is(err, bytecode.ErrBadImage) {
		t.Errorf("expected ErrBadImage, got %v", err)
	}
}

func TestVerboseListing(t *testing.T) {
	var out, listing bytes.Buffer
	opts := compiler.Compiler{
		SourceFile: writeFile(t, "main.wb", "if 1 then print 2"),
		Verbose:    true,
		Out:        &out,
		Err:        &listing,
	}

	if err := opts.Compile(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Generated Bytecode", "IFNOT", "+2", "-> 0004", "EXIT"} {
		if !strings.Contains(listing.String(), want) {
			t.Errorf("listing missing %q:\n%s", want, listing.String())
		}
	}
	if out.String() != "print: 2\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestConfigLimits(t *testing.T) {
	cfg := writeFile(t, "weebasic.toml", "[limits]\nmax_locals = 1\n")

	opts := compiler.Compiler{
		SourceFile: writeFile(t, "main.wb", "let a = 1 let b = 2"),
		ConfigFile: cfg,
		Out:        &bytes.Buffer{},
	}
	if err := opts.Compile(); !errors.Is(err, parser.ErrTooManyLocals) {
		t.Errorf("expected ErrTooManyLocals, got %v", err)
	}

	cfg = writeFile(t, "steps.toml", "[run]\nmax_steps = 2\n")
	opts = compiler.Compiler{
		SourceFile: writeFile(t, "main.wb", "print 1 print 2"),
		ConfigFile: cfg,
		Out:        &bytes.Buffer{},
	}
	if err := opts.Compile(); !errors.Is(err, interpreter.ErrMaxStepsExceeded) {
		t.Errorf("expected ErrMaxStepsExceeded, got %v", err)
	}
}

func TestDiagnose(t *testing.T) {
	opts := compiler.Compiler{
		SourceFile: writeFile(t, "main.wb", "print 1\nprint nope\n"),
		Out:        &bytes.Buffer{},
	}

	err := opts.Compile()
	if err == nil {
		t.Fatalf("expected an error")
	}

	msg := opts.Diagnose(err)
	for _, want := range []string{"main.wb", "2:7", `reference to undeclared variable "nope"`, "print nope"} {
		if !strings.Contains(msg, want) {
			t.Errorf("diagnostic missing %q: %s", want, msg)
		}
	}
}

func TestMissingSource(t *testing.T) {
	opts := compiler.Compiler{SourceFile: filepath.Join(t.TempDir(), "missing.wb")}
	if err := opts.Compile(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
