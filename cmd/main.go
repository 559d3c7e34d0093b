package main

import (
	"flag"
	"fmt"
	"os"

	"weebasic/internal/compiler"
	"weebasic/internal/logger"
	"weebasic/internal/repl"

	"github.com/charmbracelet/log"
)

// Main entry point for the weebasic compiler and interpreter.
func main() {
	options := compiler.Compiler{}

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode, prints the bytecode listing")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.BoolVar(&options.Interactive, "i", false, "Start an interactive session")
	flag.BoolVar(&options.ShouldCompile, "c", false, "Compile to a bytecode image instead of running")
	flag.StringVar(&options.ConfigFile, "config", "", "TOML file overriding the compiler limits")
	flag.StringVar(&options.OutputFile, "o", "a"+compiler.ImageExt, "Output image name")

	flag.Parse()
	args := flag.Args()

	logger.Init(options.Verbose, options.NoColor)

	if options.Help {
		fmt.Printf("Usage: %s [options] <file>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if options.Interactive {
		cfg, err := options.Config()
		if err != nil {
			log.Fatal(options.Diagnose(err))
		}
		if err := repl.Run(cfg); err != nil {
			log.Fatal("Interactive session failed", "error", err)
		}
		return
	}

	// anything but a single file is a no-op
	if len(args) != 1 {
		log.Debug("Nothing to do", "args", len(args))
		return
	}

	options.SourceFile = args[0]

	if err := options.Compile(); err != nil {
		log.Fatal(options.Diagnose(err))
	}
}
