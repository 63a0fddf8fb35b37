// Command ember is the CLI entry point for the Ember language: it runs
// scripts, disassembles compiled chunks, and hosts an interactive REPL.
package main

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/kristofer/ember/pkg/compiler"
	"github.com/kristofer/ember/pkg/debug"
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/vm"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow)
)

func main() {
	app := cli.NewApp()
	app.Name = "ember"
	app.Usage = "an interpreter for the Ember scripting language"
	app.Version = "0.1.0"

	traceFlag := cli.BoolFlag{Name: "trace", Usage: "log each executed instruction"}
	stressFlag := cli.BoolFlag{Name: "stress-gc", Usage: "collect garbage on every allocation"}

	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "run an Ember source file",
			ArgsUsage: "<file>",
			Flags:     []cli.Flag{traceFlag, stressFlag},
			Action:    runCommand,
		},
		{
			Name:      "disassemble",
			Usage:     "print the disassembled bytecode for a source file",
			ArgsUsage: "<file>",
			Action:    disassembleCommand,
		},
		{
			Name:   "repl",
			Usage:  "start an interactive Ember session",
			Flags:  []cli.Flag{traceFlag},
			Action: replCommand,
		},
	}
	app.Action = func(c *cli.Context) error {
		if c.NArg() > 0 {
			return runCommand(c)
		}
		return replCommand(c)
	}

	if err := app.Run(os.Args); err != nil {
		errColor.Fprintln(colorable.NewColorableStderr(), err)
		os.Exit(1)
	}
}

func runCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.NewExitError("expected a file argument", 1)
	}
	source, err := ioutil.ReadFile(path)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	out := colorable.NewColorableStdout()
	errOut := colorable.NewColorableStderr()

	opts := []vm.Option{vm.WithOutput(out)}
	if c.Bool("stress-gc") {
		opts = append(opts, vm.WithStressGC())
	}
	machine := vm.New(opts...)
	machine.Trace = c.Bool("trace")

	var compileErrs bytes.Buffer
	if err := machine.Interpret(string(source), &compileErrs); err != nil {
		if compileErrs.Len() > 0 {
			errColor.Fprint(errOut, compileErrs.String())
			return cli.NewExitError("", 65)
		}
		if rt, ok := err.(*vm.RuntimeError); ok {
			warnColor.Fprintln(errOut, rt.Error())
			return cli.NewExitError("", 70)
		}
		errColor.Fprintln(errOut, err.Error())
		return cli.NewExitError("", 70)
	}
	return nil
}

func disassembleCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.NewExitError("expected a file argument", 1)
	}
	source, err := ioutil.ReadFile(path)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	heap := object.NewHeap()
	var compileErrs bytes.Buffer
	fn, ok := compiler.Compile(string(source), heap, &compileErrs)
	if !ok {
		errColor.Fprint(colorable.NewColorableStderr(), compileErrs.String())
		return cli.NewExitError("", 65)
	}
	out := colorable.NewColorableStdout()
	debug.DisassembleChunk(out, fn.Chunk, "script")
	return nil
}

func replCommand(c *cli.Context) error {
	out := colorable.NewColorableStdout()
	errOut := colorable.NewColorableStderr()

	machine := vm.New(vm.WithOutput(out))
	machine.Trace = c.Bool("trace")

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Fprintln(out, "ember REPL — Ctrl-D to exit")
	for {
		input, err := line.Prompt("> ")
		if err != nil {
			break
		}
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		var compileErrs bytes.Buffer
		if err := machine.Interpret(input, &compileErrs); err != nil {
			if compileErrs.Len() > 0 {
				errColor.Fprint(errOut, compileErrs.String())
			} else if rt, ok := err.(*vm.RuntimeError); ok {
				warnColor.Fprintln(errOut, rt.Error())
			} else {
				errColor.Fprintln(errOut, err.Error())
			}
		}
	}
	return nil
}
