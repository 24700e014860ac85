// nstool runs nested sampling Monte Carlo over a configurable energy
// potential, either locally with a fixed-size worker pool or dispatched
// to a remote cluster of nsworker daemons.
//
// Subcommands:
//   - run        execute a nested sampling run (local or remote dispatch)
//   - worker     run a remote walk-execution daemon
//   - dispatcher run the remote batch-sharding service
//   - inspect    interactive REPL for starting and watching runs
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nsforge/nstool/pkg/errs"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "run":
		err = runRun(args)
	case "worker":
		err = runWorker(args)
	case "dispatcher":
		err = runDispatcher(args)
	case "inspect":
		err = runInspect(args)
	case "version", "-version", "--version":
		fmt.Printf("nstool %s\n", version)
		return
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Printf("unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		printError(cmd, err)
		if ee, ok := err.(*exitError); ok {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

// printError reports err to the user, appending any remediation
// suggestions registered for its NSError code, if it is one.
func printError(cmd string, err error) {
	fmt.Printf("nstool %s: %v\n", cmd, err)

	var nsErr *errs.NSError
	if errors.As(err, &nsErr) {
		for _, s := range nsErr.Suggestions() {
			fmt.Printf("  suggestion: %s\n", s)
		}
	}
}

// exitError carries the process exit code a subcommand wants main to use,
// per spec §6's documented codes (0 ok, 1 argument error, 2 walker fatal,
// 3 dispatcher fatal, 4 timeout).
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usage() {
	fmt.Println("nstool - nested sampling Monte Carlo")
	fmt.Println()
	fmt.Println("Usage: nstool <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run         execute a nested sampling run")
	fmt.Println("  worker      run a remote walk-execution daemon")
	fmt.Println("  dispatcher  run the remote batch-sharding service")
	fmt.Println("  inspect     interactive REPL for starting and watching runs")
	fmt.Println("  version     print the version and exit")
}
