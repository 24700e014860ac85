package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/nsforge/nstool/pkg/config"
	"github.com/nsforge/nstool/pkg/engine"
	"github.com/nsforge/nstool/pkg/nsmodel"
	"github.com/nsforge/nstool/pkg/potential"
	"github.com/nsforge/nstool/pkg/trace"
	"github.com/nsforge/nstool/pkg/walker"
)

// inspector holds the REPL's mutable run configuration, adjusted one
// field at a time via /set before /run starts a synchronous run.
type inspector struct {
	cfg       *config.Config
	potential string
	radius    float64
	box       float64
	label     string
	lastRun   *engine.Result
}

var errInspectQuit = fmt.Errorf("quit")

func runInspect(args []string) error {
	homeDir, _ := os.UserHomeDir()
	historyFile := filepath.Join(homeDir, ".nstool_history")

	completer := readline.NewPrefixCompleter(
		readline.PcItem("run"),
		readline.PcItem("set"),
		readline.PcItem("show"),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[32mnstool>\033[0m ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		AutoComplete:    completer,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	cfg, err := config.LoadOrDefault("")
	if err != nil {
		return err
	}

	insp := &inspector{cfg: cfg, potential: "harmonic", radius: 10, label: "ns-run"}

	fmt.Println("nstool interactive REPL. Type a command or /help for a list.")
	fmt.Println()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := insp.handle(line); err != nil {
			if err == errInspectQuit {
				return nil
			}
			fmt.Printf("error: %v\n", err)
		}
	}
}

func (insp *inspector) handle(line string) error {
	parts := strings.Fields(line)
	cmd := strings.TrimPrefix(parts[0], "/")
	rest := parts[1:]

	switch cmd {
	case "quit", "exit", "q":
		return errInspectQuit
	case "help", "h":
		insp.printHelp()
	case "set":
		return insp.handleSet(rest)
	case "show":
		insp.printConfig()
	case "status":
		insp.printStatus()
	case "run":
		return insp.handleRun()
	default:
		fmt.Printf("unknown command: %s (try /help)\n", cmd)
	}
	return nil
}

func (insp *inspector) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  run                    start a synchronous local run with the current settings")
	fmt.Println("  set <key> <value>      set nreplicas, ndof, nproc, k, mciter, stepsize,")
	fmt.Println("                         etol, max_iter, batch_timeout, seed, potential,")
	fmt.Println("                         radius, box, label")
	fmt.Println("  show                   print the current run settings")
	fmt.Println("  status                 print the last run's result")
	fmt.Println("  quit                   exit")
}

func (insp *inspector) printConfig() {
	r := insp.cfg.Run
	fmt.Printf("nreplicas=%d ndof=%d nproc=%d k=%d mciter=%d\n", r.Nreplicas, r.Ndof, r.Nproc, r.K, r.Mciter)
	fmt.Printf("stepsize=%g stepsize_min=%g max_stepsize=%g etol=%g max_iter=%d batch_timeout=%s seed=%d\n",
		r.Stepsize, r.StepsizeMin, r.MaxStepsize, r.Etol, r.MaxIter, r.BatchTimeout, r.Seed)
	fmt.Printf("potential=%s radius=%g box=%g label=%s\n", insp.potential, insp.radius, insp.box, insp.label)
}

func (insp *inspector) printStatus() {
	if insp.lastRun == nil {
		fmt.Println("no run has completed yet")
		return
	}
	r := insp.lastRun
	fmt.Printf("status=%s iterations=%d live=%d discarded=%d\n", r.Status, r.Iterations, len(r.FinalLive), len(r.DiscardedEnergy))
	if r.Err != nil {
		fmt.Printf("error: %v\n", r.Err)
	}
}

func (insp *inspector) handleSet(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: set <key> <value>")
	}
	key, value := args[0], args[1]

	switch key {
	case "nreplicas":
		return insp.setInt(&insp.cfg.Run.Nreplicas, value)
	case "ndof":
		return insp.setInt(&insp.cfg.Run.Ndof, value)
	case "nproc":
		return insp.setInt(&insp.cfg.Run.Nproc, value)
	case "k":
		return insp.setInt(&insp.cfg.Run.K, value)
	case "mciter":
		return insp.setInt(&insp.cfg.Run.Mciter, value)
	case "stepsize":
		return insp.setFloat(&insp.cfg.Run.Stepsize, value)
	case "stepsize_min":
		return insp.setFloat(&insp.cfg.Run.StepsizeMin, value)
	case "max_stepsize":
		return insp.setFloat(&insp.cfg.Run.MaxStepsize, value)
	case "etol":
		return insp.setFloat(&insp.cfg.Run.Etol, value)
	case "max_iter":
		return insp.setInt(&insp.cfg.Run.MaxIter, value)
	case "batch_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		insp.cfg.Run.BatchTimeout = d
	case "seed":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		insp.cfg.Run.Seed = v
	case "potential":
		insp.potential = value
	case "radius":
		return insp.setFloat(&insp.radius, value)
	case "box":
		return insp.setFloat(&insp.box, value)
	case "label":
		insp.label = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

func (insp *inspector) setInt(dst *int, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func (insp *inspector) setFloat(dst *float64, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func (insp *inspector) handleRun() error {
	pot, err := buildPotential(insp.potential, insp.cfg.Run.Ndof, insp.radius)
	if err != nil {
		return err
	}

	var tests []potential.AcceptTest
	if insp.box > 0 {
		tests = append(tests, potential.BoxConstraint{Bound: insp.box})
	}

	newWalker := func() *walker.Walker {
		return walker.New(pot, potential.UniformStep{}, tests, nil, insp.cfg.Run.Mciter)
	}

	dispatcher, err := buildDispatcher(insp.cfg, false, newWalker)
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	replicas := make([]nsmodel.Replica, insp.cfg.Run.Nreplicas)
	seedRng := potential.NewRand(insp.cfg.Run.Seed)
	for i := range replicas {
		x := pot.RandomConfiguration(seedRng)
		e, err := pot.Energy(x)
		if err != nil {
			return err
		}
		replicas[i] = nsmodel.NewReplica(x, e)
	}

	eng, err := engine.New(engine.Options{
		Replicas:     replicas,
		Walker:       newWalker(),
		Dispatcher:   dispatcher,
		Nproc:        insp.cfg.Run.Nproc,
		Stepsize:     insp.cfg.Run.Stepsize,
		StepsizeMin:  insp.cfg.Run.StepsizeMin,
		MaxStepsize:  insp.cfg.Run.MaxStepsize,
		Mciter:       insp.cfg.Run.Mciter,
		K:            insp.cfg.Run.K,
		Etol:         insp.cfg.Run.Etol,
		MaxIter:      insp.cfg.Run.MaxIter,
		TargetRatio:  insp.cfg.Run.TargetRatio,
		Seed:         insp.cfg.Run.Seed,
		BatchTimeout: insp.cfg.Run.BatchTimeout,
	})
	if err != nil {
		return err
	}

	fmt.Println("running...")
	result := eng.Run(context.Background())
	insp.lastRun = &result

	if err := trace.WriteReplicasFinal(insp.label+".replicas_final", result.FinalLive); err != nil {
		fmt.Printf("warning: failed to write final live set: %v\n", err)
	}

	insp.printStatus()
	return nil
}
