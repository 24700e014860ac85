package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nsforge/nstool/pkg/config"
	"github.com/nsforge/nstool/pkg/dispatch"
	"github.com/nsforge/nstool/pkg/engine"
	"github.com/nsforge/nstool/pkg/events"
	"github.com/nsforge/nstool/pkg/nsmodel"
	"github.com/nsforge/nstool/pkg/potential"
	"github.com/nsforge/nstool/pkg/progress"
	"github.com/nsforge/nstool/pkg/trace"
	"github.com/nsforge/nstool/pkg/walker"
)

func runRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path (default: built-in defaults)")
	potentialName := fs.String("potential", "harmonic", "potential to sample (harmonic)")
	radius := fs.Float64("radius", 10, "initial-configuration ball radius")
	box := fs.Float64("box", 0, "if > 0, reject configurations outside +/-box (box constraint)")
	label := fs.String("label", "ns-run", "output file label prefix")
	remote := fs.Bool("remote", false, "dispatch to a remote dispatcher instead of running locally")
	eventsAddr := fs.String("events-addr", "", "if set, serve a live websocket iteration feed on this address")
	csvPath := fs.String("csv", "", "if set, write the structured iteration trace as CSV to this path")
	quiet := fs.Bool("quiet", false, "suppress the progress bar")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		return err
	}

	pot, err := buildPotential(*potentialName, cfg.Run.Ndof, *radius)
	if err != nil {
		return err
	}

	var tests []potential.AcceptTest
	if *box > 0 {
		tests = append(tests, potential.BoxConstraint{Bound: *box})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nnstool: cancellation requested, stopping after the current iteration...")
		cancel()
	}()

	var hub *events.Hub
	if *eventsAddr != "" {
		hub = events.NewHub()
		go hub.Run()
		defer hub.Stop()

		mux := http.NewServeMux()
		mux.Handle("/events", events.NewHandler(hub))
		srv := &http.Server{Addr: *eventsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fmt.Printf("nstool: events server error: %v\n", err)
			}
		}()
		defer srv.Close()
		fmt.Printf("nstool: live iteration feed on ws://%s/events\n", *eventsAddr)
	}

	newWalker := func() *walker.Walker {
		return walker.New(pot, potential.UniformStep{}, tests, nil, cfg.Run.Mciter)
	}

	dispatcher, err := buildDispatcher(cfg, *remote, newWalker)
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	replicas := make([]nsmodel.Replica, cfg.Run.Nreplicas)
	seedRng := potential.NewRand(cfg.Run.Seed)
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
		Nproc:        cfg.Run.Nproc,
		Stepsize:     cfg.Run.Stepsize,
		StepsizeMin:  cfg.Run.StepsizeMin,
		MaxStepsize:  cfg.Run.MaxStepsize,
		Mciter:       cfg.Run.Mciter,
		K:            cfg.Run.K,
		Etol:         cfg.Run.Etol,
		MaxIter:      cfg.Run.MaxIter,
		TargetRatio:  cfg.Run.TargetRatio,
		Seed:         cfg.Run.Seed,
		BatchTimeout: cfg.Run.BatchTimeout,
	})
	if err != nil {
		return err
	}

	energiesPath := *label + ".energies"
	replicasPath := *label + ".replicas_final"
	if cfg.Trace.EnergiesPath != "" {
		energiesPath = cfg.Trace.EnergiesPath
	}
	if cfg.Trace.ReplicasFinalPath != "" {
		replicasPath = cfg.Trace.ReplicasFinalPath
	}

	energyTrace, err := trace.OpenEnergyTrace(energiesPath)
	if err != nil {
		return err
	}
	defer energyTrace.Close()

	var csvWriter *trace.CSVWriter
	if *csvPath != "" {
		csvFile, err := os.Create(*csvPath)
		if err != nil {
			return err
		}
		defer csvFile.Close()
		csvWriter = trace.NewCSVWriter(csvFile, nil)
		defer csvWriter.Flush()
	}

	var bar *progress.Bar
	if !*quiet {
		bar = progress.New(cfg.Run.MaxIter, "nested sampling")
		bar.Start()
	}

	eng.AddObserver(observerFunc(func(rec engine.IterationRecord) {
		if err := energyTrace.WriteDiscarded(rec.Ecut); err != nil {
			fmt.Printf("nstool: failed to write energy trace: %v\n", err)
		}
		if csvWriter != nil {
			if err := csvWriter.Write(trace.CSVRow{
				Iteration:  rec.Iteration,
				Ecut:       rec.Ecut,
				Stepsize:   rec.Stepsize,
				AcceptRate: rec.AcceptRate,
				EMinLive:   rec.EMinLive,
				EMaxLive:   rec.EMaxLive,
			}); err != nil {
				fmt.Printf("nstool: failed to write CSV trace: %v\n", err)
			}
		}
		if bar != nil {
			bar.Update(rec.Iteration, rec.Ecut, rec.AcceptRate)
		}
	}))
	if hub != nil {
		eng.AddObserver(hub)
	}

	startTime := time.Now()
	result := eng.Run(ctx)

	if bar != nil {
		if result.Status == engine.StatusOK {
			bar.Complete(fmt.Sprintf("finished after %d iterations", result.Iterations))
		} else {
			bar.Fail(fmt.Sprintf("stopped: %s", result.Status))
		}
	}
	if hub != nil {
		hub.BroadcastStatus(string(result.Status), result.Iterations, result.Err)
	}

	if err := trace.WriteReplicasFinal(replicasPath, result.FinalLive); err != nil {
		fmt.Printf("nstool: failed to write final live set: %v\n", err)
	}

	manifest := trace.BuildManifest(trace.RunConfig{
		PotentialName: *potentialName,
		Nreplicas:     cfg.Run.Nreplicas,
		Ndof:          cfg.Run.Ndof,
		Nproc:         cfg.Run.Nproc,
		K:             cfg.Run.K,
		Mciter:        cfg.Run.Mciter,
		Seed:          cfg.Run.Seed,
		StartTime:     startTime,
	})
	fmt.Printf("nstool: status=%s iterations=%d manifest=%s\n", result.Status, result.Iterations, manifest.ShortHash())

	if code := exitCodeForStatus(result.Status); code != 0 {
		if result.Err != nil {
			return &exitError{code: code, err: result.Err}
		}
		return &exitError{code: code, err: fmt.Errorf("run terminated with status %s", result.Status)}
	}
	return nil
}

// exitCodeForStatus maps a terminal engine status to the process exit
// codes spec §6/§7 document: 0 ok, 1 argument error, 2 walker fatal, 3
// dispatcher fatal, 4 timeout. A cancelled run is a clean stop that
// flushes its partial trace (spec §7), so it also exits 0.
func exitCodeForStatus(s engine.Status) int {
	switch s {
	case engine.StatusOK, engine.StatusCancelled:
		return 0
	case engine.StatusWalkerFatal:
		return 2
	case engine.StatusDispatchFatal:
		return 3
	case engine.StatusTimeout:
		return 4
	default:
		return 1
	}
}

func buildPotential(name string, ndof int, radius float64) (potential.Potential, error) {
	switch name {
	case "harmonic", "":
		return potential.NewHarmonic(ndof, radius), nil
	default:
		return nil, fmt.Errorf("unknown potential %q", name)
	}
}

func buildDispatcher(cfg *config.Config, remote bool, newWalker func() *walker.Walker) (dispatch.Dispatcher, error) {
	if !remote {
		return dispatch.NewLocalPool(cfg.Run.Nproc, newWalker), nil
	}
	return dispatch.NewRemotePool(dispatch.RemotePoolConfig{
		Endpoint:     cfg.Run.DispatcherEndpoint,
		EndpointFile: cfg.Run.DispatcherEndpointFile,
		RetryMax:     cfg.Run.RetryMax,
	})
}

// observerFunc adapts a plain function to engine.IterationObserver.
type observerFunc func(engine.IterationRecord)

func (f observerFunc) OnIteration(rec engine.IterationRecord) { f(rec) }
