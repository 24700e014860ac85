package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsforge/nstool/pkg/config"
	"github.com/nsforge/nstool/pkg/nsworker"
	"github.com/nsforge/nstool/pkg/potential"
	"github.com/nsforge/nstool/pkg/walker"
)

func runWorker(args []string) error {
	fs := flag.NewFlagSet("worker", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (default: built-in defaults)")
	potentialName := fs.String("potential", "harmonic", "potential this worker evaluates")
	ndof := fs.Int("ndof", 0, "degrees of freedom (default: config's run.ndof)")
	radius := fs.Float64("radius", 10, "initial-configuration ball radius")
	box := fs.Float64("box", 0, "if > 0, reject configurations outside +/-box (box constraint)")
	fs.Parse(args)

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		return err
	}

	dof := *ndof
	if dof == 0 {
		dof = cfg.Run.Ndof
	}

	pot, err := buildPotential(*potentialName, dof, *radius)
	if err != nil {
		return err
	}

	var tests []potential.AcceptTest
	if *box > 0 {
		tests = append(tests, potential.BoxConstraint{Bound: *box})
	}

	w := walker.New(pot, potential.UniformStep{}, tests, nil, cfg.Run.Mciter)

	selfAddr := cfg.Worker.SelfAddr
	if selfAddr == "" {
		selfAddr = "http://localhost" + cfg.Worker.Listen
	}

	nw := nsworker.NewWorker(w, selfAddr, cfg.Worker.DispatcherAddr, cfg.Worker.HeartbeatPeriod)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nnsworker: shutting down...")
		cancel()
	}()

	if err := nw.Register(ctx); err != nil {
		return err
	}
	defer nw.Unregister(context.Background())

	go nw.RunHeartbeatLoop(ctx)

	srv := &http.Server{Addr: cfg.Worker.Listen, Handler: nw.Handler()}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	fmt.Printf("nsworker: listening on %s, registered with dispatcher at %s (id=%s)\n",
		cfg.Worker.Listen, cfg.Worker.DispatcherAddr, nw.ID())

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
