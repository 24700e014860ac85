package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nsforge/nstool/pkg/config"
	"github.com/nsforge/nstool/pkg/dispatchd"
	"github.com/nsforge/nstool/pkg/errs"
)

func runDispatcher(args []string) error {
	fs := flag.NewFlagSet("dispatcher", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (default: built-in defaults)")
	fs.Parse(args)

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		return err
	}

	srv := dispatchd.NewServer(cfg.Dispatcher.HeartbeatTimeout)

	if cfg.Dispatcher.EndpointFile != "" {
		endpoint := "http://localhost" + cfg.Dispatcher.Listen
		if err := os.MkdirAll(filepath.Dir(cfg.Dispatcher.EndpointFile), 0755); err != nil && filepath.Dir(cfg.Dispatcher.EndpointFile) != "." {
			return errs.InternalWrap(err, errs.ErrInternalUnexpected, "failed to create endpoint file directory")
		}
		if err := os.WriteFile(cfg.Dispatcher.EndpointFile, []byte(endpoint), 0644); err != nil {
			return errs.InternalWrap(err, errs.ErrInternalUnexpected, "failed to write dispatcher endpoint file")
		}
		defer os.Remove(cfg.Dispatcher.EndpointFile)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nnstool dispatcher: shutting down...")
		cancel()
	}()

	httpSrv := &http.Server{Addr: cfg.Dispatcher.Listen, Handler: srv.Handler()}
	go func() {
		<-ctx.Done()
		httpSrv.Close()
	}()

	fmt.Printf("nstool dispatcher: listening on %s (heartbeat timeout %s)\n", cfg.Dispatcher.Listen, cfg.Dispatcher.HeartbeatTimeout)

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
