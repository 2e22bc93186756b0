package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/breed-feed/internal/proxy"
	"github.com/Sternrassler/breed-feed/pkg/config"
	"github.com/Sternrassler/breed-feed/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run starts the proxy and blocks until ctx is done.
func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("breeds-proxy", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("BREEDS_CONFIG"), "YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logCfg := cfg.LoggingConfig()
	logCfg.Output = stderr
	logging.Setup(logCfg)
	gin.SetMode(gin.ReleaseMode)

	srv, err := newServer(cfg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Proxy.Listen).
			Str("upstream", cfg.Proxy.Upstream).
			Str("simulate", cfg.Proxy.Simulate).
			Dur("delay", cfg.Proxy.Delay).
			Msg("Starting breeds proxy")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down breeds proxy")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newServer builds the HTTP server for cfg.
func newServer(cfg config.Config) (*http.Server, error) {
	p, err := proxy.New(proxy.Config{
		Upstream: cfg.Proxy.Upstream,
		Delay:    cfg.Proxy.Delay,
		Hang:     cfg.Proxy.Hang,
		Simulate: cfg.Proxy.Simulate,
	})
	if err != nil {
		return nil, fmt.Errorf("create proxy: %w", err)
	}

	return &http.Server{
		Addr:              cfg.Proxy.Listen,
		Handler:           p.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}
