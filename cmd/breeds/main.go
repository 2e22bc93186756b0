package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/Sternrassler/breed-feed/pkg/cache"
	"github.com/Sternrassler/breed-feed/pkg/client"
	"github.com/Sternrassler/breed-feed/pkg/config"
	"github.com/Sternrassler/breed-feed/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Store overrides the configured persistence backend. Set before calling Run().
	Store cache.Store

	// LogOutput receives log lines; defaults to the stderr passed to Run.
	LogOutput io.Writer
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("breeds"),
		kong.Description("Incrementally fetch the breeds feed and keep it across runs."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'breeds --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.Verbose {
		cfg.Logging.Level = string(logging.LevelDebug)
	}
	logCfg := cfg.LoggingConfig()
	logCfg.Output = stderr
	if m.LogOutput != nil {
		logCfg.Output = m.LogOutput
	}
	logging.Setup(logCfg)

	store := m.Store
	if store == nil {
		store, err = cache.Open(ctx, cfg.StoreConfig())
		if err != nil {
			fmt.Fprintf(stderr, "Hint: set BREEDS_STORE_BACKEND=memory to run without persistence\n")
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer store.Close()
	}

	fetcher, err := client.New(cfg.ClientConfig())
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	deps.Config = cfg
	deps.Store = store
	deps.Fetcher = fetcher
	deps.Policy = client.NewRetryPolicy(cfg.RetryConfig())

	return kongCtx.Run(deps)
}
