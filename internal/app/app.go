package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"autosuggest/internal/config"
	"autosuggest/internal/domain"
	"autosuggest/internal/eventbus"
	"autosuggest/internal/metrics"
	"autosuggest/internal/provider"
	"autosuggest/internal/ui"
)

// defaultQueryFormat is used for -db when no query is configured
const defaultQueryFormat = "SELECT label FROM suggestions WHERE label LIKE '%%' || ?1 || '%%' ORDER BY label LIMIT %d"

// fallbackItems are offered when no source is configured at all
var fallbackItems = []string{
	"suggest11", "suggest12", "suggest21", "suggest22",
	"autocomplete", "automatic", "automation", "autonomous",
}

// Flags holds the command line
type Flags struct {
	ConfigPath string
	Source     string
	DB         string
	Query      string
	Watch      bool
	MinLength  int
	Debounce   time.Duration
	Field      string
	Metrics    string
	LogPath    string

	set map[string]bool
}

// ParseFlags parses args into Flags
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{set: map[string]bool{}}

	fs := flag.NewFlagSet("autosuggest", flag.ContinueOnError)
	fs.StringVar(&f.ConfigPath, "c", "", "Path to config file (default: user config dir)")
	fs.StringVar(&f.Source, "source", "", "Text file with one suggestion per line")
	fs.StringVar(&f.DB, "db", "", "SQLite database to query for suggestions")
	fs.StringVar(&f.Query, "query", "", "SQL query for -db, the term is its only parameter")
	fs.BoolVar(&f.Watch, "watch", false, "Reload -source when the file changes")
	fs.IntVar(&f.MinLength, "min", config.DefaultConfig().MinLength, "Minimum characters before searching")
	fs.DurationVar(&f.Debounce, "debounce", config.DefaultConfig().Debounce(), "Quiet period after typing before searching")
	fs.StringVar(&f.Field, "field", "", "Print this field of the selected item instead of its label")
	fs.StringVar(&f.Metrics, "metrics", "", "Serve Prometheus metrics on this address")
	fs.StringVar(&f.LogPath, "log", "autosuggest.log", "Log file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.Source != "" && f.DB != "" {
		return nil, errors.New("-source and -db are mutually exclusive")
	}
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
	return f, nil
}

// Apply overrides config values with the flags that were given
func (f *Flags) Apply(cfg *config.Config) error {
	if f.set["min"] {
		cfg.MinLength = f.MinLength
	}
	if f.set["debounce"] {
		cfg.DebounceMS = int(f.Debounce / time.Millisecond)
	}
	if f.set["metrics"] {
		cfg.Metrics.Addr = f.Metrics
	}
	switch {
	case f.Source != "":
		cfg.Source.Kind = config.SourceFile
		cfg.Source.Path = f.Source
	case f.DB != "":
		cfg.Source.Kind = config.SourceSQLite
		cfg.Source.Path = f.DB
	}
	if f.Query != "" {
		cfg.Source.Query = f.Query
	}
	if f.set["watch"] {
		cfg.Source.Watch = f.Watch
	}
	if cfg.Source.Kind == config.SourceSQLite && cfg.Source.Query == "" {
		cfg.Source.Query = fmt.Sprintf(defaultQueryFormat, cfg.MaxResults)
	}
	return cfg.Validate()
}

// Main runs the prompt and returns the process exit code
func Main(args []string, stdout, stderr io.Writer) int {
	flags, err := ParseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	// Set up logging, the terminal belongs to the UI
	logFile, err := os.OpenFile(flags.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Could not open log file: %v", err)
	} else {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	res, err := Run(ctx, cfg)
	if err != nil {
		log.Printf("Error running program: %v", err)
		fmt.Fprintf(stderr, "Error running program: %v\n", err)
		return 1
	}
	if res.Cancelled {
		return 1
	}

	fmt.Fprintln(stdout, output(res, flags.Field))
	return 0
}

func loadConfig(flags *Flags) (*config.Config, error) {
	svc := config.NewConfigService()
	if flags.ConfigPath != "" {
		svc = config.NewConfigServiceAt(flags.ConfigPath)
	}

	var (
		cfg *config.Config
		err error
	)
	if flags.ConfigPath != "" {
		// an explicit file must load
		if cfg, err = svc.LoadFromPath(flags.ConfigPath); err != nil {
			return nil, err
		}
	} else if cfg, err = svc.Load(); err != nil {
		log.Printf("Error loading config: %v", err)
		cfg = config.DefaultConfig()
	}
	log.Printf("Using config %s", svc.Path())

	if err := flags.Apply(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// output is what gets printed for a finished prompt
func output(res ui.Result, field string) string {
	if field != "" && res.Item != nil {
		return res.Item.Value(field)
	}
	return res.Value
}

// Run wires the provider, event bus and metrics to the UI and runs it
// until the user submits or cancels.
func Run(ctx context.Context, cfg *config.Config) (ui.Result, error) {
	bus := eventbus.New()
	defer bus.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	defer m.Attach(bus)()

	p, watcher, release, err := BuildProvider(cfg, bus)
	if err != nil {
		return ui.Result{}, err
	}
	defer release()

	uiModel := ui.NewModel(ctx, cfg, p, bus)
	program := tea.NewProgram(uiModel,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	uiModel.SetProgram(program)

	// Background tasks live as long as the UI
	bgCtx, stopBackground := context.WithCancel(ctx)
	bg, bgCtx := errgroup.WithContext(bgCtx)

	if cfg.Metrics.Addr != "" {
		bg.Go(func() error {
			// a busy port must not stop the watcher
			if err := metrics.Serve(bgCtx, cfg.Metrics.Addr, reg); err != nil {
				log.Printf("Metrics server stopped: %v", err)
			}
			return nil
		})
	}
	if watcher != nil {
		bg.Go(func() error {
			if err := watcher.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	// Forward background events to the UI
	eventChan := make(chan domain.DomainEvent, 100)
	forward := func(e eventbus.DomainEvent) {
		select {
		case eventChan <- e:
		default:
			log.Println("Event channel full, dropping event")
		}
	}
	defer bus.Subscribe(eventbus.EventSourceReloaded, forward)()
	defer bus.Subscribe(eventbus.EventError, forward)()

	bg.Go(func() error {
		for {
			select {
			case e := <-eventChan:
				program.Send(ui.EventMsg{Event: e})
			case <-bgCtx.Done():
				return nil
			}
		}
	})

	log.Printf("Starting UI...")
	_, runErr := program.Run()

	stopBackground()
	if err := bg.Wait(); err != nil {
		log.Printf("Background task failed: %v", err)
	}

	if runErr != nil {
		if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ui.Result{Cancelled: true}, nil
		}
		return ui.Result{}, runErr
	}
	log.Printf("UI exited normally")

	return uiModel.Result(), nil
}

// BuildProvider creates the configured suggestion source. The watcher is
// non-nil when a file source should be reloaded on change; the returned
// func releases the source.
func BuildProvider(cfg *config.Config, bus eventbus.EventBus) (provider.Provider, *provider.Watcher, func(), error) {
	noop := func() {}

	switch cfg.Source.Kind {
	case config.SourceFile:
		items, err := provider.LoadFile(cfg.Source.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		mem := provider.NewMemory(items, cfg.MaxResults)
		log.Printf("Loaded %d suggestions from %s", mem.Len(), cfg.Source.Path)

		if !cfg.Source.Watch {
			return mem, nil, noop, nil
		}
		w, err := provider.NewWatcher(cfg.Source.Path, mem, bus)
		if err != nil {
			return nil, nil, nil, err
		}
		return mem, w, noop, nil

	case config.SourceSQLite:
		db, err := provider.OpenSQLite(cfg.Source.Path, cfg.Source.Query)
		if err != nil {
			return nil, nil, nil, err
		}
		return db, nil, func() {
			if err := db.Close(); err != nil {
				log.Printf("Failed to close database: %v", err)
			}
		}, nil

	default:
		labels := cfg.Source.Items
		if len(labels) == 0 {
			labels = fallbackItems
		}
		return provider.NewMemory(domain.Texts(labels...), cfg.MaxResults), nil, noop, nil
	}
}
