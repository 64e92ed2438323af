package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/exp/constraints"

	"github.com/dd0wney/episignal/pkg/config"
	"github.com/dd0wney/episignal/pkg/generators"
	"github.com/dd0wney/episignal/pkg/logging"
	"github.com/dd0wney/episignal/pkg/metrics"
	"github.com/dd0wney/episignal/pkg/progress"
	"github.com/dd0wney/episignal/pkg/signal"
	"github.com/dd0wney/episignal/pkg/store"
	"github.com/dd0wney/episignal/pkg/stream"
)

func main() {
	configPath := flag.String("config", "scenario.yaml", "Scenario configuration file")
	outputDir := flag.String("output", "", "Override the archive output directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "episignal: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	level := logging.InfoLevel
	if cfg.LogLevel != "" {
		level = logging.ParseLevel(cfg.LogLevel)
	}
	logger := logging.NewJSONLogger(os.Stdout, level)

	if err := run(cfg, logger); err != nil {
		logger.Error("run failed", logging.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	rng := cfg.Rand()
	g := cfg.BuildGraph(rng)
	events, err := cfg.BuildEvents(g, rng)
	if err != nil {
		return err
	}
	logger.Info("scenario loaded",
		logging.String("name", cfg.Scenario.Name),
		logging.Int("order", g.Order()),
		logging.Int("size", g.Size()),
		logging.Int("events", len(events)),
	)

	registry := metrics.NewRegistry()
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", registry.Handler())
		go func() {
			logger.Info("metrics listening", logging.String("addr", cfg.Metrics.Addr))
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Error("metrics server stopped", logging.Error(err))
			}
		}()
	}

	runner := signal.NewRunner(g)
	runner.SetLogger(logger)
	runner.SetMetrics(registry)

	// each requested signal gets its own generator; archives are saved
	// after the run completes
	var saves []func(dir string) error
	for _, name := range cfg.Scenario.Signals {
		switch name {
		case "progress":
			sig := signal.New[float64](g, name)
			gen := progress.New(sig)
			gen.SetLogger(logger)
			gen.SetMetrics(registry)
			runner.AddGenerator(gen)
			saves = append(saves, archiver(sig, logger))
		case "compartment":
			sig := signal.New[signal.Compartment](g, name)
			runner.AddGenerator(generators.NewCompartment(sig))
			saves = append(saves, archiver(sig, logger))
		case "boundary":
			sig := signal.New[float64](g, name)
			runner.AddGenerator(generators.NewBoundary(sig))
			saves = append(saves, archiver(sig, logger))
		}
	}

	if cfg.Stream.Addr != "" {
		pub, err := stream.NewPublisher(cfg.Stream.Addr)
		if err != nil {
			return err
		}
		defer pub.Close()
		logger.Info("streaming events", logging.String("addr", cfg.Stream.Addr))
		runner.AddTap(pub)
	}

	if err := runner.Run(events, cfg.Compartment()); err != nil {
		return err
	}

	if cfg.Output.Dir != "" {
		if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		for _, save := range saves {
			if err := save(cfg.Output.Dir); err != nil {
				return err
			}
		}
	}
	return nil
}

// archiver defers the snapshot of sig until after the run has filled it
func archiver[V constraints.Ordered](sig *signal.Signal[V], logger logging.Logger) func(dir string) error {
	return func(dir string) error {
		a := store.NewArchive(sig)
		path := filepath.Join(dir, sig.Name()+".epsg")
		if err := a.Save(path); err != nil {
			return err
		}
		logger.Info("archive written",
			logging.String("signal", sig.Name()),
			logging.String("path", path),
			logging.String("run_id", a.RunID),
			logging.Int("updates", len(a.Times)),
		)
		return nil
	}
}
