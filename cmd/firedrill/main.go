// firedrill exercises the registry end to end: it loads a scenario of staged
// handlers, fires each event concurrently and renders results as they
// complete.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/eventkit/config"
	"github.com/rovshanmuradov/eventkit/dispatch"
	"github.com/rovshanmuradov/eventkit/event"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "registry config file")
	scenarioPath := flag.String("scenario", "configs/scenario.yaml", "scenario file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	scenario, err := LoadScenario(logger, *scenarioPath)
	if err != nil {
		logger.Fatal("Failed to load scenario", zap.Error(err))
	}

	registryLogger := zap.NewNop()
	if cfg.DebugLogging {
		registryLogger = logger
	}
	d := dispatch.NewAsyncPriority(
		dispatch.WithLogger(registryLogger),
		dispatch.WithEventOptions(cfg.EventOptions()...),
	)

	if err := register(d, scenario); err != nil {
		logger.Fatal("Failed to register handlers", zap.Error(err))
	}

	for _, spec := range scenario.Events {
		run(ctx, d, spec.Name)
	}
}

func register(d *dispatch.AsyncPriorityDispatch, scenario *Scenario) error {
	for _, spec := range scenario.Events {
		ev := d.AddEvent(spec.Name)
		for i := range spec.Handlers {
			hs := spec.Handlers[i]
			h, err := event.Bind(&spec.Handlers[i], staged(hs))
			if err != nil {
				return err
			}
			if err := ev.AddWithPriority(h, hs.Priority); err != nil {
				return fmt.Errorf("event %s, handler %s: %w", spec.Name, hs.Label, err)
			}
		}
	}
	return nil
}

// staged builds a handler that sleeps for the configured delay before
// returning its label or a staged failure.
func staged(hs HandlerSpec) func(ctx context.Context, args ...any) (any, error) {
	return func(ctx context.Context, args ...any) (any, error) {
		select {
		case <-time.After(hs.Delay()):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if hs.Fail {
			return nil, fmt.Errorf("%s: staged failure", hs.Label)
		}
		return hs.Label, nil
	}
}

func run(ctx context.Context, d *dispatch.AsyncPriorityDispatch, name string) {
	fmt.Println(headerStyle.Render("▶ " + name))

	firing, ok := d.Fire(ctx, name)
	if !ok {
		fmt.Println(dimStyle.Render("  no such event"))
		return
	}

	start := time.Now()
	succeeded, failed := 0, 0
	for r := range firing.AsCompleted(ctx) {
		elapsed := time.Since(start).Round(time.Millisecond)
		if r.Failed() {
			failed++
			fmt.Println(failStyle.Render("  ✗ "+r.Err.Error()) +
				dimStyle.Render(fmt.Sprintf(" (%s)", elapsed)))
			continue
		}
		succeeded++
		fmt.Println(okStyle.Render(fmt.Sprintf("  ✓ %v", r.Value)) +
			dimStyle.Render(fmt.Sprintf(" (%s)", elapsed)))
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf("  %d ok, %d failed in %s",
		succeeded, failed, time.Since(start).Round(time.Millisecond))))
}
