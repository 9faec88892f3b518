package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rovshanmuradov/eventkit/event"
)

// Scenario describes named events and the staged handlers registered on each.
type Scenario struct {
	Events []EventSpec `yaml:"events"`
}

// EventSpec is one named event in the scenario file.
type EventSpec struct {
	Name     string        `yaml:"name"`
	Handlers []HandlerSpec `yaml:"handlers"`
}

// HandlerSpec stages one handler: it sleeps for the configured delay, then
// returns its label or a staged failure.
type HandlerSpec struct {
	Label    string `yaml:"label"`
	DelayMS  int    `yaml:"delay_ms"`
	Fail     bool   `yaml:"fail"`
	Priority int    `yaml:"priority"`
}

// Delay returns the staged handler latency.
func (h HandlerSpec) Delay() time.Duration {
	return time.Duration(h.DelayMS) * time.Millisecond
}

// LoadScenario reads staged events from a YAML file.
func LoadScenario(logger *zap.Logger, path string) (*Scenario, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(s.Events) == 0 {
		return nil, fmt.Errorf("no events found in scenario")
	}

	for i := range s.Events {
		spec := &s.Events[i]
		if spec.Name == "" {
			return nil, fmt.Errorf("event %d: missing name", i)
		}
		for j := range spec.Handlers {
			h := &spec.Handlers[j]
			if h.Label == "" {
				h.Label = fmt.Sprintf("%s-handler-%d", spec.Name, j)
			}
			if h.DelayMS < 0 {
				logger.Warn("Negative delay clamped to zero",
					zap.String("handler", h.Label))
				h.DelayMS = 0
			}
			if h.Priority == 0 {
				h.Priority = event.DefaultPriority
			}
		}
	}

	return &s, nil
}
