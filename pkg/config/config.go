// Package config loads and validates run scenarios: the network, the
// event source, which signals to generate, and where results go.
package config

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/episignal/pkg/graph"
	"github.com/dd0wney/episignal/pkg/signal"
	"github.com/dd0wney/episignal/pkg/sim"
)

var validate = validator.New()

// Config is the root of a scenario file
type Config struct {
	Scenario Scenario `yaml:"scenario" validate:"required"`
	Output   Output   `yaml:"output"`
	Stream   Stream   `yaml:"stream"`
	Metrics  Metrics  `yaml:"metrics"`
	LogLevel string   `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// Scenario describes one epidemic run
type Scenario struct {
	Name    string       `yaml:"name" validate:"required"`
	Seed    int64        `yaml:"seed"`
	Graph   GraphConfig  `yaml:"graph"`
	Seeds   []uint64     `yaml:"seeds"`
	Events  []EventEntry `yaml:"events" validate:"omitempty,dive"`
	SIR     *SIRConfig   `yaml:"sir"`
	Signals []string     `yaml:"signals" validate:"required,min=1,dive,oneof=progress compartment boundary"`
}

// GraphConfig names the network, either an explicit edge list or a
// random G(n,p) draw
type GraphConfig struct {
	Edges [][2]uint64 `yaml:"edges"`
	GNP   *GNPConfig  `yaml:"gnp"`
}

// GNPConfig parameterises an Erdos-Renyi random graph
type GNPConfig struct {
	N int     `yaml:"n" validate:"required,min=1"`
	P float64 `yaml:"p" validate:"required,gt=0,lte=1"`
}

// EventEntry is one inline event
type EventEntry struct {
	Time float64 `yaml:"time" validate:"min=0"`
	Type string  `yaml:"type" validate:"required,oneof=INFECTED REMOVED"`
	Node uint64  `yaml:"node" validate:"required"`
	From uint64  `yaml:"from"`
}

// SIRConfig parameterises a simulated epidemic
type SIRConfig struct {
	PInfect float64 `yaml:"p_infect" validate:"required,gt=0,lte=1"`
	PRemove float64 `yaml:"p_remove" validate:"required,gt=0,lte=1"`
	MaxTime float64 `yaml:"max_time" validate:"min=0"`
}

// Output names where signal archives are written
type Output struct {
	Dir string `yaml:"dir"`
}

// Stream names the pub/sub endpoint for live event streaming; empty
// disables streaming
type Stream struct {
	Addr string `yaml:"addr"`
}

// Metrics names the Prometheus listen address; empty disables the
// endpoint
type Metrics struct {
	Addr string `yaml:"addr"`
}

// Load reads and validates a scenario file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse validates a scenario document
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, formatValidationError(err)
	}

	s := &cfg.Scenario
	if len(s.Graph.Edges) == 0 && s.Graph.GNP == nil {
		return nil, errors.New("scenario.graph: either edges or gnp is required")
	}
	if len(s.Graph.Edges) > 0 && s.Graph.GNP != nil {
		return nil, errors.New("scenario.graph: edges and gnp are mutually exclusive")
	}
	if len(s.Events) > 0 && s.SIR != nil {
		return nil, errors.New("scenario: events and sir are mutually exclusive")
	}
	if len(s.Events) == 0 && s.SIR == nil {
		return nil, errors.New("scenario: either events or sir is required")
	}
	if s.SIR != nil && len(s.Seeds) == 0 {
		return nil, errors.New("scenario: sir requires seeds")
	}
	return cfg, nil
}

// Rand returns the scenario's seeded random source
func (c *Config) Rand() *rand.Rand {
	return rand.New(rand.NewSource(c.Scenario.Seed))
}

// BuildGraph materialises the scenario's network
func (c *Config) BuildGraph(rng *rand.Rand) *graph.Undirected {
	if c.Scenario.Graph.GNP != nil {
		gnp := c.Scenario.Graph.GNP
		return graph.GNP(gnp.N, gnp.P, rng)
	}
	g := graph.NewUndirected()
	for _, e := range c.Scenario.Graph.Edges {
		g.AddEdge(graph.Node(e[0]), graph.Node(e[1]))
	}
	return g
}

// BuildEvents materialises the scenario's event stream, either the
// inline events or a fresh simulated epidemic.
func (c *Config) BuildEvents(g graph.Graph, rng *rand.Rand) ([]signal.Event, error) {
	s := &c.Scenario
	if s.SIR != nil {
		p := sim.SIR{PInfect: s.SIR.PInfect, PRemove: s.SIR.PRemove, MaxTime: s.SIR.MaxTime}
		seeds := make([]graph.Node, len(s.Seeds))
		for i, n := range s.Seeds {
			seeds[i] = graph.Node(n)
		}
		return p.Events(g, rng, seeds...), nil
	}

	events := make([]signal.Event, len(s.Events))
	for i, e := range s.Events {
		events[i] = signal.Event{
			Time: e.Time,
			Type: signal.EventType(e.Type),
			Node: graph.Node(e.Node),
			From: graph.Node(e.From),
		}
	}
	if err := signal.ValidateStream(events); err != nil {
		return nil, err
	}
	return events, nil
}

// Compartment returns the initial-state function implied by the seeds.
// Simulated epidemics emit their seeds as t=0 infection events, so they
// always replay against an all-susceptible network.
func (c *Config) Compartment() signal.CompartmentFunc {
	if c.Scenario.SIR != nil || len(c.Scenario.Seeds) == 0 {
		return signal.AllSusceptible
	}
	seeds := make([]graph.Node, len(c.Scenario.Seeds))
	for i, n := range c.Scenario.Seeds {
		seeds[i] = graph.Node(n)
	}
	return signal.SeededInfected(seeds...)
}

// formatValidationError flattens validator output into one readable
// message per failed field
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q constraint", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
