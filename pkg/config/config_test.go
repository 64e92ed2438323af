package config

import (
	"strings"
	"testing"

	"github.com/dd0wney/episignal/pkg/signal"
)

const explicitScenario = `
scenario:
  name: kite
  seeds: [1]
  graph:
    edges: [[1,2],[1,3],[2,3],[2,4],[3,4],[4,5],[4,6]]
  events:
    - {time: 1, type: INFECTED, node: 3, from: 1}
    - {time: 2, type: REMOVED, node: 1}
  signals: [progress, compartment]
output:
  dir: /tmp/runs
log_level: debug
`

const simulatedScenario = `
scenario:
  name: soak
  seed: 42
  seeds: [1]
  graph:
    gnp: {n: 50, p: 0.1}
  sir: {p_infect: 0.3, p_remove: 0.2, max_time: 20}
  signals: [progress]
`

func TestParseExplicitScenario(t *testing.T) {
	cfg, err := Parse([]byte(explicitScenario))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Scenario.Name != "kite" {
		t.Errorf("name = %q", cfg.Scenario.Name)
	}
	if cfg.Output.Dir != "/tmp/runs" {
		t.Errorf("output dir = %q", cfg.Output.Dir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}

	g := cfg.BuildGraph(cfg.Rand())
	if g.Order() != 6 {
		t.Errorf("order = %d, want 6", g.Order())
	}
	events, err := cfg.BuildEvents(g, cfg.Rand())
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %v", events)
	}
	if events[0].Type != signal.EventInfected || events[0].Node != 3 || events[0].From != 1 {
		t.Errorf("event 0 = %+v", events[0])
	}
	if cfg.Compartment()(1) != signal.Infected {
		t.Error("seed 1 should start infected")
	}
	if cfg.Compartment()(2) != signal.Susceptible {
		t.Error("node 2 should start susceptible")
	}
}

func TestParseSimulatedScenario(t *testing.T) {
	cfg, err := Parse([]byte(simulatedScenario))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	g := cfg.BuildGraph(cfg.Rand())
	if g.Order() != 50 {
		t.Errorf("order = %d, want 50", g.Order())
	}
	events, err := cfg.BuildEvents(g, cfg.Rand())
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if err := signal.ValidateStream(events); err != nil {
		t.Fatalf("invalid stream: %v", err)
	}
	// simulated seeds arrive as events, so initial state is all-susceptible
	if cfg.Compartment()(1) != signal.Susceptible {
		t.Error("simulated scenario should start all-susceptible")
	}
}

func TestParseRejections(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			"missing name",
			`
scenario:
  graph: {edges: [[1,2]]}
  events: [{time: 0, type: INFECTED, node: 1}]
  signals: [progress]
`,
			"Name",
		},
		{
			"no signals",
			`
scenario:
  name: x
  graph: {edges: [[1,2]]}
  events: [{time: 0, type: INFECTED, node: 1}]
  signals: []
`,
			"Signals",
		},
		{
			"unknown signal",
			`
scenario:
  name: x
  graph: {edges: [[1,2]]}
  events: [{time: 0, type: INFECTED, node: 1}]
  signals: [velocity]
`,
			"oneof",
		},
		{
			"no graph",
			`
scenario:
  name: x
  events: [{time: 0, type: INFECTED, node: 1}]
  signals: [progress]
`,
			"edges or gnp",
		},
		{
			"both graph forms",
			`
scenario:
  name: x
  graph:
    edges: [[1,2]]
    gnp: {n: 5, p: 0.5}
  events: [{time: 0, type: INFECTED, node: 1}]
  signals: [progress]
`,
			"mutually exclusive",
		},
		{
			"no event source",
			`
scenario:
  name: x
  graph: {edges: [[1,2]]}
  signals: [progress]
`,
			"events or sir",
		},
		{
			"sir without seeds",
			`
scenario:
  name: x
  graph: {edges: [[1,2]]}
  sir: {p_infect: 0.5, p_remove: 0.5}
  signals: [progress]
`,
			"requires seeds",
		},
		{
			"bad probability",
			`
scenario:
  name: x
  seeds: [1]
  graph: {edges: [[1,2]]}
  sir: {p_infect: 1.5, p_remove: 0.5}
  signals: [progress]
`,
			"PInfect",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Errorf("err = %v, want substring %q", err, c.want)
			}
		})
	}
}

func TestBuildEventsRejectsInvalidStream(t *testing.T) {
	cfg, err := Parse([]byte(`
scenario:
  name: x
  seeds: [1]
  graph: {edges: [[1,2]]}
  events:
    - {time: 0, type: REMOVED, node: 1}
  signals: [progress]
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	g := cfg.BuildGraph(cfg.Rand())
	if _, err := cfg.BuildEvents(g, cfg.Rand()); err == nil {
		t.Error("expected stream validation error")
	}
}
