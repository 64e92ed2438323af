// Package e2e runs whole scenarios through the public surface: config
// parsing, signal generation, archiving, and live streaming together.
package e2e

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/episignal/pkg/config"
	"github.com/dd0wney/episignal/pkg/generators"
	"github.com/dd0wney/episignal/pkg/graph"
	"github.com/dd0wney/episignal/pkg/progress"
	"github.com/dd0wney/episignal/pkg/signal"
	"github.com/dd0wney/episignal/pkg/store"
	"github.com/dd0wney/episignal/pkg/stream"
)

const scenario = `
scenario:
  name: e2e
  seeds: [1]
  graph:
    edges: [[1,2],[1,3],[2,3],[2,4],[3,4],[4,5],[4,6]]
  events:
    - {time: 1, type: INFECTED, node: 3, from: 1}
    - {time: 2, type: REMOVED, node: 1}
    - {time: 3, type: INFECTED, node: 4, from: 3}
    - {time: 4, type: REMOVED, node: 3}
  signals: [progress, compartment, boundary]
`

func TestScenarioEndToEnd(t *testing.T) {
	cfg, err := config.Parse([]byte(scenario))
	require.NoError(t, err)

	rng := cfg.Rand()
	g := cfg.BuildGraph(rng)
	require.Equal(t, 6, g.Order())

	events, err := cfg.BuildEvents(g, rng)
	require.NoError(t, err)
	require.Len(t, events, 4)

	progSig := signal.New[float64](g, "progress")
	compSig := signal.New[signal.Compartment](g, "compartment")
	boundSig := signal.New[float64](g, "boundary")

	addr := "inproc://episignal-e2e"
	pub, err := stream.NewPublisher(addr)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := stream.NewSubscriber(addr)
	require.NoError(t, err)
	defer sub.Close()
	require.NoError(t, sub.SetRecvDeadline(2*time.Second))
	time.Sleep(50 * time.Millisecond)

	r := signal.NewRunner(g)
	r.AddGenerator(progress.New(progSig))
	r.AddGenerator(generators.NewCompartment(compSig))
	r.AddGenerator(generators.NewBoundary(boundSig))
	r.AddTap(pub)
	require.NoError(t, r.Run(events, cfg.Compartment()))

	// final progress snapshot
	view := progSig.At(4)
	want := map[graph.Node]float64{1: -2, 2: 1, 3: -1, 4: 0, 5: 1, 6: 1}
	for n, w := range want {
		v, ok := view.Get(n)
		assert.True(t, ok, "node %d present", n)
		assert.Equal(t, w, v, "node %d", n)
	}

	// compartment signal agrees with the event history
	cview := compSig.At(4)
	cc, _ := cview.Get(4)
	assert.Equal(t, signal.Infected, cc)
	cc, _ = cview.Get(3)
	assert.Equal(t, signal.Removed, cc)

	// every event reached the stream consumer in order
	for _, sent := range events {
		got, err := sub.Recv()
		require.NoError(t, err)
		assert.Equal(t, sent, got)
	}

	// archives round-trip through disk
	dir := t.TempDir()
	a := store.NewArchive(progSig)
	path := filepath.Join(dir, "progress.epsg")
	require.NoError(t, a.Save(path))

	back, err := store.Load[float64](path)
	require.NoError(t, err)
	assert.Equal(t, a.RunID, back.RunID)

	restored, err := back.Signal()
	require.NoError(t, err)
	rview := restored.At(4)
	for n, w := range want {
		v, ok := rview.Get(n)
		assert.True(t, ok)
		assert.Equal(t, w, v, "restored node %d", n)
	}
}

func TestSimulatedScenarioEndToEnd(t *testing.T) {
	cfg, err := config.Parse([]byte(`
scenario:
  name: soak
  seed: 7
  seeds: [1]
  graph:
    gnp: {n: 40, p: 0.12}
  sir: {p_infect: 0.35, p_remove: 0.2}
  signals: [progress]
`))
	require.NoError(t, err)

	rng := cfg.Rand()
	g := cfg.BuildGraph(rng)
	events, err := cfg.BuildEvents(g, rng)
	require.NoError(t, err)
	require.NotEmpty(t, events)

	sig := signal.New[float64](g, "progress")
	r := signal.NewRunner(g)
	r.AddGenerator(progress.New(sig))
	require.NoError(t, r.Run(events, cfg.Compartment()))

	min, max, err := sig.ValueBounds()
	require.NoError(t, err)
	assert.LessOrEqual(t, min, 0.0)
	assert.Greater(t, max, 0.0)
}
