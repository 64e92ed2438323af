package signal

import (
	"errors"
	"testing"

	"github.com/dd0wney/episignal/pkg/metrics"
)

// recordingGen captures the lifecycle calls a runner makes
type recordingGen struct {
	calls []string
	fail  error
}

func (r *recordingGen) Setup(CompartmentFunc) error {
	r.calls = append(r.calls, "setup")
	return r.fail
}

func (r *recordingGen) HandleEvent(ev Event) error {
	r.calls = append(r.calls, "event:"+string(ev.Type))
	return nil
}

func (r *recordingGen) Finalize() error {
	r.calls = append(r.calls, "finalize")
	return nil
}

type recordingTap struct {
	events []Event
	fail   error
}

func (r *recordingTap) Event(ev Event) error {
	r.events = append(r.events, ev)
	return r.fail
}

func TestRunnerLifecycle(t *testing.T) {
	g := pathGraph(t, 3)
	gen := &recordingGen{}
	tap := &recordingTap{}
	r := NewRunner(g)
	r.AddGenerator(gen)
	r.AddTap(tap)

	events := []Event{
		{Time: 0, Type: EventInfected, Node: 1},
		{Time: 1, Type: EventRemoved, Node: 1},
	}
	if err := r.Run(events, nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{"setup", "event:INFECTED", "event:REMOVED", "finalize"}
	if len(gen.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", gen.calls, want)
	}
	for i := range want {
		if gen.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", gen.calls, want)
		}
	}
	if len(tap.events) != 2 {
		t.Errorf("tap saw %d events, want 2", len(tap.events))
	}
}

func TestRunnerRejectsInvalidStream(t *testing.T) {
	g := pathGraph(t, 3)
	gen := &recordingGen{}
	r := NewRunner(g)
	r.AddGenerator(gen)

	err := r.Run([]Event{{Time: 0, Type: EventRemoved, Node: 1}}, nil)
	if !errors.Is(err, ErrFirstEventNotInfection) {
		t.Fatalf("err = %v, want ErrFirstEventNotInfection", err)
	}
	if len(gen.calls) != 0 {
		t.Errorf("generator touched on invalid stream: %v", gen.calls)
	}
}

func TestRunnerSetupFailureAborts(t *testing.T) {
	g := pathGraph(t, 3)
	bad := errors.New("bad seed")
	gen := &recordingGen{fail: bad}
	tap := &recordingTap{}
	r := NewRunner(g)
	r.AddGenerator(gen)
	r.AddTap(tap)

	err := r.Run([]Event{{Time: 0, Type: EventInfected, Node: 1}}, nil)
	if !errors.Is(err, bad) {
		t.Fatalf("err = %v, want %v", err, bad)
	}
	if len(tap.events) != 0 {
		t.Errorf("tap saw events after failed setup")
	}
}

func TestRunnerTapFailureAborts(t *testing.T) {
	g := pathGraph(t, 3)
	gen := &recordingGen{}
	bad := errors.New("sink gone")
	tap := &recordingTap{fail: bad}
	r := NewRunner(g)
	r.AddGenerator(gen)
	r.AddTap(tap)

	events := []Event{
		{Time: 0, Type: EventInfected, Node: 1},
		{Time: 1, Type: EventRemoved, Node: 1},
	}
	err := r.Run(events, nil)
	if !errors.Is(err, bad) {
		t.Fatalf("err = %v, want %v", err, bad)
	}
	// generators saw only the first event before the tap failed
	want := []string{"setup", "event:INFECTED"}
	if len(gen.calls) != len(want) {
		t.Errorf("calls = %v, want %v", gen.calls, want)
	}
}

func TestRunnerRecordsMetrics(t *testing.T) {
	g := pathGraph(t, 3)
	m := metrics.NewRegistry()
	r := NewRunner(g)
	r.AddGenerator(&recordingGen{})
	r.SetMetrics(m)

	events := []Event{
		{Time: 0, Type: EventInfected, Node: 1},
		{Time: 1, Type: EventInfected, Node: 2},
		{Time: 2, Type: EventRemoved, Node: 1},
	}
	if err := r.Run(events, nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	families, err := m.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	byName := map[string]bool{}
	for _, f := range families {
		byName[f.GetName()] = true
	}
	if !byName["episignal_events_total"] {
		t.Error("episignal_events_total not recorded")
	}
	if !byName["episignal_runs_total"] {
		t.Error("episignal_runs_total not recorded")
	}
}

func TestRunnerMultipleGeneratorsShareStream(t *testing.T) {
	g := pathGraph(t, 3)
	g1, g2 := &recordingGen{}, &recordingGen{}
	r := NewRunner(g)
	r.AddGenerator(g1)
	r.AddGenerator(g2)

	events := []Event{{Time: 0, Type: EventInfected, Node: 1}}
	if err := r.Run(events, AllSusceptible); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(g1.calls) != 3 || len(g2.calls) != 3 {
		t.Errorf("calls = %v / %v", g1.calls, g2.calls)
	}
}

func TestBaseDispatch(t *testing.T) {
	g := pathGraph(t, 3)
	sig := New[float64](g, "test")
	b := NewBase(sig)

	var seen []EventType
	b.On(EventInfected, func(ev Event) error {
		seen = append(seen, ev.Type)
		return nil
	})

	// unregistered types are ignored
	if err := b.HandleEvent(Event{Type: EventRemoved, Node: 1}); err != nil {
		t.Fatalf("unregistered type: %v", err)
	}
	if err := b.HandleEvent(Event{Type: EventInfected, Node: 1}); err != nil {
		t.Fatalf("registered type: %v", err)
	}
	if len(seen) != 1 || seen[0] != EventInfected {
		t.Errorf("seen = %v", seen)
	}
}

func TestBaseHandlerErrorPropagates(t *testing.T) {
	g := pathGraph(t, 3)
	sig := New[float64](g, "test")
	b := NewBase(sig)

	bad := errors.New("handler failed")
	b.On(EventInfected, func(Event) error { return bad })
	if err := b.HandleEvent(Event{Type: EventInfected}); !errors.Is(err, bad) {
		t.Errorf("err = %v, want %v", err, bad)
	}
}
