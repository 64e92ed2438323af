package signal

import (
	"time"

	"github.com/dd0wney/episignal/pkg/graph"
	"github.com/dd0wney/episignal/pkg/logging"
	"github.com/dd0wney/episignal/pkg/metrics"
)

// EventTap observes the raw event stream without generating a signal,
// e.g. to forward it to an external consumer.
type EventTap interface {
	Event(ev Event) error
}

// Runner feeds an ordered event stream through a set of signal
// generators and taps. Processing is single-threaded and synchronous:
// one event is fully handled, including all cascading recomputation
// inside the generators, before the next is accepted.
type Runner struct {
	g       graph.Graph
	gens    []Generator
	taps    []EventTap
	log     logging.Logger
	metrics *metrics.Registry
}

// NewRunner creates a runner over the given network
func NewRunner(g graph.Graph) *Runner {
	return &Runner{
		g:   g,
		log: logging.NewNopLogger(),
	}
}

// AddGenerator attaches a signal generator. Generators receive events
// in the order they were added.
func (r *Runner) AddGenerator(gen Generator) {
	r.gens = append(r.gens, gen)
}

// AddTap attaches an event tap
func (r *Runner) AddTap(tap EventTap) {
	r.taps = append(r.taps, tap)
}

// SetLogger replaces the runner's logger
func (r *Runner) SetLogger(l logging.Logger) {
	r.log = l.With(logging.Component("runner"))
}

// SetMetrics attaches a metrics registry
func (r *Runner) SetMetrics(m *metrics.Registry) {
	r.metrics = m
}

// Run validates the stream, seeds every generator at t=0, dispatches
// each event, and finalizes. The first error aborts the run: there is
// nothing transient to retry against, and an invariant error means
// generator state is corrupt.
func (r *Runner) Run(events []Event, compartment CompartmentFunc) error {
	start := time.Now()
	if err := r.run(events, compartment); err != nil {
		if r.metrics != nil {
			r.metrics.RecordRun("error", time.Since(start))
		}
		r.log.Error("run failed", logging.Error(err))
		return err
	}
	if r.metrics != nil {
		r.metrics.RecordRun("ok", time.Since(start))
	}
	return nil
}

func (r *Runner) run(events []Event, compartment CompartmentFunc) error {
	if err := ValidateStream(events); err != nil {
		return err
	}
	if compartment == nil {
		compartment = AllSusceptible
	}

	r.log.Info("starting run",
		logging.Int("events", len(events)),
		logging.Int("generators", len(r.gens)),
		logging.Int("order", r.g.Order()),
	)

	for _, gen := range r.gens {
		if err := gen.Setup(compartment); err != nil {
			return err
		}
	}

	for _, ev := range events {
		evStart := time.Now()
		for _, gen := range r.gens {
			if err := gen.HandleEvent(ev); err != nil {
				return err
			}
		}
		for _, tap := range r.taps {
			if err := tap.Event(ev); err != nil {
				return err
			}
		}
		if r.metrics != nil {
			r.metrics.RecordEvent(string(ev.Type), time.Since(evStart))
		}
		r.log.Debug("event processed",
			logging.Time(ev.Time),
			logging.EventType(string(ev.Type)),
			logging.Node(uint64(ev.Node)),
		)
	}

	for _, gen := range r.gens {
		if err := gen.Finalize(); err != nil {
			return err
		}
	}

	r.log.Info("run complete", logging.Int("events", len(events)))
	return nil
}
