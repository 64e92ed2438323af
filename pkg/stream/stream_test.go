package stream

import (
	"testing"
	"time"

	"github.com/dd0wney/episignal/pkg/signal"
)

func TestPublishSubscribe(t *testing.T) {
	addr := "inproc://episignal-stream-test"
	p, err := NewPublisher(addr)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	defer p.Close()

	s, err := NewSubscriber(addr)
	if err != nil {
		t.Fatalf("subscriber: %v", err)
	}
	defer s.Close()
	if err := s.SetRecvDeadline(2 * time.Second); err != nil {
		t.Fatalf("deadline: %v", err)
	}

	// pub/sub drops messages sent before the subscription settles
	time.Sleep(50 * time.Millisecond)

	sent := []signal.Event{
		{Time: 0, Type: signal.EventInfected, Node: 1},
		{Time: 1, Type: signal.EventInfected, Node: 2, From: 1},
		{Time: 2, Type: signal.EventRemoved, Node: 1},
	}
	for _, ev := range sent {
		if err := p.Event(ev); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	for i, want := range sent {
		got, err := s.Recv()
		if err != nil {
			t.Fatalf("recv %d: %v", i, err)
		}
		if got != want {
			t.Errorf("event %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestSubscriberRecvDeadline(t *testing.T) {
	addr := "inproc://episignal-deadline-test"
	p, err := NewPublisher(addr)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	defer p.Close()

	s, err := NewSubscriber(addr)
	if err != nil {
		t.Fatalf("subscriber: %v", err)
	}
	defer s.Close()
	if err := s.SetRecvDeadline(20 * time.Millisecond); err != nil {
		t.Fatalf("deadline: %v", err)
	}

	if _, err := s.Recv(); err == nil {
		t.Error("expected timeout, got event")
	}
}
