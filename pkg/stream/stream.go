// Package stream publishes epidemic events over nanomsg pub/sub so
// external consumers can follow a run live. Messages are topic-prefixed
// JSON, matching mangos's prefix-based subscription filtering.
package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"
	"go.nanomsg.org/mangos/v3/protocol/sub"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/dd0wney/episignal/pkg/signal"
)

// Topic prefixes every published message
const Topic = "episignal.events"

var sep = []byte{'|'}

// Publisher forwards events to a pub socket. It implements
// signal.EventTap, so it plugs straight into a Runner.
type Publisher struct {
	sock mangos.Socket
}

// NewPublisher opens a pub socket listening on addr
func NewPublisher(addr string) (*Publisher, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to open pub socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return &Publisher{sock: sock}, nil
}

// Event publishes one event
func (p *Publisher) Event(ev signal.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	msg := append(append([]byte(Topic), sep...), raw...)
	if err := p.sock.Send(msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close closes the socket
func (p *Publisher) Close() error {
	return p.sock.Close()
}

// Subscriber receives events published by a Publisher
type Subscriber struct {
	sock mangos.Socket
}

// NewSubscriber dials addr and subscribes to the event topic
func NewSubscriber(addr string) (*Subscriber, error) {
	sock, err := sub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to open sub socket: %w", err)
	}
	if err := sock.Dial(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	if err := sock.SetOption(mangos.OptionSubscribe, []byte(Topic)); err != nil {
		sock.Close()
		return nil, err
	}
	return &Subscriber{sock: sock}, nil
}

// SetRecvDeadline bounds how long Recv blocks
func (s *Subscriber) SetRecvDeadline(d time.Duration) error {
	return s.sock.SetOption(mangos.OptionRecvDeadline, d)
}

// Recv blocks for the next event
func (s *Subscriber) Recv() (signal.Event, error) {
	var ev signal.Event
	msg, err := s.sock.Recv()
	if err != nil {
		return ev, err
	}
	_, raw, found := bytes.Cut(msg, sep)
	if !found {
		return ev, fmt.Errorf("malformed message: no topic separator")
	}
	if err := json.Unmarshal(raw, &ev); err != nil {
		return ev, fmt.Errorf("failed to decode event: %w", err)
	}
	return ev, nil
}

// Close closes the socket
func (s *Subscriber) Close() error {
	return s.sock.Close()
}
