// episignal-watch follows the live event stream of a running scenario
// and prints one line per event.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dd0wney/episignal/pkg/stream"
)

func main() {
	addr := flag.String("addr", "tcp://127.0.0.1:40899", "Event stream address to dial")
	idle := flag.Duration("idle", 30*time.Second, "Exit after this long without an event")
	flag.Parse()

	sub, err := stream.NewSubscriber(*addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "episignal-watch: %v\n", err)
		os.Exit(1)
	}
	defer sub.Close()
	if err := sub.SetRecvDeadline(*idle); err != nil {
		fmt.Fprintf(os.Stderr, "episignal-watch: %v\n", err)
		os.Exit(1)
	}

	for {
		ev, err := sub.Recv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "episignal-watch: %v\n", err)
			os.Exit(1)
		}
		if ev.From != 0 {
			fmt.Printf("t=%-8g %-9s node=%d from=%d\n", ev.Time, ev.Type, ev.Node, ev.From)
		} else {
			fmt.Printf("t=%-8g %-9s node=%d\n", ev.Time, ev.Type, ev.Node)
		}
	}
}
