package logging

import "time"

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Domain field helpers

// Component names the subsystem emitting the entry
func Component(name string) Field {
	return String("component", name)
}

// Node identifies the graph node an entry concerns
func Node(id uint64) Field {
	return Uint64("node", id)
}

// Time is the simulation time an entry concerns (not wall-clock time)
func Time(t float64) Field {
	return Float64("t", t)
}

// EventType names the event kind being processed
func EventType(et string) Field {
	return String("event_type", et)
}
