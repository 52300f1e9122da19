package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
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

func Component(name string) Field {
	return String("component", name)
}

// Store names the data copy ("primary", "secondary") an event concerns
func Store(name string) Field {
	return String("store", name)
}

// SQL records statement text. Arguments are never logged.
func SQL(text string) Field {
	return String("sql", text)
}

func QueueDepth(n int) Field {
	return Int("queue_depth", n)
}

func ChangeID(id string) Field {
	return String("change_id", id)
}

// Addr is a backend address as registered with the discovery service
func Addr(addr string) Field {
	return String("addr", addr)
}

func State(s string) Field {
	return String("state", s)
}

func RequestID(id string) Field {
	return String("request_id", id)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}
