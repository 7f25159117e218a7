package logging

import (
	"math"
	"strconv"
	"time"
)

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

// Float64 records value; +Inf, -Inf and NaN are written as strings since JSON
// has no literal for them
func Float64(key string, value float64) Field {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return Field{Key: key, Value: strconv.FormatFloat(value, 'g', -1, 64)}
	}
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

// Domain fields

func Component(name string) Field {
	return String("component", name)
}

func Operation(op string) Field {
	return String("operation", op)
}

func RequestID(id string) Field {
	return String("request_id", id)
}

func NodeID[T ~int](id T) Field {
	return Int("node_id", int(id))
}

func Source[T ~int](id T) Field {
	return Int("source", int(id))
}

func Destination[T ~int](id T) Field {
	return Int("destination", int(id))
}

// Path records a node sequence as plain ints
func Path[T ~int](path []T) Field {
	ids := make([]int, len(path))
	for i, id := range path {
		ids[i] = int(id)
	}
	return Field{Key: "path", Value: ids}
}

func Cost(c float64) Field {
	return Float64("cost", c)
}

func Hops(n int) Field {
	return Int("hops", n)
}

func Seed(seed uint64) Field {
	return Uint64("seed", seed)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}
