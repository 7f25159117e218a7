// Package events publishes routing decisions to in-process subscribers and,
// over mangos pub/sub sockets, to external visualisers.
package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Type names an event; it doubles as the subscription topic
type Type string

const (
	NetworkInitialized  Type = "network.initialized"
	PathFound           Type = "path.found"
	PathNotFound        Type = "path.not_found"
	RouteCompleted      Type = "route.completed"
	RouteStalled        Type = "route.stalled"
	PheromoneEvaporated Type = "pheromone.evaporated"
	LoadDecayed         Type = "load.decayed"
)

// ErrMalformedMessage is returned when a received frame cannot be decoded
var ErrMalformedMessage = errors.New("malformed event message")

// Event is one published occurrence. Payload is any JSON-encodable value;
// after decoding from the wire it is a json.RawMessage.
type Event struct {
	Type      Type      `json:"type"`
	RequestID string    `json:"request_id,omitempty"`
	Time      time.Time `json:"time"`
	Payload   any       `json:"payload,omitempty"`
}

// Publisher accepts events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ev Event) error
}

// topicSeparator ends the topic prefix of a wire frame
const topicSeparator = '\n'

// Encode frames ev as "<type>\n<json>" so subscribers can filter on the
// type prefix
func Encode(ev Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	frame := make([]byte, 0, len(ev.Type)+1+len(body))
	frame = append(frame, ev.Type...)
	frame = append(frame, topicSeparator)
	return append(frame, body...), nil
}

// Decode parses a frame produced by Encode
func Decode(frame []byte) (Event, error) {
	i := bytes.IndexByte(frame, topicSeparator)
	if i <= 0 {
		return Event{}, ErrMalformedMessage
	}

	var wire struct {
		Type      Type            `json:"type"`
		RequestID string          `json:"request_id"`
		Time      time.Time       `json:"time"`
		Payload   json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(frame[i+1:], &wire); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if string(frame[:i]) != string(wire.Type) {
		return Event{}, fmt.Errorf("%w: topic %q does not match type %q", ErrMalformedMessage, frame[:i], wire.Type)
	}

	ev := Event{Type: wire.Type, RequestID: wire.RequestID, Time: wire.Time}
	if len(wire.Payload) > 0 {
		ev.Payload = wire.Payload
	}
	return ev, nil
}

// Multi fans an event out to several publishers and joins their errors
type Multi []Publisher

// Publish implements Publisher
func (m Multi) Publish(ev Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event
type Discard struct{}

// Publish implements Publisher
func (Discard) Publish(Event) error { return nil }
