package events

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"
	"go.nanomsg.org/mangos/v3/protocol/sub"

	// Register all transports (inproc, ipc, tcp, ws)
	_ "go.nanomsg.org/mangos/v3/transport/all"
)

// ErrClosed is returned by operations on a closed socket
var ErrClosed = errors.New("event socket closed")

// SocketPublisher broadcasts encoded events on a mangos PUB socket.
// Publishing never blocks on slow or absent subscribers.
type SocketPublisher struct {
	mu     sync.Mutex
	sock   mangos.Socket
	addr   string
	closed bool
}

// Listen creates a PUB socket bound to addr, e.g. "tcp://127.0.0.1:7700"
// or "inproc://route-events"
func Listen(addr string) (*SocketPublisher, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to bind PUB socket to %s: %w", addr, err)
	}
	return &SocketPublisher{sock: sock, addr: addr}, nil
}

// Addr returns the address the socket listens on
func (p *SocketPublisher) Addr() string {
	return p.addr
}

// Publish implements Publisher
func (p *SocketPublisher) Publish(ev Event) error {
	frame, err := Encode(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if err := p.sock.Send(frame); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Close closes the socket
func (p *SocketPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.sock.Close()
}

// Subscriber receives events from a SocketPublisher
type Subscriber struct {
	sock mangos.Socket
}

// Dial connects a SUB socket to addr and subscribes to the given types; no
// types means every event. Dialing does not wait for the publisher to exist.
func Dial(addr string, types ...Type) (*Subscriber, error) {
	sock, err := sub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}

	topics := make([][]byte, 0, len(types))
	for _, t := range types {
		topics = append(topics, append([]byte(t), topicSeparator))
	}
	if len(topics) == 0 {
		topics = append(topics, []byte{})
	}
	for _, topic := range topics {
		if err := sock.SetOption(mangos.OptionSubscribe, topic); err != nil {
			sock.Close()
			return nil, fmt.Errorf("failed to subscribe: %w", err)
		}
	}

	if err := sock.DialOptions(addr, map[string]any{mangos.OptionDialAsynch: true}); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &Subscriber{sock: sock}, nil
}

// Receive waits up to timeout for the next event; a zero timeout waits forever.
// A timeout returns mangos.ErrRecvTimeout.
func (s *Subscriber) Receive(timeout time.Duration) (Event, error) {
	if timeout > 0 {
		if err := s.sock.SetOption(mangos.OptionRecvDeadline, timeout); err != nil {
			return Event{}, err
		}
	}
	frame, err := s.sock.Recv()
	if err != nil {
		return Event{}, err
	}
	return Decode(frame)
}

// Close closes the socket
func (s *Subscriber) Close() error {
	return s.sock.Close()
}
