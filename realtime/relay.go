package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

// Event names exchanged with the realtime channel.
const (
	// EventStatusUpdated carries {parcelId, status}.
	EventStatusUpdated = "parcel-status-updated"
	// EventLocationUpdated carries {parcelId, lat, lng}.
	EventLocationUpdated = "parcel-location-updated"
	// EventLiveLocation is a legacy alias for EventLocationUpdated still
	// emitted by one backend variant. Same payload.
	EventLiveLocation = "live-location"

	eventJoinRoom = "join-room"
)

// maxReconnectAttempts bounds automatic reconnection after a dropped
// connection. The transport is websocket only; there is no polling fallback.
const maxReconnectAttempts = 5

// StatusUpdate is the payload of EventStatusUpdated.
type StatusUpdate struct {
	ParcelID string `json:"parcelId"`
	Status   string `json:"status"`
}

// LocationUpdate is the payload of EventLocationUpdated and its legacy alias.
type LocationUpdate struct {
	ParcelID string  `json:"parcelId"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// Handler consumes the raw payload of a named event.
type Handler func(data json.RawMessage)

// frame is the wire shape of every message in both directions.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ErrClosed is returned by operations on a closed relay.
var ErrClosed = errors.New("realtime: relay closed")

// ErrNotConnected is returned when emitting without an established
// connection.
var ErrNotConnected = errors.New("realtime: not connected")

// Relay is the single persistent push channel to the backend. It is
// established once at process start, independent of any view, and lives for
// the life of the process. Views attach and detach named event listeners on
// mount and unmount; one handler per event name, the last registration wins.
//
// No ordering, delivery or dedup guarantee exists beyond what the transport
// provides: events are dispatched as read.
type Relay struct {
	url    string
	dialer *websocket.Dialer

	// onDisconnect, when set, is invoked once reconnection is exhausted.
	onDisconnect func(error)

	mu         sync.Mutex
	conn       *websocket.Conn
	connecting bool
	handlers   map[string]Handler
	rooms      map[string]struct{}
	closed     bool

	writeMu sync.Mutex
}

// Option configures a Relay.
type Option func(*Relay)

// WithDisconnectHandler installs a callback invoked when the relay gives up
// reconnecting. Without it the relay simply goes silent.
func WithDisconnectHandler(fn func(error)) Option {
	return func(r *Relay) { r.onDisconnect = fn }
}

// SetDisconnectHandler replaces the disconnect callback. Call before Connect.
func (r *Relay) SetDisconnectHandler(fn func(error)) {
	r.onDisconnect = fn
}

// New builds a relay for the given websocket URL (e.g.
// "ws://localhost:3000/ws"). Call Connect to establish the channel.
func New(socketURL string, opts ...Option) *Relay {
	r := &Relay{
		url:      socketURL,
		dialer:   websocket.DefaultDialer,
		handlers: make(map[string]Handler),
		rooms:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect dials the channel and starts dispatching incoming events. It
// returns once the connection is established; reading happens in the
// background until Close or reconnection exhaustion. Concurrent and repeated
// calls coalesce onto a single connection.
func (r *Relay) Connect(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if r.conn != nil || r.connecting {
		r.mu.Unlock()
		return nil
	}
	r.connecting = true
	r.mu.Unlock()

	conn, resp, err := r.dialer.DialContext(ctx, r.url, nil)

	r.mu.Lock()
	r.connecting = false
	if err != nil {
		r.mu.Unlock()
		if resp != nil {
			return fmt.Errorf("realtime: dial %s: status %d: %w", r.url, resp.StatusCode, err)
		}
		return fmt.Errorf("realtime: dial %s: %w", r.url, err)
	}
	if r.closed {
		r.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	r.conn = conn
	rooms := make([]string, 0, len(r.rooms))
	for room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.Unlock()

	// Flush rooms joined before the channel was up.
	for _, room := range rooms {
		if err := r.emit(conn, eventJoinRoom, room); err != nil {
			return err
		}
	}

	go r.readLoop(conn)
	return nil
}

// Close tears down the connection and stops reconnection. Idempotent.
func (r *Relay) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// On attaches the handler for a named event, replacing any previous one.
func (r *Relay) On(event string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[event] = h
}

// Off detaches the handler for a named event.
func (r *Relay) Off(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, event)
}

// OnStatusUpdated attaches a typed handler for parcel status events.
func (r *Relay) OnStatusUpdated(fn func(StatusUpdate)) {
	r.On(EventStatusUpdated, func(data json.RawMessage) {
		var update StatusUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			return
		}
		fn(update)
	})
}

// OnLocationUpdated attaches a typed handler for live-location events,
// covering both the current event name and the legacy alias.
func (r *Relay) OnLocationUpdated(fn func(LocationUpdate)) {
	h := func(data json.RawMessage) {
		var update LocationUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			return
		}
		fn(update)
	}
	r.On(EventLocationUpdated, h)
	r.On(EventLiveLocation, h)
}

// OffParcelEvents detaches the parcel status and location handlers, as a
// view does on unmount.
func (r *Relay) OffParcelEvents() {
	r.Off(EventStatusUpdated)
	r.Off(EventLocationUpdated)
	r.Off(EventLiveLocation)
}

// JoinRoom subscribes this client to a server-side room (for customers,
// "customer_{userID}"). The room is remembered and re-joined after a
// reconnect. Joining while disconnected is not an error; the join is sent
// once the channel comes back.
func (r *Relay) JoinRoom(room string) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.rooms[room] = struct{}{}
	conn := r.conn
	r.mu.Unlock()

	if conn == nil {
		return nil
	}
	return r.emit(conn, eventJoinRoom, room)
}

// Emit sends a named event with a JSON payload.
func (r *Relay) Emit(event string, data any) error {
	r.mu.Lock()
	conn := r.conn
	closed := r.closed
	r.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if conn == nil {
		return ErrNotConnected
	}
	return r.emit(conn, event, data)
}

func (r *Relay) emit(conn *websocket.Conn, event string, data any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("realtime: encode %s payload: %w", event, err)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := conn.WriteJSON(frame{Event: event, Data: encoded}); err != nil {
		return fmt.Errorf("realtime: emit %s: %w", event, err)
	}
	return nil
}

// readLoop dispatches incoming frames until the connection drops, then
// drives bounded reconnection. It exits when the relay is closed or the
// reconnect budget is spent.
func (r *Relay) readLoop(conn *websocket.Conn) {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			r.mu.Lock()
			closed := r.closed
			r.mu.Unlock()
			if closed {
				return
			}

			next, rerr := r.reconnect()
			if rerr != nil {
				if r.onDisconnect != nil {
					r.onDisconnect(rerr)
				}
				return
			}
			conn = next
			continue
		}

		r.mu.Lock()
		h := r.handlers[f.Event]
		r.mu.Unlock()
		if h != nil {
			h(f.Data)
		}
	}
}

// reconnect re-dials with exponential backoff, bounded to
// maxReconnectAttempts, and re-joins previously joined rooms.
func (r *Relay) reconnect() (*websocket.Conn, error) {
	var conn *websocket.Conn

	operation := func() error {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return backoff.Permanent(ErrClosed)
		}
		r.mu.Unlock()

		next, _, err := r.dialer.Dial(r.url, nil)
		if err != nil {
			return err
		}
		conn = next
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	if err := backoff.Retry(operation, backoff.WithMaxRetries(bo, maxReconnectAttempts-1)); err != nil {
		return nil, fmt.Errorf("realtime: reconnect: %w", err)
	}

	r.mu.Lock()
	r.conn = conn
	rooms := make([]string, 0, len(r.rooms))
	for room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.Unlock()

	for _, room := range rooms {
		if err := r.emit(conn, eventJoinRoom, room); err != nil {
			return nil, err
		}
	}
	return conn, nil
}
