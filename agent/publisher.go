package agent

import (
	"context"
	"sync"

	"courierflow/parcel"
)

// Position is a device coordinate sample.
type Position struct {
	Lat float64
	Lng float64
}

// Sample is one reading from a PositionSource. A non-nil Err reports a
// sampling failure; the position is then meaningless.
type Sample struct {
	Position Position
	Err      error
}

// PositionSource abstracts the device's continuous position-sampling
// capability. Watch starts sampling at whatever rate the device provides and
// delivers samples until ctx is cancelled, after which the channel is
// closed. The source owns any platform-level retry behavior; the publisher
// adds none.
type PositionSource interface {
	Watch(ctx context.Context) (<-chan Sample, error)
}

// State describes the publisher's lifecycle.
type State int

const (
	// StateIdle means no parcel is in an active-delivery status and no
	// sampling subscription is held.
	StateIdle State = iota
	// StateWatching means a sampling subscription is live and each sample
	// is forwarded for every active parcel.
	StateWatching
	// StateStopped means the publisher was shut down on view unmount and
	// will not start again.
	StateStopped
)

// Publisher forwards device position samples as location commands while the
// agent has parcels out for delivery. Each sample is published once per
// active parcel, so an agent holding several concurrent deliveries feeds all
// of them rather than only the first found.
//
// The sampling subscription is the publisher's only long-lived resource. It
// is released when the qualifying set becomes empty, on sampling failure,
// and on Stop; Stop releases it exactly once and is terminal.
type Publisher struct {
	api     API
	source  PositionSource
	onError func(error)

	mu      sync.Mutex
	state   State
	active  []string
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewPublisher builds a publisher. onError surfaces sampling and publish
// failures to the operator; it may be nil.
func NewPublisher(api API, source PositionSource, onError func(error)) *Publisher {
	if onError == nil {
		onError = func(error) {}
	}
	return &Publisher{api: api, source: source, onError: onError}
}

// State returns the current lifecycle state.
func (p *Publisher) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Update recomputes the qualifying parcel set from the agent's jobs and
// starts or releases the sampling subscription accordingly. Safe to call on
// every jobs refresh.
func (p *Publisher) Update(jobs []parcel.Parcel) {
	active := make([]string, 0, len(jobs))
	for _, job := range jobs {
		if job.Status.Active() {
			active = append(active, job.ID)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateStopped {
		return
	}

	p.active = active

	switch {
	case len(active) == 0 && p.state == StateWatching:
		p.releaseLocked()
		p.state = StateIdle
	case len(active) > 0 && p.state == StateIdle:
		p.startLocked()
	}
}

// Stop releases the subscription and permanently shuts the publisher down,
// as the view does on unmount. Idempotent; the release happens exactly once.
func (p *Publisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateStopped {
		return
	}
	if p.state == StateWatching {
		p.releaseLocked()
	}
	p.state = StateStopped
}

// startLocked begins a sampling subscription. Caller holds p.mu.
func (p *Publisher) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())

	samples, err := p.source.Watch(ctx)
	if err != nil {
		cancel()
		p.onError(err)
		return
	}

	p.cancel = cancel
	p.stopped = make(chan struct{})
	p.state = StateWatching

	go p.run(ctx, samples, p.stopped)
}

// releaseLocked cancels the subscription. Caller holds p.mu.
func (p *Publisher) releaseLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.stopped = nil
}

// run forwards samples until the subscription ends or sampling fails.
func (p *Publisher) run(ctx context.Context, samples <-chan Sample, stopped chan struct{}) {
	defer close(stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case sample, ok := <-samples:
			if !ok {
				return
			}
			if sample.Err != nil {
				p.onError(sample.Err)
				p.failed(stopped)
				return
			}
			p.publish(ctx, sample.Position)
		}
	}
}

// failed releases the subscription after a sampling error, unless a newer
// subscription has already replaced this one.
func (p *Publisher) failed(stopped chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateWatching || p.stopped != stopped {
		return
	}
	p.releaseLocked()
	p.state = StateIdle
}

// publish forwards one sample for every currently active parcel. Publish
// failures are surfaced but do not stop sampling; the next sample may
// succeed.
func (p *Publisher) publish(ctx context.Context, pos Position) {
	p.mu.Lock()
	ids := append([]string(nil), p.active...)
	p.mu.Unlock()

	for _, id := range ids {
		if err := p.api.UpdateLocation(ctx, id, pos.Lat, pos.Lng); err != nil {
			p.onError(err)
		}
	}
}
