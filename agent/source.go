package agent

import (
	"context"
	"time"
)

// SimulatedSource is a PositionSource that drifts from an origin point at a
// fixed interval. Terminals have no geolocation hardware, so the client
// feeds the publisher a simulated device track instead.
type SimulatedSource struct {
	// Origin is the first sample.
	Origin Position
	// Step is added to both coordinates on every sample after the first.
	Step float64
	// Interval is the sampling rate. Zero defaults to 5 seconds.
	Interval time.Duration
}

// Watch emits the drifting track until ctx is cancelled.
func (s *SimulatedSource) Watch(ctx context.Context) (<-chan Sample, error) {
	interval := s.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	out := make(chan Sample)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		pos := s.Origin
		for {
			select {
			case <-ctx.Done():
				return
			case out <- Sample{Position: pos}:
				pos.Lat += s.Step
				pos.Lng += s.Step
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out, nil
}
