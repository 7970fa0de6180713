package agent

import (
	"context"
	"testing"
	"time"
)

func TestSimulatedSource_DriftsFromOrigin(t *testing.T) {
	src := &SimulatedSource{
		Origin:   Position{Lat: 23.78, Lng: 90.41},
		Step:     0.01,
		Interval: time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	samples, err := src.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	first := <-samples
	if first.Err != nil || first.Position != (Position{Lat: 23.78, Lng: 90.41}) {
		t.Fatalf("first sample: %+v", first)
	}
	second := <-samples
	if second.Position.Lat <= first.Position.Lat {
		t.Fatalf("track did not drift: %+v then %+v", first.Position, second.Position)
	}

	cancel()
	for range samples {
	}
}
