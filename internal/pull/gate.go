package pull

import (
	"context"
	"errors"
)

// Mode controls how concurrent Sync calls share the working directory.
type Mode string

const (
	// Concurrent lets every call run the command immediately.
	Concurrent Mode = "off"
	// Queue runs one call at a time; the others wait their turn.
	Queue Mode = "queue"
	// Reject runs one call at a time and refuses the others with ErrBusy.
	Reject Mode = "reject"
)

// ErrBusy is returned by Sync in Reject mode while another run is in flight.
var ErrBusy = errors.New("synchronization already in progress")

// gate admits synchronization runs according to a Mode.
type gate struct {
	mode Mode
	sem  chan struct{}
}

func newGate(mode Mode) *gate {
	return &gate{mode: mode, sem: make(chan struct{}, 1)}
}

// acquire blocks or fails according to the mode. The returned release
// function must be called once the run is over.
func (g *gate) acquire(ctx context.Context) (func(), error) {
	switch g.mode {
	case Queue:
		select {
		case g.sem <- struct{}{}:
			return g.release, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	case Reject:
		select {
		case g.sem <- struct{}{}:
			return g.release, nil
		default:
			return nil, ErrBusy
		}
	default:
		return func() {}, nil
	}
}

func (g *gate) release() {
	<-g.sem
}
