package agent

import (
	"context"
	"errors"
	"sync"
)

// ErrNoOutput is returned when a run finishes without any event that carries
// text.
var ErrNoOutput = errors.New("pipeline produced no output")

// Stream is a pull-based iterator over the events of one pipeline run.
// Events are produced by a goroutine while the caller consumes them.
//
// Callers must call Close when done.
type Stream struct {
	ch        <-chan Event
	errCh     <-chan error
	cancel    context.CancelFunc
	closeOnce sync.Once
	err       error
	mode      Mode
}

// emitFunc hands one event to the consumer, blocking until it is taken or
// the run is cancelled.
type emitFunc func(Event) error

func newStream(ctx context.Context, mode Mode, producer func(ctx context.Context, emit emitFunc) error) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan Event)
	errCh := make(chan error, 1)

	go func() {
		defer close(ch)
		defer close(errCh)

		produced := false
		emit := func(ev Event) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ch <- ev:
				if ev.HasText() {
					produced = true
				}
				return nil
			}
		}

		err := producer(ctx, emit)
		if err == nil && !produced {
			err = ErrNoOutput
		}
		if err != nil {
			errCh <- err
		}
	}()

	return &Stream{
		ch:     ch,
		errCh:  errCh,
		cancel: cancel,
		mode:   mode,
	}
}

// Mode is the coordinator branch this run took.
func (s *Stream) Mode() Mode { return s.mode }

// Next returns the next event. ok is false once the run is over; err is then
// the run's terminal error (ErrNoOutput, a step failure, or nil).
func (s *Stream) Next(ctx context.Context) (ev Event, ok bool, err error) {
	select {
	case <-ctx.Done():
		return Event{}, false, ctx.Err()
	case v, open := <-s.ch:
		if !open {
			if e, has := <-s.errCh; has && s.err == nil {
				s.err = e
			}
			return Event{}, false, s.err
		}
		return v, true, nil
	}
}

// Collect drains the stream and returns every event.
func (s *Stream) Collect(ctx context.Context) ([]Event, error) {
	var events []Event
	for {
		ev, ok, err := s.Next(ctx)
		if err != nil {
			return events, err
		}
		if !ok {
			return events, nil
		}
		events = append(events, ev)
	}
}

// Close cancels the producer and releases its goroutine. Safe to call more
// than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		for range s.ch {
		}
	})
	return nil
}
