package hydrate

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/temancurhat/gocurhat/internal/store"
	"github.com/temancurhat/gocurhat/pkg/state"
)

// Saver serializes save requests behind a coalescing channel. Mutators hand
// it an already-cloned tree after every change; while a save is in flight,
// newer trees replace the pending one, so only the latest state is written.
// Last write wins.
type Saver struct {
	engine  *Engine
	log     *logrus.Entry
	pending chan *state.AppState
	done    chan struct{}

	// OnQuota is invoked when a save fails on snapshot capacity, so the
	// caller can surface an alert. Other failures are only logged.
	OnQuota func(err error)
}

// NewSaver builds a saver over the engine. Call Run on its own goroutine.
func NewSaver(engine *Engine, log *logrus.Logger) *Saver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Saver{
		engine:  engine,
		log:     log.WithField("component", "saver"),
		pending: make(chan *state.AppState, 1),
		done:    make(chan struct{}),
	}
}

// Notify queues a save of the given tree, which must be a clone the caller
// will not mutate further. An older queued tree is dropped in its favor.
func (s *Saver) Notify(st *state.AppState) {
	for {
		select {
		case s.pending <- st:
			return
		default:
		}
		select {
		case <-s.pending:
		default:
		}
	}
}

// Drain discards any queued tree without saving it. Callers wiping state
// (app reset) drain first so a tree queued before the wipe cannot be
// written back afterwards.
func (s *Saver) Drain() {
	select {
	case <-s.pending:
	default:
	}
}

// Run drains save requests until ctx is canceled.
func (s *Saver) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case st := <-s.pending:
			if err := s.engine.Save(ctx, st); err != nil {
				if errors.Is(err, store.ErrQuotaExceeded) {
					s.log.WithError(err).Warn("snapshot over quota, state kept in memory only")
					if s.OnQuota != nil {
						s.OnQuota(err)
					}
					continue
				}
				s.log.WithError(err).Error("save failed")
			}
		}
	}
}

// Wait blocks until Run has returned.
func (s *Saver) Wait() {
	<-s.done
}
