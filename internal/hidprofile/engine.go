package hidprofile

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AcceptPollInterval is the accept thread's poll quantum (spec.md §5).
const AcceptPollInterval = 500 * time.Millisecond

// Engine owns a Transport and drives the accept thread plus a single control
// thread, spawned on the first accepted control peer and reading from
// whichever control peer is attached afterwards, per spec.md §5's
// concurrency model.
type Engine struct {
	log       *zap.Logger
	transport Transport
	state     *State

	running atomic.Bool
	group   *errgroup.Group
	cancel  context.CancelFunc
}

// NewEngine builds an Engine over transport, sharing state with whatever
// Emitter/InputEngine the caller also constructs from it.
func NewEngine(log *zap.Logger, transport Transport, state *State) *Engine {
	return &Engine{log: log, transport: transport, state: state}
}

// Start binds the transport and launches the accept loop as a supervised
// goroutine. It returns once startup has either succeeded or failed; Wait
// blocks for the engine's lifetime.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.transport.Start(ctx); err != nil {
		return fmt.Errorf("transport start: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running.Store(true)

	group, groupCtx := errgroup.WithContext(runCtx)
	e.group = group
	group.Go(func() error {
		return e.acceptLoop(groupCtx)
	})
	return nil
}

// Wait blocks until every supervised goroutine (the accept loop and every
// spawned control thread) has returned, then tears down the transport.
func (e *Engine) Wait() error {
	runErr := e.group.Wait()
	e.running.Store(false)
	closeErr := e.transport.Close()
	return multierr.Append(runErr, closeErr)
}

// Shutdown requests a clean stop: cancels the run context, releases the
// shared state (waking any blocked Emitter.Send), and lets Wait return.
func (e *Engine) Shutdown() {
	e.state.Shutdown()
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) acceptLoop(ctx context.Context) error {
	ticker := time.NewTicker(AcceptPollInterval)
	defer ticker.Stop()

	controlSpawned := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if peer, ok, err := e.transport.PollControlAccept(); err != nil {
			e.log.Error("control accept failed", zap.Error(err))
		} else if ok {
			e.state.AttachControl(peer)
			if !controlSpawned {
				controlSpawned = true
				e.group.Go(func() error {
					return e.controlLoop(ctx)
				})
			}
		}

		if peer, ok, err := e.transport.PollInterruptAccept(); err != nil {
			e.log.Error("interrupt accept failed", zap.Error(err))
		} else if ok {
			e.state.AttachInterrupt(peer)
		}
	}
}

// controlLoop performs blocking reads on the current control peer and
// dispatches every message to State.HandleControl. On peer close or a
// receive error it resets the connection and waits for the next control
// peer; it returns only on shutdown.
func (e *Engine) controlLoop(ctx context.Context) error {
	for {
		if !e.running.Load() {
			return nil
		}

		peer := e.state.snapshotControlPeer()
		if peer == nil {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(AcceptPollInterval):
				continue
			}
		}

		msg, err := peer.Recv(ctx)
		if err != nil {
			e.state.Reset()
			continue
		}
		if len(msg) == 0 {
			e.state.Reset()
			continue
		}

		resp, shouldReset := e.state.HandleControl(msg)
		if resp != nil {
			if err := peer.Send(resp); err != nil {
				e.log.Warn("control response send failed", zap.Error(err))
				e.state.Reset()
				continue
			}
		}
		if shouldReset {
			e.state.Reset()
		}
	}
}
