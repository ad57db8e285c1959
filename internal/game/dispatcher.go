// internal/game/dispatcher.go
package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrDispatcherClosed is returned for actions submitted after Close.
var ErrDispatcherClosed = errors.New("dispatcher is closed")

// Applier applies one action to one game. *Engine is the production implementation.
type Applier interface {
	Apply(ctx context.Context, gameID, userID uuid.UUID, action Action) Outcome
}

// AppliedFunc is called by a game's worker after each applied action, in order.
type AppliedFunc func(gameID uuid.UUID, snap *Snapshot)

type command struct {
	ctx    context.Context
	userID uuid.UUID
	action Action
	reply  chan Outcome
}

type worker struct {
	gameID uuid.UUID
	cmds   chan command
	quit   chan struct{}
	done   chan struct{}
}

// Dispatcher serializes actions per game. Each game with pending work gets one worker
// goroutine that applies its actions one at a time. Different games run in parallel.
// A worker stops once its game completes, after IdleTimeout without work, or on Close.
type Dispatcher struct {
	applier   Applier
	onApplied AppliedFunc
	idle      time.Duration
	log       logrus.FieldLogger

	mu      sync.Mutex
	workers map[uuid.UUID]*worker
	closed  bool
	wg      sync.WaitGroup
}

// DefaultIdleTimeout is how long a worker waits for the next action before exiting.
const DefaultIdleTimeout = 10 * time.Minute

// NewDispatcher builds a dispatcher. onApplied may be nil; idle <= 0 uses DefaultIdleTimeout.
func NewDispatcher(applier Applier, onApplied AppliedFunc, idle time.Duration, log logrus.FieldLogger) *Dispatcher {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		applier:   applier,
		onApplied: onApplied,
		idle:      idle,
		log:       log,
		workers:   make(map[uuid.UUID]*worker),
	}
}

// Submit queues an action for the game and waits for its outcome. If ctx ends before
// the worker accepts the action, the action is dropped and ctx.Err() is returned. Once
// accepted the action always runs to completion and Submit returns its outcome, even if
// ctx is cancelled meanwhile.
func (d *Dispatcher) Submit(ctx context.Context, gameID, userID uuid.UUID, action Action) Outcome {
	cmd := command{ctx: ctx, userID: userID, action: action, reply: make(chan Outcome, 1)}
	for {
		w, err := d.workerFor(gameID)
		if err != nil {
			return rejected(err)
		}
		select {
		case w.cmds <- cmd:
			// Accepted: the caller gets the real outcome, whatever happens to ctx.
			return <-cmd.reply
		case <-w.done:
			// The worker exited between lookup and send; start a fresh one.
		case <-ctx.Done():
			return rejected(ctx.Err())
		}
	}
}

// ActiveWorkers returns the number of games that currently own a worker.
func (d *Dispatcher) ActiveWorkers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.workers)
}

// Close stops every worker after its current action and waits for them to exit.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, w := range d.workers {
		close(w.quit)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) workerFor(gameID uuid.UUID) (*worker, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDispatcherClosed
	}
	if w, ok := d.workers[gameID]; ok {
		return w, nil
	}
	w := &worker{
		gameID: gameID,
		cmds:   make(chan command),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	d.workers[gameID] = w
	d.wg.Add(1)
	go d.run(w)
	return w, nil
}

func (d *Dispatcher) remove(w *worker) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.workers[w.gameID] == w {
		delete(d.workers, w.gameID)
	}
}

func (d *Dispatcher) run(w *worker) {
	defer d.wg.Done()
	defer close(w.done)
	defer d.remove(w)

	entry := d.log.WithField("game_id", w.gameID)
	entry.Debug("game worker started")
	defer entry.Debug("game worker stopped")

	idle := time.NewTimer(d.idle)
	defer idle.Stop()

	for {
		select {
		case cmd := <-w.cmds:
			out := d.applier.Apply(context.WithoutCancel(cmd.ctx), w.gameID, cmd.userID, cmd.action)
			cmd.reply <- out
			if out.Applied() && d.onApplied != nil {
				d.onApplied(w.gameID, out.Snapshot)
			}
			if finished(out) {
				return
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(d.idle)
		case <-idle.C:
			return
		case <-w.quit:
			return
		}
	}
}

// finished reports whether the game can take no further actions.
func finished(out Outcome) bool {
	if out.Applied() {
		return out.Snapshot.State == models.GameStateCompleted
	}
	return errors.Is(out.Err, ErrGameOver) || errors.Is(out.Err, ErrGameNotFound)
}
