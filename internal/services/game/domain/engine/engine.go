package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/louisbranch/flatline/internal/platform/otel"
	"github.com/louisbranch/flatline/internal/services/game/domain/action"
	"github.com/louisbranch/flatline/internal/services/game/domain/aggregate"
	"github.com/louisbranch/flatline/internal/services/game/domain/command"
	"github.com/louisbranch/flatline/internal/services/game/domain/event"
	"github.com/louisbranch/flatline/internal/services/game/domain/logfeed"
	"github.com/louisbranch/flatline/internal/services/game/domain/player"
	"github.com/louisbranch/flatline/internal/services/game/storage"
	"go.opentelemetry.io/otel/trace"
)

// DefaultDelay is the simulated resolution delay applied to every action.
const DefaultDelay = 350 * time.Millisecond

// Decider returns a decision for a validated command.
type Decider interface {
	Decide(state player.State, cmd command.Command, now time.Time) command.Decision
}

// Config wires an Engine.
type Config struct {
	// Snapshots persists the operator snapshot. Nil runs in memory only.
	Snapshots storage.SnapshotStore
	// Profiles persists the profile document. Nil runs in memory only.
	Profiles storage.ProfileStore
	// Decider resolves actions. Nil uses the default balance with a
	// crypto-seeded random source.
	Decider Decider
	// Feed receives log entries. Nil builds one with LogCapacity.
	Feed        *logfeed.Feed
	LogCapacity int
	// Delay is the simulated resolution delay. Negative means none; zero
	// means DefaultDelay.
	Delay  time.Duration
	Now    func() time.Time
	Logger *log.Logger
}

// Engine is the single owner of the operator state. It is safe for
// concurrent use.
type Engine struct {
	commands  *command.Registry
	events    *event.Registry
	decider   Decider
	snapshots storage.SnapshotStore
	profiles  storage.ProfileStore
	feed      *logfeed.Feed
	delay     time.Duration
	now       func() time.Time
	logger    *log.Logger
	tracer    trace.Tracer

	mu          sync.RWMutex
	status      Status
	state       player.State
	profile     player.Profile
	actionCount int64
	eventSeq    uint64
	tail        chan struct{}

	inflight sync.WaitGroup
	stopped  atomic.Bool
}

// New builds an engine in the Uninitialized state.
func New(cfg Config) (*Engine, error) {
	commands := command.NewRegistry()
	if err := action.RegisterCommands(commands); err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}
	events := event.NewRegistry()
	if err := aggregate.RegisterEvents(events); err != nil {
		return nil, fmt.Errorf("register events: %w", err)
	}

	decider := cfg.Decider
	if decider == nil {
		d, err := action.NewDecider(action.DefaultBalance(), nil)
		if err != nil {
			return nil, fmt.Errorf("build decider: %w", err)
		}
		decider = d
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	feed := cfg.Feed
	if feed == nil {
		feed = logfeed.New(logfeed.Options{
			Capacity: cfg.LogCapacity,
			Now:      now,
			OnListenerFailure: func(recovered any) {
				logger.Printf("log listener failed: %v", recovered)
			},
		})
	}
	delay := cfg.Delay
	switch {
	case delay == 0:
		delay = DefaultDelay
	case delay < 0:
		delay = 0
	}

	tail := make(chan struct{})
	close(tail)

	return &Engine{
		commands:  commands,
		events:    events,
		decider:   decider,
		snapshots: cfg.Snapshots,
		profiles:  cfg.Profiles,
		feed:      feed,
		delay:     delay,
		now:       now,
		logger:    logger,
		tracer:    otel.Tracer("github.com/louisbranch/flatline/engine"),
		status:    StatusUninitialized,
		state:     player.Default(),
		tail:      tail,
	}, nil
}

// Init loads persisted state and publishes the boot sequence. Storage
// failures degrade to defaults with a warning entry; they are never fatal.
func (e *Engine) Init(ctx context.Context) error {
	e.mu.Lock()
	switch e.status {
	case StatusClosed:
		e.mu.Unlock()
		return ErrClosed
	case StatusUninitialized:
	default:
		e.mu.Unlock()
		return ErrAlreadyInitialized
	}
	e.status = StatusLoading
	e.mu.Unlock()

	ctx, span := e.tracer.Start(ctx, "engine.init")
	defer span.End()

	state := player.Default()
	var actionCount int64
	if e.snapshots != nil {
		snapshot, err := e.snapshots.LoadSnapshot(ctx)
		switch {
		case err == nil:
			state = snapshot.Player
			actionCount = snapshot.ActionCount
		case errors.Is(err, storage.ErrNotFound):
		default:
			e.logger.Printf("load snapshot: %v", err)
			e.feed.Emit(logfeed.LevelWarn, "[WARN] Saved session unreadable. Starting from a clean image.")
		}
	}

	var profile player.Profile
	if e.profiles != nil {
		loaded, err := e.profiles.LoadProfile(ctx)
		switch {
		case err == nil:
			profile = loaded
		case errors.Is(err, storage.ErrNotFound):
		default:
			e.logger.Printf("load profile: %v", err)
			e.feed.Emit(logfeed.LevelWarn, "[WARN] Saved profile unreadable. Profile reset.")
		}
	}

	e.mu.Lock()
	if e.status == StatusClosed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.state = state
	e.profile = profile
	e.actionCount = actionCount
	e.mu.Unlock()

	// Boot lines go out before any action can be accepted.
	for _, line := range bootLines {
		e.feed.Emit(line.Level, line.Text)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == StatusClosed {
		return ErrClosed
	}
	e.status = StatusReady
	return nil
}

// Status returns the lifecycle state.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// State returns a copy of the operator state.
func (e *Engine) State() player.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// ActionCount returns how many actions have changed state, across restarts.
func (e *Engine) ActionCount() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.actionCount
}

// Profile returns the profile document.
func (e *Engine) Profile() player.Profile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.profile
}

// Logs returns the retained log entries, oldest first.
func (e *Engine) Logs() []logfeed.Entry {
	return e.feed.Entries()
}

// FilterLogs returns the retained entries matching an AIP-160 filter.
func (e *Engine) FilterLogs(filter string) ([]logfeed.Entry, error) {
	return e.feed.Filter(filter)
}

// SubscribeLogs registers listener for entries published from now on.
func (e *Engine) SubscribeLogs(listener logfeed.Listener) (unsubscribe func()) {
	return e.feed.Subscribe(listener)
}

// LogStats returns feed counters.
func (e *Engine) LogStats() logfeed.Stats {
	return e.feed.Stats()
}

// LogsDone is closed when the engine tears its log feed down.
func (e *Engine) LogsDone() <-chan struct{} {
	return e.feed.Done()
}

// Catalog returns the target catalog when the decider exposes one.
func (e *Engine) Catalog() *action.Catalog {
	if d, ok := e.decider.(interface{ Catalog() *action.Catalog }); ok {
		return d.Catalog()
	}
	return nil
}

// Teardown stops accepting actions, waits for in-flight ones to commit,
// and closes the log feed. No save happens after Teardown returns.
func (e *Engine) Teardown(ctx context.Context) error {
	e.mu.Lock()
	if e.status == StatusClosed {
		e.mu.Unlock()
		return nil
	}
	e.status = StatusClosed
	e.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(drained)
	}()

	var err error
	select {
	case <-drained:
	case <-ctx.Done():
		err = ctx.Err()
	}
	e.stopped.Store(true)
	e.feed.Close()
	return err
}
