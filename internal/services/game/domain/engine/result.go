package engine

import (
	"context"

	"github.com/louisbranch/flatline/internal/services/game/domain/logfeed"
)

// Result is the outcome of one action. It is never persisted.
type Result struct {
	// Success is false for rejections, faults, and in-game losses such as
	// a traced attack. A loss may still have changed state.
	Success bool `json:"success"`
	// Code is the rejection or fault code; empty when the action committed.
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message"`
	Detail  map[string]any `json:"detail,omitempty"`
	// Entries are the log entries this action published, in order.
	Entries []logfeed.Entry `json:"entries"`
	// Persisted reports whether the post-commit save succeeded. Actions that
	// changed nothing are not saved and report false.
	Persisted bool `json:"persisted"`
}

// Task is a submitted action awaiting its commit.
type Task struct {
	done   chan struct{}
	result Result
	err    error
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

func failedTask(err error) *Task {
	t := newTask()
	t.resolve(Result{}, err)
	return t
}

func (t *Task) resolve(result Result, err error) {
	t.result = result
	t.err = err
	close(t.done)
}

// Done is closed once the action has committed.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the action commits or ctx ends. Ending ctx only stops
// the wait; the action still commits.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
