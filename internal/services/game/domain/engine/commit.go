package engine

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	apperrors "github.com/louisbranch/flatline/internal/platform/errors"
	"github.com/louisbranch/flatline/internal/services/game/domain/aggregate"
	"github.com/louisbranch/flatline/internal/services/game/domain/command"
	"github.com/louisbranch/flatline/internal/services/game/domain/event"
	"github.com/louisbranch/flatline/internal/services/game/domain/logfeed"
	"github.com/louisbranch/flatline/internal/services/game/domain/player"
	"github.com/louisbranch/flatline/internal/services/game/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type job func(ctx context.Context) Result

// Submit queues cmd and returns immediately. The returned task resolves
// once the command has committed.
func (e *Engine) Submit(cmd command.Command) *Task {
	return e.submitCommand(context.Background(), cmd)
}

// Execute queues cmd and waits for its result. Ending ctx stops the wait
// only; the command still commits.
func (e *Engine) Execute(ctx context.Context, cmd command.Command) (Result, error) {
	return e.submitCommand(ctx, cmd).Wait(ctx)
}

func (e *Engine) submitCommand(ctx context.Context, cmd command.Command) *Task {
	if cmd.ActorID == "" {
		cmd.ActorID = e.State().Username
	}
	attrs := []attribute.KeyValue{attribute.String("command.type", string(cmd.Type))}
	if cmd.RequestID != "" {
		attrs = append(attrs, attribute.String("request.id", cmd.RequestID))
	}
	return e.enqueue(ctx, "engine.command", func(ctx context.Context) Result {
		return e.commitCommand(ctx, cmd)
	}, attrs...)
}

// enqueue takes the next ticket. The delay runs concurrently with other
// tickets; run itself starts only after the previous ticket has committed.
func (e *Engine) enqueue(ctx context.Context, spanName string, run job, attrs ...attribute.KeyValue) *Task {
	e.mu.Lock()
	switch e.status {
	case StatusReady:
	case StatusClosed:
		e.mu.Unlock()
		return failedTask(ErrClosed)
	default:
		e.mu.Unlock()
		return failedTask(ErrNotReady)
	}
	prev := e.tail
	done := make(chan struct{})
	e.tail = done
	e.inflight.Add(1)
	e.mu.Unlock()

	task := newTask()
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer e.inflight.Done()
		defer close(done)

		if e.delay > 0 {
			timer := time.NewTimer(e.delay)
			<-timer.C
		}
		<-prev

		ctx, span := e.tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
		result := e.guard(ctx, run)
		span.SetAttributes(attribute.Bool("result.success", result.Success))
		if result.Code != "" {
			span.SetAttributes(attribute.String("result.code", result.Code))
		}
		span.End()
		task.resolve(result, nil)
	}()
	return task
}

// checkpoint is the committed engine state a panicking job is rolled back to.
type checkpoint struct {
	state       player.State
	profile     player.Profile
	actionCount int64
	eventSeq    uint64
}

// guard keeps a panicking commit from taking the process down and puts
// back whatever the job had already swapped in.
func (e *Engine) guard(ctx context.Context, run job) (result Result) {
	e.mu.RLock()
	saved := checkpoint{
		state:       e.state.Clone(),
		profile:     e.profile,
		actionCount: e.actionCount,
		eventSeq:    e.eventSeq,
	}
	e.mu.RUnlock()

	defer func() {
		if recovered := recover(); recovered != nil {
			e.mu.Lock()
			e.state = saved.state
			e.profile = saved.profile
			e.actionCount = saved.actionCount
			e.eventSeq = saved.eventSeq
			e.mu.Unlock()
			result = e.fault(ctx, "commit", fmt.Errorf("panic: %v", recovered))
		}
	}()
	return run(ctx)
}

func (e *Engine) commitCommand(ctx context.Context, cmd command.Command) Result {
	validated, err := e.commands.ValidateForDecision(cmd)
	if err != nil {
		code := apperrors.CodeCommandPayloadInvalid
		if errors.Is(err, command.ErrTypeRequired) || errors.Is(err, command.ErrTypeUnknown) {
			code = apperrors.CodeCommandTypeUnknown
		}
		return Result{
			Code:    string(code),
			Message: err.Error(),
			Entries: e.publish([]command.Note{command.Warn("[ERR] Command refused: " + html.EscapeString(err.Error()))}),
		}
	}

	e.mu.RLock()
	before := e.state.Clone()
	seq := e.eventSeq
	e.mu.RUnlock()

	decision, err := e.decide(before, validated, e.now().UTC())
	if err != nil {
		return e.fault(ctx, string(validated.Type), err)
	}
	if decision.Rejected() {
		rejection := decision.Rejections[0]
		return Result{
			Code:    rejection.Code,
			Message: rejection.Message,
			Detail:  decision.Detail,
			Entries: e.publish(decision.Notes),
		}
	}
	if len(decision.Events) == 0 {
		return Result{
			Success: !decision.Failed,
			Message: headline(decision.Notes),
			Detail:  decision.Detail,
			Entries: e.publish(decision.Notes),
		}
	}

	events := make([]event.Event, 0, len(decision.Events))
	for i, evt := range decision.Events {
		vetted, err := e.events.ValidateForAppend(evt)
		if err != nil {
			return e.fault(ctx, string(validated.Type), err)
		}
		vetted.Seq = seq + uint64(i) + 1
		events = append(events, vetted)
	}
	after, err := aggregate.FoldAll(before, events)
	if err != nil {
		return e.fault(ctx, string(validated.Type), err)
	}

	e.mu.Lock()
	e.state = after
	e.eventSeq = seq + uint64(len(events))
	e.actionCount++
	snapshot := storage.Snapshot{Player: after.Clone(), ActionCount: e.actionCount}
	e.mu.Unlock()

	result := Result{
		Success: !decision.Failed,
		Message: headline(decision.Notes),
		Detail:  decision.Detail,
		Entries: e.publish(decision.Notes),
	}
	result.Persisted, result.Entries = e.saveSnapshot(ctx, snapshot, result.Entries)
	return result
}

func (e *Engine) decide(state player.State, cmd command.Command, now time.Time) (decision command.Decision, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("decide %s: panic: %v", cmd.Type, recovered)
		}
	}()
	return e.decider.Decide(state, cmd, now), nil
}

// fault reports an internal failure. Callers reach it before swapping
// state, or from guard after the rollback.
func (e *Engine) fault(ctx context.Context, what string, err error) Result {
	e.logger.Printf("internal fault in %s: %v", what, err)
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return Result{
		Code:    string(apperrors.CodeInternal),
		Message: "internal fault: " + err.Error(),
		Entries: e.publish([]command.Note{command.Error("[FAULT] Action aborted by an internal error. State restored.")}),
	}
}

// publish turns notes into entries and publishes them in order.
func (e *Engine) publish(notes []command.Note) []logfeed.Entry {
	entries := make([]logfeed.Entry, 0, len(notes))
	for _, note := range notes {
		entry := e.feed.NewEntry(note.Level, note.Text)
		e.feed.Publish(entry)
		entries = append(entries, entry)
	}
	return entries
}

// saveSnapshot runs inside the commit step so the last commit is the last
// write. A failure leaves the in-memory state authoritative.
func (e *Engine) saveSnapshot(ctx context.Context, snapshot storage.Snapshot, entries []logfeed.Entry) (bool, []logfeed.Entry) {
	if e.snapshots == nil || e.stopped.Load() {
		return false, entries
	}
	err := recoverSave(func() error { return e.snapshots.SaveSnapshot(ctx, snapshot) })
	if err != nil {
		return false, append(entries, e.saveFailed(ctx, err))
	}
	return true, entries
}

// recoverSave reports a panicking backend as a save error. The commit has
// already been published, so it stands either way.
func recoverSave(save func() error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("storage panic: %v", recovered)
		}
	}()
	return save()
}

func (e *Engine) saveFailed(ctx context.Context, err error) logfeed.Entry {
	e.logger.Printf("save: %v", err)
	trace.SpanFromContext(ctx).RecordError(err)
	entry := e.feed.NewEntry(logfeed.LevelWarn, "[WARN] Save failed. Progress is held in memory only.")
	e.feed.Publish(entry)
	return entry
}

func headline(notes []command.Note) string {
	if len(notes) == 0 {
		return ""
	}
	return notes[len(notes)-1].Text
}
