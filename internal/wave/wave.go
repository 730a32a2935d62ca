// Package wave runs a group of independently-specified tasks with staggered
// start times. Staggering spreads concurrent load against an external
// per-minute throughput budget; scheduling goes through an explicit Clock
// so it can be tested on virtual time.
//
// Semantics are settle-all: one task failing never preempts another already
// in flight. The Result exposes both succeeded and failed outcomes; callers
// that want all-or-nothing treat a non-nil error as fatal and ignore the
// partial result set.
package wave

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"planforge/internal/logging"
)

// Task is one independently-schedulable unit within a wave.
type Task struct {
	ID      string
	Execute func(ctx context.Context) (any, error)

	// Optional lifecycle hooks, invoked from the task's goroutine.
	OnStart    func(id string)
	OnComplete func(id string, result any)
	OnError    func(id string, err error)
}

// Result aggregates every task's outcome after all of them settled.
type Result struct {
	Succeeded map[string]any
	Failed    map[string]error
	Elapsed   time.Duration
}

// Error reports a wave in which one or more tasks failed. It names every
// failed task and wraps the first underlying error (by declaration order).
type Error struct {
	FailedIDs []string
	First     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("wave failed: tasks [%s]: %v", strings.Join(e.FailedIDs, ", "), e.First)
}

func (e *Error) Unwrap() error { return e.First }

// Executor schedules waves of tasks. Task i becomes ready no earlier than
// i × stagger after the wave starts; start order is deterministic by
// declaration index, completion order is not guaranteed.
type Executor struct {
	clock   Clock
	stagger time.Duration
}

// NewExecutor creates a wave executor with the given stagger delay.
func NewExecutor(clock Clock, stagger time.Duration) *Executor {
	if clock == nil {
		clock = RealClock()
	}
	return &Executor{clock: clock, stagger: stagger}
}

type entry struct {
	task  Task
	index int
	ready <-chan time.Time
}

// Run executes the wave and waits for every task to settle. The returned
// Result always reflects all outcomes; the error is non-nil iff any task
// failed.
func (e *Executor) Run(ctx context.Context, tasks []Task) (*Result, error) {
	start := e.clock.Now()
	result := &Result{
		Succeeded: make(map[string]any, len(tasks)),
		Failed:    make(map[string]error),
	}
	if len(tasks) == 0 {
		return result, nil
	}

	logging.Wave("wave starting: %d tasks, stagger %v", len(tasks), e.stagger)

	// Build the schedule up front: one ready-channel per task. Registering
	// all waiters before any task runs keeps start order deterministic.
	entries := make([]entry, len(tasks))
	for i, t := range tasks {
		entries[i] = entry{task: t, index: i, ready: e.clock.After(time.Duration(i) * e.stagger)}
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, en := range entries {
		wg.Add(1)
		go func(en entry) {
			defer wg.Done()

			select {
			case <-en.ready:
			case <-ctx.Done():
				mu.Lock()
				result.Failed[en.task.ID] = ctx.Err()
				mu.Unlock()
				return
			}

			if en.task.OnStart != nil {
				en.task.OnStart(en.task.ID)
			}
			logging.WaveDebug("task %s started (index %d)", en.task.ID, en.index)

			value, err := en.task.Execute(ctx)
			if err != nil {
				if en.task.OnError != nil {
					en.task.OnError(en.task.ID, err)
				}
				mu.Lock()
				result.Failed[en.task.ID] = err
				mu.Unlock()
				return
			}

			if en.task.OnComplete != nil {
				en.task.OnComplete(en.task.ID, value)
			}
			mu.Lock()
			result.Succeeded[en.task.ID] = value
			mu.Unlock()
		}(en)
	}

	wg.Wait()
	result.Elapsed = e.clock.Now().Sub(start)

	if len(result.Failed) > 0 {
		failedIDs := make([]string, 0, len(result.Failed))
		indexOf := make(map[string]int, len(tasks))
		for i, t := range tasks {
			indexOf[t.ID] = i
		}
		for id := range result.Failed {
			failedIDs = append(failedIDs, id)
		}
		sort.Slice(failedIDs, func(i, j int) bool {
			return indexOf[failedIDs[i]] < indexOf[failedIDs[j]]
		})
		werr := &Error{FailedIDs: failedIDs, First: result.Failed[failedIDs[0]]}
		logging.Wave("wave failed after %v: %v", result.Elapsed, werr)
		return result, werr
	}

	logging.Wave("wave completed: %d tasks in %v", len(tasks), result.Elapsed)
	return result, nil
}
