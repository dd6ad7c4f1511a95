// Package process implements resumable, cooperatively scheduled tasks.
//
// A process is a state machine driven by repeated calls to Step. Step either
// reaches a terminal state (Finish, Abort), suspends on a Prompt (Await) or
// hands control to a nested process (Spawn). A Scheduler owns every running
// process: it drives the topmost one until it suspends, resumes it with the
// user's Answer, and retires it exactly once when it terminates.
//
// Scheduling is single-threaded. Exactly one process has control at any time
// and a process is never re-entered from within its own Step.
package process

import (
	"fmt"

	"github.com/dshills/quill/internal/logging"
)

// Process is a resumable task.
//
// Implementations embed Task and provide Step. Step is called whenever the
// process has control and is not suspended; it returns true when the process
// reached a terminal state and false when it suspended or spawned a child.
type Process interface {
	ID() string
	Name() string
	Step() bool
	Cleanup()
	Succeeded() bool
	task() *Task
}

// Task is the scheduling state embedded in every process.
type Task struct {
	id   string
	name string
	ok   bool
	done bool

	prompt   *Prompt
	child    *spawn
	deferred []func()

	log    *logging.Logger
	report func(string)
}

type spawn struct {
	p      Process
	onDone func(Process)
}

// NewTask creates the task state for a process called name.
func NewTask(name string) Task {
	return Task{name: name}
}

func (t *Task) task() *Task { return t }

// ID returns the identifier assigned when the process was scheduled.
func (t *Task) ID() string { return t.id }

// Name returns the process name.
func (t *Task) Name() string { return t.name }

// Succeeded reports the final result.
func (t *Task) Succeeded() bool { return t.ok }

// Done reports whether the process reached a terminal state.
func (t *Task) Done() bool { return t.done }

// Cleanup releases resources. Processes that hold any override it.
func (t *Task) Cleanup() {}

// Log returns the logger of the process.
func (t *Task) Log() *logging.Logger {
	if t.log == nil {
		return logging.Null
	}
	return t.log
}

// Finish ends the process with result ok. It returns true so Step can
// return it directly.
func (t *Task) Finish(ok bool) bool {
	t.ok = ok
	t.done = true
	return true
}

// Abort ends the process in failure. Pending prompts and children are
// dropped.
func (t *Task) Abort() {
	t.ok = false
	t.done = true
	t.prompt = nil
	t.child = nil
}

// Await suspends the process on p. It returns false so Step can return it
// directly.
func (t *Task) Await(p Prompt) bool {
	t.prompt = &p
	return false
}

// Spawn runs child to completion before this process continues. onDone, if
// not nil, is called with the retired child; the process is stepped again
// afterwards unless onDone finished it. It returns false so Step can return
// it directly.
func (t *Task) Spawn(child Process, onDone func(Process)) bool {
	t.child = &spawn{p: child, onDone: onDone}
	return false
}

// Defer registers fn to run when the process is retired, after Cleanup.
// Deferred functions run in reverse order of registration on every terminal
// path.
func (t *Task) Defer(fn func()) {
	t.deferred = append(t.deferred, fn)
}

// Report shows an informational message to the user without suspending.
func (t *Task) Report(format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	t.Log().Debug("report: %s", msg)
	if t.report != nil {
		t.report(msg)
	}
}
