package process

import (
	"errors"
	"time"

	"github.com/dshills/quill/internal/logging"
	"github.com/dshills/quill/internal/metrics"
	"github.com/google/uuid"
)

// Errors returned by the scheduler.
var (
	// ErrBusy indicates another process already holds control.
	ErrBusy = errors.New("another operation is in progress")

	// ErrNotSuspended indicates there is no prompt to answer.
	ErrNotSuspended = errors.New("no operation is waiting for an answer")

	// ErrInvalidAnswer indicates the answer does not fit the pending prompt.
	ErrInvalidAnswer = errors.New("invalid answer")
)

type frame struct {
	p       Process
	done    func(Process)
	onChild func(Process)
	started time.Time
}

// Scheduler owns running processes and drives them.
//
// Processes form a stack: the bottom one was started with Execute, each one
// above it was spawned by the one below. Only the top process is stepped.
type Scheduler struct {
	stack   []*frame
	driving bool

	log     *logging.Logger
	metrics *metrics.Recorder
	report  func(Process, string)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithReporter sets the function that shows process reports to the user.
func WithReporter(fn func(p Process, msg string)) Option {
	return func(s *Scheduler) { s.report = fn }
}

// NewScheduler creates an idle scheduler.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{log: logging.Null}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute starts p and drives it until it suspends or terminates. done, if
// not nil, is called once p has been retired.
//
// Execute returns ErrBusy while another process is running or suspended.
// Called from a completion callback, it queues p to run once the callback
// returns.
func (s *Scheduler) Execute(p Process, done func(Process)) error {
	if len(s.stack) > 0 {
		return ErrBusy
	}
	s.push(p, done, nil)
	if !s.driving {
		s.drive()
	}
	return nil
}

// Busy reports whether a process is running or suspended.
func (s *Scheduler) Busy() bool {
	return len(s.stack) > 0
}

// Current returns the process holding control, or nil.
func (s *Scheduler) Current() Process {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1].p
}

// Pending returns the prompt the current process is suspended on, or nil.
func (s *Scheduler) Pending() *Prompt {
	p := s.Current()
	if p == nil || p.task().prompt == nil {
		return nil
	}
	pr := *p.task().prompt
	return &pr
}

// Resume delivers the answer to the suspended process and drives it.
// An answer that does not fit the prompt returns ErrInvalidAnswer and leaves
// the process suspended.
func (s *Scheduler) Resume(a Answer) error {
	if s.driving {
		return ErrBusy
	}
	p := s.Current()
	if p == nil || p.task().prompt == nil {
		return ErrNotSuspended
	}
	t := p.task()
	pr := t.prompt
	if !pr.valid(a) {
		return ErrInvalidAnswer
	}

	t.prompt = nil
	s.driving = true
	switch {
	case !a.Closed:
		pr.onAnswer(a)
	case pr.onClose != nil:
		pr.onClose()
	default:
		t.Log().Debug("prompt closed, aborting")
		t.Abort()
	}
	s.driving = false

	s.drive()
	return nil
}

// Abort aborts every running process, innermost first. Processes queued by
// completion callbacks during the abort are started afterwards.
func (s *Scheduler) Abort() {
	if s.driving {
		return
	}
	s.driving = true
	for n := len(s.stack); n > 0 && len(s.stack) > 0; n-- {
		top := s.stack[len(s.stack)-1]
		top.p.task().Abort()
		s.retire()
	}
	s.driving = false

	if len(s.stack) > 0 {
		s.drive()
	}
}

func (s *Scheduler) push(p Process, done, onChild func(Process)) {
	t := p.task()
	t.id = uuid.NewString()
	t.log = s.log.WithFields(map[string]any{"process": t.name, "id": t.id})
	t.report = func(msg string) {
		if s.report != nil {
			s.report(p, msg)
		}
	}
	s.stack = append(s.stack, &frame{p: p, done: done, onChild: onChild, started: time.Now()})
	t.log.Debug("started")
}

// drive steps the top process until the stack is empty or the top process
// is suspended.
func (s *Scheduler) drive() {
	s.driving = true
	defer func() { s.driving = false }()

	for len(s.stack) > 0 {
		top := s.stack[len(s.stack)-1]
		t := top.p.task()

		switch {
		case t.done:
			s.retire()
			continue
		case t.child != nil:
			c := t.child
			t.child = nil
			s.push(c.p, nil, c.onDone)
			continue
		case t.prompt != nil:
			t.log.Debug("suspended on %s prompt", t.prompt.Kind)
			s.metrics.Prompted(t.name, t.prompt.Kind.String())
			return
		}

		if top.p.Step() && !t.done {
			t.Finish(t.ok)
		}
		if !t.done && t.child == nil && t.prompt == nil {
			t.log.Error("step neither finished nor suspended, aborting")
			t.Abort()
		}
	}
}

// retire tears down the top process and notifies whoever waits for it.
func (s *Scheduler) retire() {
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	t := top.p.task()

	top.p.Cleanup()
	for i := len(t.deferred) - 1; i >= 0; i-- {
		t.deferred[i]()
	}
	t.deferred = nil

	elapsed := time.Since(top.started)
	if t.ok {
		t.log.Debug("finished in %s", elapsed)
	} else {
		t.log.Debug("failed after %s", elapsed)
	}
	s.metrics.ProcessFinished(t.name, t.ok, elapsed)

	if top.onChild != nil {
		top.onChild(top.p)
	}
	if top.done != nil {
		top.done(top.p)
	}
}
