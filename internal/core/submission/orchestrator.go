package submission

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"dataset-hub-service/internal/core/domain"
)

const (
	DefaultSuccessDisplay = 2 * time.Second
	DefaultFailureDisplay = 4 * time.Second

	NameConflictMessage = "Dataset name already exists. Please use a different name."
)

var (
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrClosed             = errors.New("submission form is closed")
)

type Status string

const (
	StatusIdle             Status = "idle"
	StatusValidating       Status = "validating"
	StatusValidationFailed Status = "validation_failed"
	StatusSubmitting       Status = "submitting"
	StatusSucceeded        Status = "succeeded"
	StatusFailed           Status = "failed"
)

// State is the single observable status of a form.
type State struct {
	Status      Status
	Message     string
	Destination string
}

func (s State) InFlight() bool {
	return s.Status == StatusValidating || s.Status == StatusSubmitting
}

// Call is one network request of a submission.
type Call func(ctx context.Context) error

// Plan is what a task produces once validation passed.
type Plan struct {
	Calls       []Call
	Destination string
}

// Task validates and builds one submission.
type Task interface {
	// Prepare runs every check and returns the calls to issue. It must
	// not touch the network except for authoritative pre-checks.
	Prepare(ctx context.Context) (*Plan, error)
	Fallback() string
	SuccessMessage() string
}

// Failure is what Submit returns on a failed attempt. It carries the
// user-facing message only.
type Failure struct {
	Status  Status
	Message string
}

func (f *Failure) Error() string { return f.Message }

type Option func(*Orchestrator)

func WithDisplayDurations(success, failure time.Duration) Option {
	return func(o *Orchestrator) {
		o.successDisplay = success
		o.failureDisplay = failure
	}
}

// Orchestrator drives at most one submission at a time for one form.
type Orchestrator struct {
	navigate       func(destination string)
	successDisplay time.Duration
	failureDisplay time.Duration

	mu        sync.Mutex
	state     State
	attempt   uint64
	timer     *time.Timer
	observers []func(State)
	closed    bool
}

// New returns an idle orchestrator. navigate is called with the plan's
// destination once the success display elapses; it may be nil.
func New(navigate func(destination string), opts ...Option) *Orchestrator {
	o := &Orchestrator{
		navigate:       navigate,
		successDisplay: DefaultSuccessDisplay,
		failureDisplay: DefaultFailureDisplay,
		state:          State{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Subscribe registers fn for every later transition.
func (o *Orchestrator) Subscribe(fn func(State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, fn)
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Submit runs task end to end. It returns ErrSubmissionInFlight without
// side effects while another attempt is validating or submitting.
func (o *Orchestrator) Submit(ctx context.Context, task Task) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if o.state.InFlight() {
		o.mu.Unlock()
		return ErrSubmissionInFlight
	}
	o.stopTimerLocked()
	o.attempt++
	attempt := o.attempt
	o.mu.Unlock()

	o.transition(attempt, State{Status: StatusValidating})

	plan, err := task.Prepare(ctx)
	if err != nil {
		if domain.IsValidation(err) {
			msg := err.Error()
			o.transition(attempt, State{Status: StatusValidationFailed, Message: msg})
			return &Failure{Status: StatusValidationFailed, Message: msg}
		}
		return o.fail(attempt, task, err)
	}

	o.transition(attempt, State{Status: StatusSubmitting})

	g, gctx := errgroup.WithContext(ctx)
	for _, call := range plan.Calls {
		g.Go(func() error { return call(gctx) })
	}
	if err := g.Wait(); err != nil {
		return o.fail(attempt, task, err)
	}

	done := State{Status: StatusSucceeded, Message: task.SuccessMessage(), Destination: plan.Destination}
	if o.transition(attempt, done) {
		o.schedule(attempt, o.successDisplay, plan.Destination)
	}
	return nil
}

func (o *Orchestrator) fail(attempt uint64, task Task, err error) error {
	msg := MessageFor(err, task.Fallback())
	log.WithError(err).WithField("message", msg).Error("submission failed")
	if o.transition(attempt, State{Status: StatusFailed, Message: msg}) {
		o.schedule(attempt, o.failureDisplay, "")
	}
	return &Failure{Status: StatusFailed, Message: msg}
}

// transition applies s if attempt is still current and the form is open,
// then notifies observers outside the lock.
func (o *Orchestrator) transition(attempt uint64, s State) bool {
	o.mu.Lock()
	if o.closed || attempt != o.attempt {
		o.mu.Unlock()
		return false
	}
	o.state = s
	observers := append([]func(State){}, o.observers...)
	o.mu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
	return true
}

func (o *Orchestrator) schedule(attempt uint64, after time.Duration, destination string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || attempt != o.attempt {
		return
	}
	o.stopTimerLocked()
	o.timer = time.AfterFunc(after, func() {
		o.mu.Lock()
		if o.closed || attempt != o.attempt {
			o.mu.Unlock()
			return
		}
		o.timer = nil
		nav := o.navigate
		o.mu.Unlock()

		if destination != "" && nav != nil {
			nav(destination)
		}
		o.transition(attempt, State{Status: StatusIdle})
	})
}

func (o *Orchestrator) stopTimerLocked() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}

// CancelNavigation drops a pending navigation or reset and returns the
// form to idle. Safe to call at any time.
func (o *Orchestrator) CancelNavigation() {
	o.mu.Lock()
	if o.closed || o.timer == nil {
		o.mu.Unlock()
		return
	}
	o.stopTimerLocked()
	attempt := o.attempt
	o.mu.Unlock()
	o.transition(attempt, State{Status: StatusIdle})
}

// Close tears the form down. Results that arrive later are ignored.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.stopTimerLocked()
}

// MessageFor maps an error to the message shown to the user.
func MessageFor(err error, fallback string) string {
	if msg, ok := domain.ServerMessage(err); ok {
		return msg
	}
	switch {
	case domain.IsValidation(err):
		return err.Error()
	case errors.Is(err, domain.ErrNameConflict):
		return NameConflictMessage
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, domain.ErrUsernameMissing):
		return err.Error()
	}
	return fallback
}
