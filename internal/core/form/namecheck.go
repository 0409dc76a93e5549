package form

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const DefaultDebounce = 500 * time.Millisecond

// NameAvailability answers whether a dataset name is free for the user.
type NameAvailability interface {
	CheckDatasetName(ctx context.Context, uid, name string) (available bool, message string, err error)
}

// CheckResult is the outcome of one availability check.
type CheckResult struct {
	Name      string
	Available bool
	Message   string
	Err       error
}

// NameChecker runs the advisory, debounced availability check. Every
// Schedule call re-arms the timer and bumps the generation; a result is
// only published when its generation is still the latest.
type NameChecker struct {
	api      NameAvailability
	uid      string
	debounce time.Duration
	onResult func(CheckResult)

	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
	last       *CheckResult
	closed     bool
}

// NewNameChecker builds a checker for uid. onResult may be nil.
func NewNameChecker(api NameAvailability, uid string, debounce time.Duration, onResult func(CheckResult)) *NameChecker {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &NameChecker{api: api, uid: uid, debounce: debounce, onResult: onResult}
}

// Schedule arms a check for name after the debounce delay, cancelling
// any pending one. An empty name clears the last result.
func (n *NameChecker) Schedule(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	if n.timer != nil {
		n.timer.Stop()
	}
	n.generation++
	gen := n.generation
	if name == "" {
		n.last = nil
		n.timer = nil
		return
	}
	n.timer = time.AfterFunc(n.debounce, func() { n.run(gen, name) })
}

func (n *NameChecker) run(gen uint64, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res := n.check(ctx, name)

	n.mu.Lock()
	if n.closed || gen != n.generation {
		n.mu.Unlock()
		log.WithField("name", name).Debug("dropping stale name check result")
		return
	}
	n.last = &res
	cb := n.onResult
	n.mu.Unlock()

	if cb != nil {
		cb(res)
	}
}

func (n *NameChecker) check(ctx context.Context, name string) CheckResult {
	available, message, err := n.api.CheckDatasetName(ctx, n.uid, name)
	if err != nil {
		log.WithError(err).WithField("name", name).Warn("dataset name check failed")
	}
	return CheckResult{Name: name, Available: available, Message: message, Err: err}
}

// Result returns the freshest published result, if any.
func (n *NameChecker) Result() (CheckResult, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.last == nil {
		return CheckResult{}, false
	}
	return *n.last, true
}

// CheckNow runs the check synchronously, ignoring the debounce state.
// It also supersedes any pending or in-flight debounced check.
func (n *NameChecker) CheckNow(ctx context.Context, name string) CheckResult {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.generation++
	gen := n.generation
	n.mu.Unlock()

	res := n.check(ctx, name)

	n.mu.Lock()
	if !n.closed && gen == n.generation {
		n.last = &res
	}
	n.mu.Unlock()
	return res
}

// Close stops the pending timer; later results are discarded.
func (n *NameChecker) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
