package engine

import (
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single evaluation unless WithTimeout says otherwise.
const DefaultTimeout = 5 * time.Second

var (
	// ErrSuperseded is returned when a newer evaluation started before this
	// one finished.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
	// ErrTimeout is returned when a script runs longer than the engine allows.
	ErrTimeout = errors.New("evaluation timed out")
)

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the evaluation time limit. Non-positive values keep the
// default.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

type evalResult struct {
	design *Design
	errors []EvalError
	err    error
}

// stale reports whether an evaluation newer than gen has started.
func (e *Engine) stale(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen != e.generation
}

// wait collects the result of evaluation gen. A result that arrives after a
// newer evaluation started is dropped with ErrSuperseded. On timeout the
// interpreter goroutine keeps running; its result lands in the buffered
// channel and is never read.
func (e *Engine) wait(ch <-chan evalResult, gen uint64) (*Design, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if e.stale(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.design, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
}
