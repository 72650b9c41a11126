// Package engine evaluates vessel configuration scripts (.vsl). A script is
// a zygomys Lisp program that describes a vessel, the attachments to fit
// and any hand placements:
//
//	(vessel :shape :cylindrical :height 2000 :diameter 1000 :legs 4
//	        :top :dome :bottom :cone)
//	(attach :sensor :size :large :count 2)
//	(attach :hatch)
//	(place "sensor-1" (vec3 0.8 1.2 0.3))
//
// Lengths in (vessel ...) are millimetres; (place ...) positions are world
// metres.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/vesselkit/pkg/attach"
	"github.com/chazu/vesselkit/pkg/vessel"
	zygo "github.com/glycerine/zygomys/zygo"
	"gonum.org/v1/gonum/spatial/r3"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning is an advisory finding that did not stop evaluation.
type EvalWarning struct {
	Message string `json:"message"`
}

// Placement pins one attachment to a world position.
type Placement struct {
	ID       string `json:"id" yaml:"id"`
	Position r3.Vec `json:"position" yaml:"position"`
}

// Design is the outcome of evaluating a script.
type Design struct {
	Spec       vessel.Spec        `json:"spec"`
	HasVessel  bool               `json:"hasVessel"`
	Selection  []attach.Selection `json:"selection"`
	Placements []Placement        `json:"placements"`
	Warnings   []EvalWarning      `json:"warnings,omitempty"`
}

// NewDesign returns the design of an empty script: the default vessel with
// no attachments.
func NewDesign() *Design {
	return &Design{Spec: vessel.DefaultSpec()}
}

func (d *Design) warnf(format string, args ...any) {
	d.Warnings = append(d.Warnings, EvalWarning{Message: fmt.Sprintf(format, args...)})
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use; each
// call to Evaluate creates a fresh sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs a configuration script and returns the design it
// describes. Each call creates a fresh zygomys sandbox.
//
// Return semantics:
//   - On success: returns design + nil errors + nil error
//   - On parse/eval failure: returns nil design + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Design, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		d, evalErrs, err := e.evaluate(source)
		ch <- evalResult{design: d, errors: evalErrs, err: err}
	}()

	return e.wait(ch, gen)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*Design, []EvalError, error) {
	d := NewDesign()
	if strings.TrimSpace(source) == "" {
		return d, nil, nil
	}

	// Sandbox mode keeps scripts away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, d)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return d, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?is)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?is)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalError values,
// extracting the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
