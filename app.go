package main

import (
	"context"
	"errors"
	"sync"

	"github.com/chazu/vesselkit/pkg/attach"
	"github.com/chazu/vesselkit/pkg/config"
	"github.com/chazu/vesselkit/pkg/engine"
	"github.com/chazu/vesselkit/pkg/kernel"
	"github.com/chazu/vesselkit/pkg/placement"
	"github.com/chazu/vesselkit/pkg/scene"
	"github.com/chazu/vesselkit/pkg/session"
	"github.com/chazu/vesselkit/pkg/vessel"
	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2/pkg/runtime"
	"gonum.org/v1/gonum/spatial/r3"
)

// DragEvent is the runtime event emitted when a drag starts or ends. The
// frontend suspends camera orbit while it is true.
const DragEvent = "vessel:dragging"

// colorPalette colours parts that carry no colour of their own.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx    context.Context
	engine *engine.Engine
	kernel kernel.Kernel
	log    zerolog.Logger
	opts   session.Options

	// mu serialises bindings; Wails may call them from several goroutines.
	mu      sync.Mutex
	session *session.Session
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Frame    placement.Frame `json:"frame"`
	Spec     vessel.Spec     `json:"spec"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

func newResult() EvalResult {
	return EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
}

// NewApp creates an App from the default settings.
func NewApp() *App {
	return NewAppWithConfig(config.Default(), zerolog.Nop())
}

// NewAppWithConfig creates an App from loaded settings.
func NewAppWithConfig(cfg *config.Config, log zerolog.Logger) *App {
	k, err := session.OpenKernel(cfg.Render.Kernel, cfg.Render.MeshCells, log)
	if err != nil {
		log.Warn().Err(err).Msg("using default kernel")
		k, _ = session.OpenKernel("", cfg.Render.MeshCells, log)
	}
	a := &App{
		engine: engine.NewEngine(cfg.Script.EngineOptions()...),
		kernel: k,
		log:    log,
		opts: session.Options{
			Limits: cfg.Limits,
			Tuning: cfg.Tuning,
			Logger: log,
		},
	}
	a.session = a.newSession()
	return a
}

func (a *App) newSession() *session.Session {
	s := session.New(a.opts)
	s.OnDragChange(a.emitDrag)
	return s
}

// startup is called by Wails on app startup. The context is saved
// so drag events can be emitted through the runtime.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// emitDrag forwards drag state to the frontend. Without a Wails context
// (tests, headless use) it does nothing.
func (a *App) emitDrag(dragging bool) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, DragEvent, dragging)
}

// Evaluate takes a vessel script, applies it to the session and returns the
// resulting meshes. This is the primary binding called by the frontend
// editor. An empty script shows the default vessel.
func (a *App) Evaluate(source string) EvalResult {
	result := newResult()

	d, evalErrs, err := a.engine.Evaluate(source)
	if errors.Is(err, engine.ErrSuperseded) {
		// A newer edit is already on its way; keep the screen as is.
		return result
	}
	if err != nil {
		a.log.Error().Err(err).Msg("evaluate failed")
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}
	for _, w := range d.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.Message})
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// A fresh session per script so placements from an older script do not
	// leak into the new one.
	if d.HasVessel {
		if _, clamped := vessel.ClampSpec(d.Spec, a.opts.Limits); len(clamped) > 0 {
			result.Warnings = append(result.Warnings, clampWarnings(clamped)...)
		}
	}

	a.session.Release()
	a.session = a.newSession()
	if err := a.session.ApplyDesign(d); err != nil {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: err.Error()})
	}
	a.fill(&result)
	return result
}

// fill adds meshes, frame and spec to result. Callers hold a.mu.
func (a *App) fill(result *EvalResult) {
	result.Spec = a.session.Spec()
	result.Frame = a.session.Frame()

	meshes, err := a.session.Meshes(a.kernel)
	if err != nil {
		a.log.Error().Err(err).Msg("tessellate failed")
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return
	}
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    partColor(m.Color, i),
		})
	}
}

// partColor keeps a part's own colour and falls back to the palette.
func partColor(own string, i int) string {
	if own != "" {
		return own
	}
	return colorPalette[i%len(colorPalette)]
}

func clampWarnings(fields []string) []EvalErrorData {
	out := make([]EvalErrorData, 0, len(fields))
	for _, f := range fields {
		out = append(out, EvalErrorData{Message: f + " was out of range and has been corrected"})
	}
	return out
}

// ApplySpec replaces the vessel spec from the input wizard.
func (a *App) ApplySpec(spec vessel.Spec) EvalResult {
	result := newResult()
	a.mu.Lock()
	defer a.mu.Unlock()
	result.Warnings = append(result.Warnings, clampWarnings(a.session.Apply(spec))...)
	a.fill(&result)
	return result
}

// SetAttachments replaces the attachment selection.
func (a *App) SetAttachments(sel []attach.Selection) EvalResult {
	result := newResult()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session.Select(sel)
	a.fill(&result)
	return result
}

// Meshes returns the current meshes without changing anything.
func (a *App) Meshes() EvalResult {
	result := newResult()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fill(&result)
	return result
}

// PointerDown starts dragging an attachment.
func (a *App) PointerDown(id string, x, y float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.PointerDown(id, x, y)
}

// PointerMove returns the projected position of the dragged attachment.
func (a *App) PointerMove(x, y float64) r3.Vec {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, _ := a.session.PointerMove(x, y)
	return p
}

// PointerUp commits the drag and returns the new frame.
func (a *App) PointerUp() placement.Frame {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session.PointerUp()
	return a.session.Frame()
}

// Release ends any drag; bound to window blur and global pointer-up.
func (a *App) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session.Release()
}

// Frame returns the attachment poses for this animation frame.
func (a *App) Frame() placement.Frame {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Frame()
}

// Scene returns the flattened scene graph.
func (a *App) Scene() []scene.Descriptor {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Describe()
}

// ResetAttachment returns an attachment to its default slot.
func (a *App) ResetAttachment(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Reset(id)
}

// ExportSTL writes the current scene to path.
func (a *App) ExportSTL(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.ExportSTL(a.kernel, path)
}
