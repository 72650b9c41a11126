package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/chazu/vesselkit/pkg/attach"
	"github.com/chazu/vesselkit/pkg/engine"
	"github.com/chazu/vesselkit/pkg/kernel"
	"github.com/chazu/vesselkit/pkg/session"
	"github.com/chazu/vesselkit/pkg/vessel"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/spatial/r3"
)

// MIMEMsgpack is the content type of MessagePack responses.
const MIMEMsgpack = "application/x-msgpack"

// Handler serves the configurator API over a session manager.
type Handler struct {
	sessions   *session.Manager
	kernel     kernel.Kernel
	log        zerolog.Logger
	engineOpts []engine.Option
}

// NewHandler creates a handler. k is used for mesh requests.
func NewHandler(sessions *session.Manager, k kernel.Kernel, log zerolog.Logger, opts ...engine.Option) *Handler {
	return &Handler{sessions: sessions, kernel: k, log: log, engineOpts: opts}
}

// respond writes v as MessagePack when the client asks for it, JSON
// otherwise.
func respond(c echo.Context, status int, v any) error {
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), MIMEMsgpack) {
		b, err := msgpack.Marshal(v)
		if err != nil {
			return NewInternalError("failed to encode msgpack", err)
		}
		return c.Blob(status, MIMEMsgpack, b)
	}
	return c.JSON(status, v)
}

// with runs fn on the session named by the :id path parameter.
func (h *Handler) with(c echo.Context, fn func(*session.Session) error) error {
	id := c.Param("id")
	if err := h.sessions.With(id, fn); err != nil {
		return fromSessionError(id, err)
	}
	return nil
}

// HandleHealth returns server health status.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.sessions.Len(),
		"kernel":   h.kernel.Name(),
	})
}

// HandleCreateSession starts a new configurator session.
func (h *Handler) HandleCreateSession(c echo.Context) error {
	id := h.sessions.Create()
	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

// HandleListSessions returns the live session ids.
func (h *Handler) HandleListSessions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"sessions": h.sessions.IDs()})
}

// HandleDeleteSession ends a session.
func (h *Handler) HandleDeleteSession(c echo.Context) error {
	id := c.Param("id")
	if !h.sessions.Delete(id) {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// specResponse is returned by spec reads and writes.
type specResponse struct {
	Spec     vessel.Spec     `json:"spec" msgpack:"spec"`
	Envelope vessel.Envelope `json:"envelope" msgpack:"envelope"`
	Solids   vessel.Solids   `json:"solids" msgpack:"solids"`
	Clamped  []string        `json:"clamped,omitempty" msgpack:"clamped,omitempty"`
}

// HandleGetSpec returns the current spec with its envelope and solids.
func (h *Handler) HandleGetSpec(c echo.Context) error {
	var resp specResponse
	if err := h.with(c, func(s *session.Session) error {
		resp = specResponse{Spec: s.Spec(), Envelope: s.Envelope(), Solids: s.Solids()}
		return nil
	}); err != nil {
		return err
	}
	return respond(c, http.StatusOK, resp)
}

// HandlePutSpec replaces the spec. Out-of-range values are clamped, not
// rejected; the response lists the corrected fields.
func (h *Handler) HandlePutSpec(c echo.Context) error {
	// Fields missing from the body keep their current values.
	var spec vessel.Spec
	if err := h.with(c, func(s *session.Session) error {
		spec = s.Spec()
		return nil
	}); err != nil {
		return err
	}
	if err := c.Bind(&spec); err != nil {
		return NewBadRequestError("invalid spec", err)
	}
	var resp specResponse
	if err := h.with(c, func(s *session.Session) error {
		resp.Clamped = s.Apply(spec)
		resp.Spec, resp.Envelope, resp.Solids = s.Spec(), s.Envelope(), s.Solids()
		return nil
	}); err != nil {
		return err
	}
	return respond(c, http.StatusOK, resp)
}

// HandleGetSelection returns the enabled attachments.
func (h *Handler) HandleGetSelection(c echo.Context) error {
	var sel []attach.Selection
	if err := h.with(c, func(s *session.Session) error {
		sel = s.Selection()
		return nil
	}); err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]any{"selection": sel})
}

// HandlePutSelection replaces the enabled attachments.
func (h *Handler) HandlePutSelection(c echo.Context) error {
	var req struct {
		Selection []attach.Selection `json:"selection"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid selection", err)
	}
	return h.frameAfter(c, func(s *session.Session) error {
		s.Select(req.Selection)
		return nil
	})
}

// scriptResponse reports the outcome of a script run.
type scriptResponse struct {
	Errors   []engine.EvalError   `json:"errors,omitempty"`
	Warnings []engine.EvalWarning `json:"warnings,omitempty"`
	Applied  bool                 `json:"applied"`
	Spec     vessel.Spec          `json:"spec"`
}

// HandleRunScript evaluates a configuration script and applies it to the
// session. Script errors are reported in the body with status 422.
func (h *Handler) HandleRunScript(c echo.Context) error {
	var req struct {
		Source string `json:"source"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid script request", err)
	}

	// Each request evaluates independently; supersession only applies
	// within one editor.
	start := time.Now()
	design, evalErrs, err := engine.NewEngine(h.engineOpts...).Evaluate(req.Source)
	if err != nil {
		return NewBadRequestError("script evaluation failed", err)
	}
	h.log.Debug().Dur("took", time.Since(start)).Int("errors", len(evalErrs)).Msg("script evaluated")

	if len(evalErrs) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, scriptResponse{Errors: evalErrs})
	}

	resp := scriptResponse{Warnings: design.Warnings, Applied: true}
	if err := h.with(c, func(s *session.Session) error {
		applyErr := s.ApplyDesign(design)
		resp.Spec = s.Spec()
		if applyErr != nil {
			resp.Warnings = append(resp.Warnings, engine.EvalWarning{Message: applyErr.Error()})
		}
		return nil
	}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

type pointerRequest struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// HandlePointerDown engages a drag on an attachment.
func (h *Handler) HandlePointerDown(c echo.Context) error {
	var req pointerRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid pointer event", err)
	}
	var engaged bool
	if err := h.with(c, func(s *session.Session) error {
		engaged = s.PointerDown(req.ID, req.X, req.Y)
		return nil
	}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"engaged": engaged})
}

// HandlePointerMove feeds a pointer sample to the active drag.
func (h *Handler) HandlePointerMove(c echo.Context) error {
	var req pointerRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid pointer event", err)
	}
	var (
		pos    r3.Vec
		active bool
	)
	if err := h.with(c, func(s *session.Session) error {
		pos, active = s.PointerMove(req.X, req.Y)
		return nil
	}); err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]any{"active": active, "position": pos})
}

// HandlePointerUp commits the active drag.
func (h *Handler) HandlePointerUp(c echo.Context) error {
	var (
		in        attach.Instance
		committed bool
	)
	if err := h.with(c, func(s *session.Session) error {
		in, committed = s.PointerUp()
		return nil
	}); err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]any{"committed": committed, "attachment": in})
}

// HandleRelease ends any drag, for focus loss on the client.
func (h *Handler) HandleRelease(c echo.Context) error {
	return h.frameAfter(c, func(s *session.Session) error {
		s.Release()
		return nil
	})
}

// HandlePlace moves an attachment straight to a world position.
func (h *Handler) HandlePlace(c echo.Context) error {
	var req struct {
		Position r3.Vec `json:"position"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid position", err)
	}
	aid := c.Param("aid")
	var in attach.Instance
	if err := h.with(c, func(s *session.Session) error {
		var err error
		in, err = s.Place(aid, req.Position)
		return err
	}); err != nil {
		return err
	}
	return respond(c, http.StatusOK, in)
}

// HandleReset returns an attachment to its default slot.
func (h *Handler) HandleReset(c echo.Context) error {
	aid := c.Param("aid")
	return h.frameAfter(c, func(s *session.Session) error {
		return s.Reset(aid)
	})
}

// HandleGetFrame returns the per-frame attachment poses.
func (h *Handler) HandleGetFrame(c echo.Context) error {
	return h.frameAfter(c, func(*session.Session) error { return nil })
}

// frameAfter runs fn and responds with the resulting frame.
func (h *Handler) frameAfter(c echo.Context, fn func(*session.Session) error) error {
	var frame any
	if err := h.with(c, func(s *session.Session) error {
		if err := fn(s); err != nil {
			return err
		}
		frame = s.Frame()
		return nil
	}); err != nil {
		return err
	}
	return respond(c, http.StatusOK, frame)
}

// HandleGetScene returns the flattened scene graph.
func (h *Handler) HandleGetScene(c echo.Context) error {
	var nodes any
	if err := h.with(c, func(s *session.Session) error {
		nodes = s.Describe()
		return nil
	}); err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]any{"nodes": nodes})
}

// HandleGetMeshes tessellates the scene, one mesh per part.
func (h *Handler) HandleGetMeshes(c echo.Context) error {
	var meshes []*kernel.Mesh
	if err := h.with(c, func(s *session.Session) error {
		var err error
		meshes, err = s.Meshes(h.kernel)
		return err
	}); err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]any{"meshes": meshes})
}
