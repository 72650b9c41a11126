package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chazu/vesselkit/pkg/kernel/sdfx"
	"github.com/chazu/vesselkit/pkg/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type testServer struct {
	e  *echo.Echo
	id string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mgr := session.NewManager(session.Options{Logger: zerolog.Nop()})
	h := NewHandler(mgr, sdfx.NewWithCells(12), zerolog.Nop())

	e := echo.New()
	SetupMiddleware(e, zerolog.Nop())
	RegisterRoutes(e, h)

	ts := &testServer{e: e}
	rec := ts.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	ts.id = created["id"]
	require.NotEmpty(t, ts.id)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) path(suffix string) string {
	return "/api/sessions/" + ts.id + suffix
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", nil)
	if assert.Equal(t, http.StatusOK, rec.Code) {
		assert.Contains(t, rec.Body.String(), `"status":"ok"`)
		assert.Contains(t, rec.Body.String(), `"kernel":"sdfx"`)
	}
}

func TestSpecRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, ts.path("/spec"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	spec := decode(t, rec)["spec"].(map[string]any)
	assert.Equal(t, "cylindrical", spec["shape"])
	assert.EqualValues(t, 2000, spec["heightMm"])

	rec = ts.do(t, http.MethodPut, ts.path("/spec"), map[string]any{
		"heightMm":    50,
		"orientation": "horizontal",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, []any{"heightMm"}, out["clamped"])
	spec = out["spec"].(map[string]any)
	assert.Equal(t, "horizontal", spec["orientation"])
	assert.Equal(t, "cylindrical", spec["shape"], "missing fields keep their value")
}

func TestPutSpecRejectsBadBody(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPut, ts.path("/spec"), map[string]any{"shape": "oval"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decode(t, rec)["code"])
}

func TestUnknownSession(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/sessions/nope/frame", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec)["code"])
}

func TestDragGesture(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPut, ts.path("/selection"), map[string]any{
		"selection": []map[string]any{{"type": "sensor", "count": 2}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	frame := decode(t, rec)
	assert.Len(t, frame["attachments"], 2)

	rec = ts.do(t, http.MethodPost, ts.path("/pointer/down"), map[string]any{"id": "sensor-0", "x": 0, "y": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["engaged"])

	rec = ts.do(t, http.MethodPost, ts.path("/attachments/sensor-1/place"), map[string]any{
		"position": map[string]float64{"X": 1, "Y": 1, "Z": 1},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, ts.path("/pointer/move"), map[string]any{"x": 50, "y": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["active"])

	rec = ts.do(t, http.MethodGet, ts.path("/frame"), nil)
	assert.Equal(t, true, decode(t, rec)["dragging"])

	rec = ts.do(t, http.MethodPost, ts.path("/pointer/up"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["committed"])

	rec = ts.do(t, http.MethodPost, ts.path("/pointer/release"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["orbitEnabled"])
}

func TestPlaceAndReset(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPut, ts.path("/selection"), map[string]any{
		"selection": []map[string]any{{"type": "hatch"}},
	})

	rec := ts.do(t, http.MethodPost, ts.path("/attachments/hatch-0/place"), map[string]any{
		"position": map[string]float64{"X": 0.9, "Y": 1.1, "Z": 0},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	pos := decode(t, rec)["position"].(map[string]any)
	assert.InDelta(t, 0.9, pos["X"], 1e-9)

	rec = ts.do(t, http.MethodPost, ts.path("/attachments/hatch-0/reset"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	att := decode(t, rec)["attachments"].([]any)[0].(map[string]any)
	assert.Equal(t, false, att["moved"])

	rec = ts.do(t, http.MethodPost, ts.path("/attachments/ladder-3/place"), map[string]any{
		"position": map[string]float64{"X": 0},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunScript(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, ts.path("/script"), map[string]string{
		"source": `(vessel :shape :rectangular :height 1500 :width 700) (attach :flange :count 2) (attach :jetpack)`,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, true, out["applied"])
	assert.Len(t, out["warnings"], 1)
	assert.Equal(t, "rectangular", out["spec"].(map[string]any)["shape"])

	rec = ts.do(t, http.MethodGet, ts.path("/frame"), nil)
	assert.Len(t, decode(t, rec)["attachments"], 2)

	rec = ts.do(t, http.MethodPost, ts.path("/script"), map[string]string{"source": "(vessel :height"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["errors"])
}

func TestFrameAsMsgpack(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, ts.path("/frame"), nil)
	req.Header.Set(echo.HeaderAccept, MIMEMsgpack)
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MIMEMsgpack, rec.Header().Get(echo.HeaderContentType))
	var frame map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &frame))
	assert.Equal(t, false, frame["dragging"])
	assert.Equal(t, true, frame["orbitEnabled"])
}

func TestSceneAndMeshes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, ts.path("/scene"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	nodes := decode(t, rec)["nodes"].([]any)
	assert.NotEmpty(t, nodes)
	assert.Equal(t, "scene", nodes[0].(map[string]any)["name"])

	rec = ts.do(t, http.MethodGet, ts.path("/meshes"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	meshes := decode(t, rec)["meshes"].([]any)
	assert.Len(t, meshes, 5, "body and four legs")
}

func TestDeleteSession(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodDelete, ts.path(""), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodDelete, ts.path(""), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
