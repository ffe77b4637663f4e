package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pixel-editor/backend/internal/models"
	"github.com/pixel-editor/backend/internal/project"
	"github.com/pixel-editor/backend/internal/session"
	"github.com/pixel-editor/backend/internal/storage"
	"github.com/pixel-editor/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	e        *echo.Echo
	h        *Handler
	store    *testutil.MockStorage
	sessions *session.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := testutil.NewMockStorage()
	sessions := session.NewManager()
	return &testEnv{
		e:        echo.New(),
		h:        NewHandler(store, sessions, 64),
		store:    store,
		sessions: sessions,
	}
}

// call runs fn against a request. params are name/value pairs for path
// parameters.
func (env *testEnv) call(t *testing.T, fn echo.HandlerFunc, method, target, body string, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	require.NoError(t, fn(c))
	return rec
}

func (env *testEnv) createProject(t *testing.T) ProjectResponse {
	t.Helper()
	rec := env.call(t, env.h.HandleCreateProject, http.MethodPost, "/api/projects", `{"name":"walk cycle"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp ProjectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[APIError](t, rec).Code
}

func TestCreateProject(t *testing.T) {
	env := newTestEnv(t)
	resp := env.createProject(t)

	assert.NotEmpty(t, resp.Session.ID)
	assert.Equal(t, "walk cycle", resp.Project.Name)
	assert.Equal(t, project.DefaultCanvasSize, resp.Project.CanvasWidth)
	assert.Len(t, resp.Project.Palette, 256)
	require.Len(t, resp.Project.Actions, 1)
	require.Len(t, resp.Project.Actions[0].Frames, 1)
	assert.Len(t, resp.Project.Actions[0].Frames[0].Layers, 2)
	assert.Equal(t, resp.Project.Actions[0].ID, resp.Project.CurrentActionID)
	assert.Equal(t, project.DefaultColorIndex, resp.Project.CurrentColorIndex)
}

func TestCreateProjectValidatesCanvas(t *testing.T) {
	env := newTestEnv(t)

	rec := env.call(t, env.h.HandleCreateProject, http.MethodPost, "/api/projects", `{"canvasWidth":500,"canvasHeight":16}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
	assert.Equal(t, 0, env.sessions.Count())
}

func TestUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.call(t, env.h.HandleGetProject, http.MethodGet, "/api/projects/missing", "", "id", "missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.call(t, env.h.HandleDrawPixel, http.MethodPost, "/", `{"x":1,"y":1}`, "id", "missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDrawAndErase(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProject(t).Session.ID

	rec := env.call(t, env.h.HandleDrawPixel, http.MethodPost, "/", `{"x":3,"y":4}`, "id", id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"changed":true}`, rec.Body.String())

	rec = env.call(t, env.h.HandleDrawPixel, http.MethodPost, "/", `{"x":3,"y":4}`, "id", id)
	assert.JSONEq(t, `{"changed":false}`, rec.Body.String())

	rec = env.call(t, env.h.HandleGetProject, http.MethodGet, "/", "", "id", id)
	resp := decode[ProjectResponse](t, rec)
	layer := resp.Project.Actions[0].Frames[0].Layers[0]
	assert.Equal(t, []models.Pixel{{X: 3, Y: 4, ColorIndex: 1}}, layer.Pixels)

	rec = env.call(t, env.h.HandleErasePixel, http.MethodPost, "/", `{"x":3,"y":4}`, "id", id)
	assert.JSONEq(t, `{"changed":true}`, rec.Body.String())
	rec = env.call(t, env.h.HandleErasePixel, http.MethodPost, "/", `{"x":3,"y":4}`, "id", id)
	assert.JSONEq(t, `{"changed":false}`, rec.Body.String())
}

func TestDrawRequiresCoordinates(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProject(t).Session.ID

	rec := env.call(t, env.h.HandleDrawPixel, http.MethodPost, "/", `{"x":3}`, "id", id)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = env.call(t, env.h.HandleDrawPixel, http.MethodPost, "/", `{"x":"a","y":1}`, "id", id)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDrawLine(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProject(t).Session.ID

	rec := env.call(t, env.h.HandleDrawLine, http.MethodPost, "/", `{"x0":0,"y0":0,"x1":3,"y1":0}`, "id", id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"changed":4}`, rec.Body.String())

	rec = env.call(t, env.h.HandleDrawLine, http.MethodPost, "/", `{"x0":0,"y0":0,"x1":1000,"y1":0}`, "id", id)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelection(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProject(t).Session.ID

	t.Run("color", func(t *testing.T) {
		rec := env.call(t, env.h.HandleSelectColor, http.MethodPost, "/", `{"index":10}`, "id", id)
		resp := decode[SelectionResponse](t, rec)
		assert.True(t, resp.Changed)
		assert.Equal(t, 10, resp.Selection.ColorIndex)

		rec = env.call(t, env.h.HandleSelectColor, http.MethodPost, "/", `{"index":256}`, "id", id)
		resp = decode[SelectionResponse](t, rec)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, resp.Changed)
		assert.Equal(t, 10, resp.Selection.ColorIndex)
	})

	t.Run("color index required", func(t *testing.T) {
		rec := env.call(t, env.h.HandleSelectColor, http.MethodPost, "/", `{}`, "id", id)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown ids are ignored", func(t *testing.T) {
		for _, fn := range []echo.HandlerFunc{env.h.HandleSelectAction, env.h.HandleSelectFrame, env.h.HandleSelectLayer} {
			rec := env.call(t, fn, http.MethodPost, "/", `{"actionId":"nope","frameId":"nope","layerId":"nope"}`, "id", id)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.False(t, decode[SelectionResponse](t, rec).Changed)
		}
	})

	t.Run("layer", func(t *testing.T) {
		rec := env.call(t, env.h.HandleGetProject, http.MethodGet, "/", "", "id", id)
		p := decode[ProjectResponse](t, rec).Project
		shadow := p.Actions[0].Frames[0].Layers[1].ID

		rec = env.call(t, env.h.HandleSelectLayer, http.MethodPost, "/", `{"layerId":"`+shadow+`"}`, "id", id)
		resp := decode[SelectionResponse](t, rec)
		assert.True(t, resp.Changed)
		assert.Equal(t, shadow, resp.Selection.LayerID)
	})
}

func TestStructureEditing(t *testing.T) {
	env := newTestEnv(t)
	created := env.createProject(t)
	id := created.Session.ID
	firstAction := created.Project.Actions[0].ID

	// Deleting the only action is refused
	rec := env.call(t, env.h.HandleDeleteAction, http.MethodDelete, "/", "", "id", id, "actionId", firstAction)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", errorCode(t, rec))

	rec = env.call(t, env.h.HandleAddAction, http.MethodPost, "/", `{"name":"jump"}`, "id", id)
	require.Equal(t, http.StatusCreated, rec.Code)
	added := decode[SelectionResponse](t, rec)
	assert.Equal(t, added.ID, added.Selection.ActionID)

	rec = env.call(t, env.h.HandleAddFrame, http.MethodPost, "/", "", "id", id)
	require.Equal(t, http.StatusCreated, rec.Code)
	frame := decode[SelectionResponse](t, rec)
	assert.Equal(t, frame.ID, frame.Selection.FrameID)

	rec = env.call(t, env.h.HandleDeleteFrame, http.MethodDelete, "/", "", "id", id, "frameId", frame.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, frame.ID, decode[SelectionResponse](t, rec).Selection.FrameID)

	rec = env.call(t, env.h.HandleDeleteFrame, http.MethodDelete, "/", "", "id", id, "frameId", "missing")
	assert.Equal(t, http.StatusConflict, rec.Code, "only frame left")

	rec = env.call(t, env.h.HandleAddLayer, http.MethodPost, "/", `{"name":"outline"}`, "id", id)
	require.Equal(t, http.StatusCreated, rec.Code)
	layer := decode[SelectionResponse](t, rec)

	rec = env.call(t, env.h.HandleUpdateLayer, http.MethodPatch, "/", `{"name":"ink","visible":false}`, "id", id, "layerId", layer.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[models.Layer](t, rec)
	assert.Equal(t, "ink", updated.Name)
	assert.False(t, updated.Visible)

	rec = env.call(t, env.h.HandleUpdateLayer, http.MethodPatch, "/", `{}`, "id", id, "layerId", layer.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.call(t, env.h.HandleDeleteLayer, http.MethodDelete, "/", "", "id", id, "layerId", "missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.call(t, env.h.HandleDeleteLayer, http.MethodDelete, "/", "", "id", id, "layerId", layer.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.call(t, env.h.HandleRenameAction, http.MethodPut, "/", `{"name":"idle"}`, "id", id, "actionId", firstAction)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.call(t, env.h.HandleRenameAction, http.MethodPut, "/", `{"name":"idle"}`, "id", id, "actionId", "missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.call(t, env.h.HandleDeleteAction, http.MethodDelete, "/", "", "id", id, "actionId", firstAction)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, added.ID, decode[SelectionResponse](t, rec).Selection.ActionID)
}

func TestResizeCanvas(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProject(t).Session.ID

	rec := env.call(t, env.h.HandleResizeCanvas, http.MethodPut, "/", `{"width":48,"height":16}`, "id", id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"canvasWidth":48,"canvasHeight":16}`, rec.Body.String())

	rec = env.call(t, env.h.HandleResizeCanvas, http.MethodPut, "/", `{"width":0,"height":16}`, "id", id)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPalette(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProject(t).Session.ID

	rec := env.call(t, env.h.HandleGetPalette, http.MethodGet, "/", "", "id", id)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]PaletteEntry](t, rec)
	require.Len(t, entries, 256)
	assert.Equal(t, 0.0, entries[0].Alpha)
	assert.Equal(t, 0, entries[0].RGBA[3])
	assert.Equal(t, "hsla(0, 100%, 50%, 0.5)", entries[64].CSS)
	assert.Equal(t, [4]int{255, 0, 0, 128}, entries[64].RGBA)
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProject(t).Session.ID

	rec := env.call(t, env.h.HandleListProjects, http.MethodGet, "/", "")
	assert.Len(t, decode[[]models.EditorSession](t, rec), 1)

	rec = env.call(t, env.h.HandleKeepAlive, http.MethodPost, "/", "", "id", id)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.call(t, env.h.HandleRenameProject, http.MethodPut, "/", `{"name":"run"}`, "id", id)
	assert.JSONEq(t, `{"name":"run"}`, rec.Body.String())

	rec = env.call(t, env.h.HandleCloseProject, http.MethodDelete, "/", "", "id", id)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.call(t, env.h.HandleCloseProject, http.MethodDelete, "/", "", "id", id)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.call(t, env.h.HandleKeepAlive, http.MethodPost, "/", "", "id", id)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFromError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{session.ErrSessionNotFound, http.StatusNotFound},
		{session.ErrTooManySessions, http.StatusServiceUnavailable},
		{storage.ErrNotFound, http.StatusNotFound},
		{project.ErrLayerNotFound, http.StatusNotFound},
		{project.ErrLastAction, http.StatusConflict},
		{project.ErrNoCurrentFrame, http.StatusConflict},
		{project.ErrInvalidProject, http.StatusBadRequest},
		{NewValidationError("x"), http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, FromError(tt.err).Status)
		})
	}
}
