package api

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pixel-editor/backend/internal/codec"
	"github.com/pixel-editor/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSerializeDeserialize(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProject(t).Session.ID
	env.call(t, env.h.HandleDrawPixel, http.MethodPost, "/", `{"x":1,"y":2}`, "id", id)

	rec := env.call(t, env.h.HandleSerialize, http.MethodGet, "/", "", "id", id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/json")
	saved := rec.Body.String()
	doc := decode[models.SerializedProject](t, rec)
	assert.Equal(t, "walk cycle", doc.Name)

	other := env.createProject(t).Session.ID
	rec = env.call(t, env.h.HandleDeserialize, http.MethodPost, "/", saved, "id", other)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sel := decode[SelectionResponse](t, rec).Selection
	assert.Equal(t, doc.Actions[0].ID, sel.ActionID)
	assert.Equal(t, doc.Actions[0].Frames[0].Layers[0].ID, sel.LayerID)

	rec = env.call(t, env.h.HandleSerialize, http.MethodGet, "/", "", "id", other)
	assert.JSONEq(t, saved, rec.Body.String())
}

func TestDeserializeRejectsBadDocuments(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProject(t).Session.ID
	before := env.call(t, env.h.HandleSerialize, http.MethodGet, "/", "", "id", id).Body.String()

	for name, body := range map[string]string{
		"syntax":          `{"name":`,
		"missing actions": `{"name":"x","canvasWidth":1,"canvasHeight":1,"palette":[]}`,
		"short palette":   `{"name":"x","canvasWidth":1,"canvasHeight":1,"palette":[],"actions":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := env.call(t, env.h.HandleDeserialize, http.MethodPost, "/", body, "id", id)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			after := env.call(t, env.h.HandleSerialize, http.MethodGet, "/", "", "id", id).Body.String()
			assert.JSONEq(t, before, after)
		})
	}
}

func TestExportImport(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProject(t).Session.ID
	env.call(t, env.h.HandleDrawPixel, http.MethodPost, "/", `{"x":5,"y":5}`, "id", id)

	rec := env.call(t, env.h.HandleExport, http.MethodGet, "/?format=yaml", "", "id", id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename="walk cycle.yaml"`, rec.Header().Get(echo.HeaderContentDisposition))

	var doc models.SerializedProject
	require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, []models.Pixel{{X: 5, Y: 5, ColorIndex: 1}}, doc.Actions[0].Frames[0].Layers[0].Pixels)

	msgpackRec := env.call(t, env.h.HandleExport, http.MethodGet, "/?format=msgpack", "", "id", id)
	require.Equal(t, http.StatusOK, msgpackRec.Code)

	other := env.createProject(t).Session.ID
	rec = env.call(t, env.h.HandleImport, http.MethodPost, "/?format=msgpack", msgpackRec.Body.String(), "id", other)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	a := env.call(t, env.h.HandleSerialize, http.MethodGet, "/", "", "id", id).Body.String()
	b := env.call(t, env.h.HandleSerialize, http.MethodGet, "/", "", "id", other).Body.String()
	assert.JSONEq(t, a, b)

	rec = env.call(t, env.h.HandleExport, http.MethodGet, "/?format=bmp", "", "id", id)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.call(t, env.h.HandleImport, http.MethodPost, "/?format=yaml", "name: [", "id", other)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveAndOpen(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProject(t).Session.ID

	rec := env.call(t, env.h.HandleSaveProject, http.MethodPost, "/", "", "id", id)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	info := decode[models.FileInfo](t, rec)
	assert.Equal(t, "walk cycle.json", info.Name)
	assert.Equal(t, 1, env.store.GetFileCount())

	sess, ok := env.sessions.Get(id)
	require.True(t, ok)
	assert.Equal(t, info.ID, sess.SourceFileID)

	// Saving again overwrites the source file
	env.call(t, env.h.HandleDrawPixel, http.MethodPost, "/", `{"x":0,"y":0}`, "id", id)
	rec = env.call(t, env.h.HandleSaveProject, http.MethodPost, "/", "", "id", id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, info.ID, decode[models.FileInfo](t, rec).ID)
	assert.Equal(t, 1, env.store.GetFileCount())

	// A different format is a new file
	rec = env.call(t, env.h.HandleSaveProject, http.MethodPost, "/", `{"format":"yaml","name":"backup"}`, "id", id)
	require.Equal(t, http.StatusCreated, rec.Code)
	yamlInfo := decode[models.FileInfo](t, rec)
	assert.Equal(t, "backup.yaml", yamlInfo.Name)
	assert.Equal(t, 2, env.store.GetFileCount())

	rec = env.call(t, env.h.HandleOpenFile, http.MethodPost, "/", "", "fileId", yamlInfo.ID)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	opened := decode[ProjectResponse](t, rec)
	assert.NotEqual(t, id, opened.Session.ID)
	assert.Equal(t, yamlInfo.ID, opened.Session.SourceFileID)
	assert.Equal(t, []models.Pixel{{X: 0, Y: 0, ColorIndex: 1}}, opened.Project.Actions[0].Frames[0].Layers[0].Pixels)

	rec = env.call(t, env.h.HandleOpenFile, http.MethodPost, "/", "", "fileId", "missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProject(t).Session.ID
	env.store.FailWrites = true

	rec := env.call(t, env.h.HandleSaveProject, http.MethodPost, "/", "", "id", id)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	sess, _ := env.sessions.Get(id)
	assert.Empty(t, sess.SourceFileID)
}

func TestOpenInvalidFile(t *testing.T) {
	env := newTestEnv(t)
	env.store.AddFile("broken", "broken.json", []byte(`{"name":"x"}`))

	rec := env.call(t, env.h.HandleOpenFile, http.MethodPost, "/", "", "fileId", "broken")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.sessions.Count())
}

func TestUploadFile(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProject(t).Session.ID
	doc := env.call(t, env.h.HandleSerialize, http.MethodGet, "/", "", "id", id).Body.String()

	rec := env.call(t, env.h.HandleUploadFile, http.MethodPost, "/?name=hero.json", doc)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, string(codec.FormatJSON), decode[models.FileInfo](t, rec).Format)

	rec = env.call(t, env.h.HandleUploadFile, http.MethodPost, "/?name=bad.json", `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.call(t, env.h.HandleUploadFile, http.MethodPost, "/", doc)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, env.store.GetFileCount())
}

func TestFileManagement(t *testing.T) {
	env := newTestEnv(t)
	env.store.AddFile("f1", "one.json", []byte(`{}`))

	rec := env.call(t, env.h.HandleRecentFiles, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.FileInfo](t, rec), 1)

	rec = env.call(t, env.h.HandleGetFile, http.MethodGet, "/", "", "fileId", "f1")
	assert.Equal(t, "one.json", decode[models.FileInfo](t, rec).Name)

	rec = env.call(t, env.h.HandleRenameFile, http.MethodPut, "/", `{"name":"uno.json"}`, "fileId", "f1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "uno.json", decode[models.FileInfo](t, rec).Name)

	rec = env.call(t, env.h.HandleRenameFile, http.MethodPut, "/", `{"name":""}`, "fileId", "f1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.call(t, env.h.HandleDeleteFile, http.MethodDelete, "/", "", "fileId", "f1")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.call(t, env.h.HandleDeleteFile, http.MethodDelete, "/", "", "fileId", "f1")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.call(t, env.h.HandleGetFile, http.MethodGet, "/", "", "fileId", "f1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "a_b.json", fileName("a/b", codec.FormatJSON))
	assert.Equal(t, "pixel-animation.msgpack", fileName("  ", codec.FormatMsgpack))
}
