package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pixel-editor/backend/internal/models"
	"github.com/pixel-editor/backend/internal/palette"
	"github.com/pixel-editor/backend/internal/project"
	"github.com/pixel-editor/backend/internal/session"
	"github.com/pixel-editor/backend/internal/storage"
)

// DefaultMaxCanvasSize bounds canvas dimensions when the caller does not
// configure a limit.
const DefaultMaxCanvasSize = 1024

// Handler handles API requests.
type Handler struct {
	store         storage.Store
	sessions      *session.Manager
	maxCanvasSize int
	version       string
}

// NewHandler creates a new API handler.
func NewHandler(store storage.Store, sessions *session.Manager, maxCanvasSize int) *Handler {
	if maxCanvasSize <= 0 {
		maxCanvasSize = DefaultMaxCanvasSize
	}
	return &Handler{
		store:         store,
		sessions:      sessions,
		maxCanvasSize: maxCanvasSize,
		version:       "dev",
	}
}

// SetVersion sets the version reported by the health endpoint.
func (h *Handler) SetVersion(v string) { h.version = v }

// HandleHealth returns server health status.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  h.version,
		"sessions": h.sessions.Count(),
	})
}

// ProjectResponse is a full project view for a renderer.
type ProjectResponse struct {
	Session *models.EditorSession `json:"session"`
	Project models.Project        `json:"project"`
}

// SelectionResponse is returned by operations that may move the cursor.
type SelectionResponse struct {
	ID        string           `json:"id,omitempty"`
	Changed   bool             `json:"changed"`
	Selection models.Selection `json:"selection"`
}

// PaletteEntry is a palette color with its drawable forms.
type PaletteEntry struct {
	Index int     `json:"index"`
	Hue   float64 `json:"hue"`
	Alpha float64 `json:"alpha"`
	CSS   string  `json:"css"`
	RGBA  [4]int  `json:"rgba"`
}

// withStore runs fn under the session lock and renders its result.
func (h *Handler) withStore(c echo.Context, status int, fn func(*project.Store) (any, error)) error {
	var out any
	err := h.sessions.With(c.Param("id"), func(s *project.Store) error {
		var err error
		out, err = fn(s)
		return err
	})
	if err != nil {
		return RespondWithError(c, FromError(err))
	}
	return c.JSON(status, out)
}

// HandleCreateProject opens a session with a new default project.
func (h *Handler) HandleCreateProject(c echo.Context) error {
	var req struct {
		Name         string `json:"name"`
		CanvasWidth  int    `json:"canvasWidth"`
		CanvasHeight int    `json:"canvasHeight"`
	}
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return RespondWithError(c, NewBadRequestError("invalid request body", err))
		}
	}

	var opts []project.Option
	if req.Name != "" {
		opts = append(opts, project.WithName(req.Name))
	}
	if req.CanvasWidth != 0 || req.CanvasHeight != 0 {
		if apiErr := h.validateCanvas(req.CanvasWidth, req.CanvasHeight); apiErr != nil {
			return RespondWithError(c, apiErr)
		}
		opts = append(opts, project.WithCanvasSize(req.CanvasWidth, req.CanvasHeight))
	}

	sess, err := h.sessions.Create(opts...)
	if err != nil {
		return RespondWithError(c, FromError(err))
	}
	return h.respondProject(c, http.StatusCreated, sess.ID)
}

// HandleListProjects returns the open sessions.
func (h *Handler) HandleListProjects(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessions.List())
}

// HandleGetProject returns the full project and selection.
func (h *Handler) HandleGetProject(c echo.Context) error {
	return h.respondProject(c, http.StatusOK, c.Param("id"))
}

func (h *Handler) respondProject(c echo.Context, status int, id string) error {
	var snap models.Project
	err := h.sessions.With(id, func(s *project.Store) error {
		snap = s.Snapshot()
		return nil
	})
	if err != nil {
		return RespondWithError(c, FromError(err))
	}
	sess, ok := h.sessions.Get(id)
	if !ok {
		return RespondWithError(c, NewNotFoundError("session", id))
	}
	return c.JSON(status, ProjectResponse{Session: sess, Project: snap})
}

// HandleCloseProject closes a session without saving.
func (h *Handler) HandleCloseProject(c echo.Context) error {
	id := c.Param("id")
	if !h.sessions.Close(id) {
		return RespondWithError(c, NewNotFoundError("session", id))
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleKeepAlive refreshes a session's idle timer.
func (h *Handler) HandleKeepAlive(c echo.Context) error {
	id := c.Param("id")
	if !h.sessions.Touch(id) {
		return RespondWithError(c, NewNotFoundError("session", id))
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// HandleGetPalette returns the project palette with drawable colors.
func (h *Handler) HandleGetPalette(c echo.Context) error {
	return h.withStore(c, http.StatusOK, func(s *project.Store) (any, error) {
		pal := s.Snapshot().Palette
		entries := make([]PaletteEntry, len(pal))
		for i, pc := range pal {
			rgba := palette.NRGBA(pc)
			entries[i] = PaletteEntry{
				Index: i,
				Hue:   pc.Hue,
				Alpha: pc.Alpha,
				CSS:   palette.CSS(pc),
				RGBA:  [4]int{int(rgba.R), int(rgba.G), int(rgba.B), int(rgba.A)},
			}
		}
		return entries, nil
	})
}

func (h *Handler) validateCanvas(width, height int) *APIError {
	if width <= 0 || width > h.maxCanvasSize {
		return NewValidationError("width")
	}
	if height <= 0 || height > h.maxCanvasSize {
		return NewValidationError("height")
	}
	return nil
}
