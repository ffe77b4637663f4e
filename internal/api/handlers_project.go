package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pixel-editor/backend/internal/project"
)

type selectRequest struct {
	Index    *int   `json:"index"`
	ActionID string `json:"actionId"`
	FrameID  string `json:"frameId"`
	LayerID  string `json:"layerId"`
}

type pointRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

func (r pointRequest) validate() *APIError {
	if r.X == nil {
		return NewValidationError("x")
	}
	if r.Y == nil {
		return NewValidationError("y")
	}
	return nil
}

type lineRequest struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// selectResult reports a selection change. Unknown ids are not errors.
func selectResult(s *project.Store, changed bool) SelectionResponse {
	return SelectionResponse{Changed: changed, Selection: s.Selection()}
}

// HandleSelectColor selects a palette index.
func (h *Handler) HandleSelectColor(c echo.Context) error {
	var req selectRequest
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	if req.Index == nil {
		return RespondWithError(c, NewValidationError("index"))
	}
	return h.withStore(c, http.StatusOK, func(s *project.Store) (any, error) {
		return selectResult(s, s.SelectColor(*req.Index)), nil
	})
}

// HandleSelectAction selects an action and its first frame and layer.
func (h *Handler) HandleSelectAction(c echo.Context) error {
	var req selectRequest
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	return h.withStore(c, http.StatusOK, func(s *project.Store) (any, error) {
		return selectResult(s, s.SelectAction(req.ActionID)), nil
	})
}

// HandleSelectFrame selects a frame of the current action.
func (h *Handler) HandleSelectFrame(c echo.Context) error {
	var req selectRequest
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	return h.withStore(c, http.StatusOK, func(s *project.Store) (any, error) {
		return selectResult(s, s.SelectFrame(req.FrameID)), nil
	})
}

// HandleSelectLayer selects a layer of the current frame.
func (h *Handler) HandleSelectLayer(c echo.Context) error {
	var req selectRequest
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	return h.withStore(c, http.StatusOK, func(s *project.Store) (any, error) {
		return selectResult(s, s.SelectLayer(req.LayerID)), nil
	})
}

// HandleRenameProject changes the project name.
func (h *Handler) HandleRenameProject(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	if req.Name == "" {
		return RespondWithError(c, NewValidationError("name"))
	}
	return h.withStore(c, http.StatusOK, func(s *project.Store) (any, error) {
		s.SetName(req.Name)
		return map[string]string{"name": s.Name()}, nil
	})
}

// HandleAddAction appends an action and selects it.
func (h *Handler) HandleAddAction(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	return h.withStore(c, http.StatusCreated, func(s *project.Store) (any, error) {
		id := s.AddAction(req.Name)
		return SelectionResponse{ID: id, Changed: true, Selection: s.Selection()}, nil
	})
}

// HandleRenameAction changes an action's name.
func (h *Handler) HandleRenameAction(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	if req.Name == "" {
		return RespondWithError(c, NewValidationError("name"))
	}
	return h.withStore(c, http.StatusOK, func(s *project.Store) (any, error) {
		if err := s.RenameAction(c.Param("actionId"), req.Name); err != nil {
			return nil, err
		}
		return map[string]string{"id": c.Param("actionId"), "name": req.Name}, nil
	})
}

// HandleDeleteAction removes an action. Deleting the last one is refused.
func (h *Handler) HandleDeleteAction(c echo.Context) error {
	return h.withStore(c, http.StatusOK, func(s *project.Store) (any, error) {
		if err := s.DeleteAction(c.Param("actionId")); err != nil {
			return nil, err
		}
		return selectResult(s, true), nil
	})
}

// HandleAddFrame appends a frame to the current action and selects it.
func (h *Handler) HandleAddFrame(c echo.Context) error {
	return h.withStore(c, http.StatusCreated, func(s *project.Store) (any, error) {
		id, err := s.AddFrame()
		if err != nil {
			return nil, err
		}
		return SelectionResponse{ID: id, Changed: true, Selection: s.Selection()}, nil
	})
}

// HandleDeleteFrame removes a frame of the current action.
func (h *Handler) HandleDeleteFrame(c echo.Context) error {
	return h.withStore(c, http.StatusOK, func(s *project.Store) (any, error) {
		if err := s.DeleteFrame(c.Param("frameId")); err != nil {
			return nil, err
		}
		return selectResult(s, true), nil
	})
}

// HandleAddLayer appends a layer to the current frame and selects it.
func (h *Handler) HandleAddLayer(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	return h.withStore(c, http.StatusCreated, func(s *project.Store) (any, error) {
		id, err := s.AddLayer(req.Name)
		if err != nil {
			return nil, err
		}
		return SelectionResponse{ID: id, Changed: true, Selection: s.Selection()}, nil
	})
}

// HandleUpdateLayer renames a layer or toggles its visibility.
func (h *Handler) HandleUpdateLayer(c echo.Context) error {
	var req struct {
		Name    *string `json:"name"`
		Visible *bool   `json:"visible"`
	}
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	if req.Name == nil && req.Visible == nil {
		return RespondWithError(c, NewBadRequestError("name or visible is required", nil))
	}
	id := c.Param("layerId")
	return h.withStore(c, http.StatusOK, func(s *project.Store) (any, error) {
		if req.Name != nil {
			if err := s.RenameLayer(id, *req.Name); err != nil {
				return nil, err
			}
		}
		if req.Visible != nil {
			if err := s.SetLayerVisible(id, *req.Visible); err != nil {
				return nil, err
			}
		}
		f, _ := s.CurrentFrame()
		for _, layer := range f.Layers {
			if layer.ID == id {
				return layer, nil
			}
		}
		return nil, project.ErrLayerNotFound
	})
}

// HandleDeleteLayer removes a layer of the current frame.
func (h *Handler) HandleDeleteLayer(c echo.Context) error {
	return h.withStore(c, http.StatusOK, func(s *project.Store) (any, error) {
		if err := s.DeleteLayer(c.Param("layerId")); err != nil {
			return nil, err
		}
		return selectResult(s, true), nil
	})
}

// HandleResizeCanvas sets the canvas size used for new frames.
func (h *Handler) HandleResizeCanvas(c echo.Context) error {
	var req struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	if apiErr := h.validateCanvas(req.Width, req.Height); apiErr != nil {
		return RespondWithError(c, apiErr)
	}
	return h.withStore(c, http.StatusOK, func(s *project.Store) (any, error) {
		s.ResizeCanvas(req.Width, req.Height)
		w, hgt := s.Canvas()
		return map[string]int{"canvasWidth": w, "canvasHeight": hgt}, nil
	})
}

// HandleDrawPixel paints one pixel on the current layer.
func (h *Handler) HandleDrawPixel(c echo.Context) error {
	var req pointRequest
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	if apiErr := req.validate(); apiErr != nil {
		return RespondWithError(c, apiErr)
	}
	return h.withStore(c, http.StatusOK, func(s *project.Store) (any, error) {
		return map[string]bool{"changed": s.DrawPixel(*req.X, *req.Y)}, nil
	})
}

// HandleErasePixel removes one pixel from the current layer.
func (h *Handler) HandleErasePixel(c echo.Context) error {
	var req pointRequest
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	if apiErr := req.validate(); apiErr != nil {
		return RespondWithError(c, apiErr)
	}
	return h.withStore(c, http.StatusOK, func(s *project.Store) (any, error) {
		return map[string]bool{"changed": s.ErasePixel(*req.X, *req.Y)}, nil
	})
}

// HandleDrawLine paints a straight line on the current layer.
func (h *Handler) HandleDrawLine(c echo.Context) error {
	var req lineRequest
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	// Strokes are capped at twice the max canvas size per axis.
	limit := 2 * h.maxCanvasSize
	if abs(req.X1-req.X0) > limit || abs(req.Y1-req.Y0) > limit {
		return RespondWithError(c, NewBadRequestError("line too long", nil))
	}
	return h.withStore(c, http.StatusOK, func(s *project.Store) (any, error) {
		return map[string]int{"changed": s.DrawLine(req.X0, req.Y0, req.X1, req.Y1)}, nil
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
