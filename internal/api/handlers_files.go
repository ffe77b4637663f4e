package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pixel-editor/backend/internal/codec"
	"github.com/pixel-editor/backend/internal/models"
	"github.com/pixel-editor/backend/internal/project"
)

// HandleSerialize returns the canonical JSON document of a project.
func (h *Handler) HandleSerialize(c echo.Context) error {
	var data []byte
	err := h.sessions.With(c.Param("id"), func(s *project.Store) error {
		var err error
		data, err = s.Serialize()
		return err
	})
	if err != nil {
		return RespondWithError(c, FromError(err))
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

// HandleDeserialize replaces a project with the JSON document in the body.
// A rejected document leaves the project unchanged.
func (h *Handler) HandleDeserialize(c echo.Context) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return RespondWithError(c, NewBadRequestError("failed to read body", err))
	}
	return h.withStore(c, http.StatusOK, func(s *project.Store) (any, error) {
		if err := s.Deserialize(data); err != nil {
			return nil, err
		}
		return selectResult(s, true), nil
	})
}

// HandleExport returns the project document in the requested format.
func (h *Handler) HandleExport(c echo.Context) error {
	format, err := codec.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return RespondWithError(c, NewBadRequestError("unsupported format", err))
	}

	var doc models.SerializedProject
	err = h.sessions.With(c.Param("id"), func(s *project.Store) error {
		doc = s.Document()
		return nil
	})
	if err != nil {
		return RespondWithError(c, FromError(err))
	}

	data, err := codec.Encode(format, doc)
	if err != nil {
		return RespondWithError(c, NewInternalError("failed to encode project", err))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", fileName(doc.Name, format)))
	return c.Blob(http.StatusOK, format.ContentType(), data)
}

// HandleImport replaces a project with a document in the requested format.
func (h *Handler) HandleImport(c echo.Context) error {
	format, err := codec.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return RespondWithError(c, NewBadRequestError("unsupported format", err))
	}
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return RespondWithError(c, NewBadRequestError("failed to read body", err))
	}

	doc, err := decodeDocument(format, data)
	if err != nil {
		return RespondWithError(c, FromError(err))
	}
	return h.withStore(c, http.StatusOK, func(s *project.Store) (any, error) {
		if err := s.Load(doc); err != nil {
			return nil, err
		}
		return selectResult(s, true), nil
	})
}

// HandleSaveProject writes the project to storage. It overwrites the file
// the session came from unless asNew is set or there is none.
func (h *Handler) HandleSaveProject(c echo.Context) error {
	var req struct {
		Name   string `json:"name"`
		Format string `json:"format"`
		AsNew  bool   `json:"asNew"`
	}
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return RespondWithError(c, NewBadRequestError("invalid request body", err))
		}
	}
	format, err := codec.ParseFormat(req.Format)
	if err != nil {
		return RespondWithError(c, NewBadRequestError("unsupported format", err))
	}

	id := c.Param("id")
	sess, ok := h.sessions.Get(id)
	if !ok {
		return RespondWithError(c, NewNotFoundError("session", id))
	}

	var doc models.SerializedProject
	if err := h.sessions.With(id, func(s *project.Store) error {
		doc = s.Document()
		return nil
	}); err != nil {
		return RespondWithError(c, FromError(err))
	}

	data, err := codec.Encode(format, doc)
	if err != nil {
		return RespondWithError(c, NewInternalError("failed to encode project", err))
	}

	var info *models.FileInfo
	status := http.StatusOK
	existing := sess.SourceFileID
	if existing != "" && !req.AsNew {
		if prev, err := h.store.Get(existing); err != nil || prev.Format != string(format) {
			existing = ""
		}
	}
	if existing != "" && !req.AsNew {
		info, err = h.store.Overwrite(existing, data)
	} else {
		name := req.Name
		if name == "" {
			name = fileName(doc.Name, format)
		} else if !strings.HasSuffix(strings.ToLower(name), format.Extension()) {
			name += format.Extension()
		}
		info, err = h.store.SaveBytes(name, data)
		status = http.StatusCreated
	}
	if err != nil {
		return RespondWithError(c, NewInternalError("failed to save project", err))
	}

	if err := h.sessions.SetSourceFile(id, info.ID); err != nil {
		return RespondWithError(c, FromError(err))
	}
	return c.JSON(status, info)
}

// HandleOpenFile opens a stored project file in a new session.
func (h *Handler) HandleOpenFile(c echo.Context) error {
	fileID := c.Param("fileId")
	info, err := h.store.Get(fileID)
	if err != nil {
		return RespondWithError(c, NewNotFoundError("file", fileID))
	}
	data, err := h.store.Read(fileID)
	if err != nil {
		return RespondWithError(c, NewInternalError("failed to read file", err))
	}

	format, err := codec.ParseFormat(info.Format)
	if err != nil {
		format = codec.FormatFromName(info.Name)
	}
	doc, err := decodeDocument(format, data)
	if err != nil {
		return RespondWithError(c, FromError(err))
	}

	sess, err := h.sessions.Open(doc, fileID)
	if err != nil {
		return RespondWithError(c, FromError(err))
	}
	return h.respondProject(c, http.StatusCreated, sess.ID)
}

// HandleUploadFile stores a project document sent as the request body and
// validates it before keeping it.
func (h *Handler) HandleUploadFile(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return RespondWithError(c, NewValidationError("name"))
	}
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return RespondWithError(c, NewBadRequestError("failed to read body", err))
	}

	if _, err := decodeDocument(codec.FormatFromName(name), data); err != nil {
		return RespondWithError(c, FromError(err))
	}

	info, err := h.store.SaveBytes(name, data)
	if err != nil {
		return RespondWithError(c, NewInternalError("failed to save file", err))
	}
	return c.JSON(http.StatusCreated, info)
}

// HandleRecentFiles returns recently saved project files.
func (h *Handler) HandleRecentFiles(c echo.Context) error {
	files, err := h.store.List(20)
	if err != nil {
		return RespondWithError(c, NewInternalError("failed to list files", err))
	}
	return c.JSON(http.StatusOK, files)
}

// HandleGetFile returns metadata for a stored file.
func (h *Handler) HandleGetFile(c echo.Context) error {
	id := c.Param("fileId")
	info, err := h.store.Get(id)
	if err != nil {
		return RespondWithError(c, NewNotFoundError("file", id))
	}
	return c.JSON(http.StatusOK, info)
}

// HandleRenameFile updates the display name of a stored file.
func (h *Handler) HandleRenameFile(c echo.Context) error {
	id := c.Param("fileId")
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	if req.Name == "" {
		return RespondWithError(c, NewValidationError("name"))
	}

	info, err := h.store.Rename(id, req.Name)
	if err != nil {
		return RespondWithError(c, FromError(err))
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDeleteFile removes a stored file.
func (h *Handler) HandleDeleteFile(c echo.Context) error {
	id := c.Param("fileId")
	if err := h.store.Delete(id); err != nil {
		return RespondWithError(c, FromError(err))
	}
	return c.NoContent(http.StatusNoContent)
}

// decodeDocument parses and validates a project document. JSON goes
// through Deserialize so missing fields are rejected the same way as on
// the deserialize endpoint.
func decodeDocument(format codec.Format, data []byte) (models.SerializedProject, error) {
	if format == codec.FormatJSON {
		s := project.New()
		if err := s.Deserialize(data); err != nil {
			return models.SerializedProject{}, err
		}
		return s.Document(), nil
	}
	doc, err := codec.Decode(format, data)
	if err != nil {
		return models.SerializedProject{}, fmt.Errorf("%w: %v", project.ErrInvalidProject, err)
	}
	if err := project.Validate(doc); err != nil {
		return models.SerializedProject{}, err
	}
	return doc, nil
}

// fileName builds a download name from the project name.
func fileName(projectName string, format codec.Format) string {
	base := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(projectName))
	if base == "" {
		base = "pixel-animation"
	}
	return base + format.Extension()
}
