// interfaces.go - Handler interface definitions for route registration
package api

import "github.com/labstack/echo/v4"

// ProjectHandler handles editing operations on open projects
type ProjectHandler interface {
	HandleCreateProject(c echo.Context) error
	HandleListProjects(c echo.Context) error
	HandleGetProject(c echo.Context) error
	HandleCloseProject(c echo.Context) error
	HandleKeepAlive(c echo.Context) error
	HandleRenameProject(c echo.Context) error
	HandleGetPalette(c echo.Context) error
	HandleSelectColor(c echo.Context) error
	HandleSelectAction(c echo.Context) error
	HandleSelectFrame(c echo.Context) error
	HandleSelectLayer(c echo.Context) error
	HandleAddAction(c echo.Context) error
	HandleRenameAction(c echo.Context) error
	HandleDeleteAction(c echo.Context) error
	HandleAddFrame(c echo.Context) error
	HandleDeleteFrame(c echo.Context) error
	HandleAddLayer(c echo.Context) error
	HandleUpdateLayer(c echo.Context) error
	HandleDeleteLayer(c echo.Context) error
	HandleResizeCanvas(c echo.Context) error
	HandleDrawPixel(c echo.Context) error
	HandleErasePixel(c echo.Context) error
	HandleDrawLine(c echo.Context) error
}

// DocumentHandler handles project documents and stored files
type DocumentHandler interface {
	HandleSerialize(c echo.Context) error
	HandleDeserialize(c echo.Context) error
	HandleExport(c echo.Context) error
	HandleImport(c echo.Context) error
	HandleSaveProject(c echo.Context) error
	HandleOpenFile(c echo.Context) error
	HandleUploadFile(c echo.Context) error
	HandleRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleRenameFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// EventHandler handles the project event stream
type EventHandler interface {
	HandleWebSocket(c echo.Context) error
}

var (
	_ ProjectHandler  = (*Handler)(nil)
	_ DocumentHandler = (*Handler)(nil)
	_ HealthHandler   = (*Handler)(nil)
	_ EventHandler    = (*WebSocketHandler)(nil)
)
