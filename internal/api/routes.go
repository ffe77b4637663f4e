// routes.go - Route registration helpers
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pixel-editor/backend/internal/session"
	"github.com/pixel-editor/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store           storage.Store
	SessionMgr      *session.Manager
	MaxCanvasSize   int
	EventBufferSize int
	Version         string
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Project  ProjectHandler
	Document DocumentHandler
	Events   EventHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	h := NewHandler(deps.Store, deps.SessionMgr, deps.MaxCanvasSize)
	if deps.Version != "" {
		h.SetVersion(deps.Version)
	}
	return &Handlers{
		Health:   h,
		Project:  h,
		Document: h,
		Events:   NewWebSocketHandler(h, deps.EventBufferSize),
	}
}

// RouteOptions toggles optional routes
type RouteOptions struct {
	AllowFileDeletion bool
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers, opts RouteOptions) {
	api := e.Group("/api")

	// Health check
	api.GET("/health", handlers.Health.HandleHealth)

	// Project sessions
	p := api.Group("/projects")
	p.POST("", handlers.Project.HandleCreateProject)
	p.GET("", handlers.Project.HandleListProjects)
	p.GET("/:id", handlers.Project.HandleGetProject)
	p.DELETE("/:id", handlers.Project.HandleCloseProject)
	p.POST("/:id/keepalive", handlers.Project.HandleKeepAlive)
	p.PUT("/:id/name", handlers.Project.HandleRenameProject)
	p.GET("/:id/palette", handlers.Project.HandleGetPalette)
	p.GET("/:id/events", handlers.Events.HandleWebSocket)

	// Selection
	p.POST("/:id/select/color", handlers.Project.HandleSelectColor)
	p.POST("/:id/select/action", handlers.Project.HandleSelectAction)
	p.POST("/:id/select/frame", handlers.Project.HandleSelectFrame)
	p.POST("/:id/select/layer", handlers.Project.HandleSelectLayer)

	// Structure
	p.POST("/:id/actions", handlers.Project.HandleAddAction)
	p.PUT("/:id/actions/:actionId", handlers.Project.HandleRenameAction)
	p.DELETE("/:id/actions/:actionId", handlers.Project.HandleDeleteAction)
	p.POST("/:id/frames", handlers.Project.HandleAddFrame)
	p.DELETE("/:id/frames/:frameId", handlers.Project.HandleDeleteFrame)
	p.POST("/:id/layers", handlers.Project.HandleAddLayer)
	p.PATCH("/:id/layers/:layerId", handlers.Project.HandleUpdateLayer)
	p.DELETE("/:id/layers/:layerId", handlers.Project.HandleDeleteLayer)

	// Canvas
	p.PUT("/:id/canvas", handlers.Project.HandleResizeCanvas)
	p.POST("/:id/draw", handlers.Project.HandleDrawPixel)
	p.POST("/:id/erase", handlers.Project.HandleErasePixel)
	p.POST("/:id/line", handlers.Project.HandleDrawLine)

	// Documents
	p.GET("/:id/serialize", handlers.Document.HandleSerialize)
	p.POST("/:id/deserialize", handlers.Document.HandleDeserialize)
	p.GET("/:id/export", handlers.Document.HandleExport)
	p.POST("/:id/import", handlers.Document.HandleImport)
	p.POST("/:id/save", handlers.Document.HandleSaveProject)

	// Stored files
	f := api.Group("/files")
	f.POST("/upload", handlers.Document.HandleUploadFile)
	f.GET("/recent", handlers.Document.HandleRecentFiles)
	f.GET("/:fileId", handlers.Document.HandleGetFile)
	f.PUT("/:fileId", handlers.Document.HandleRenameFile)
	f.POST("/:fileId/open", handlers.Document.HandleOpenFile)

	// Conditional delete based on config
	if opts.AllowFileDeletion {
		f.DELETE("/:fileId", handlers.Document.HandleDeleteFile)
	}
}

// MiddlewareOptions configures the common middleware stack
type MiddlewareOptions struct {
	RequestLogging   bool
	Compression      bool
	CompressionLevel int
	BodyLimit        string
	EnableCORS       bool
	AllowOrigins     string
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !opts.RequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || strings.HasSuffix(path, "/keepalive")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if opts.Compression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: opts.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				return strings.HasSuffix(c.Request().URL.Path, "/events")
			},
		}))
	}

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	if opts.EnableCORS {
		origins := strings.Split(opts.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 1 && origins[0] == "" {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}
