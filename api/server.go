package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/moyoez/cutqueue/api/controllers"
	"github.com/moyoez/cutqueue/api/middlewares"
	"github.com/moyoez/cutqueue/api/models"
	"github.com/moyoez/cutqueue/api/notifyhub"
	"github.com/moyoez/cutqueue/tool"
)

// Server is the local HTTP API the UI talks to.
type Server struct {
	listen     string
	intakeRate int
	engine     *gin.Engine
	server     *http.Server
	mu         sync.RWMutex
}

// NewServer creates a server listening on listen. intakeRate bounds file
// submissions per second and client, 0 disables the limit.
func NewServer(listen string, intakeRate int) *Server {
	if listen == "" {
		listen = tool.DefaultListen
	}
	return &Server{
		listen:     listen,
		intakeRate: intakeRate,
	}
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, tool.FastReturnSuccess())
	})

	self := engine.Group("/api/self/v1", middlewares.OnlyAllowLocal)
	{
		self.GET("/items", controllers.UserItemsList)                                                 // Queue in display order
		self.POST("/items", middlewares.IntakeRateLimiter(s.intakeRate, 0), controllers.UserItemsAdd) // Multipart intake, uploads start immediately
		self.DELETE("/items/:clientId", controllers.UserItemDelete)                                   // Drop a settled item
		self.GET("/items/:clientId/preview", controllers.UserItemPreview)                             // Local preview or server original
		self.GET("/items/:clientId/download", controllers.UserItemDownload)                           // Redirect to original/processed
		self.GET("/previews/:name", controllers.UserPreviewFile)                                      // Preview files by name
		self.POST("/process", controllers.UserProcess)                                                // Batched processing request
		self.GET("/batch-download", controllers.UserBatchDownload)                                    // Redirect to the batch archive
		self.GET("/batch-download/qr", controllers.UserBatchDownloadQR)                               // QR code PNG of the archive link
		self.GET("/notifications", controllers.UserNotifications)                                     // Recent notification feed
		self.GET("/status", controllers.UserStatus)                                                   // Engine status for the web UI
		self.GET("/config", controllers.UserConfigGet)                                                // Effective config
		if hub := models.GetNotifyHub(); hub != nil {
			self.GET("/notify-ws", notifyhub.HandleNotifyWS(hub))
		}
	}
	return engine
}

// Handler builds the routes without listening. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	engine := s.setupRoutes()

	s.mu.Lock()
	s.engine = engine
	s.server = &http.Server{
		Addr:              s.listen,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting API server on http://%s", s.listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
