package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unkind-fall/marketing-sms-backup/internal/config"
	"github.com/unkind-fall/marketing-sms-backup/internal/handlers"
	"github.com/unkind-fall/marketing-sms-backup/pkg/middleware"
)

// Handlers groups the handler set the router wires up.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Upload        *handlers.UploadHandler
	Webhook       *handlers.WebhookHandler
	Messages      *handlers.MessageHandler
	Calls         *handlers.CallHandler
	Phones        *handlers.PhoneHandler
	Subscriptions *handlers.SubscriptionHandler
	Sync          *handlers.SyncHandler
}

type Router struct {
	engine *gin.Engine
}

// NewRouter builds the HTTP surface: ingestion endpoints and the query
// API behind the API key, the sync trigger behind an admin JWT.
func NewRouter(cfg *config.Config, h *Handlers) *Router {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if h == nil {
		panic("handlers cannot be nil")
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if cfg.Server.ForceHTTPS {
		engine.Use(middleware.HTTPSRedirectMiddleware())
	}
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.SecurityHeadersMiddleware())
	engine.Use(middleware.CORSMiddleware())
	engine.Use(middleware.RequestSizeLimitMiddleware(cfg.Ingest.MaxUploadBytes))
	engine.Use(middleware.AuditLogMiddleware())

	engine.GET("/health", handleHealth)
	engine.NoRoute(handleNotFound)

	engine.POST("/api/auth/login", h.Auth.Login)

	api := engine.Group("/api")
	api.Use(middleware.APIKeyMiddleware(cfg))
	{
		api.POST("/upload", h.Upload.Upload)
		api.POST("/webhook", h.Webhook.ReceiveMessage)

		api.GET("/messages", h.Messages.List)
		api.GET("/messages/:id", h.Messages.Get)

		api.GET("/calls", h.Calls.List)
		api.GET("/calls/:id", h.Calls.Get)

		api.GET("/phones", h.Phones.List)
		api.GET("/phones/:phone", h.Phones.Get)

		api.GET("/subscriptions", h.Subscriptions.List)
		api.GET("/subscriptions/:id", h.Subscriptions.Get)
		api.PUT("/subscriptions/:id", h.Subscriptions.Upsert)
		api.DELETE("/subscriptions/:id", h.Subscriptions.Deactivate)
		api.POST("/subscriptions/discover", h.Subscriptions.Discover)
	}

	admin := engine.Group("/api")
	admin.Use(middleware.APIKeyMiddleware(cfg), middleware.AuthMiddleware(cfg))
	{
		admin.POST("/sync", h.Sync.Run)
	}

	return &Router{engine: engine}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}
