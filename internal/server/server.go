// Package server exposes the HTTP API: public article and lead
// endpoints plus the admin content-management surface.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"aipress/internal/storage"
)

// Syncer triggers one ingestion run on demand.
type Syncer interface {
	Run(ctx context.Context) (int, error)
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	store  storage.Storage
	syncer Syncer
	log    *slog.Logger
	engine *gin.Engine
}

// New creates a Server with all routes registered.
func New(store storage.Storage, syncer Syncer, log *slog.Logger) *Server {
	s := &Server{
		store:  store,
		syncer: syncer,
		log:    log,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health", s.health)

	api := engine.Group("/api")
	{
		api.GET("/articles", s.listArticles)
		api.GET("/articles/:id", s.getArticle)
		api.POST("/leads", s.createLead)

		admin := api.Group("/admin")
		{
			admin.GET("/articles", s.adminListArticles)
			admin.POST("/articles", s.adminCreateArticle)
			admin.PUT("/articles/:id", s.adminUpdateArticle)
			admin.GET("/leads", s.adminListLeads)
			admin.POST("/sync", s.adminSync)
		}
	}

	s.engine = engine
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
