package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xiaole5211314/portfolio/internal/content"
	"github.com/xiaole5211314/portfolio/internal/logging"
	"github.com/xiaole5211314/portfolio/internal/session"
	"github.com/xiaole5211314/portfolio/internal/view"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Content     *content.Content
	Sessions    *session.Manager
	Events      EventRecorder
	DB          Pinger
	CORSOrigins []string
	Logger      *zap.Logger
	Now         func() time.Time
	// Middleware runs before every route, after logging and recovery.
	Middleware []gin.HandlerFunc
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.RequestLogger(dep.Logger))
	r.Use(dep.Middleware...)

	r.SetHTMLTemplate(view.MustTemplates())
	r.StaticFS("/static", http.FS(view.Static()))

	healthHandler := NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Sessions.Len)
	healthHandler.RegisterRoutes(r)

	portfolioHandler := NewPortfolioHandler(dep.Content, dep.Sessions, dep.Events, dep.Now, dep.Logger)
	portfolioHandler.RegisterRoutes(r)

	api := r.Group("/api")
	if len(dep.CORSOrigins) > 0 {
		api.Use(cors.New(cors.Config{
			AllowOrigins: dep.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodOptions},
			AllowHeaders: []string{"Origin", "Accept"},
			MaxAge:       12 * time.Hour,
		}))
		// group middleware only runs on matched routes, so preflights need one
		api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	}
	NewContentHandler(dep.Content).RegisterRoutes(api)

	return r
}
