package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guardnest/core/internal/middleware"
	"github.com/guardnest/core/internal/modules/auth/identity"
	"github.com/guardnest/core/internal/modules/auth/session"
	"github.com/guardnest/core/internal/pkg/response"
)

func (a *App) registerRoutes(svc *session.Service, idp *identity.Client) {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	// OptionalAuth runs first so the limiter can recognize signed-in traffic;
	// rate limiting and idempotence then apply to every route (requires Redis).
	r.Use(middleware.OptionalAuth(a.cfg.Auth.SessionCookie, svc))
	r.Use(middleware.RateLimit(a.rc.Raw()))
	r.Use(middleware.Idempotence(a.rc.Raw()))

	r.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{
			"status": "ok",
			"uptime": time.Since(processStart).Round(time.Second).String(),
		})
	})

	api := r.Group("/api")
	session.NewHandler(svc, idp, a.cfg, a.logger).RegisterRoutes(api)
}

var processStart = time.Now()
