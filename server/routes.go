package server

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/previewkit/errors"
	"github.com/kbukum/previewkit/server/endpoint"
	"github.com/kbukum/previewkit/server/middleware"
)

// ApplyDefaults installs the middleware chain and the probe routes.
func (s *Server) ApplyDefaults(serviceName string, checker endpoint.HealthChecker) {
	s.engine.Use(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.RequestLogger(s.log),
	)

	p := endpoint.NewProbes(serviceName, checker)
	s.engine.GET("/health", p.Health)
	s.engine.GET("/alive", p.Alive)
	s.engine.GET("/ready", p.Ready)
	s.engine.GET("/info", p.Info)
	s.engine.NoRoute(func(c *gin.Context) {
		RespondWithError(c, errors.NotFound("route", c.Request.URL.Path))
	})
}

// RegisterStatus serves the value returned by fn at /status.
func (s *Server) RegisterStatus(fn endpoint.StatusFunc) {
	s.engine.GET("/status", func(c *gin.Context) {
		v, err := fn(c.Request.Context())
		if err != nil {
			RespondWithError(c, err)
			return
		}
		RespondOK(c, v)
	})
}
