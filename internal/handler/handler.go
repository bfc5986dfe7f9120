// Package handler mounts the console's HTTP surface: session-guarded
// JSON endpoints over the service layer, plus health probes.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/seedplatform/control-interface/internal/service"
)

// Register mounts all public routes on the given engine. The API group
// sits behind the session and permission middleware; login, logout and
// the health probes stay open.
func Register(r *gin.Engine, store Pinger, authSvc service.AuthService, consoleSvc service.ConsoleService) {
	h := NewHealthHandler(store)
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	a := NewAuthHandler(authSvc)
	r.POST("/login", a.login)
	r.POST("/logout", a.logout)

	api := r.Group(APIV1Prefix)
	api.Use(SessionMiddleware(authSvc), RequirePermission(ViewPermission, nil))
	NewConsoleHandler(consoleSvc).Register(api)
}
