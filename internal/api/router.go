package api

import (
	"fleet-tracking-service/internal/api/handlers"
	"fleet-tracking-service/internal/services"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services groups what the HTTP layer calls into.
type Services struct {
	Routes      *services.RouteService
	Assignments *services.AssignmentService
	Locations   *services.LocationService
	Alerts      *services.AlertService
	Issues      *services.IssueService
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(svc Services, log *zap.Logger) http.Handler {
	r := gin.New()
	r.Use(requestContext(log), accessLog(), recovery())

	r.GET("/health", handlers.Health)

	// Trucks authenticate at the device gateway, not as users.
	locations := &handlers.LocationHandler{Locations: svc.Locations}
	r.POST("/locations", locations.Ingest)

	authed := r.Group("/", requireActor())

	routes := &handlers.RouteHandler{Routes: svc.Routes}
	authed.POST("/routes", routes.Create)
	authed.GET("/routes/:id", routes.Get)
	authed.PUT("/routes/:id/waypoints/order", routes.Reorder)
	authed.POST("/routes/:id/waypoints", routes.AddWaypoint)
	authed.DELETE("/routes/:id/waypoints/:seq", routes.RemoveWaypoint)

	assignments := &handlers.AssignmentHandler{Assignments: svc.Assignments}
	authed.POST("/assignments", assignments.Schedule)
	authed.GET("/assignments/:id", assignments.Get)
	authed.POST("/assignments/:id/start", assignments.Start)
	authed.POST("/assignments/:id/complete", assignments.Complete)
	authed.POST("/assignments/:id/cancel", assignments.Cancel)
	authed.GET("/drivers/:id/assignment", assignments.CurrentForDriver)

	authed.GET("/trucks/nearby", locations.Nearby)
	authed.GET("/trucks/:id/location", locations.Current)

	alerts := &handlers.AlertHandler{Alerts: svc.Alerts}
	authed.GET("/alerts", alerts.ListUnread)
	authed.PATCH("/alerts/:id", alerts.Acknowledge)

	issues := &handlers.IssueHandler{Issues: svc.Issues}
	authed.GET("/issues", issues.ListOpen)
	authed.POST("/issues/driver", issues.ReportDriver)
	authed.POST("/issues/citizen", issues.ReportCitizen)
	authed.PATCH("/issues/:source/:id", issues.UpdateStatus)

	return r
}
