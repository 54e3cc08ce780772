package handlers

import (
	"fleet-tracking-service/internal/api/dto"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/services"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type RouteHandler struct {
	Routes *services.RouteService
}

func (h *RouteHandler) Create(c *gin.Context) {
	var req dto.CreateRouteRequest
	if !bindJSON(c, &req) {
		return
	}

	wps := make([]domain.Waypoint, 0, len(req.Waypoints))
	for _, w := range req.Waypoints {
		wps = append(wps, domain.Waypoint{Lat: w.Lat, Lng: w.Lng, SequenceOrder: w.SequenceOrder, StreetName: w.StreetName})
	}

	r, err := h.Routes.CreateRoute(c.Request.Context(), actor(c), services.CreateRouteRequest{
		Name:        req.Name,
		Description: req.Description,
		Status:      domain.RouteStatus(req.Status),
		Waypoints:   wps,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRouteResponse(r))
}

func (h *RouteHandler) Get(c *gin.Context) {
	r, err := h.Routes.GetRoute(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRouteResponse(r))
}

func (h *RouteHandler) Reorder(c *gin.Context) {
	var req dto.ReorderWaypointsRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.Routes.ReorderWaypoints(c.Request.Context(), actor(c), c.Param("id"), req.Order)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRouteResponse(r))
}

func (h *RouteHandler) AddWaypoint(c *gin.Context) {
	var req dto.AddWaypointRequest
	if !bindJSON(c, &req) {
		return
	}

	wp := domain.Waypoint{Lat: req.Lat, Lng: req.Lng, StreetName: req.StreetName}
	r, err := h.Routes.AddWaypoint(c.Request.Context(), actor(c), c.Param("id"), req.Position, wp)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRouteResponse(r))
}

func (h *RouteHandler) RemoveWaypoint(c *gin.Context) {
	seq, err := strconv.Atoi(c.Param("seq"))
	if err != nil {
		badRequest(c, "seq must be an integer")
		return
	}

	r, err := h.Routes.RemoveWaypoint(c.Request.Context(), actor(c), c.Param("id"), seq)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRouteResponse(r))
}
