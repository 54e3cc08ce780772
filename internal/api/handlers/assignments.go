package handlers

import (
	"context"
	"fleet-tracking-service/internal/api/dto"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AssignmentHandler struct {
	Assignments *services.AssignmentService
}

func (h *AssignmentHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.Assignments.Schedule(c.Request.Context(), actor(c), services.ScheduleRequest{
		RouteID:        req.RouteID,
		TruckID:        req.TruckID,
		DriverID:       req.DriverID,
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
		Notes:          req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAssignmentResponse(a))
}

func (h *AssignmentHandler) Get(c *gin.Context) {
	a, err := h.Assignments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAssignmentResponse(a))
}

type transitionFunc func(ctx context.Context, actor domain.Actor, id string) (*domain.Assignment, error)

func (h *AssignmentHandler) transition(c *gin.Context, fn transitionFunc) {
	a, err := fn(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAssignmentResponse(a))
}

func (h *AssignmentHandler) Start(c *gin.Context)    { h.transition(c, h.Assignments.Start) }
func (h *AssignmentHandler) Complete(c *gin.Context) { h.transition(c, h.Assignments.Complete) }
func (h *AssignmentHandler) Cancel(c *gin.Context)   { h.transition(c, h.Assignments.Cancel) }

func (h *AssignmentHandler) CurrentForDriver(c *gin.Context) {
	a, r, err := h.Assignments.CurrentForDriver(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CurrentAssignmentResponse{
		Assignment: toAssignmentResponse(a),
		Route:      toRouteResponse(r),
	})
}
