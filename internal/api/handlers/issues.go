package handlers

import (
	"fleet-tracking-service/internal/api/dto"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

type IssueHandler struct {
	Issues *services.IssueService
}

// ListOpen returns the merged driver and citizen feed. Any staff or driver
// may read it.
func (h *IssueHandler) ListOpen(c *gin.Context) {
	if actor(c).Role == domain.RoleCitizen {
		writeError(c, domain.ErrForbidden)
		return
	}

	issues, err := h.Issues.ListOpenIssues(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	res := dto.ListIssuesResponse{Issues: make([]dto.IssueResponse, 0, len(issues))}
	for _, is := range issues {
		res.Issues = append(res.Issues, toIssueResponse(is))
	}
	c.JSON(http.StatusOK, res)
}

func (h *IssueHandler) ReportDriver(c *gin.Context) {
	var req dto.DriverIssueRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.Issues.ReportDriverIssue(c.Request.Context(), actor(c), services.DriverIssueRequest{
		Type:  req.Type,
		Notes: req.Notes,
		Lat:   req.Lat,
		Lng:   req.Lng,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toIssueResponse(*r))
}

func (h *IssueHandler) ReportCitizen(c *gin.Context) {
	var req dto.CitizenIssueRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.Issues.ReportCitizenIssue(c.Request.Context(), actor(c), services.CitizenIssueRequest{
		Type:        req.Type,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
		Lat:         req.Lat,
		Lng:         req.Lng,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toIssueResponse(*r))
}

func (h *IssueHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateIssueStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.Issues.UpdateIssueStatus(
		c.Request.Context(),
		actor(c),
		domain.IssueSource(c.Param("source")),
		c.Param("id"),
		domain.IssueStatus(req.Status),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
