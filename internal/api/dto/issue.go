package dto

import "time"

type DriverIssueRequest struct {
	Type  string  `json:"type" binding:"required"`
	Notes *string `json:"notes"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

type CitizenIssueRequest struct {
	Type        string  `json:"type" binding:"required"`
	Description *string `json:"description"`
	PhotoURL    *string `json:"photo_url"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

type UpdateIssueStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type IssueResponse struct {
	Source       string     `json:"source"`
	ID           string     `json:"id"`
	ReporterID   string     `json:"reporter_id"`
	AssignmentID *string    `json:"route_assignment_id,omitempty"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	Description  *string    `json:"description"`
	PhotoURL     *string    `json:"photo_url,omitempty"`
	Lat          float64    `json:"lat"`
	Lng          float64    `json:"lng"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at"`
}

type ListIssuesResponse struct {
	Issues []IssueResponse `json:"issues"`
}
