package dto

import "time"

type AlertResponse struct {
	ID             string     `json:"id"`
	AssignmentID   string     `json:"route_assignment_id"`
	TruckID        string     `json:"truck_id"`
	DriverID       string     `json:"driver_id"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	Message        string     `json:"message"`
	Occurrences    int        `json:"occurrences"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at"`
}

type ListAlertsResponse struct {
	Alerts []AlertResponse `json:"alerts"`
}

type AcknowledgeAlertRequest struct {
	Status string `json:"status" binding:"required"`
}
