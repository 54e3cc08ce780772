package dto

import "time"

type ScheduleAssignmentRequest struct {
	RouteID        string     `json:"route_id" binding:"required"`
	TruckID        string     `json:"truck_id" binding:"required"`
	DriverID       string     `json:"driver_id" binding:"required"`
	ScheduledStart time.Time  `json:"scheduled_start_time" binding:"required"`
	ScheduledEnd   *time.Time `json:"scheduled_end_time"`
	Notes          *string    `json:"notes"`
}

type AssignmentResponse struct {
	ID             string     `json:"id"`
	RouteID        string     `json:"route_id"`
	TruckID        string     `json:"truck_id"`
	DriverID       string     `json:"driver_id"`
	Status         string     `json:"status"`
	ScheduledStart time.Time  `json:"scheduled_start_time"`
	ScheduledEnd   *time.Time `json:"scheduled_end_time"`
	ActualStart    *time.Time `json:"actual_start_time"`
	CompletedAt    *time.Time `json:"actual_end_time"`
	CancelledAt    *time.Time `json:"cancelled_at"`
	Notes          *string    `json:"notes"`
	AssignedBy     string     `json:"assigned_by"`
	CreatedAt      time.Time  `json:"created_at"`
}

// CurrentAssignmentResponse is what a driver sees when opening the app.
type CurrentAssignmentResponse struct {
	Assignment AssignmentResponse `json:"assignment"`
	Route      RouteResponse      `json:"route"`
}
