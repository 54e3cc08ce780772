package dto

import "time"

type PingRequest struct {
	TruckID    string    `json:"truck_id" binding:"required"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Speed      *float64  `json:"speed"`
	Heading    *float64  `json:"heading"`
	RecordedAt time.Time `json:"recorded_at" binding:"required"`
}

type PingResponse struct {
	AssignmentID *string          `json:"assignment_id"`
	Started      bool             `json:"started"`
	Alerts       []RaisedAlertDTO `json:"alerts"`
}

type RaisedAlertDTO struct {
	Outcome string        `json:"outcome"`
	Alert   AlertResponse `json:"alert"`
}

type PositionResponse struct {
	TruckID      string    `json:"truck_id"`
	AssignmentID *string   `json:"assignment_id"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Speed        *float64  `json:"speed"`
	Heading      *float64  `json:"heading"`
	RecordedAt   time.Time `json:"recorded_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type NearbyTruckResponse struct {
	Position       PositionResponse   `json:"position"`
	Assignment     AssignmentResponse `json:"assignment"`
	DistanceMeters float64            `json:"distance_meters"`
}
