package dto

import "time"

type WaypointRequest struct {
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	SequenceOrder int     `json:"sequence_order"`
	StreetName    *string `json:"street_name"`
}

type CreateRouteRequest struct {
	Name        string            `json:"name" binding:"required"`
	Description *string           `json:"description"`
	Status      string            `json:"status"`
	Waypoints   []WaypointRequest `json:"waypoints"`
}

type ReorderWaypointsRequest struct {
	Order []int `json:"order" binding:"required"`
}

type AddWaypointRequest struct {
	Position   int     `json:"position"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	StreetName *string `json:"street_name"`
}

type WaypointResponse struct {
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	SequenceOrder int     `json:"sequence_order"`
	StreetName    *string `json:"street_name"`
}

type RouteResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description *string            `json:"description"`
	Status      string             `json:"status"`
	Waypoints   []WaypointResponse `json:"waypoints"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
