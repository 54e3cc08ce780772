package handlers

import (
	"fleet-tracking-service/internal/api/dto"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/services"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	Locations *services.LocationService
}

// Ingest accepts one GPS ping. The response lists any alerts it raised.
func (h *LocationHandler) Ingest(c *gin.Context) {
	var req dto.PingRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.Locations.Ingest(c.Request.Context(), services.PingRequest{
		TruckID:    req.TruckID,
		Lat:        req.Lat,
		Lng:        req.Lng,
		Speed:      req.Speed,
		Heading:    req.Heading,
		RecordedAt: req.RecordedAt,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toPingResponse(res))
}

func (h *LocationHandler) Current(c *gin.Context) {
	pos, err := h.Locations.CurrentPosition(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPositionResponse(*pos))
}

func (h *LocationHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil || !finite(lat) || !finite(lng) {
		badRequest(c, "lat and lng query parameters must be finite numbers")
		return
	}

	n, err := h.Locations.NearbyTruck(c.Request.Context(), domain.Coordinates{Lat: lat, Lng: lng})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NearbyTruckResponse{
		Position:       toPositionResponse(n.Position),
		Assignment:     toAssignmentResponse(n.Assignment),
		DistanceMeters: n.DistanceMeters,
	})
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
