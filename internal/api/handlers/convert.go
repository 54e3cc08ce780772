package handlers

import (
	"fleet-tracking-service/internal/api/dto"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/services"
)

func toRouteResponse(r *domain.Route) dto.RouteResponse {
	wps := make([]dto.WaypointResponse, 0, len(r.Waypoints))
	for _, w := range r.Waypoints {
		wps = append(wps, dto.WaypointResponse{
			Lat:           w.Lat,
			Lng:           w.Lng,
			SequenceOrder: w.SequenceOrder,
			StreetName:    w.StreetName,
		})
	}
	return dto.RouteResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Status:      string(r.Status),
		Waypoints:   wps,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toAssignmentResponse(a *domain.Assignment) dto.AssignmentResponse {
	return dto.AssignmentResponse{
		ID:             a.ID,
		RouteID:        a.RouteID,
		TruckID:        a.TruckID,
		DriverID:       a.DriverID,
		Status:         string(a.Status),
		ScheduledStart: a.ScheduledStart,
		ScheduledEnd:   a.ScheduledEnd,
		ActualStart:    a.ActualStart,
		CompletedAt:    a.CompletedAt,
		CancelledAt:    a.CancelledAt,
		Notes:          a.Notes,
		AssignedBy:     a.AssignedBy,
		CreatedAt:      a.CreatedAt,
	}
}

func toPositionResponse(p domain.TruckPosition) dto.PositionResponse {
	return dto.PositionResponse{
		TruckID:      p.TruckID,
		AssignmentID: p.AssignmentID,
		Lat:          p.Lat,
		Lng:          p.Lng,
		Speed:        p.Speed,
		Heading:      p.Heading,
		RecordedAt:   p.RecordedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toAlertResponse(a *domain.SystemAlert) dto.AlertResponse {
	return dto.AlertResponse{
		ID:             a.ID,
		AssignmentID:   a.AssignmentID,
		TruckID:        a.TruckID,
		DriverID:       a.DriverID,
		Type:           string(a.Type),
		Status:         string(a.Status),
		Message:        a.Message,
		Occurrences:    a.Occurrences,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		AcknowledgedAt: a.AcknowledgedAt,
	}
}

func toPingResponse(res *services.IngestResult) dto.PingResponse {
	out := dto.PingResponse{Started: res.Started, Alerts: make([]dto.RaisedAlertDTO, 0, len(res.Alerts))}
	if res.Assignment != nil {
		out.AssignmentID = &res.Assignment.ID
	}
	for _, ra := range res.Alerts {
		out.Alerts = append(out.Alerts, dto.RaisedAlertDTO{Outcome: ra.Outcome.String(), Alert: toAlertResponse(ra.Alert)})
	}
	return out
}

func toIssueResponse(r domain.IssueReport) dto.IssueResponse {
	return dto.IssueResponse{
		Source:       string(r.Source),
		ID:           r.ID,
		ReporterID:   r.ReporterID,
		AssignmentID: r.AssignmentID,
		Type:         r.Type,
		Status:       string(r.Status),
		Description:  r.Description,
		PhotoURL:     r.PhotoURL,
		Lat:          r.Lat,
		Lng:          r.Lng,
		CreatedAt:    r.CreatedAt,
		ResolvedAt:   r.ResolvedAt,
	}
}
