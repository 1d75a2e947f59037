// README: Itinerary handlers; plan a trip or re-score edited days.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wayfarer/internal/modules/quality"
	"wayfarer/internal/service"
	"wayfarer/internal/types"
)

// Planner is the part of service.TripPlanner the handlers need.
type Planner interface {
	Plan(ctx context.Context, req service.PlanRequest) (*service.Itinerary, error)
}

type ItineraryHandler struct {
	planner Planner
	gate    *quality.Gate
	timeout time.Duration
}

func NewItineraryHandler(planner Planner, gate *quality.Gate, timeout time.Duration) *ItineraryHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ItineraryHandler{planner: planner, gate: gate, timeout: timeout}
}

// Create handles POST /api/itineraries.
func (h *ItineraryHandler) Create(c *gin.Context) {
	var req service.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	it, err := h.planner.Plan(ctx, req)
	if err != nil {
		writePlanError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, it)
}

type validateReq struct {
	Days          []types.TripDay      `json:"days"`
	Accommodation *types.Accommodation `json:"accommodation,omitempty"`
}

type validateResp struct {
	Validation types.ValidationResult `json:"validation"`
	Days       []types.TripDay        `json:"days"`
}

// Validate handles POST /api/itineraries/validate for days edited by the client.
func (h *ItineraryHandler) Validate(c *gin.Context) {
	var req validateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Days) == 0 {
		writeError(c, http.StatusBadRequest, "missing days")
		return
	}
	res, days := h.gate.Validate(req.Days, quality.Context{Accommodation: req.Accommodation})
	writeJSON(c, http.StatusOK, validateResp{Validation: res, Days: days})
}
