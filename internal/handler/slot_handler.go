package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/medlink-api/internal/models"
	"github.com/noah-isme/medlink-api/internal/service"
	appErrors "github.com/noah-isme/medlink-api/pkg/errors"
	"github.com/noah-isme/medlink-api/pkg/response"
)

// SlotHandler serves bookable slot expansions.
type SlotHandler struct {
	slots *service.SlotService
}

// NewSlotHandler constructs handler.
func NewSlotHandler(slots *service.SlotService) *SlotHandler {
	return &SlotHandler{slots: slots}
}

// DaySlots godoc
// @Summary Bookable slots for a doctor and date
// @Description Expands the doctor's weekly windows into concrete slots,
// @Description marking those blocked by existing appointments.
// @Tags Slots
// @Produce json
// @Param id path string true "Doctor ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /doctor/{id}/slots [get]
func (h *SlotHandler) DaySlots(c *gin.Context) {
	raw := c.Query("date")
	if raw == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}

	expansion, err := h.slots.DaySlots(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	meta := map[string]interface{}{"slot_minutes": expansion.SlotMinutes}
	if expansion.Degraded {
		meta["degraded"] = true
		meta["conflict_source"] = "degraded"
	}
	response.JSON(c, http.StatusOK, expansion.Slots, nil, meta)
}
