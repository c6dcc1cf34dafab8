package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/medlink-api/internal/dto"
	"github.com/noah-isme/medlink-api/internal/models"
	"github.com/noah-isme/medlink-api/internal/service"
	appErrors "github.com/noah-isme/medlink-api/pkg/errors"
	"github.com/noah-isme/medlink-api/pkg/response"
)

// DoctorHandler manages doctor directory and profile endpoints.
type DoctorHandler struct {
	doctors *service.DoctorService
	booking *service.BookingService
	exports *service.ExportService
}

// NewDoctorHandler constructs handler.
func NewDoctorHandler(doctors *service.DoctorService, booking *service.BookingService, exports *service.ExportService) *DoctorHandler {
	return &DoctorHandler{doctors: doctors, booking: booking, exports: exports}
}

// List godoc
// @Summary Search the doctor directory
// @Tags Doctors
// @Produce json
// @Param location query string false "Filter by city"
// @Param specialization query string false "Filter by specialty"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /doctor/list [get]
func (h *DoctorHandler) List(c *gin.Context) {
	var filter models.DoctorFilter
	filter.Location = c.Query("location")
	filter.Specialty = c.Query("specialization")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	result, err := h.doctors.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Doctors, &result.Pagination)
}

// Get godoc
// @Summary Public doctor profile
// @Tags Doctors
// @Produce json
// @Param id path string true "Doctor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /doctor/{id} [get]
func (h *DoctorHandler) Get(c *gin.Context) {
	public, err := h.doctors.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, public, nil)
}

// Profile godoc
// @Summary Own doctor profile
// @Tags Doctors
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /doctor/profile [get]
func (h *DoctorHandler) Profile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	doctor, err := h.doctors.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doctor, nil)
}

// UpsertProfile godoc
// @Summary Create or update own doctor profile
// @Tags Doctors
// @Accept json
// @Produce json
// @Param payload body dto.DoctorProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /doctor/profile [put]
func (h *DoctorHandler) UpsertProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DoctorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}
	doctor, err := h.doctors.UpsertProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doctor, nil)
}

// Availability godoc
// @Summary Own weekly availability windows
// @Tags Doctors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /doctor/availability [get]
func (h *DoctorHandler) Availability(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	doctor, err := h.doctors.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	windows, err := h.doctors.Availability(c.Request.Context(), doctor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"slots": windows}, nil)
}

// UpdateAvailability godoc
// @Summary Replace weekly availability windows
// @Tags Doctors
// @Accept json
// @Produce json
// @Param payload body dto.UpdateAvailabilityRequest true "Window set"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /doctor/availability [put]
func (h *DoctorHandler) UpdateAvailability(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	windows, err := h.doctors.ReplaceAvailability(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"slots": windows}, nil)
}

// Appointments godoc
// @Summary Own appointment book
// @Tags Doctors
// @Produce json
// @Param date query string false "Filter by date (YYYY-MM-DD)"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /doctor/appointments [get]
func (h *DoctorHandler) Appointments(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	doctor, err := h.doctors.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	filter, err := appointmentFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	appointments, err := h.booking.DoctorAppointments(c.Request.Context(), doctor.ID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointments, nil)
}

// UpdateAppointmentStatus godoc
// @Summary Confirm or cancel an appointment
// @Tags Doctors
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body dto.UpdateAppointmentStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /doctor/appointments/{id}/status [put]
func (h *DoctorHandler) UpdateAppointmentStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	doctor, err := h.doctors.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	appointment, err := h.booking.UpdateStatus(c.Request.Context(), doctor.ID, c.Param("id"), models.AppointmentStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, nil)
}

// Dashboard godoc
// @Summary Appointment load summary
// @Tags Doctors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /doctor/dashboard [get]
func (h *DoctorHandler) Dashboard(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	doctor, err := h.doctors.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	stats, err := h.booking.Dashboard(c.Request.Context(), doctor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// ExportAppointments godoc
// @Summary Download appointment book
// @Tags Doctors
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Param date query string false "Filter by date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Router /doctor/appointments/export [get]
func (h *DoctorHandler) ExportAppointments(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	doctor, err := h.doctors.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	filter, err := appointmentFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.Appointments(c.Request.Context(), doctor.ID, c.DefaultQuery("format", "csv"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.ContentType, result.Filename, result.Payload)
}

func appointmentFilterFromQuery(c *gin.Context) (models.AppointmentFilter, error) {
	var filter models.AppointmentFilter
	if raw := c.Query("date"); raw != "" {
		date, err := models.ParseDate(raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid date filter")
		}
		filter.Date = &date
	}
	if raw := c.Query("status"); raw != "" {
		status := models.AppointmentStatus(raw)
		switch status {
		case models.StatusPending, models.StatusConfirmed, models.StatusCancelled:
			filter.Status = &status
		default:
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
		}
	}
	return filter, nil
}
