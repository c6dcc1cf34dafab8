package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/medlink-api/internal/dto"
	"github.com/noah-isme/medlink-api/internal/models"
	appErrors "github.com/noah-isme/medlink-api/pkg/errors"
)

// timeNow is swapped out in tests.
var timeNow = time.Now

type bookingDoctorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Doctor, error)
}

type bookingAppointmentRepository interface {
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, error)
	ListByDoctorAndDate(ctx context.Context, doctorID string, date models.Date) ([]models.Appointment, error)
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	Create(ctx context.Context, appointment *models.Appointment) error
	UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error
}

type bookingPatientRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Patient, error)
}

type slotExpander interface {
	DaySlots(ctx context.Context, doctorID string, date models.Date) (*models.SlotExpansion, error)
	RecentExpansion(ctx context.Context, doctorID string, date models.Date) (*models.SlotExpansion, error)
	InvalidateExpansion(ctx context.Context, doctorID string, date models.Date)
}

// BookingService validates slot selections and turns them into appointments.
type BookingService struct {
	doctors      bookingDoctorRepository
	appointments bookingAppointmentRepository
	patients     bookingPatientRepository
	slots        slotExpander
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewBookingService instantiates BookingService.
func NewBookingService(doctors bookingDoctorRepository, appointments bookingAppointmentRepository, patients bookingPatientRepository, slots slotExpander, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		doctors:      doctors,
		appointments: appointments,
		patients:     patients,
		slots:        slots,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
	}
}

// buildRequest parses and normalises the raw booking payload.
func (s *BookingService) buildRequest(req dto.BookAppointmentRequest) (*models.BookingRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date: %v", err))
	}
	slotTime, err := models.ParseTimeOfDay(req.Time)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid time: %v", err))
	}
	consultType, err := models.ParseConsultationType(req.Type)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return &models.BookingRequest{
		DoctorID: req.DoctorID,
		Date:     date,
		Time:     slotTime,
		Type:     consultType,
	}, nil
}

// Book validates the selected slot against the most recent expansion and
// creates a Pending appointment for the patient. The fee is captured from
// the doctor's current price for the consultation type at booking time.
func (s *BookingService) Book(ctx context.Context, patientUserID string, req dto.BookAppointmentRequest) (*models.Appointment, error) {
	booking, err := s.buildRequest(req)
	if err != nil {
		s.recordOutcome("invalid")
		return nil, err
	}

	doctor, err := s.doctors.FindByID(ctx, booking.DoctorID)
	if err != nil {
		s.recordOutcome("error")
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return nil, err
	}

	fee := doctor.Fee(booking.Type)
	if fee <= 0 {
		s.recordOutcome("no_fee")
		return nil, appErrors.ErrNoFeeConfigured
	}

	expansion, err := s.slots.RecentExpansion(ctx, booking.DoctorID, booking.Date)
	if err != nil {
		s.logger.Warn("recent expansion lookup failed", zap.String("doctor_id", booking.DoctorID), zap.Error(err))
	}
	if expansion == nil {
		// No recent expansion to validate against; recompute one so the
		// selection is checked against current availability.
		expansion, err = s.slots.DaySlots(ctx, booking.DoctorID, booking.Date)
		if err != nil {
			s.recordOutcome("error")
			return nil, err
		}
	}

	slot, ok := expansion.Find(booking.Time)
	if !ok {
		s.recordOutcome("stale_slot")
		return nil, appErrors.ErrStaleSlot
	}
	if !slot.Available {
		s.recordOutcome("unavailable")
		return nil, appErrors.ErrSlotUnavailable
	}

	// The expansion may predate another patient's booking; recheck against
	// the live appointment table before committing.
	existing, err := s.appointments.ListByDoctorAndDate(ctx, booking.DoctorID, booking.Date)
	if err != nil {
		s.recordOutcome("error")
		return nil, fmt.Errorf("conflict recheck: %w", err)
	}
	for _, a := range existing {
		if a.Status.Blocks() && a.Time == booking.Time {
			s.recordOutcome("unavailable")
			return nil, appErrors.ErrSlotUnavailable
		}
	}

	patientName := ""
	patientID := patientUserID
	if patient, err := s.patients.FindByUserID(ctx, patientUserID); err == nil {
		patientName = patient.FullName
		patientID = patient.ID
	} else if !errors.Is(err, sql.ErrNoRows) {
		s.recordOutcome("error")
		return nil, err
	}

	appointment := &models.Appointment{
		DoctorID:    booking.DoctorID,
		PatientID:   patientID,
		PatientName: patientName,
		Date:        booking.Date,
		Time:        booking.Time,
		Type:        booking.Type,
		Status:      models.StatusPending,
		Fee:         fee,
	}
	if err := s.appointments.Create(ctx, appointment); err != nil {
		s.recordOutcome("error")
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.slots.InvalidateExpansion(ctx, booking.DoctorID, booking.Date)
	s.recordOutcome("booked")
	s.logger.Info("appointment booked",
		zap.String("appointment_id", appointment.ID),
		zap.String("doctor_id", appointment.DoctorID),
		zap.String("date", appointment.Date.String()),
		zap.String("time", appointment.Time.String()))
	return appointment, nil
}

// PatientAppointments lists appointments for the patient behind the given
// user account, newest date first as stored.
func (s *BookingService) PatientAppointments(ctx context.Context, patientUserID string) ([]models.Appointment, error) {
	patient, err := s.patients.FindByUserID(ctx, patientUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.Appointment{}, nil
		}
		return nil, err
	}
	return s.appointments.List(ctx, models.AppointmentFilter{PatientID: patient.ID})
}

// DoctorAppointments lists appointments for a doctor, optionally narrowed to
// one date or status.
func (s *BookingService) DoctorAppointments(ctx context.Context, doctorID string, filter models.AppointmentFilter) ([]models.Appointment, error) {
	filter.DoctorID = doctorID
	return s.appointments.List(ctx, filter)
}

// Cancel cancels the patient's own appointment. Cancelled appointments stop
// blocking their slot immediately.
func (s *BookingService) Cancel(ctx context.Context, patientUserID, appointmentID string) (*models.Appointment, error) {
	patient, err := s.patients.FindByUserID(ctx, patientUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrForbidden
		}
		return nil, err
	}
	appointment, err := s.appointments.FindByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, err
	}
	if appointment.PatientID != patient.ID {
		return nil, appErrors.ErrForbidden
	}
	return s.transition(ctx, appointment, models.StatusCancelled)
}

// UpdateStatus applies a doctor-side status transition. Pending appointments
// may be confirmed or cancelled; confirmed ones may only be cancelled.
func (s *BookingService) UpdateStatus(ctx context.Context, doctorID, appointmentID string, status models.AppointmentStatus) (*models.Appointment, error) {
	appointment, err := s.appointments.FindByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, err
	}
	if appointment.DoctorID != doctorID {
		return nil, appErrors.ErrForbidden
	}
	return s.transition(ctx, appointment, status)
}

func (s *BookingService) transition(ctx context.Context, appointment *models.Appointment, next models.AppointmentStatus) (*models.Appointment, error) {
	allowed := false
	switch appointment.Status {
	case models.StatusPending:
		allowed = next == models.StatusConfirmed || next == models.StatusCancelled
	case models.StatusConfirmed:
		allowed = next == models.StatusCancelled
	}
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("cannot move appointment from %s to %s", appointment.Status, next))
	}
	if err := s.appointments.UpdateStatus(ctx, appointment.ID, next); err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	appointment.Status = next
	if next == models.StatusCancelled {
		// A freed slot should reappear on the next expansion.
		s.slots.InvalidateExpansion(ctx, appointment.DoctorID, appointment.Date)
	}
	return appointment, nil
}

// Dashboard summarises the doctor's appointment load.
func (s *BookingService) Dashboard(ctx context.Context, doctorID string) (*models.DashboardStats, error) {
	appointments, err := s.appointments.List(ctx, models.AppointmentFilter{DoctorID: doctorID})
	if err != nil {
		return nil, err
	}
	today := models.DateOf(timeNow())
	stats := &models.DashboardStats{Total: len(appointments)}
	for _, a := range appointments {
		if a.Date.Equal(today) {
			stats.Today++
		}
		if a.Status == models.StatusPending {
			stats.Pending++
		}
	}
	return stats, nil
}

func (s *BookingService) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordBookingAttempt(outcome)
	}
}
