package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/medlink-api/internal/models"
	appErrors "github.com/noah-isme/medlink-api/pkg/errors"
)

const (
	conflictSourceLive     = "live"
	conflictSourceDegraded = "degraded"
)

// ExpandSlots generates candidate slots for a single date from the doctor's
// weekly windows. Only windows matching the date's weekday contribute; each
// matching window is expanded independently and the results concatenated in
// window order. Within a window, slots start at the window start and advance
// by slotMinutes while strictly before the window end, so a trailing slot
// shorter than the step is still emitted. Overlapping windows may produce
// duplicate times; callers render what they get.
func ExpandSlots(windows []models.AvailabilityWindow, date models.Date, slotMinutes int) []models.Slot {
	if slotMinutes <= 0 {
		slotMinutes = 30
	}
	day := date.Weekday()
	slots := make([]models.Slot, 0)
	for _, w := range windows {
		if w.Day != day {
			continue
		}
		for t := w.StartTime; t < w.EndTime; t = t.AddMinutes(slotMinutes) {
			slots = append(slots, models.Slot{Date: date, Time: t, Available: true})
		}
	}
	return slots
}

// FilterConflicts marks slots unavailable when an appointment with a blocking
// status occupies the same date and minute. Cancelled appointments never
// block. The input slice is modified in place and returned.
func FilterConflicts(slots []models.Slot, appointments []models.Appointment) []models.Slot {
	if len(slots) == 0 || len(appointments) == 0 {
		return slots
	}
	type key struct {
		date string
		time models.TimeOfDay
	}
	blocked := make(map[key]struct{}, len(appointments))
	for _, a := range appointments {
		if !a.Status.Blocks() {
			continue
		}
		blocked[key{date: a.Date.String(), time: a.Time}] = struct{}{}
	}
	for i := range slots {
		if _, ok := blocked[key{date: slots[i].Date.String(), time: slots[i].Time}]; ok {
			slots[i].Available = false
		}
	}
	return slots
}

type slotDoctorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Doctor, error)
	ListWindows(ctx context.Context, doctorID string) ([]models.AvailabilityWindow, error)
}

type slotAppointmentRepository interface {
	ListByDoctorAndDate(ctx context.Context, doctorID string, date models.Date) ([]models.Appointment, error)
}

// SlotService expands a doctor's weekly availability into bookable slots for
// a concrete date, filtered against existing appointments.
type SlotService struct {
	doctors      slotDoctorRepository
	appointments slotAppointmentRepository
	cache        *CacheService
	metrics      *MetricsService
	logger       *zap.Logger

	slotMinutes  int
	expansionTTL time.Duration
	windowTTL    time.Duration
}

// SlotServiceConfig tunes expansion behaviour.
type SlotServiceConfig struct {
	SlotMinutes          int
	ExpansionTTL         time.Duration
	AvailabilityCacheTTL time.Duration
}

// NewSlotService instantiates SlotService.
func NewSlotService(doctors slotDoctorRepository, appointments slotAppointmentRepository, cache *CacheService, metrics *MetricsService, cfg SlotServiceConfig, logger *zap.Logger) *SlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlotMinutes <= 0 {
		cfg.SlotMinutes = 30
	}
	if cfg.ExpansionTTL <= 0 {
		cfg.ExpansionTTL = 15 * time.Minute
	}
	if cfg.AvailabilityCacheTTL <= 0 {
		cfg.AvailabilityCacheTTL = 10 * time.Minute
	}
	return &SlotService{
		doctors:      doctors,
		appointments: appointments,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
		slotMinutes:  cfg.SlotMinutes,
		expansionTTL: cfg.ExpansionTTL,
		windowTTL:    cfg.AvailabilityCacheTTL,
	}
}

func expansionCacheKey(doctorID string, date models.Date) string {
	return fmt.Sprintf("slots:%s:%s", doctorID, date.String())
}

func availabilityCacheKey(doctorID string) string {
	return fmt.Sprintf("availability:%s", doctorID)
}

// DaySlots expands the doctor's windows for the given date and filters them
// against existing appointments. A failure to load appointments degrades to
// returning the unfiltered expansion rather than erroring out; the result is
// marked Degraded so callers can surface it.
func (s *SlotService) DaySlots(ctx context.Context, doctorID string, date models.Date) (*models.SlotExpansion, error) {
	if _, err := s.doctors.FindByID(ctx, doctorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return nil, err
	}

	windows, err := s.loadWindows(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	slots := ExpandSlots(windows, date, s.slotMinutes)

	source := conflictSourceLive
	degraded := false
	if len(slots) > 0 {
		appointments, err := s.appointments.ListByDoctorAndDate(ctx, doctorID, date)
		if err != nil {
			s.logger.Warn("appointment lookup failed, serving unfiltered slots",
				zap.String("doctor_id", doctorID),
				zap.String("date", date.String()),
				zap.Error(err))
			source = conflictSourceDegraded
			degraded = true
		} else {
			slots = FilterConflicts(slots, appointments)
		}
	}

	expansion := &models.SlotExpansion{
		DoctorID:    doctorID,
		Date:        date,
		SlotMinutes: s.slotMinutes,
		Slots:       slots,
		Degraded:    degraded,
		GeneratedAt: time.Now().UTC(),
	}

	if !degraded {
		if err := s.cache.Set(ctx, expansionCacheKey(doctorID, date), expansion, s.expansionTTL); err != nil {
			s.logger.Warn("failed to cache slot expansion", zap.String("doctor_id", doctorID), zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.RecordSlotExpansion(source, len(slots))
	}
	return expansion, nil
}

// RecentExpansion returns the most recent cached expansion for the doctor and
// date, or nil when none is cached.
func (s *SlotService) RecentExpansion(ctx context.Context, doctorID string, date models.Date) (*models.SlotExpansion, error) {
	var expansion models.SlotExpansion
	hit, err := s.cache.Get(ctx, expansionCacheKey(doctorID, date), &expansion)
	if err != nil || !hit {
		return nil, err
	}
	return &expansion, nil
}

// InvalidateExpansion drops the cached expansion for the doctor and date,
// typically after a booking changes slot availability.
func (s *SlotService) InvalidateExpansion(ctx context.Context, doctorID string, date models.Date) {
	if err := s.cache.Delete(ctx, expansionCacheKey(doctorID, date)); err != nil {
		s.logger.Warn("failed to invalidate slot expansion", zap.String("doctor_id", doctorID), zap.Error(err))
	}
}

func (s *SlotService) loadWindows(ctx context.Context, doctorID string) ([]models.AvailabilityWindow, error) {
	key := availabilityCacheKey(doctorID)
	var cached []models.AvailabilityWindow
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	windows, err := s.doctors.ListWindows(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	if err := s.cache.Set(ctx, key, windows, s.windowTTL); err != nil {
		s.logger.Warn("failed to cache availability windows", zap.String("doctor_id", doctorID), zap.Error(err))
	}
	return windows, nil
}
