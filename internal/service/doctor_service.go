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

const doctorSearchCachePrefix = "doctors:search"

type doctorRepository interface {
	Search(ctx context.Context, filter models.DoctorFilter) ([]models.Doctor, int, error)
	FindByID(ctx context.Context, id string) (*models.Doctor, error)
	FindByUserID(ctx context.Context, userID string) (*models.Doctor, error)
	Create(ctx context.Context, doctor *models.Doctor) error
	Update(ctx context.Context, doctor *models.Doctor) error
	ListWindows(ctx context.Context, doctorID string) ([]models.AvailabilityWindow, error)
	ReplaceWindows(ctx context.Context, doctorID string, windows []models.AvailabilityWindow) error
}

// DoctorSearchResult is one page of the public directory.
type DoctorSearchResult struct {
	Doctors    []models.Doctor   `json:"doctors"`
	Pagination models.Pagination `json:"pagination"`
}

// DoctorService manages doctor profiles, the public directory and the
// weekly availability windows bookings expand from.
type DoctorService struct {
	repo      doctorRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger

	searchTTL       time.Duration
	availabilityTTL time.Duration
}

// NewDoctorService instantiates DoctorService.
func NewDoctorService(repo doctorRepository, cache *CacheService, searchTTL, availabilityTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *DoctorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if searchTTL <= 0 {
		searchTTL = 5 * time.Minute
	}
	if availabilityTTL <= 0 {
		availabilityTTL = 10 * time.Minute
	}
	return &DoctorService{
		repo:            repo,
		cache:           cache,
		validator:       validate,
		logger:          logger,
		searchTTL:       searchTTL,
		availabilityTTL: availabilityTTL,
	}
}

func searchCacheKey(filter models.DoctorFilter) string {
	return fmt.Sprintf("%s:%s:%s:%d:%d:%s:%s",
		doctorSearchCachePrefix, filter.Location, filter.Specialty,
		filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
}

// Search returns a page of the public doctor directory, served from cache
// when a matching page was recently computed.
func (s *DoctorService) Search(ctx context.Context, filter models.DoctorFilter) (*DoctorSearchResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	key := searchCacheKey(filter)
	var cached DoctorSearchResult
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	doctors, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search doctors: %w", err)
	}
	result := &DoctorSearchResult{
		Doctors: doctors,
		Pagination: models.Pagination{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalCount: total,
		},
	}
	if err := s.cache.Set(ctx, key, result, s.searchTTL); err != nil {
		s.logger.Warn("failed to cache doctor search", zap.Error(err))
	}
	return result, nil
}

// GetPublic returns a doctor's public profile with availability windows.
func (s *DoctorService) GetPublic(ctx context.Context, doctorID string) (*models.DoctorPublic, error) {
	doctor, err := s.repo.FindByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return nil, err
	}
	windows, err := s.repo.ListWindows(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	return &models.DoctorPublic{Doctor: *doctor, Availabilities: windows}, nil
}

// GetByUserID returns the doctor profile owned by a user account.
func (s *DoctorService) GetByUserID(ctx context.Context, userID string) (*models.Doctor, error) {
	doctor, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor profile not set up")
		}
		return nil, err
	}
	return doctor, nil
}

// UpsertProfile creates the doctor profile on first save and updates it
// afterwards. Directory caches are invalidated either way.
func (s *DoctorService) UpsertProfile(ctx context.Context, userID string, req dto.DoctorProfileRequest) (*models.Doctor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if req.PriceClinic <= 0 && req.PriceOnline <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one consultation type must have a fee")
	}

	doctor, err := s.repo.FindByUserID(ctx, userID)
	switch {
	case err == nil:
		doctor.DisplayName = req.DisplayName
		doctor.Specialty = req.Specialty
		doctor.ExperienceYears = req.ExperienceYears
		doctor.Bio = req.Bio
		doctor.City = req.City
		doctor.PriceClinic = req.PriceClinic
		doctor.PriceOnline = req.PriceOnline
		if err := s.repo.Update(ctx, doctor); err != nil {
			return nil, fmt.Errorf("update doctor: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		doctor = &models.Doctor{
			UserID:          userID,
			DisplayName:     req.DisplayName,
			Specialty:       req.Specialty,
			ExperienceYears: req.ExperienceYears,
			Bio:             req.Bio,
			City:            req.City,
			PriceClinic:     req.PriceClinic,
			PriceOnline:     req.PriceOnline,
		}
		if err := s.repo.Create(ctx, doctor); err != nil {
			return nil, fmt.Errorf("create doctor: %w", err)
		}
	default:
		return nil, err
	}

	s.invalidateDirectory(ctx)
	return doctor, nil
}

// Availability returns the doctor's weekly windows, cache-first.
func (s *DoctorService) Availability(ctx context.Context, doctorID string) ([]models.AvailabilityWindow, error) {
	key := availabilityCacheKey(doctorID)
	var cached []models.AvailabilityWindow
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}
	windows, err := s.repo.ListWindows(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	if err := s.cache.Set(ctx, key, windows, s.availabilityTTL); err != nil {
		s.logger.Warn("failed to cache availability", zap.String("doctor_id", doctorID), zap.Error(err))
	}
	return windows, nil
}

// ReplaceAvailability validates and saves the doctor's full weekly window
// set. The cached view is updated optimistically and rolled back if the
// durable write fails, so a reader never sees windows that were rejected.
func (s *DoctorService) ReplaceAvailability(ctx context.Context, userID string, req dto.UpdateAvailabilityRequest) ([]models.AvailabilityWindow, error) {
	doctor, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	windows := make([]models.AvailabilityWindow, 0, len(req.Slots))
	for i, record := range req.Slots {
		window, err := record.ToWindow(doctor.ID)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("slot %d: %v", i, err))
		}
		windows = append(windows, window)
	}

	previous, err := s.repo.ListWindows(ctx, doctor.ID)
	if err != nil {
		s.logger.Warn("could not snapshot windows before replace", zap.String("doctor_id", doctor.ID), zap.Error(err))
		previous = nil
	}

	err = commitMutation(ctx, s.cache, s.logger, mutation[[]models.AvailabilityWindow]{
		key:      availabilityCacheKey(doctor.ID),
		previous: previous,
		next:     windows,
		ttl:      s.availabilityTTL,
		commit: func(ctx context.Context) error {
			return s.repo.ReplaceWindows(ctx, doctor.ID, windows)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("replace windows: %w", err)
	}

	// Cached expansions built from the old windows are now wrong.
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("slots:%s:*", doctor.ID)); err != nil {
		s.logger.Warn("failed to invalidate slot expansions", zap.String("doctor_id", doctor.ID), zap.Error(err))
	}
	s.invalidateDirectory(ctx)
	return windows, nil
}

func (s *DoctorService) invalidateDirectory(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, doctorSearchCachePrefix+":*"); err != nil {
		s.logger.Warn("failed to invalidate directory cache", zap.Error(err))
	}
}
