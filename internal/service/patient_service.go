package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/medlink-api/internal/dto"
	"github.com/noah-isme/medlink-api/internal/models"
	appErrors "github.com/noah-isme/medlink-api/pkg/errors"
)

type patientRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Patient, error)
	Create(ctx context.Context, patient *models.Patient) error
	Update(ctx context.Context, patient *models.Patient) error
}

// PatientService manages patient profiles and their family members.
type PatientService struct {
	repo      patientRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPatientService instantiates PatientService.
func NewPatientService(repo patientRepository, validate *validator.Validate, logger *zap.Logger) *PatientService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PatientService{repo: repo, validator: validate, logger: logger}
}

// Get returns the patient profile for a user account.
func (s *PatientService) Get(ctx context.Context, userID string) (*models.Patient, error) {
	patient, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "patient profile not set up")
		}
		return nil, err
	}
	return patient, nil
}

// Upsert creates the patient profile on first save and replaces it, family
// members included, afterwards.
func (s *PatientService) Upsert(ctx context.Context, userID string, req dto.PatientProfileRequest) (*models.Patient, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	members := make([]models.FamilyMember, 0, len(req.FamilyMembers))
	for _, m := range req.FamilyMembers {
		members = append(members, models.FamilyMember{
			FullName:     m.FullName,
			Age:          m.Age,
			Relationship: m.Relationship,
		})
	}

	patient, err := s.repo.FindByUserID(ctx, userID)
	switch {
	case err == nil:
		patient.FullName = req.FullName
		patient.Age = req.Age
		patient.Gender = req.Gender
		patient.City = req.City
		patient.PinCode = req.PinCode
		patient.FamilyMembers = members
		if err := s.repo.Update(ctx, patient); err != nil {
			return nil, fmt.Errorf("update patient: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		patient = &models.Patient{
			UserID:        userID,
			FullName:      req.FullName,
			Age:           req.Age,
			Gender:        req.Gender,
			City:          req.City,
			PinCode:       req.PinCode,
			FamilyMembers: members,
		}
		if err := s.repo.Create(ctx, patient); err != nil {
			return nil, fmt.Errorf("create patient: %w", err)
		}
	default:
		return nil, err
	}
	return patient, nil
}
