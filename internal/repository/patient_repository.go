package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/medlink-api/internal/models"
)

// PatientRepository provides persistence for patient profiles and their
// family members.
type PatientRepository struct {
	db *sqlx.DB
}

// NewPatientRepository creates a new patient repository.
func NewPatientRepository(db *sqlx.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// FindByUserID loads the patient profile owned by an account, including
// family members.
func (r *PatientRepository) FindByUserID(ctx context.Context, userID string) (*models.Patient, error) {
	const query = `SELECT id, user_id, full_name, age, gender, city, pin_code, created_at, updated_at FROM patients WHERE user_id = $1 LIMIT 1`
	var patient models.Patient
	if err := r.db.GetContext(ctx, &patient, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find patient by user id: %w", err)
	}

	const membersQuery = `SELECT id, patient_id, full_name, age, relationship FROM family_members WHERE patient_id = $1 ORDER BY full_name ASC`
	if err := r.db.SelectContext(ctx, &patient.FamilyMembers, membersQuery, patient.ID); err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	return &patient, nil
}

// Create stores a new patient profile together with its family members.
func (r *PatientRepository) Create(ctx context.Context, patient *models.Patient) (err error) {
	if patient.ID == "" {
		patient.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	patient.CreatedAt = now
	patient.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create patient: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO patients (id, user_id, full_name, age, gender, city, pin_code, created_at, updated_at) VALUES (:id, :user_id, :full_name, :age, :gender, :city, :pin_code, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, patient); err != nil {
		return fmt.Errorf("create patient: %w", err)
	}

	if err = insertFamilyMembers(ctx, tx, patient); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create patient: %w", err)
	}
	return nil
}

// Update replaces the patient profile and its family member set.
func (r *PatientRepository) Update(ctx context.Context, patient *models.Patient) (err error) {
	patient.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update patient: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE patients SET full_name = :full_name, age = :age, gender = :gender, city = :city, pin_code = :pin_code, updated_at = :updated_at WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, query, patient); err != nil {
		return fmt.Errorf("update patient: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM family_members WHERE patient_id = $1`, patient.ID); err != nil {
		return fmt.Errorf("clear family members: %w", err)
	}

	if err = insertFamilyMembers(ctx, tx, patient); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update patient: %w", err)
	}
	return nil
}

func insertFamilyMembers(ctx context.Context, tx *sqlx.Tx, patient *models.Patient) error {
	for i := range patient.FamilyMembers {
		member := patient.FamilyMembers[i]
		if member.ID == "" {
			member.ID = uuid.NewString()
		}
		member.PatientID = patient.ID

		if _, err := tx.NamedExecContext(ctx, `INSERT INTO family_members (id, patient_id, full_name, age, relationship) VALUES (:id, :patient_id, :full_name, :age, :relationship)`, &member); err != nil {
			return fmt.Errorf("insert family member: %w", err)
		}
		patient.FamilyMembers[i] = member
	}
	return nil
}
