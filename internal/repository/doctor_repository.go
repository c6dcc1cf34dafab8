package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/medlink-api/internal/models"
)

const doctorColumns = `id, user_id, display_name, specialty, experience_years, bio, city, price_clinic, price_online, created_at, updated_at`

// DoctorRepository provides persistence for doctor profiles and their
// weekly availability windows.
type DoctorRepository struct {
	db *sqlx.DB
}

// NewDoctorRepository creates a new doctor repository.
func NewDoctorRepository(db *sqlx.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

// Search returns doctors matching the directory filter with a total count.
func (r *DoctorRepository) Search(ctx context.Context, filter models.DoctorFilter) ([]models.Doctor, int, error) {
	base := "FROM doctors WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Location != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(city) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Location)+"%")
	}
	if filter.Specialty != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(specialty) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Specialty)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"display_name":     true,
		"specialty":        true,
		"experience_years": true,
		"created_at":       true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "display_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", doctorColumns, base, sortBy, order, size, offset)
	var doctors []models.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search doctors: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}

	return doctors, total, nil
}

// FindByID loads a doctor profile by id.
func (r *DoctorRepository) FindByID(ctx context.Context, id string) (*models.Doctor, error) {
	query := fmt.Sprintf(`SELECT %s FROM doctors WHERE id = $1 LIMIT 1`, doctorColumns)
	var doctor models.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find doctor by id: %w", err)
	}
	return &doctor, nil
}

// FindByUserID loads the doctor profile owned by an account.
func (r *DoctorRepository) FindByUserID(ctx context.Context, userID string) (*models.Doctor, error) {
	query := fmt.Sprintf(`SELECT %s FROM doctors WHERE user_id = $1 LIMIT 1`, doctorColumns)
	var doctor models.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find doctor by user id: %w", err)
	}
	return &doctor, nil
}

// Create stores a new doctor profile.
func (r *DoctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	if doctor.ID == "" {
		doctor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	doctor.CreatedAt = now
	doctor.UpdatedAt = now

	const query = `INSERT INTO doctors (id, user_id, display_name, specialty, experience_years, bio, city, price_clinic, price_online, created_at, updated_at) VALUES (:id, :user_id, :display_name, :specialty, :experience_years, :bio, :city, :price_clinic, :price_online, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doctor); err != nil {
		return fmt.Errorf("create doctor: %w", err)
	}
	return nil
}

// Update modifies an existing doctor profile.
func (r *DoctorRepository) Update(ctx context.Context, doctor *models.Doctor) error {
	doctor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE doctors SET display_name = :display_name, specialty = :specialty, experience_years = :experience_years, bio = :bio, city = :city, price_clinic = :price_clinic, price_online = :price_online, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, doctor); err != nil {
		return fmt.Errorf("update doctor: %w", err)
	}
	return nil
}

// ListWindows returns a doctor's availability windows ordered by day/time.
// Day ordering is ISO weekday order so Monday windows come first.
func (r *DoctorRepository) ListWindows(ctx context.Context, doctorID string) ([]models.AvailabilityWindow, error) {
	const query = `SELECT id, doctor_id, day_of_week, start_time, end_time, created_at, updated_at FROM availability_windows WHERE doctor_id = $1 ORDER BY
		CASE day_of_week
			WHEN 'Monday' THEN 1 WHEN 'Tuesday' THEN 2 WHEN 'Wednesday' THEN 3 WHEN 'Thursday' THEN 4
			WHEN 'Friday' THEN 5 WHEN 'Saturday' THEN 6 ELSE 7
		END ASC, start_time ASC`
	var windows []models.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query, doctorID); err != nil {
		return nil, fmt.Errorf("list availability windows: %w", err)
	}
	return windows, nil
}

// ReplaceWindows swaps the full weekly window set inside a transaction so a
// failed bulk edit never leaves a partial week behind.
func (r *DoctorRepository) ReplaceWindows(ctx context.Context, doctorID string, windows []models.AvailabilityWindow) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace windows: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM availability_windows WHERE doctor_id = $1`, doctorID); err != nil {
		return fmt.Errorf("clear availability windows: %w", err)
	}

	now := time.Now().UTC()
	for i := range windows {
		payload := windows[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		payload.DoctorID = doctorID
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err = tx.NamedExecContext(ctx, `INSERT INTO availability_windows (id, doctor_id, day_of_week, start_time, end_time, created_at, updated_at) VALUES (:id, :doctor_id, :day_of_week, :start_time, :end_time, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("insert availability window: %w", err)
		}
		windows[i] = payload
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace windows: %w", err)
	}
	return nil
}
