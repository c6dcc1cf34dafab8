package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/medlink-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func doctorRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "display_name", "specialty", "experience_years", "bio", "city", "price_clinic", "price_online", "created_at", "updated_at"})
}

func TestDoctorRepositorySearchFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDoctorRepository(db)

	rows := doctorRows().
		AddRow("doc-1", "user-1", "Dr. Asha Rao", "Cardiology", 12, nil, "Pune", 50000, 30000, time.Now(), time.Now())
	mock.ExpectQuery(`SELECT id, user_id, .+ FROM doctors WHERE 1=1 AND LOWER\(city\) LIKE \$1 AND LOWER\(specialty\) LIKE \$2 ORDER BY display_name ASC LIMIT 20 OFFSET 0`).
		WithArgs("%pune%", "%cardio%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM doctors WHERE 1=1")).
		WithArgs("%pune%", "%cardio%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	doctors, total, err := repo.Search(context.Background(), models.DoctorFilter{Location: "Pune", Specialty: "Cardio"})
	require.NoError(t, err)
	assert.Len(t, doctors, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Dr. Asha Rao", doctors[0].DisplayName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepositorySearchRejectsUnknownSortColumn(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDoctorRepository(db)

	mock.ExpectQuery(`ORDER BY display_name ASC LIMIT 20 OFFSET 0`).
		WillReturnRows(doctorRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM doctors WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.Search(context.Background(), models.DoctorFilter{SortBy: "fee; DROP TABLE doctors"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDoctorRepository(db)

	mock.ExpectQuery(`SELECT id, user_id, .+ FROM doctors WHERE id = \$1 LIMIT 1`).
		WithArgs("doc-missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "doc-missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDoctorRepository(db)

	mock.ExpectExec(`INSERT INTO doctors`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	doctor := &models.Doctor{UserID: "user-1", DisplayName: "Dr. Asha Rao", Specialty: "Cardiology", City: "Pune", PriceClinic: 50000}
	require.NoError(t, repo.Create(context.Background(), doctor))
	assert.NotEmpty(t, doctor.ID)
	assert.False(t, doctor.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepositoryListWindowsOrdered(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDoctorRepository(db)

	rows := sqlmock.NewRows([]string{"id", "doctor_id", "day_of_week", "start_time", "end_time", "created_at", "updated_at"}).
		AddRow("win-1", "doc-1", "Monday", "09:00:00", "12:00:00", time.Now(), time.Now()).
		AddRow("win-2", "doc-1", "Friday", "14:00:00", "17:00:00", time.Now(), time.Now())
	mock.ExpectQuery(`SELECT id, doctor_id, day_of_week, start_time, end_time, .+ FROM availability_windows WHERE doctor_id = \$1`).
		WithArgs("doc-1").
		WillReturnRows(rows)

	windows, err := repo.ListWindows(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, models.Monday, windows[0].Day)
	assert.Equal(t, "09:00", windows[0].StartTime.String())
	assert.Equal(t, "17:00", windows[1].EndTime.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepositoryReplaceWindowsCommits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDoctorRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_windows WHERE doctor_id = $1")).
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO availability_windows`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	start, err := models.ParseTimeOfDay("09:00")
	require.NoError(t, err)
	end, err := models.ParseTimeOfDay("12:00")
	require.NoError(t, err)
	windows := []models.AvailabilityWindow{{Day: models.Monday, StartTime: start, EndTime: end}}

	require.NoError(t, repo.ReplaceWindows(context.Background(), "doc-1", windows))
	assert.Equal(t, "doc-1", windows[0].DoctorID)
	assert.NotEmpty(t, windows[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepositoryReplaceWindowsRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDoctorRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_windows WHERE doctor_id = $1")).
		WithArgs("doc-1").
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	err := repo.ReplaceWindows(context.Background(), "doc-1", nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
