package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/medlink-api/internal/models"
)

func appointmentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "doctor_id", "patient_id", "patient_name", "date", "time", "type", "status", "fee", "created_at", "updated_at"})
}

func TestAppointmentRepositoryListByDoctorAndDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	rows := appointmentRows().
		AddRow("appt-1", "doc-1", "pat-1", "Ravi Kumar", "2025-03-10", "09:00:00", "Clinic Visit", "Pending", 50000, time.Now(), time.Now()).
		AddRow("appt-2", "doc-1", "pat-2", "Meera Shah", "2025-03-10", "14:00:00", "Online Consult", "Confirmed", 30000, time.Now(), time.Now())
	mock.ExpectQuery(`SELECT id, doctor_id, .+ FROM appointments WHERE doctor_id = \$1 AND date = \$2 ORDER BY time ASC`).
		WithArgs("doc-1", "2025-03-10").
		WillReturnRows(rows)

	date, err := models.ParseDate("2025-03-10")
	require.NoError(t, err)
	appointments, err := repo.ListByDoctorAndDate(context.Background(), "doc-1", date)
	require.NoError(t, err)
	require.Len(t, appointments, 2)
	assert.Equal(t, "09:00", appointments[0].Time.String())
	assert.Equal(t, models.StatusConfirmed, appointments[1].Status)
	assert.Equal(t, models.ConsultationOnline, appointments[1].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	status := models.StatusPending
	date, err := models.ParseDate("2025-03-10")
	require.NoError(t, err)

	mock.ExpectQuery(`FROM appointments WHERE 1=1 AND doctor_id = \$1 AND date = \$2 AND status = \$3 ORDER BY date ASC, time ASC`).
		WithArgs("doc-1", "2025-03-10", "Pending").
		WillReturnRows(appointmentRows())

	_, err = repo.List(context.Background(), models.AppointmentFilter{DoctorID: "doc-1", Date: &date, Status: &status})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec(`INSERT INTO appointments`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	date, err := models.ParseDate("2025-03-10")
	require.NoError(t, err)
	slot, err := models.ParseTimeOfDay("09:00")
	require.NoError(t, err)
	appointment := &models.Appointment{
		DoctorID:    "doc-1",
		PatientID:   "pat-1",
		PatientName: "Ravi Kumar",
		Date:        date,
		Time:        slot,
		Type:        models.ConsultationClinic,
		Status:      models.StatusPending,
		Fee:         50000,
	}
	require.NoError(t, repo.Create(context.Background(), appointment))
	assert.NotEmpty(t, appointment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec(`UPDATE appointments SET status = \$2, updated_at = \$3 WHERE id = \$1`).
		WithArgs("appt-1", "Confirmed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "appt-1", models.StatusConfirmed))
	assert.NoError(t, mock.ExpectationsWereMet())
}
