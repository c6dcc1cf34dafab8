package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/medlink-api/internal/models"
	appErrors "github.com/noah-isme/medlink-api/pkg/errors"
	"github.com/noah-isme/medlink-api/pkg/export"
)

func newExportFixture(t *testing.T, cfg ExportConfig, appointments ...models.Appointment) *ExportService {
	t.Helper()
	repo := newBookingAppointmentRepoMock()
	repo.appointments = appointments
	return NewExportService(repo, export.NewCSVExporter(), export.NewPDFExporter(), cfg, nil)
}

func exportAppointment(t *testing.T, day, at string) models.Appointment {
	t.Helper()
	return models.Appointment{
		ID:          "appt-1",
		DoctorID:    "doc-1",
		PatientName: "Ravi Kumar",
		Date:        mustDate(t, day),
		Time:        mustTime(t, at),
		Type:        models.ConsultationClinic,
		Status:      models.StatusPending,
		Fee:         50000,
	}
}

func TestExportAppointmentsRendersCSV(t *testing.T) {
	svc := newExportFixture(t, ExportConfig{Enabled: true}, exportAppointment(t, "2025-03-10", "09:00"))

	result, err := svc.Appointments(context.Background(), "doc-1", "csv", models.AppointmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "appointments.csv", result.Filename)

	lines := strings.Split(strings.TrimSpace(string(result.Payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Time,Patient,Type,Status,Fee", lines[0])
	assert.Equal(t, "2025-03-10,09:00,Ravi Kumar,Clinic Visit,Pending,50000", lines[1])
}

func TestExportAppointmentsRendersPDF(t *testing.T) {
	svc := newExportFixture(t, ExportConfig{Enabled: true}, exportAppointment(t, "2025-03-10", "09:00"))

	result, err := svc.Appointments(context.Background(), "doc-1", "pdf", models.AppointmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "appointments.pdf", result.Filename)
	assert.True(t, strings.HasPrefix(string(result.Payload), "%PDF"))
}

func TestExportAppointmentsTruncatesToMaxRows(t *testing.T) {
	svc := newExportFixture(t, ExportConfig{Enabled: true, MaxRows: 1},
		exportAppointment(t, "2025-03-10", "09:00"),
		exportAppointment(t, "2025-03-10", "09:30"))

	result, err := svc.Appointments(context.Background(), "doc-1", "csv", models.AppointmentFilter{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(result.Payload)), "\n")
	assert.Len(t, lines, 2, "header plus one capped row")
}

func TestExportAppointmentsDisabled(t *testing.T) {
	svc := newExportFixture(t, ExportConfig{})

	_, err := svc.Appointments(context.Background(), "doc-1", "csv", models.AppointmentFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportAppointmentsUnknownFormat(t *testing.T) {
	svc := newExportFixture(t, ExportConfig{Enabled: true}, exportAppointment(t, "2025-03-10", "09:00"))

	_, err := svc.Appointments(context.Background(), "doc-1", "xlsx", models.AppointmentFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
