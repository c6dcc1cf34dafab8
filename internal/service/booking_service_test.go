package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/medlink-api/internal/dto"
	"github.com/noah-isme/medlink-api/internal/models"
	appErrors "github.com/noah-isme/medlink-api/pkg/errors"
)

type bookingDoctorRepoMock struct {
	doctor *models.Doctor
	err    error
}

func (m *bookingDoctorRepoMock) FindByID(ctx context.Context, id string) (*models.Doctor, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.doctor, nil
}

type bookingAppointmentRepoMock struct {
	appointments []models.Appointment
	byID         map[string]*models.Appointment
	created      []*models.Appointment
	updated      map[string]models.AppointmentStatus
	listErr      error
	createErr    error
}

func newBookingAppointmentRepoMock() *bookingAppointmentRepoMock {
	return &bookingAppointmentRepoMock{
		byID:    map[string]*models.Appointment{},
		updated: map[string]models.AppointmentStatus{},
	}
}

func (m *bookingAppointmentRepoMock) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.appointments, nil
}

func (m *bookingAppointmentRepoMock) ListByDoctorAndDate(ctx context.Context, doctorID string, date models.Date) ([]models.Appointment, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.Appointment, 0)
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && a.Date.Equal(date) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *bookingAppointmentRepoMock) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	appointment, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *appointment
	return &clone, nil
}

func (m *bookingAppointmentRepoMock) Create(ctx context.Context, appointment *models.Appointment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if appointment.ID == "" {
		appointment.ID = fmt.Sprintf("appt-%d", len(m.created)+1)
	}
	m.created = append(m.created, appointment)
	m.appointments = append(m.appointments, *appointment)
	return nil
}

func (m *bookingAppointmentRepoMock) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	m.updated[id] = status
	return nil
}

type bookingPatientRepoMock struct {
	patient *models.Patient
	err     error
}

func (m *bookingPatientRepoMock) FindByUserID(ctx context.Context, userID string) (*models.Patient, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.patient, nil
}

type slotExpanderStub struct {
	recent      *models.SlotExpansion
	recentErr   error
	fresh       *models.SlotExpansion
	freshErr    error
	invalidated []string
}

func (s *slotExpanderStub) DaySlots(ctx context.Context, doctorID string, date models.Date) (*models.SlotExpansion, error) {
	return s.fresh, s.freshErr
}

func (s *slotExpanderStub) RecentExpansion(ctx context.Context, doctorID string, date models.Date) (*models.SlotExpansion, error) {
	return s.recent, s.recentErr
}

func (s *slotExpanderStub) InvalidateExpansion(ctx context.Context, doctorID string, date models.Date) {
	s.invalidated = append(s.invalidated, fmt.Sprintf("%s:%s", doctorID, date.String()))
}

type bookingFixture struct {
	service      *BookingService
	doctors      *bookingDoctorRepoMock
	appointments *bookingAppointmentRepoMock
	patients     *bookingPatientRepoMock
	slots        *slotExpanderStub
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	date := mustDate(t, "2025-03-10")
	expansion := &models.SlotExpansion{
		DoctorID:    "doc-1",
		Date:        date,
		SlotMinutes: 30,
		Slots: []models.Slot{
			{Date: date, Time: mustTime(t, "09:00"), Available: true},
			{Date: date, Time: mustTime(t, "09:30"), Available: false},
			{Date: date, Time: mustTime(t, "10:00"), Available: true},
		},
		GeneratedAt: time.Now().UTC(),
	}
	doctors := &bookingDoctorRepoMock{doctor: &models.Doctor{
		ID:          "doc-1",
		DisplayName: "Dr. Asha Rao",
		PriceClinic: 50000,
		PriceOnline: 0,
	}}
	appointments := newBookingAppointmentRepoMock()
	patients := &bookingPatientRepoMock{patient: &models.Patient{ID: "pat-1", UserID: "user-1", FullName: "Ravi Kumar"}}
	slots := &slotExpanderStub{recent: expansion}
	service := NewBookingService(doctors, appointments, patients, slots, nil, nil, nil)
	return &bookingFixture{service: service, doctors: doctors, appointments: appointments, patients: patients, slots: slots}
}

func clinicBooking() dto.BookAppointmentRequest {
	return dto.BookAppointmentRequest{
		DoctorID: "doc-1",
		Date:     "2025-03-10",
		Time:     "09:00",
		Type:     "Clinic Visit",
	}
}

func TestBookCreatesPendingAppointment(t *testing.T) {
	f := newBookingFixture(t)

	appointment, err := f.service.Book(context.Background(), "user-1", clinicBooking())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, appointment.Status)
	assert.Equal(t, "doc-1", appointment.DoctorID)
	assert.Equal(t, "pat-1", appointment.PatientID)
	assert.Equal(t, "Ravi Kumar", appointment.PatientName)
	assert.Equal(t, int64(50000), appointment.Fee, "fee is captured from the doctor's current price")
	assert.Equal(t, models.ConsultationClinic, appointment.Type)
	require.Len(t, f.appointments.created, 1)
	assert.Equal(t, []string{"doc-1:2025-03-10"}, f.slots.invalidated)
}

func TestBookRejectsUnconfiguredFee(t *testing.T) {
	f := newBookingFixture(t)

	req := clinicBooking()
	req.Type = "Online Consult" // price_online is 0
	_, err := f.service.Book(context.Background(), "user-1", req)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNoFeeConfigured.Code, appErr.Code)
	assert.Empty(t, f.appointments.created)
}

func TestBookRejectsSlotOutsideLatestExpansion(t *testing.T) {
	f := newBookingFixture(t)

	req := clinicBooking()
	req.Time = "11:00" // never generated
	_, err := f.service.Book(context.Background(), "user-1", req)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrStaleSlot.Code, appErr.Code)
}

func TestBookRejectsUnavailableSlot(t *testing.T) {
	f := newBookingFixture(t)

	req := clinicBooking()
	req.Time = "09:30"
	_, err := f.service.Book(context.Background(), "user-1", req)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrSlotUnavailable.Code, appErr.Code)
}

func TestBookRechecksConflictsAtCommitTime(t *testing.T) {
	f := newBookingFixture(t)

	// The cached expansion predates this booking by another patient.
	f.appointments.appointments = append(f.appointments.appointments, models.Appointment{
		ID:       "appt-race",
		DoctorID: "doc-1",
		Date:     mustDate(t, "2025-03-10"),
		Time:     mustTime(t, "09:00"),
		Status:   models.StatusPending,
	})

	_, err := f.service.Book(context.Background(), "user-1", clinicBooking())

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrSlotUnavailable.Code, appErr.Code)
	assert.Empty(t, f.appointments.created)
}

func TestBookExpandsFreshWhenNoRecentExpansion(t *testing.T) {
	f := newBookingFixture(t)
	f.slots.fresh = f.slots.recent
	f.slots.recent = nil

	appointment, err := f.service.Book(context.Background(), "user-1", clinicBooking())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, appointment.Status)
}

func TestBookRejectsDoctorNotFound(t *testing.T) {
	f := newBookingFixture(t)
	f.doctors.err = sql.ErrNoRows

	_, err := f.service.Book(context.Background(), "user-1", clinicBooking())

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestBookRejectsMalformedPayload(t *testing.T) {
	f := newBookingFixture(t)

	cases := []dto.BookAppointmentRequest{
		{DoctorID: "doc-1", Date: "10-03-2025", Time: "09:00", Type: "Clinic Visit"},
		{DoctorID: "doc-1", Date: "2025-03-10", Time: "9 am", Type: "Clinic Visit"},
		{DoctorID: "doc-1", Date: "2025-03-10", Time: "09:00", Type: "House Call"},
		{Date: "2025-03-10", Time: "09:00", Type: "Clinic Visit"},
	}
	for _, req := range cases {
		_, err := f.service.Book(context.Background(), "user-1", req)
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	}
}

func TestCancelOwnAppointment(t *testing.T) {
	f := newBookingFixture(t)
	f.appointments.byID["appt-1"] = &models.Appointment{
		ID:        "appt-1",
		DoctorID:  "doc-1",
		PatientID: "pat-1",
		Date:      mustDate(t, "2025-03-10"),
		Time:      mustTime(t, "09:00"),
		Status:    models.StatusConfirmed,
	}

	appointment, err := f.service.Cancel(context.Background(), "user-1", "appt-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, appointment.Status)
	assert.Equal(t, models.StatusCancelled, f.appointments.updated["appt-1"])
	assert.Contains(t, f.slots.invalidated, "doc-1:2025-03-10")
}

func TestCancelSomeoneElsesAppointmentForbidden(t *testing.T) {
	f := newBookingFixture(t)
	f.appointments.byID["appt-2"] = &models.Appointment{
		ID:        "appt-2",
		DoctorID:  "doc-1",
		PatientID: "pat-other",
		Status:    models.StatusPending,
	}

	_, err := f.service.Cancel(context.Background(), "user-1", "appt-2")

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestUpdateStatusTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    models.AppointmentStatus
		to      models.AppointmentStatus
		allowed bool
	}{
		{"pending to confirmed", models.StatusPending, models.StatusConfirmed, true},
		{"pending to cancelled", models.StatusPending, models.StatusCancelled, true},
		{"confirmed to cancelled", models.StatusConfirmed, models.StatusCancelled, true},
		{"confirmed to confirmed", models.StatusConfirmed, models.StatusConfirmed, false},
		{"cancelled to confirmed", models.StatusCancelled, models.StatusConfirmed, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBookingFixture(t)
			f.appointments.byID["appt-1"] = &models.Appointment{
				ID:       "appt-1",
				DoctorID: "doc-1",
				Date:     mustDate(t, "2025-03-10"),
				Time:     mustTime(t, "09:00"),
				Status:   tc.from,
			}

			appointment, err := f.service.UpdateStatus(context.Background(), "doc-1", "appt-1", tc.to)
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tc.to, appointment.Status)
			} else {
				var appErr *appErrors.Error
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
			}
		})
	}
}

func TestUpdateStatusRejectsForeignDoctor(t *testing.T) {
	f := newBookingFixture(t)
	f.appointments.byID["appt-1"] = &models.Appointment{
		ID:       "appt-1",
		DoctorID: "doc-other",
		Status:   models.StatusPending,
	}

	_, err := f.service.UpdateStatus(context.Background(), "doc-1", "appt-1", models.StatusConfirmed)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestDashboardCounts(t *testing.T) {
	f := newBookingFixture(t)
	restore := timeNow
	timeNow = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	defer func() { timeNow = restore }()

	f.appointments.appointments = []models.Appointment{
		{Date: mustDate(t, "2025-03-10"), Status: models.StatusPending},
		{Date: mustDate(t, "2025-03-10"), Status: models.StatusConfirmed},
		{Date: mustDate(t, "2025-03-17"), Status: models.StatusPending},
		{Date: mustDate(t, "2025-03-03"), Status: models.StatusCancelled},
	}

	stats, err := f.service.Dashboard(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Today)
	assert.Equal(t, 2, stats.Pending)
}

func TestPatientAppointmentsWithoutProfile(t *testing.T) {
	f := newBookingFixture(t)
	f.patients.err = sql.ErrNoRows

	appointments, err := f.service.PatientAppointments(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, appointments)
}

func TestBookPropagatesConflictRecheckError(t *testing.T) {
	f := newBookingFixture(t)
	f.appointments.listErr = errors.New("connection reset")

	_, err := f.service.Book(context.Background(), "user-1", clinicBooking())
	require.Error(t, err)
	assert.Empty(t, f.appointments.created)
}
