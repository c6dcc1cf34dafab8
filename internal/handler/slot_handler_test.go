package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/medlink-api/internal/models"
	"github.com/noah-isme/medlink-api/internal/service"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type fakeSlotDoctorRepo struct {
	doctor  *models.Doctor
	windows []models.AvailabilityWindow
}

func (f *fakeSlotDoctorRepo) FindByID(ctx context.Context, id string) (*models.Doctor, error) {
	if f.doctor == nil {
		return nil, sql.ErrNoRows
	}
	return f.doctor, nil
}

func (f *fakeSlotDoctorRepo) ListWindows(ctx context.Context, doctorID string) ([]models.AvailabilityWindow, error) {
	return f.windows, nil
}

type fakeSlotAppointmentRepo struct {
	appointments []models.Appointment
	err          error
}

func (f *fakeSlotAppointmentRepo) ListByDoctorAndDate(ctx context.Context, doctorID string, date models.Date) ([]models.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.appointments, nil
}

func mondayWindow(t *testing.T) models.AvailabilityWindow {
	t.Helper()
	start, err := models.ParseTimeOfDay("09:00")
	require.NoError(t, err)
	end, err := models.ParseTimeOfDay("10:00")
	require.NoError(t, err)
	return models.AvailabilityWindow{ID: "win-1", DoctorID: "doc-1", Day: models.Monday, StartTime: start, EndTime: end}
}

func newSlotHandlerFixture(t *testing.T, doctors *fakeSlotDoctorRepo, appointments *fakeSlotAppointmentRepo) *SlotHandler {
	t.Helper()
	svc := service.NewSlotService(doctors, appointments, nil, nil, service.SlotServiceConfig{}, nil)
	return NewSlotHandler(svc)
}

func slotRequest(t *testing.T, handler *SlotHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	c.Params = gin.Params{{Key: "id", Value: "doc-1"}}
	handler.DaySlots(c)
	return rec
}

func TestSlotHandlerRequiresDate(t *testing.T) {
	handler := newSlotHandlerFixture(t, &fakeSlotDoctorRepo{doctor: &models.Doctor{ID: "doc-1"}}, &fakeSlotAppointmentRepo{})

	rec := slotRequest(t, handler, "/doctor/doc-1/slots")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = slotRequest(t, handler, "/doctor/doc-1/slots?date=10-03-2025")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSlotHandlerUnknownDoctor(t *testing.T) {
	handler := newSlotHandlerFixture(t, &fakeSlotDoctorRepo{}, &fakeSlotAppointmentRepo{})

	rec := slotRequest(t, handler, "/doctor/doc-1/slots?date=2025-03-10")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSlotHandlerReturnsSlots(t *testing.T) {
	doctors := &fakeSlotDoctorRepo{
		doctor:  &models.Doctor{ID: "doc-1"},
		windows: []models.AvailabilityWindow{mondayWindow(t)},
	}
	handler := newSlotHandlerFixture(t, doctors, &fakeSlotAppointmentRepo{})

	rec := slotRequest(t, handler, "/doctor/doc-1/slots?date=2025-03-10")
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var slots []models.Slot
	require.NoError(t, json.Unmarshal(envelope.Data, &slots))
	require.Len(t, slots, 2)
	assert.Equal(t, "09:00", slots[0].Time.String())
	assert.Equal(t, float64(30), envelope.Meta["slot_minutes"])
	_, degraded := envelope.Meta["degraded"]
	assert.False(t, degraded)
}

func TestSlotHandlerSurfacesDegradedMode(t *testing.T) {
	doctors := &fakeSlotDoctorRepo{
		doctor:  &models.Doctor{ID: "doc-1"},
		windows: []models.AvailabilityWindow{mondayWindow(t)},
	}
	appointments := &fakeSlotAppointmentRepo{err: errors.New("connection refused")}
	handler := newSlotHandlerFixture(t, doctors, appointments)

	rec := slotRequest(t, handler, "/doctor/doc-1/slots?date=2025-03-10")
	require.Equal(t, http.StatusOK, rec.Code, "conflict source failures must not fail the expansion")

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["degraded"])
	assert.Equal(t, "degraded", envelope.Meta["conflict_source"])
}
