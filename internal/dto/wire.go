// Package dto normalizes external wire records into internal models.
// Clients of the legacy API submitted the same record under several field
// spellings (day/day_of_week, start/start_time, and so on). The conversion
// happens exactly once here so internal code never branches on alternate
// field names.
package dto

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/noah-isme/medlink-api/internal/models"
)

// WindowRecord is an availability window as received on the wire.
type WindowRecord struct {
	ID        string `json:"id"`
	Day       string `json:"-"`
	StartTime string `json:"-"`
	EndTime   string `json:"-"`
}

type windowAliases struct {
	ID        json.RawMessage `json:"id"`
	Day       string          `json:"day"`
	DayOfWeek string          `json:"day_of_week"`
	Start     string          `json:"start"`
	StartTime string          `json:"start_time"`
	End       string          `json:"end"`
	EndTime   string          `json:"end_time"`
}

// UnmarshalJSON accepts both field spellings, preferring the snake_case
// canonical names when both are present.
func (w *WindowRecord) UnmarshalJSON(data []byte) error {
	var aliases windowAliases
	if err := json.Unmarshal(data, &aliases); err != nil {
		return err
	}
	w.ID = rawToString(aliases.ID)
	w.Day = firstNonEmpty(aliases.DayOfWeek, aliases.Day)
	w.StartTime = firstNonEmpty(aliases.StartTime, aliases.Start)
	w.EndTime = firstNonEmpty(aliases.EndTime, aliases.End)
	return nil
}

// ToWindow converts the wire record into the internal model, validating the
// weekday name and time formats.
func (w WindowRecord) ToWindow(doctorID string) (models.AvailabilityWindow, error) {
	day, err := models.ParseWeekday(strings.TrimSpace(w.Day))
	if err != nil {
		return models.AvailabilityWindow{}, err
	}
	start, err := models.ParseTimeOfDay(strings.TrimSpace(w.StartTime))
	if err != nil {
		return models.AvailabilityWindow{}, err
	}
	end, err := models.ParseTimeOfDay(strings.TrimSpace(w.EndTime))
	if err != nil {
		return models.AvailabilityWindow{}, err
	}
	window := models.AvailabilityWindow{
		ID:        w.ID,
		DoctorID:  doctorID,
		Day:       day,
		StartTime: start,
		EndTime:   end,
	}
	if err := window.Validate(); err != nil {
		return models.AvailabilityWindow{}, err
	}
	return window, nil
}

// UpdateAvailabilityRequest replaces a doctor's full weekly window set. The
// frontend posts `{"slots": [...]}`.
type UpdateAvailabilityRequest struct {
	Slots []WindowRecord `json:"slots"`
}

// DoctorProfileRequest is the profile upsert payload. Fee fields follow the
// toggle semantics of the setup form: a disabled consultation type arrives
// as fee 0.
type DoctorProfileRequest struct {
	DisplayName     string  `json:"display_name" validate:"required"`
	Specialty       string  `json:"specialty" validate:"required"`
	ExperienceYears int     `json:"experience_years" validate:"gte=0,lte=80"`
	Bio             *string `json:"bio" validate:"omitempty,max=2000"`
	City            string  `json:"city" validate:"required"`
	PriceClinic     int64   `json:"price_clinic" validate:"gte=0"`
	PriceOnline     int64   `json:"price_online" validate:"gte=0"`
}

// BookAppointmentRequest is the booking submission from a patient.
type BookAppointmentRequest struct {
	DoctorID string `json:"doctor_id" validate:"required"`
	Date     string `json:"date" validate:"required"`
	Time     string `json:"time" validate:"required"`
	Type     string `json:"type" validate:"required"`
}

// PatientProfileRequest is the patient profile upsert payload.
type PatientProfileRequest struct {
	FullName      string               `json:"full_name" validate:"required"`
	Age           int                  `json:"age" validate:"gte=0,lte=130"`
	Gender        string               `json:"gender" validate:"omitempty,max=30"`
	City          string               `json:"city" validate:"omitempty,max=100"`
	PinCode       string               `json:"pin_code" validate:"omitempty,max=12"`
	FamilyMembers []FamilyMemberRecord `json:"family_members" validate:"dive"`
}

// FamilyMemberRecord is one dependent in the patient profile payload.
type FamilyMemberRecord struct {
	FullName     string `json:"full_name" validate:"required"`
	Age          int    `json:"age" validate:"gte=0,lte=130"`
	Relationship string `json:"relationship" validate:"required"`
}

// UpdateAppointmentStatusRequest changes a booking's lifecycle status.
type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Confirmed Cancelled"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// rawToString tolerates numeric ids produced by older clients that used
// timestamps as temporary window ids.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return fmt.Sprintf("%s", bytesTrim(raw))
}

func bytesTrim(raw json.RawMessage) string {
	return strings.Trim(string(raw), `"`)
}
