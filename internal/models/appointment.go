package models

import (
	"fmt"
	"time"
)

// ConsultationType distinguishes in-person and remote consultations. The
// string values match what the web frontend displays and submits.
type ConsultationType string

const (
	ConsultationClinic ConsultationType = "Clinic Visit"
	ConsultationOnline ConsultationType = "Online Consult"
)

// ParseConsultationType validates a consultation type value.
func ParseConsultationType(raw string) (ConsultationType, error) {
	switch ConsultationType(raw) {
	case ConsultationClinic:
		return ConsultationClinic, nil
	case ConsultationOnline:
		return ConsultationOnline, nil
	default:
		return "", fmt.Errorf("unknown consultation type %q", raw)
	}
}

// AppointmentStatus tracks the booking lifecycle.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "Pending"
	StatusConfirmed AppointmentStatus = "Confirmed"
	StatusCancelled AppointmentStatus = "Cancelled"
)

// Blocks reports whether an appointment in this status consumes its slot.
// Cancelled appointments free the slot again.
func (s AppointmentStatus) Blocks() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Appointment is a booked consultation between a patient and a doctor.
type Appointment struct {
	ID          string            `db:"id" json:"id"`
	DoctorID    string            `db:"doctor_id" json:"doctor_id"`
	PatientID   string            `db:"patient_id" json:"patient_id"`
	PatientName string            `db:"patient_name" json:"patient_name"`
	Date        Date              `db:"date" json:"date"`
	Time        TimeOfDay         `db:"time" json:"time"`
	Type        ConsultationType  `db:"type" json:"type"`
	Status      AppointmentStatus `db:"status" json:"status"`
	Fee         int64             `db:"fee" json:"fee"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// AppointmentFilter narrows appointment listings.
type AppointmentFilter struct {
	DoctorID  string
	PatientID string
	Date      *Date
	Status    *AppointmentStatus
}

// DashboardStats summarises a doctor's appointment load the way the
// dashboard presents it.
type DashboardStats struct {
	Total   int `json:"total"`
	Today   int `json:"today"`
	Pending int `json:"pending"`
}
