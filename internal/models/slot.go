package models

import "time"

// Slot is a concrete bookable opportunity derived from an availability
// window. Slots are ephemeral: they are generated per (doctor, date) request
// and never persisted beyond the expansion cache.
type Slot struct {
	Date      Date      `json:"date"`
	Time      TimeOfDay `json:"time"`
	Available bool      `json:"available"`
}

// SlotExpansion is the most recent set of slots computed for a doctor and
// date. Bookings are validated against it so a patient cannot submit a slot
// from an outdated view.
type SlotExpansion struct {
	DoctorID    string    `json:"doctor_id"`
	Date        Date      `json:"date"`
	SlotMinutes int       `json:"slot_minutes"`
	Slots       []Slot    `json:"slots"`
	Degraded    bool      `json:"degraded"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Find returns the slot with the exact given time, if present.
func (e *SlotExpansion) Find(t TimeOfDay) (Slot, bool) {
	for _, slot := range e.Slots {
		if slot.Time == t {
			return slot, true
		}
	}
	return Slot{}, false
}

// BookingRequest is the payload produced by a validated slot selection,
// ready for appointment creation.
type BookingRequest struct {
	DoctorID string           `json:"doctor_id"`
	Date     Date             `json:"date"`
	Time     TimeOfDay        `json:"time"`
	Type     ConsultationType `json:"type"`
}
