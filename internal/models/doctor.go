package models

import "time"

// Doctor represents a doctor's marketplace profile. Fee fields use minor
// currency units; a zero fee means the consultation type is not offered.
type Doctor struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"-"`
	DisplayName     string    `db:"display_name" json:"display_name"`
	Specialty       string    `db:"specialty" json:"specialty"`
	ExperienceYears int       `db:"experience_years" json:"experience_years"`
	Bio             *string   `db:"bio" json:"bio,omitempty"`
	City            string    `db:"city" json:"city"`
	PriceClinic     int64     `db:"price_clinic" json:"price_clinic"`
	PriceOnline     int64     `db:"price_online" json:"price_online"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// OffersType reports whether the doctor has configured a nonzero fee for the
// given consultation type.
func (d Doctor) OffersType(t ConsultationType) bool {
	return d.Fee(t) > 0
}

// Fee returns the configured fee for a consultation type.
func (d Doctor) Fee(t ConsultationType) int64 {
	switch t {
	case ConsultationClinic:
		return d.PriceClinic
	case ConsultationOnline:
		return d.PriceOnline
	default:
		return 0
	}
}

// DoctorPublic is the directory view of a doctor, including the weekly
// availability windows patients expand into bookable slots.
type DoctorPublic struct {
	Doctor
	Availabilities []AvailabilityWindow `json:"availabilities"`
}

// DoctorFilter captures search criteria for the public directory.
type DoctorFilter struct {
	Location  string
	Specialty string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
