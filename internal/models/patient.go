package models

import "time"

// Patient represents a patient's profile.
type Patient struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	FullName  string    `db:"full_name" json:"full_name"`
	Age       int       `db:"age" json:"age"`
	Gender    string    `db:"gender" json:"gender"`
	City      string    `db:"city" json:"city"`
	PinCode   string    `db:"pin_code" json:"pin_code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	FamilyMembers []FamilyMember `db:"-" json:"family_members"`
}

// FamilyMember is a dependent a patient can book for.
type FamilyMember struct {
	ID           string `db:"id" json:"id"`
	PatientID    string `db:"patient_id" json:"-"`
	FullName     string `db:"full_name" json:"full_name"`
	Age          int    `db:"age" json:"age"`
	Relationship string `db:"relationship" json:"relationship"`
}
