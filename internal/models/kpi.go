package models

import "time"

// KPIDefinition is a bonus-bearing KPI configured per role and shift.
// Shift "General" applies to any shift for that role.
type KPIDefinition struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Role        string    `db:"role" json:"role"`
	Shift       Shift     `db:"shift" json:"shift"`
	WeightValue FlexFloat `db:"weight_value" json:"weight_value"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// KPIFilter captures listing criteria for the admin endpoints.
type KPIFilter struct {
	Role     string
	Shift    string
	Active   *bool
	Page     int
	PageSize int
}
