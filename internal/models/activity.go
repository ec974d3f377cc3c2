package models

import "time"

// ActivityTier is one pay tier for an activity. Multiple tiers share an
// activity name; the resolver picks the highest threshold not exceeding the
// achieved productivity rate, falling back to the lowest tier.
type ActivityTier struct {
	ID                  string    `db:"id" json:"id"`
	ActivityName        string    `db:"activity_name" json:"activity_name"`
	TierLabel           string    `db:"tier_label" json:"tier_label"`
	MinProductivityRate FlexFloat `db:"min_productivity_rate" json:"min_productivity_rate"`
	UnitValue           FlexFloat `db:"unit_value" json:"unit_value"`
	UnitOfMeasure       string    `db:"unit_of_measure" json:"unit_of_measure"`
	Active              bool      `db:"active" json:"active"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// TierFilter captures listing criteria for the admin endpoints.
type TierFilter struct {
	ActivityName string
	Active       *bool
	Page         int
	PageSize     int
}
