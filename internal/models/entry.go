package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// EntryStatus is the lifecycle state of a compensation entry.
type EntryStatus string

const (
	StatusPending  EntryStatus = "pending"
	StatusApproved EntryStatus = "approved"
	StatusRejected EntryStatus = "rejected"
)

// Terminal reports whether no further validation actions are allowed.
func (s EntryStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ValidationAction is an admin decision on a pending entry.
type ValidationAction string

const (
	ActionApprove ValidationAction = "approve"
	ActionReject  ValidationAction = "reject"
	ActionEdit    ValidationAction = "edit"
)

// ActivityInput is reported output for one activity.
type ActivityInput struct {
	Name             string  `json:"name" validate:"required"`
	QuantityProduced float64 `json:"quantity_produced" validate:"gt=0"`
	HoursWorked      float64 `json:"hours_worked" validate:"gt=0"`
}

// CalculationInput carries everything needed to compute a payout. Exactly one
// of Activity, Activities or ValidTaskCount is expected per the role's
// strategy.
type CalculationInput struct {
	Role             string          `json:"role" validate:"required"`
	Shift            string          `json:"shift" validate:"required"`
	Activity         *ActivityInput  `json:"activity,omitempty"`
	Activities       []ActivityInput `json:"activities,omitempty" validate:"omitempty,dive"`
	ValidTaskCount   *int            `json:"valid_task_count,omitempty" validate:"omitempty,gte=0"`
	ManualAdjustment *float64        `json:"manual_adjustment,omitempty"`
	AchievedKPIs     []string        `json:"achieved_kpis,omitempty"`
}

// HasKPIs reports whether the submission claims any KPIs.
func (in CalculationInput) HasKPIs() bool {
	return len(in.AchievedKPIs) > 0
}

// ActivityDetailLine is the per-activity breakdown recorded on
// multiple-activity results.
type ActivityDetailLine struct {
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	Hours        float64 `json:"hours"`
	Value        float64 `json:"value"`
	AchievedRate float64 `json:"achieved_rate"`
	TierLabel    string  `json:"tier_label"`
}

// DetailLines stores activity breakdown lines as a JSONB column.
type DetailLines []ActivityDetailLine

// Value implements driver.Valuer.
func (d DetailLines) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner.
func (d *DetailLines) Scan(src interface{}) error {
	return scanJSON(src, d)
}

// StringList stores a list of names as a JSONB column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

func scanJSON(src, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T as JSON", src)
	}
}

// CalculationResult is the derived payout breakdown. Immutable once produced;
// persisted verbatim into an entry.
type CalculationResult struct {
	ActivitiesSubtotal  float64     `json:"activities_subtotal"`
	KPIBonus            float64     `json:"kpi_bonus"`
	TotalPayout         float64     `json:"total_payout"`
	AchievedRate        *float64    `json:"achieved_productivity_rate,omitempty"`
	TierReached         *string     `json:"tier_reached,omitempty"`
	UnitOfMeasure       *string     `json:"unit_of_measure,omitempty"`
	DetailLines         DetailLines `json:"activity_detail_lines,omitempty"`
	ValidTaskCount      *int        `json:"valid_task_count,omitempty"`
	ValidTaskGrossValue *float64    `json:"valid_task_gross_value,omitempty"`
	GrossActivityValue  *float64    `json:"gross_activity_value,omitempty"`
	AchievedKPINames    StringList  `json:"achieved_kpi_names"`
}

// Entry is the persisted compensation record: worker identity plus the
// flattened calculation input and result, tracked through the approval
// lifecycle.
type Entry struct {
	ID               string    `db:"id" json:"id"`
	WorkerID         string    `db:"worker_id" json:"worker_id"`
	WorkerName       string    `db:"worker_name" json:"worker_name"`
	WorkerDocumentID string    `db:"worker_document_id" json:"worker_document_id"`
	EntryDate        time.Time `db:"entry_date" json:"entry_date"`
	Role             string    `db:"role" json:"role"`
	Shift            string    `db:"shift" json:"shift"`

	// Flattened input.
	ActivityName     *string        `db:"activity_name" json:"activity_name,omitempty"`
	QuantityProduced *float64       `db:"quantity_produced" json:"quantity_produced,omitempty"`
	HoursWorked      *float64       `db:"hours_worked" json:"hours_worked,omitempty"`
	Activities       types.JSONText `db:"activities" json:"activities,omitempty"`
	ValidTaskCount   *int           `db:"valid_task_count" json:"valid_task_count,omitempty"`
	ManualAdjustment *float64       `db:"manual_adjustment" json:"manual_adjustment,omitempty"`
	AchievedKPIs     StringList     `db:"achieved_kpis" json:"achieved_kpis"`

	// Flattened result.
	ActivitiesSubtotal  float64     `db:"activities_subtotal" json:"activities_subtotal"`
	KPIBonus            float64     `db:"kpi_bonus" json:"kpi_bonus"`
	TotalPayout         float64     `db:"total_payout" json:"total_payout"`
	AchievedRate        *float64    `db:"achieved_rate" json:"achieved_productivity_rate,omitempty"`
	TierReached         *string     `db:"tier_reached" json:"tier_reached,omitempty"`
	UnitOfMeasure       *string     `db:"unit_of_measure" json:"unit_of_measure,omitempty"`
	DetailLines         DetailLines `db:"detail_lines" json:"activity_detail_lines,omitempty"`
	ValidTaskGrossValue *float64    `db:"valid_task_gross_value" json:"valid_task_gross_value,omitempty"`
	GrossActivityValue  *float64    `db:"gross_activity_value" json:"gross_activity_value,omitempty"`
	AchievedKPINames    StringList  `db:"achieved_kpi_names" json:"achieved_kpi_names"`

	Status EntryStatus `db:"status" json:"status"`

	// Approval stamps.
	ApprovedBy     *string    `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt     *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	ValidationNote *string    `db:"validation_note" json:"validation_note,omitempty"`

	// Edit metadata. PreEditBackup holds the full pre-edit snapshot.
	EditedBy      *string        `db:"edited_by" json:"edited_by,omitempty"`
	EditedAt      *time.Time     `db:"edited_at" json:"edited_at,omitempty"`
	EditNote      *string        `db:"edit_note" json:"edit_note,omitempty"`
	PreEditBackup types.JSONText `db:"pre_edit_backup" json:"pre_edit_backup,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ApplyResult copies a calculation result onto the flattened entry fields.
func (e *Entry) ApplyResult(result *CalculationResult) {
	e.ActivitiesSubtotal = result.ActivitiesSubtotal
	e.KPIBonus = result.KPIBonus
	e.TotalPayout = result.TotalPayout
	e.AchievedRate = result.AchievedRate
	e.TierReached = result.TierReached
	e.UnitOfMeasure = result.UnitOfMeasure
	e.DetailLines = result.DetailLines
	e.ValidTaskCount = result.ValidTaskCount
	e.ValidTaskGrossValue = result.ValidTaskGrossValue
	e.GrossActivityValue = result.GrossActivityValue
	e.AchievedKPINames = append(StringList{}, result.AchievedKPINames...)
}

// ApplyInput copies a calculation input onto the flattened entry fields.
func (e *Entry) ApplyInput(input CalculationInput) error {
	e.Role = input.Role
	e.Shift = input.Shift
	e.ActivityName = nil
	e.QuantityProduced = nil
	e.HoursWorked = nil
	if input.Activity != nil {
		name := input.Activity.Name
		qty := input.Activity.QuantityProduced
		hours := input.Activity.HoursWorked
		e.ActivityName = &name
		e.QuantityProduced = &qty
		e.HoursWorked = &hours
	}
	if len(input.Activities) > 0 {
		raw, err := json.Marshal(input.Activities)
		if err != nil {
			return err
		}
		e.Activities = types.JSONText(raw)
	} else {
		e.Activities = nil
	}
	e.ValidTaskCount = input.ValidTaskCount
	e.ManualAdjustment = input.ManualAdjustment
	e.AchievedKPIs = append(StringList{}, input.AchievedKPIs...)
	return nil
}

// EntryFilter captures listing criteria for entries.
type EntryFilter struct {
	WorkerID string
	Status   string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}
