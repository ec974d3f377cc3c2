package models

import "time"

// WorkerRole is the canonical role identifier used internally. The worker
// directory may store display names in Portuguese or English; CanonicalRole
// maps them onto these constants.
type WorkerRole string

const (
	RoleWarehouseHelper  WorkerRole = "warehouse_helper"
	RoleForkliftOperator WorkerRole = "forklift_operator"
	RoleGeneral          WorkerRole = "general"
)

// Shift identifies the work shift a worker or KPI definition belongs to.
// ShiftGeneral applies to any shift.
type Shift string

const (
	ShiftMorning   Shift = "Morning"
	ShiftAfternoon Shift = "Afternoon"
	ShiftNight     Shift = "Night"
	ShiftGeneral   Shift = "General"
)

var roleAliases = map[string]WorkerRole{
	"warehouse_helper":         RoleWarehouseHelper,
	"warehouse helper":         RoleWarehouseHelper,
	"ajudante de armazem":      RoleWarehouseHelper,
	"ajudante":                 RoleWarehouseHelper,
	"forklift_operator":        RoleForkliftOperator,
	"forklift operator":        RoleForkliftOperator,
	"operador de empilhadeira": RoleForkliftOperator,
	"operador":                 RoleForkliftOperator,
}

var shiftAliases = map[string]Shift{
	"morning":   ShiftMorning,
	"manha":     ShiftMorning,
	"afternoon": ShiftAfternoon,
	"tarde":     ShiftAfternoon,
	"night":     ShiftNight,
	"noite":     ShiftNight,
	"general":   ShiftGeneral,
	"geral":     ShiftGeneral,
}

// CanonicalRole resolves a free-form role name to its canonical identifier.
// Unknown roles fall back to RoleGeneral, which uses the single-activity
// strategy.
func CanonicalRole(raw string) WorkerRole {
	if role, ok := roleAliases[NormalizeKey(raw)]; ok {
		return role
	}
	return RoleGeneral
}

// CanonicalShift resolves a free-form shift name. Unknown values resolve to
// ShiftGeneral.
func CanonicalShift(raw string) Shift {
	if shift, ok := shiftAliases[NormalizeKey(raw)]; ok {
		return shift
	}
	return ShiftGeneral
}

// ShiftMatches reports whether a KPI definition scoped to defShift applies to
// a worker on workerShift. General definitions apply to every shift.
func ShiftMatches(defShift, workerShift Shift) bool {
	return defShift == ShiftGeneral || defShift == workerShift
}

// Worker is a row in the worker directory.
type Worker struct {
	ID         string     `db:"id" json:"id"`
	FullName   string     `db:"full_name" json:"full_name"`
	DocumentID string     `db:"document_id" json:"document_id"`
	Role       string     `db:"role" json:"role"`
	Shift      string     `db:"shift" json:"shift"`
	BirthDate  *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Active     bool       `db:"active" json:"active"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}
