// Package model - assignment history for report routing.
package model

import "time"

// Assignment statuses. History is append-only: a reassignment marks the old
// record REASSIGNED and creates a new ACTIVE one, it never mutates in place.
const (
	AssignmentActive     = "ACTIVE"
	AssignmentCompleted  = "COMPLETED"
	AssignmentReassigned = "REASSIGNED"
)

// Assignment links a report to the engineer responsible for it and to the
// actor (admin or system) who made the assignment.
type Assignment struct {
	Key        string    `json:"_key,omitempty"`
	ObjType    string    `json:"objtype,omitempty"`
	ReportKey  string    `json:"report_key"`
	Engineer   string    `json:"engineer"`    // username of the assigned engineer
	AssignedBy string    `json:"assigned_by"` // username of the assigning actor
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewAssignment creates an ACTIVE assignment record.
func NewAssignment(reportKey, engineer, assignedBy, reason string) *Assignment {
	now := time.Now()
	return &Assignment{
		ObjType:    "Assignment",
		ReportKey:  reportKey,
		Engineer:   engineer,
		AssignedBy: assignedBy,
		Status:     AssignmentActive,
		Reason:     reason,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
