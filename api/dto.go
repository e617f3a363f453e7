/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Request bodies that do not map onto a domain input type, plus the error
  and scenario wrappers. Domain aggregates (Template, Roster, Timesheet,
  Bid) are returned as-is: their JSON tags are the API contract.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO: Response types that wrap or flatten domain values

VALIDATION:
  Validation is done by the services, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - schedule/hierarchy.go: NewGroupInput, ShiftPatch and friends
*/
package api

import (
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateEmployeeRequest is the request to add an employee to the directory.
type CreateEmployeeRequest struct {
	ID         string                     `json:"id"`
	Name       string                     `json:"name"`
	Department string                     `json:"department"`
	Role       string                     `json:"role"`
	Tier       schedule.RemunerationLevel `json:"tier"`
	Level      int                        `json:"level"`
}

// ClockRequest carries an "HH:MM" clock time.
type ClockRequest struct {
	Time string `json:"time"`
}

type SwapRequest struct {
	EmployeeID string `json:"employee_id"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type ShiftStatusRequest struct {
	Status schedule.ShiftStatus `json:"status"`
}

type AssignShiftRequest struct {
	EmployeeID string `json:"employee_id"`
}

type BidStatusRequest struct {
	Status schedule.BidStatus `json:"status"`
}

// LoadScenarioRequest selects a demo scenario. Date defaults to today and
// Seed to 1.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
	Date       string `json:"date,omitempty"`
	Seed       uint64 `json:"seed,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
