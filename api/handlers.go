/*
handlers.go - HTTP API handlers for the rostering engine

PURPOSE:
  Exposes templates, rosters, timesheets and bids via REST API. Handles
  HTTP request/response and JSON serialization, and delegates to the
  domain services.

ENDPOINTS:
  Employees:
    GET    /api/employees                       List (optional ?department=)
    POST   /api/employees                       Add to the directory
    GET    /api/employees/{id}                  Get employee

  Templates:
    GET    /api/templates                       List templates
    POST   /api/templates                       Create template
    POST   /api/templates/import                Create from template JSON
    GET    /api/templates/{id}                  Get template
    GET    /api/templates/{id}/export           Template JSON
    PUT    /api/templates/{id}                  Rename / describe
    DELETE /api/templates/{id}                  Delete
    POST   /api/templates/{id}/clone            Copy under a new id
    ...    /api/templates/{id}/groups/...       Hierarchy editing (hierarchy.go)

  Rosters:
    GET    /api/rosters                         List rosters
    POST   /api/rosters                         Lookup-or-create for a date
    GET    /api/rosters/{date}                  Get roster
    POST   /api/rosters/{date}/publish          Mark published
    GET    /api/rosters/{date}/open-shifts      Unassigned shifts
    ...    /api/rosters/{date}/groups/...       Hierarchy editing (hierarchy.go)

  Shifts:
    GET    /api/shifts/{shiftID}                Locate a roster shift
    POST   /api/shifts/{shiftID}/assign         Assign an employee
    GET    /api/shifts/{shiftID}/applicants     Bids with conflicts and tags

  Timesheets:
    GET    /api/timesheets                      List timesheets
    GET    /api/timesheets/{date}               Get (derived on first read)
    POST   /api/timesheets/{date}/shifts/{gid}/{sid}/{shid}/{action}
           action: clock-in, clock-out, swap, cancel, no-show, status

  Bids:
    GET    /api/bids                            List (?shift_id, ?employee_id, ?status)
    POST   /api/bids                            Create
    GET    /api/bids/{id}                       Get bid
    GET    /api/bids/{id}/conflicts             Conflict check and tag
    PUT    /api/bids/{id}/status                Approve / reject / confirm
    DELETE /api/bids/{id}                       Withdraw

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Invalid transition, shift already offered, duplicate date
  - 503: Remote store and local mirror both failed
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - hierarchy.go: Group / sub-group / shift routes
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/bids"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/factory"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/roster"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/templates"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      schedule.Store
	Templates  *templates.Service
	Rosters    *roster.Service
	Timesheets *roster.TimesheetService
	Bids       *bids.Service

	// Reset clears every record before a scenario loads. Nil means
	// scenarios load on top of existing data.
	Reset func(ctx context.Context) error

	rates roster.PayRates
	log   *zap.Logger

	mu              sync.Mutex
	currentScenario string
}

// NewHandler wires every service over one store.
func NewHandler(store schedule.Store, rates roster.PayRates, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if rates == nil {
		rates = roster.DefaultPayRates()
	}
	rosters := roster.NewService(store, log)
	return &Handler{
		Store:      store,
		Templates:  templates.NewService(store, log),
		Rosters:    rosters,
		Timesheets: roster.NewTimesheetService(store, log, rates),
		Bids:       bids.NewService(store, rosters, rosters, log),
		rates:      rates,
		log:        log.Named("api"),
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns the directory, optionally for one department.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	var (
		employees []schedule.Employee
		err       error
	)
	if dept := r.URL.Query().Get("department"); dept != "" {
		employees, err = h.Store.EmployeesByDepartment(r.Context(), dept)
	} else {
		employees, err = h.Store.ListEmployees(r.Context())
	}
	if err != nil {
		writeServiceError(w, "Failed to list employees", err)
		return
	}
	if employees == nil {
		employees = []schedule.Employee{}
	}
	writeJSON(w, http.StatusOK, employees)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := h.Store.GetEmployee(r.Context(), id)
	if err == nil && e == nil {
		err = &schedule.NotFoundError{Kind: "employee", ID: id}
	}
	if err != nil {
		writeServiceError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// CreateEmployee adds or replaces a directory entry.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Level == 0 {
		req.Level = 1
	}
	if err := validateEmployee(req); err != nil {
		writeServiceError(w, "Invalid employee", err)
		return
	}

	e := schedule.Employee{
		ID:         req.ID,
		Name:       req.Name,
		Department: req.Department,
		Role:       req.Role,
		Tier:       req.Tier,
		Level:      req.Level,
	}
	if err := h.Store.SaveEmployee(r.Context(), e); err != nil {
		writeServiceError(w, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func validateEmployee(req CreateEmployeeRequest) error {
	switch {
	case strings.TrimSpace(req.ID) == "":
		return &schedule.ValidationError{Field: "id", Message: "is required"}
	case strings.TrimSpace(req.Name) == "":
		return &schedule.ValidationError{Field: "name", Message: "is required"}
	case !schedule.IsDepartment(req.Department):
		return &schedule.ValidationError{Field: "department", Message: "unknown department " + strconv.Quote(req.Department)}
	case strings.TrimSpace(req.Role) == "":
		return &schedule.ValidationError{Field: "role", Message: "is required"}
	case !req.Tier.Valid():
		return &schedule.ValidationError{Field: "tier", Message: "unknown level " + strconv.Quote(string(req.Tier))}
	case req.Level < 1 || req.Level > 5:
		return &schedule.ValidationError{Field: "level", Message: "must be between 1 and 5"}
	}
	return nil
}

// =============================================================================
// TEMPLATE HANDLERS
// =============================================================================

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := h.Templates.ListTemplates(r.Context())
	if list == nil {
		list = []schedule.Template{}
	}
	respond(w, http.StatusOK)(list, err)
}

func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var in templates.NewTemplateInput
	if !decode(w, r, &in) {
		return
	}
	respond(w, http.StatusCreated)(h.Templates.CreateTemplate(r.Context(), in))
}

// ImportTemplate creates a template from its JSON definition. Hierarchy ids
// are assigned in document order; the template id is always fresh.
func (h *Handler) ImportTemplate(w http.ResponseWriter, r *http.Request) {
	var tj factory.TemplateJSON
	if !decode(w, r, &tj) {
		return
	}
	parsed, err := factory.FromJSON(tj)
	if err != nil {
		writeServiceError(w, "Invalid template definition", err)
		return
	}
	respond(w, http.StatusCreated)(h.Templates.CreateTemplate(r.Context(), templates.NewTemplateInput{
		Name:        parsed.Name,
		Description: parsed.Description,
		Groups:      parsed.Groups,
	}))
}

func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK)(h.Templates.GetTemplate(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handler) ExportTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := h.Templates.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to export template", err)
		return
	}
	writeJSON(w, http.StatusOK, factory.ToJSON(t))
}

func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var p templates.TemplatePatch
	if !decode(w, r, &p) {
		return
	}
	respond(w, http.StatusOK)(h.Templates.UpdateTemplate(r.Context(), chi.URLParam(r, "id"), p))
}

func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.Templates.DeleteTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "Failed to delete template", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CloneTemplate(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusCreated)(h.Templates.CloneTemplate(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handler) templateOps() hierarchyOps[*schedule.Template] {
	t := h.Templates
	return hierarchyOps[*schedule.Template]{
		AddGroup: t.AddGroup, UpdateGroup: t.UpdateGroup, DeleteGroup: t.DeleteGroup, CloneGroup: t.CloneGroup,
		AddSubGroup: t.AddSubGroup, UpdateSubGroup: t.UpdateSubGroup, DeleteSubGroup: t.DeleteSubGroup, CloneSubGroup: t.CloneSubGroup,
		AddShift: t.AddShift, UpdateShift: t.UpdateShift, DeleteShift: t.DeleteShift, CloneShift: t.CloneShift,
	}
}

// =============================================================================
// ROSTER HANDLERS
// =============================================================================

func (h *Handler) ListRosters(w http.ResponseWriter, r *http.Request) {
	list, err := h.Rosters.ListRosters(r.Context())
	if list == nil {
		list = []schedule.Roster{}
	}
	respond(w, http.StatusOK)(list, err)
}

// CreateRoster returns the roster for the date, generating it on first use.
func (h *Handler) CreateRoster(w http.ResponseWriter, r *http.Request) {
	var in roster.CreateRosterInput
	if !decode(w, r, &in) {
		return
	}
	respond(w, http.StatusOK)(h.Rosters.CreateRoster(r.Context(), in))
}

func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK)(h.Rosters.GetRoster(r.Context(), chi.URLParam(r, "date")))
}

func (h *Handler) PublishRoster(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK)(h.Rosters.PublishRoster(r.Context(), chi.URLParam(r, "date")))
}

func (h *Handler) ListOpenShifts(w http.ResponseWriter, r *http.Request) {
	open, err := h.Rosters.ListOpenShifts(r.Context(), chi.URLParam(r, "date"))
	if open == nil {
		open = []schedule.ShiftRef{}
	}
	respond(w, http.StatusOK)(open, err)
}

func (h *Handler) rosterOps() hierarchyOps[*schedule.Roster] {
	s := h.Rosters
	return hierarchyOps[*schedule.Roster]{
		AddGroup: s.AddGroup, UpdateGroup: s.UpdateGroup, DeleteGroup: s.DeleteGroup, CloneGroup: s.CloneGroup,
		AddSubGroup: s.AddSubGroup, UpdateSubGroup: s.UpdateSubGroup, DeleteSubGroup: s.DeleteSubGroup, CloneSubGroup: s.CloneSubGroup,
		AddShift: s.AddShift, UpdateShift: s.UpdateShift, DeleteShift: s.DeleteShift, CloneShift: s.CloneShift,
	}
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

func (h *Handler) LocateShift(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK)(h.Rosters.LocateShift(r.Context(), chi.URLParam(r, "shiftID")))
}

func (h *Handler) AssignShift(w http.ResponseWriter, r *http.Request) {
	var req AssignShiftRequest
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK)(h.Rosters.AssignShift(r.Context(), chi.URLParam(r, "shiftID"), req.EmployeeID))
}

func (h *Handler) ListApplicants(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK)(h.Bids.ApplicantsForShift(r.Context(), chi.URLParam(r, "shiftID")))
}

// =============================================================================
// TIMESHEET HANDLERS
// =============================================================================

func (h *Handler) ListTimesheets(w http.ResponseWriter, r *http.Request) {
	list, err := h.Timesheets.ListTimesheets(r.Context())
	if list == nil {
		list = []schedule.Timesheet{}
	}
	respond(w, http.StatusOK)(list, err)
}

func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK)(h.Timesheets.GetTimesheet(r.Context(), chi.URLParam(r, "date")))
}

// TimesheetAction applies one attendance transition to a timesheet shift.
// POST /api/timesheets/{date}/shifts/{gid}/{sid}/{shid}/{action}
func (h *Handler) TimesheetAction(w http.ResponseWriter, r *http.Request) {
	path, ok := shiftPath(w, r)
	if !ok {
		return
	}
	ctx, date := r.Context(), chi.URLParam(r, "date")
	ts := h.Timesheets

	switch action := chi.URLParam(r, "action"); action {
	case "clock-in", "clock-out":
		var req ClockRequest
		if !decode(w, r, &req) {
			return
		}
		if action == "clock-in" {
			respond(w, http.StatusOK)(ts.ClockIn(ctx, date, path, req.Time))
		} else {
			respond(w, http.StatusOK)(ts.ClockOut(ctx, date, path, req.Time))
		}
	case "swap":
		var req SwapRequest
		if !decode(w, r, &req) {
			return
		}
		respond(w, http.StatusOK)(ts.SwapShift(ctx, date, path, req.EmployeeID))
	case "cancel":
		var req CancelRequest
		if !decode(w, r, &req) {
			return
		}
		respond(w, http.StatusOK)(ts.CancelShift(ctx, date, path, req.Reason))
	case "no-show":
		respond(w, http.StatusOK)(ts.MarkNoShow(ctx, date, path))
	case "status":
		var req ShiftStatusRequest
		if !decode(w, r, &req) {
			return
		}
		respond(w, http.StatusOK)(ts.UpdateShiftStatus(ctx, date, path, req.Status))
	default:
		writeError(w, http.StatusNotFound, "Unknown timesheet action "+strconv.Quote(action), nil)
	}
}

// =============================================================================
// BID HANDLERS
// =============================================================================

func (h *Handler) ListBids(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.Bids.ListBids(r.Context(), schedule.BidFilter{
		ShiftID:    q.Get("shift_id"),
		EmployeeID: q.Get("employee_id"),
		Status:     schedule.BidStatus(q.Get("status")),
	})
	if list == nil {
		list = []schedule.Bid{}
	}
	respond(w, http.StatusOK)(list, err)
}

func (h *Handler) CreateBid(w http.ResponseWriter, r *http.Request) {
	var in bids.NewBidInput
	if !decode(w, r, &in) {
		return
	}
	respond(w, http.StatusCreated)(h.Bids.CreateBid(r.Context(), in))
}

func (h *Handler) GetBid(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK)(h.Bids.GetBid(r.Context(), chi.URLParam(r, "id")))
}

// GetBidConflicts reports the advisory signals for one bid.
func (h *Handler) GetBidConflicts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b, err := h.Bids.GetBid(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to get bid", err)
		return
	}
	conflict, err := h.Bids.CheckApplicantConflicts(ctx, b)
	if err != nil {
		writeServiceError(w, "Failed to check conflicts", err)
		return
	}
	tag, err := h.Bids.GetApplicantTag(ctx, b)
	if err != nil {
		writeServiceError(w, "Failed to tag applicant", err)
		return
	}
	writeJSON(w, http.StatusOK, bids.Applicant{Bid: *b, Conflict: conflict, Tag: tag})
}

func (h *Handler) UpdateBidStatus(w http.ResponseWriter, r *http.Request) {
	var req BidStatusRequest
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK)(h.Bids.UpdateBidStatus(r.Context(), chi.URLParam(r, "id"), req.Status))
}

func (h *Handler) WithdrawBid(w http.ResponseWriter, r *http.Request) {
	if err := h.Bids.WithdrawBid(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "Failed to withdraw bid", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps domain errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, message string, err error) {
	status, code := statusFor(err)
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: err.Error()})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, schedule.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, schedule.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, schedule.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, schedule.ErrShiftAlreadyOffered):
		return http.StatusConflict, "shift_already_offered"
	case errors.Is(err, schedule.ErrDuplicateDate):
		return http.StatusConflict, "duplicate_date"
	case errors.Is(err, schedule.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, "backend_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// respond writes the result of a service call: the value on success, the
// mapped error otherwise.
func respond(w http.ResponseWriter, status int) func(any, error) {
	return func(v any, err error) {
		if err != nil {
			writeServiceError(w, http.StatusText(statusCode(err)), err)
			return
		}
		writeJSON(w, status, v)
	}
}

func statusCode(err error) int {
	status, _ := statusFor(err)
	return status
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+name, &schedule.ValidationError{Field: name, Message: "expected an integer, got " + strconv.Quote(raw)})
		return 0, false
	}
	return n, true
}
