/*
handlers_test.go - HTTP tests for the API handlers

Tests for:
- Template and roster hierarchy routes
- Timesheet actions end to end
- Bid approval conflicts
- Error status mapping
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestServer(t *testing.T) (*Handler, http.Handler) {
	st := store.NewMemory()
	h := NewHandler(st, nil, zaptest.NewLogger(t))
	h.Reset = func(context.Context) error {
		st.Reset()
		return nil
	}
	return h, NewRouter(h, RouterOptions{Gatherer: prometheus.NewRegistry()})
}

func do(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// setupConventionRoster creates template T (Convention Centre / AM Base /
// TM2 06:30-14:00 GOLD), employee E and a populated roster for 2025-03-01.
func setupConventionRoster(t *testing.T, srv http.Handler) schedule.Roster {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/employees", CreateEmployeeRequest{
		ID: "E", Name: "E", Department: "Convention Centre", Role: "TM2", Tier: schedule.LevelGold, Level: 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/templates", map[string]any{"name": "T"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tpl := decodeAs[schedule.Template](t, rec)

	base := "/api/templates/" + tpl.ID
	rec = do(t, srv, http.MethodPost, base+"/groups", map[string]any{"name": "Convention Centre"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(t, srv, http.MethodPost, base+"/groups/1/subgroups", map[string]any{"name": "AM Base"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(t, srv, http.MethodPost, base+"/groups/1/subgroups/1/shifts", map[string]any{
		"role": "TM2", "startTime": "06:30", "endTime": "14:00", "remunerationLevel": "GOLD",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/rosters", map[string]any{
		"date": "2025-03-01", "template_id": tpl.ID, "populate": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeAs[schedule.Roster](t, rec)
}

// =============================================================================
// TEMPLATES
// =============================================================================

func TestTemplateRoutes(t *testing.T) {
	_, srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/templates", map[string]any{"name": "Weekday"})
	require.Equal(t, http.StatusCreated, rec.Code)
	tpl := decodeAs[schedule.Template](t, rec)
	base := "/api/templates/" + tpl.ID

	t.Run("unknown department is a 400", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, base+"/groups", map[string]any{"name": "Car Park"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation", decodeAs[ErrorResponse](t, rec).Code)
	})

	t.Run("missing group is a 404", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, base+"/groups/9/subgroups", map[string]any{"name": "X"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-integer group id is a 400", func(t *testing.T) {
		rec := do(t, srv, http.MethodDelete, base+"/groups/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("group lifecycle returns the whole template", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, base+"/groups", map[string]any{"name": "Theatre", "color": "red"})
		require.Equal(t, http.StatusCreated, rec.Code)
		rec = do(t, srv, http.MethodPost, base+"/groups/1/clone", nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		got := decodeAs[schedule.Template](t, rec)
		require.Len(t, got.Groups, 2)
		assert.Equal(t, 2, got.Groups[1].ID)

		rec = do(t, srv, http.MethodPut, base+"/groups/2", map[string]any{"color": "teal"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, schedule.Color("teal"), decodeAs[schedule.Template](t, rec).Groups[1].Color)

		rec = do(t, srv, http.MethodDelete, base+"/groups/2", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeAs[schedule.Template](t, rec).Groups, 1)
	})

	t.Run("clone, export and delete", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, base+"/clone", nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		cp := decodeAs[schedule.Template](t, rec)
		assert.Equal(t, "Weekday (Copy)", cp.Name)

		rec = do(t, srv, http.MethodGet, "/api/templates/"+cp.ID+"/export", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"sub_groups"`)

		rec = do(t, srv, http.MethodDelete, "/api/templates/"+cp.ID, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = do(t, srv, http.MethodGet, "/api/templates/"+cp.ID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestImportTemplate(t *testing.T) {
	_, srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/templates/import", map[string]any{
		"name": "Imported",
		"groups": []map[string]any{{
			"name": "Theatre",
			"sub_groups": []map[string]any{{
				"name":   "FOH",
				"shifts": []map[string]any{{"role": "TM1", "start_time": "18:00", "duration_hours": 5, "remuneration_level": "BRONZE"}},
			}},
		}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tpl := decodeAs[schedule.Template](t, rec)
	assert.Equal(t, "23:00", tpl.Groups[0].SubGroups[0].Shifts[0].EndTime)

	rec = do(t, srv, http.MethodPost, "/api/templates/import", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// ROSTERS AND TIMESHEETS
// =============================================================================

func TestRosterToTimesheet(t *testing.T) {
	// GIVEN: A populated roster with E on the TM2 GOLD shift
	// WHEN: E clocks in at 06:32 and out at 14:05 through the API
	// THEN: The timesheet is resolved with 7.55 hours and 339.75 pay
	_, srv := newTestServer(t)
	r := setupConventionRoster(t, srv)
	sh := r.Groups[0].SubGroups[0].Shifts[0]
	assert.Equal(t, "E", sh.EmployeeID)

	rec := do(t, srv, http.MethodGet, "/api/timesheets/2025-03-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, schedule.TimesheetPending, decodeAs[schedule.Timesheet](t, rec).Status)

	action := fmt.Sprintf("/api/timesheets/2025-03-01/shifts/1/1/%s/", sh.ID)
	rec = do(t, srv, http.MethodPost, action+"clock-out", ClockRequest{Time: "14:05"})
	assert.Equal(t, http.StatusConflict, rec.Code, "clock out before clock in")

	rec = do(t, srv, http.MethodPost, action+"clock-in", ClockRequest{Time: "06:32"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, srv, http.MethodPost, action+"clock-out", ClockRequest{Time: "14:05"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ts := decodeAs[schedule.Timesheet](t, rec)
	assert.True(t, decimal.RequireFromString("7.55").Equal(ts.TotalHours), ts.TotalHours.String())
	assert.True(t, decimal.RequireFromString("339.75").Equal(ts.TotalPay), ts.TotalPay.String())
	assert.Equal(t, schedule.TimesheetResolved, ts.Status)

	rec = do(t, srv, http.MethodPost, action+"teleport", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRosterRoutes(t *testing.T) {
	_, srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/rosters/2025-03-01", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/rosters", map[string]any{"date": "01/03/2025"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/rosters", map[string]any{"date": "2025-03-01"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/rosters/2025-03-01/open-shifts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	open := decodeAs[[]schedule.ShiftRef](t, rec)
	require.NotEmpty(t, open, "default template with no staff leaves every shift open")

	rec = do(t, srv, http.MethodGet, "/api/shifts/"+open[0].Shift.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-03-01", decodeAs[schedule.ShiftRef](t, rec).Date)

	rec = do(t, srv, http.MethodPost, "/api/rosters/2025-03-01/groups/1/subgroups/1/shifts", map[string]any{
		"role": "TM1", "startTime": "22:00", "durationHours": 4, "remunerationLevel": "BRONZE",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/rosters/2025-03-01/publish", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, schedule.RosterPublished, decodeAs[schedule.Roster](t, rec).Status)
}

// =============================================================================
// BIDS
// =============================================================================

func TestBidRoutes(t *testing.T) {
	_, srv := newTestServer(t)
	r := setupConventionRoster(t, srv)
	shiftID := r.Groups[0].SubGroups[0].Shifts[0].ID

	rec := do(t, srv, http.MethodPost, "/api/bids", map[string]any{"employeeId": "E", "shiftId": shiftID})
	require.Equal(t, http.StatusCreated, rec.Code)
	b1 := decodeAs[schedule.Bid](t, rec)
	rec = do(t, srv, http.MethodPost, "/api/bids", map[string]any{"employeeId": "F", "shiftId": shiftID})
	require.Equal(t, http.StatusCreated, rec.Code)
	b2 := decodeAs[schedule.Bid](t, rec)

	rec = do(t, srv, http.MethodGet, "/api/shifts/"+shiftID+"/applicants", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeAs[[]map[string]any](t, rec), 2)

	rec = do(t, srv, http.MethodPut, "/api/bids/"+b1.ID+"/status", BidStatusRequest{Status: schedule.BidApproved})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/bids/"+b2.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, schedule.BidRejected, decodeAs[schedule.Bid](t, rec).Status)

	rec = do(t, srv, http.MethodPost, "/api/bids", map[string]any{"employeeId": "F", "shiftId": shiftID})
	b3 := decodeAs[schedule.Bid](t, rec)
	rec = do(t, srv, http.MethodPut, "/api/bids/"+b3.ID+"/status", BidStatusRequest{Status: schedule.BidApproved})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "shift_already_offered", decodeAs[ErrorResponse](t, rec).Code)

	rec = do(t, srv, http.MethodGet, "/api/bids?status=Rejected", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeAs[[]schedule.Bid](t, rec), 1)

	rec = do(t, srv, http.MethodGet, "/api/bids/"+b3.ID+"/conflicts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/bids/"+b3.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, srv, http.MethodDelete, "/api/bids/"+b3.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// PLUMBING
// =============================================================================

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&schedule.NotFoundError{Kind: "roster", ID: "x"}, http.StatusNotFound},
		{&schedule.ValidationError{Field: "f", Message: "m"}, http.StatusBadRequest},
		{&schedule.TransitionError{ID: "1", From: "Completed", Op: "clock in"}, http.StatusConflict},
		{schedule.ErrShiftAlreadyOffered, http.StatusConflict},
		{fmt.Errorf("save: %w", schedule.ErrDuplicateDate), http.StatusConflict},
		{fmt.Errorf("%w: disk full", schedule.ErrBackendUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, statusCode(tt.err))
		})
	}
}

func TestEmployeeRoutes(t *testing.T) {
	_, srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/employees", CreateEmployeeRequest{ID: "x", Name: "X", Department: "Nowhere", Role: "TM1", Tier: "BRONZE"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/employees", CreateEmployeeRequest{ID: "x", Name: "X", Department: "Theatre", Role: "TM1", Tier: "BRONZE"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, decodeAs[schedule.Employee](t, rec).Level, "level defaults to 1")

	rec = do(t, srv, http.MethodGet, "/api/employees?department=Theatre", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeAs[[]schedule.Employee](t, rec), 1)

	rec = do(t, srv, http.MethodGet, "/api/employees/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	_, srv := newTestServer(t)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/metrics", nil).Code)
}
