package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arnavshah/capacity-planner-api/pkg/capacity"
	"github.com/arnavshah/capacity-planner-api/pkg/config"
	"github.com/arnavshah/capacity-planner-api/pkg/database"
	"github.com/arnavshah/capacity-planner-api/pkg/export"
	"github.com/arnavshah/capacity-planner-api/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "handlers.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	h := NewHandler(database.NewStore(db), zap.NewNop())
	r := gin.New()
	r.GET("/capacity/forecast", h.Forecast)
	r.GET("/capacity/forecast/export", h.ExportForecast)
	r.GET("/capacity/rules", h.GetRules)
	r.PUT("/capacity/rules", h.PutRules)
	r.POST("/capacity/rules/holidays", h.ImportHolidays)
	r.GET("/staff", h.ListStaff)
	r.POST("/staff", h.CreateStaff)
	r.GET("/staff/:id", h.GetStaff)
	r.PUT("/staff/:id", h.UpdateStaff)
	r.DELETE("/staff/:id", h.DeleteStaff)
	r.POST("/projects", h.CreateProject)
	r.DELETE("/projects/:id", h.DeleteProject)
	r.GET("/assignments", h.ListAssignments)
	r.POST("/assignments", h.CreateAssignment)
	r.PUT("/assignments/:id", h.UpdateAssignment)
	r.DELETE("/assignments/:id", h.DeleteAssignment)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error  string                `json:"error"`
	Fields []capacity.FieldError `json:"fields"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// seed creates one staff member assigned to one project for the first
// working week of 2024 and returns the assignment
func seed(t *testing.T, r http.Handler) models.Assignment {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/staff", gin.H{"name": "Ada"})
	require.Equal(t, http.StatusCreated, w.Code)
	var staff models.Staff
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &staff))

	w = doJSON(t, r, http.MethodPost, "/projects", gin.H{"name": "Spectrometer"})
	require.Equal(t, http.StatusCreated, w.Code)
	var project models.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))

	w = doJSON(t, r, http.MethodPost, "/assignments", gin.H{
		"staffId":   staff.ID,
		"projectId": project.ID,
		"start":     "2024-01-01",
		"end":       "2024-01-05",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var a models.Assignment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	return a
}

func TestForecast_DailyAndWeekly(t *testing.T) {
	r := newTestRouter(t)
	seed(t, r)

	w := doJSON(t, r, http.MethodGet, "/capacity/forecast?from=2024-01-01&to=2024-01-07&bucket=day", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var daily models.ForecastResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &daily))
	assert.Equal(t, "day", daily.Bucket)
	require.Len(t, daily.Points, 7)
	assert.Equal(t, models.BucketPoint{BucketStart: "2024-01-01", Available: 8, Needed: 8}, daily.Points[0])
	assert.Equal(t, models.BucketPoint{BucketStart: "2024-01-06", Available: 0, Needed: 0}, daily.Points[5])

	w = doJSON(t, r, http.MethodGet, "/capacity/forecast?from=2024-01-01&to=2024-01-07", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var weekly models.ForecastResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &weekly))
	assert.Equal(t, "week", weekly.Bucket)
	assert.Equal(t, []models.BucketPoint{{BucketStart: "2024-01-01", Available: 40, Needed: 40}}, weekly.Points)
}

func TestForecast_RespectsStoredRules(t *testing.T) {
	r := newTestRouter(t)
	seed(t, r)

	w := doJSON(t, r, http.MethodPut, "/capacity/rules", gin.H{
		"defaultHoursPerDay": 6,
		"workdays":           []int{1, 2, 3, 4, 5},
		"exceptions":         []gin.H{{"date": "2024-01-02", "reason": "Lab closed"}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/capacity/forecast?from=2024-01-01&to=2024-01-03&bucket=day", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res models.ForecastResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, []models.BucketPoint{
		{BucketStart: "2024-01-01", Available: 6, Needed: 6},
		{BucketStart: "2024-01-02", Available: 0, Needed: 6},
		{BucketStart: "2024-01-03", Available: 6, Needed: 6},
	}, res.Points)
}

func TestForecast_InvalidQuery(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"missing from", "?to=2024-01-07", "from"},
		{"bad to", "?from=2024-01-01&to=2024-13-01", "to"},
		{"reversed", "?from=2024-01-08&to=2024-01-01", "from"},
		{"bad bucket", "?from=2024-01-01&to=2024-01-07&bucket=year", "bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodGet, "/capacity/forecast"+tt.query, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, "validation failed", body.Error)
			require.NotEmpty(t, body.Fields)
			assert.Equal(t, tt.field, body.Fields[0].Field)
		})
	}
}

func TestExportForecast(t *testing.T) {
	r := newTestRouter(t)
	seed(t, r)

	w := doJSON(t, r, http.MethodGet, "/capacity/forecast/export?from=2024-01-01&to=2024-01-31&bucket=week", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "capacity_week_2024-01-01_2024-01-31.xlsx")
	// xlsx files are zip archives
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	w = doJSON(t, r, http.MethodGet, "/capacity/forecast/export?from=2024-01-31&to=2024-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRules_GetDefaultsAndPut(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/capacity/rules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rules models.CapacityRules
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rules))
	assert.Equal(t, models.DefaultCapacityRules(), rules)

	w = doJSON(t, r, http.MethodPut, "/capacity/rules", gin.H{
		"defaultHoursPerDay": 7.5,
		"workdays":           []int{1, 2, 3, 4},
		"staffOverrides":     []gin.H{{"staffId": 1, "hoursPerDay": 4}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"defaultHoursPerDay": 7.5,
		"workdays": [1, 2, 3, 4],
		"staffOverrides": [{"staffId": 1, "hoursPerDay": 4, "workdays": null}],
		"exceptions": []
	}`, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/capacity/rules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rules = models.CapacityRules{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rules))
	assert.Equal(t, 7.5, rules.DefaultHoursPerDay)
	assert.Empty(t, rules.Exceptions)
}

func TestRules_PutRejectsInvalid(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPut, "/capacity/rules", gin.H{
		"defaultHoursPerDay": 30,
		"workdays":           []int{0, 8},
		"exceptions":         []gin.H{{"date": "2024/01/01"}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	fields := make([]string, 0, len(body.Fields))
	for _, f := range body.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"defaultHoursPerDay", "workdays[0]", "workdays[1]", "exceptions[0].date"}, fields)

	w = doJSON(t, r, http.MethodPut, "/capacity/rules", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "body", decodeError(t, w).Fields[0].Field)

	// the stored document is untouched
	w = doJSON(t, r, http.MethodGet, "/capacity/rules", nil)
	var rules models.CapacityRules
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rules))
	assert.Equal(t, models.DefaultCapacityRules(), rules)
}

const holidayCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//planner//holidays//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:xmas-2024\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20241225\r\n" +
	"DTEND;VALUE=DATE:20241227\r\n" +
	"SUMMARY:Christmas break\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestImportHolidays_RawBody(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/capacity/rules/holidays?hours=2", strings.NewReader(holidayCalendar))
	req.Header.Set("Content-Type", "text/calendar")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rules models.CapacityRules
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rules))
	require.Len(t, rules.Exceptions, 2)
	assert.Equal(t, "2024-12-25", rules.Exceptions[0].Date)
	assert.Equal(t, "2024-12-26", rules.Exceptions[1].Date)
	require.NotNil(t, rules.Exceptions[0].Hours)
	assert.Equal(t, 2.0, *rules.Exceptions[0].Hours)
	assert.Nil(t, rules.Exceptions[0].StaffID)
	assert.Equal(t, 8.0, rules.DefaultHoursPerDay)
}

func TestImportHolidays_Multipart(t *testing.T) {
	r := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "holidays.ics")
	require.NoError(t, err)
	_, err = part.Write([]byte(holidayCalendar))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/capacity/rules/holidays?staffId=4", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rules models.CapacityRules
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rules))
	require.Len(t, rules.Exceptions, 2)
	require.NotNil(t, rules.Exceptions[1].StaffID)
	assert.Equal(t, uint(4), *rules.Exceptions[1].StaffID)
	assert.Nil(t, rules.Exceptions[1].Hours)
}

func TestImportHolidays_Invalid(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/capacity/rules/holidays", strings.NewReader("not a calendar"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "file", decodeError(t, w).Fields[0].Field)

	req = httptest.NewRequest(http.MethodPost, "/capacity/rules/holidays?hours=25", strings.NewReader(holidayCalendar))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "hours", decodeError(t, w).Fields[0].Field)
}

func TestStaff_CRUD(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/staff", gin.H{"name": "  "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name", decodeError(t, w).Fields[0].Field)

	w = doJSON(t, r, http.MethodPost, "/staff", gin.H{"name": " Grace "})
	require.Equal(t, http.StatusCreated, w.Code)
	var staff models.Staff
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &staff))
	assert.Equal(t, "Grace", staff.Name)

	w = doJSON(t, r, http.MethodPut, "/staff/1", gin.H{"name": "Grace H."})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/staff/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id": 1, "name": "Grace H."}`, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/staff/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, r, http.MethodGet, "/staff/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodPut, "/staff/99", gin.H{"name": "Nobody"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/staff/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, r, http.MethodGet, "/staff", nil)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestDelete_ReferencedRecords(t *testing.T) {
	r := newTestRouter(t)
	a := seed(t, r)

	w := doJSON(t, r, http.MethodDelete, "/staff/1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = doJSON(t, r, http.MethodDelete, "/projects/1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/assignments/1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, r, http.MethodDelete, "/assignments/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/staff/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, uint(1), a.ID)
}

func TestAssignments_Validation(t *testing.T) {
	r := newTestRouter(t)
	seed(t, r)

	w := doJSON(t, r, http.MethodPost, "/assignments", gin.H{
		"staffId":   9,
		"projectId": 1,
		"start":     "2024-02-10",
		"end":       "2024-02-01",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.ElementsMatch(t, []capacity.FieldError{
		{Field: "end", Message: "must not be before start"},
		{Field: "staffId", Message: "unknown staff member"},
	}, decodeError(t, w).Fields)

	w = doJSON(t, r, http.MethodPost, "/assignments", gin.H{"start": "Feb 1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decodeError(t, w).Fields
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	assert.ElementsMatch(t, []string{"staffId", "projectId", "start", "end"}, names)

	w = doJSON(t, r, http.MethodPut, "/assignments/1", gin.H{
		"staffId":   1,
		"projectId": 1,
		"start":     "2024-01-08",
		"end":       "2024-01-12",
		"notes":     "moved a week",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPut, "/assignments/42", gin.H{
		"staffId":   1,
		"projectId": 1,
		"start":     "2024-01-08",
		"end":       "2024-01-12",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssignments_ListFilters(t *testing.T) {
	r := newTestRouter(t)
	seed(t, r)

	w := doJSON(t, r, http.MethodGet, "/assignments?staffId=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Assignment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = doJSON(t, r, http.MethodGet, "/assignments?from=2024-01-06&to=2024-01-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/assignments?staffId=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodGet, "/assignments?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// brokenStore fails every call the forecast and rules routes make
type brokenStore struct {
	Store
	err error
}

func (s brokenStore) LoadSnapshot(context.Context, string, string) (database.Snapshot, error) {
	return database.Snapshot{}, s.err
}

func (s brokenStore) GetRules(context.Context) (models.CapacityRules, error) {
	return models.CapacityRules{}, s.err
}

func (s brokenStore) SaveRules(context.Context, models.CapacityRules) error {
	return s.err
}

func TestStorageFailures(t *testing.T) {
	h := NewHandler(brokenStore{err: errors.New("database is locked")}, zap.NewNop())
	r := gin.New()
	r.GET("/capacity/forecast", h.Forecast)
	r.GET("/capacity/forecast/export", h.ExportForecast)
	r.GET("/capacity/rules", h.GetRules)
	r.PUT("/capacity/rules", h.PutRules)
	r.POST("/capacity/rules/holidays", h.ImportHolidays)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"forecast", http.MethodGet, "/capacity/forecast?from=2024-01-01&to=2024-01-07", nil},
		{"export", http.MethodGet, "/capacity/forecast/export?from=2024-01-01&to=2024-01-07", nil},
		{"get rules", http.MethodGet, "/capacity/rules", nil},
		{"put rules", http.MethodPut, "/capacity/rules", models.DefaultCapacityRules()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
			assert.NotContains(t, w.Body.String(), "database is locked")
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/capacity/rules/holidays", strings.NewReader(holidayCalendar))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRules_PutRequiresCoreSettings(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPut, "/capacity/rules", gin.H{
		"staffOverrides": []gin.H{{"staffId": 1, "hoursPerDay": 4}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.ElementsMatch(t, []capacity.FieldError{
		{Field: "defaultHoursPerDay", Message: "is required"},
		{Field: "workdays", Message: "is required"},
	}, decodeError(t, w).Fields)

	w = doJSON(t, r, http.MethodPut, "/capacity/rules", gin.H{"defaultHoursPerDay": 8, "workdays": nil})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []capacity.FieldError{{Field: "workdays", Message: "is required"}}, decodeError(t, w).Fields)

	// the stored document is untouched
	w = doJSON(t, r, http.MethodGet, "/capacity/rules", nil)
	var rules models.CapacityRules
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rules))
	assert.Equal(t, models.DefaultCapacityRules(), rules)

	// explicit zero hours and an empty workday list are deliberate choices
	w = doJSON(t, r, http.MethodPut, "/capacity/rules", gin.H{"defaultHoursPerDay": 0, "workdays": []int{}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"defaultHoursPerDay": 0, "workdays": [], "staffOverrides": [], "exceptions": []}`, w.Body.String())
}

func TestForecast_EmptyBucketUsesDefault(t *testing.T) {
	r := newTestRouter(t)
	seed(t, r)

	w := doJSON(t, r, http.MethodGet, "/capacity/forecast?from=2024-01-01&to=2024-01-07&bucket=", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res models.ForecastResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "week", res.Bucket)
	assert.Equal(t, []models.BucketPoint{{BucketStart: "2024-01-01", Available: 40, Needed: 40}}, res.Points)
}

func TestImportHolidays_MultipartWithoutFile(t *testing.T) {
	r := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "forgot the attachment"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/capacity/rules/holidays", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []capacity.FieldError{{Field: "file", Message: "is required"}}, decodeError(t, w).Fields)
}
