package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcheckin/internal/attendance"
	"eventcheckin/internal/config"
	"eventcheckin/internal/httpmiddleware"
	"eventcheckin/internal/qr"
	"eventcheckin/internal/qr/qrtest"
	"eventcheckin/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type server struct {
	engine *gin.Engine
	db     *store.DB
}

func newServer(t *testing.T) *server {
	t.Helper()
	ctx := context.Background()
	db, err := store.OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := attendance.NewRepository(db)
	require.NoError(t, repo.CreateAdministrator(ctx, &attendance.Administrator{
		Username: "admin", PasswordHash: "hash", Email: "admin@example.com",
	}))

	cfg := config.App{PublicBaseURL: "https://events.example.org", SignInURLTemplate: config.DefaultSignInURLTemplate}
	h := New(
		attendance.NewActivityService(repo, qr.Encoder{}, cfg.SignInURL, nil),
		attendance.NewService(repo),
		nil, db, nil,
	)

	r := gin.New()
	r.Use(httpmiddleware.RequestID())
	h.Register(r)
	return &server{engine: r, db: db}
}

func (s *server) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s *server) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.Client.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const orientation = `{"name":"Orientation","start_time":"2024-09-01T09:00:00","end_time":"2024-09-01T11:00:00","created_by":1}`

func TestCreateActivity(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/activities", orientation)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/activities/1", rec.Header().Get("Location"))

	body := decode(t, rec)
	assert.Equal(t, "Activity created successfully", body["message"])
	act := body["activity"].(map[string]any)
	assert.EqualValues(t, 1, act["id"])
	assert.Equal(t, "2024-09-01T09:00:00", act["start_time"])
	assert.Equal(t, "2024-09-01T11:00:00", act["end_time"])
	assert.Nil(t, act["description"])
	assert.Equal(t, "https://events.example.org/activity/1/signin", act["qr_data"])

	uri, ok := act["qr_code_url"].(string)
	require.True(t, ok)
	require.NotEmpty(t, uri)
	payload, err := qrtest.Decode(uri)
	require.NoError(t, err)
	assert.Contains(t, payload, "/activity/1/")
}

func TestCreateActivityErrors(t *testing.T) {
	s := newServer(t)

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"name":`, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"missing name", `{"start_time":"2024-09-01","end_time":"2024-09-01","created_by":1}`, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"bad date", `{"name":"x","start_time":"09/01/2024","end_time":"2024-09-01","created_by":1}`, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"unknown admin", `{"name":"x","start_time":"2024-09-01","end_time":"2024-09-01","created_by":99}`, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/activities", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decode(t, rec)["code"])
		})
	}
	assert.Zero(t, s.count(t, "activities"))
}

func TestCreateActivityFieldTypes(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/activities",
		`{"name":"Orientation","start_time":"2024-09-01","end_time":"2024-09-01","created_by":"1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode(t, rec)["activity"].(map[string]any)["created_by"])

	cases := []struct {
		name    string
		body    string
		message string
	}{
		{"non-numeric id", `{"name":"x","start_time":"2024-09-01","end_time":"2024-09-01","created_by":"abc"}`, "invalid created_by"},
		{"number for text", `{"name":5,"start_time":"2024-09-01","end_time":"2024-09-01","created_by":1}`, "invalid name"},
		{"empty body", ``, "invalid JSON data"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/activities", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			s.engine.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tc.message, body["message"])
			assert.Equal(t, "INVALID_ARGUMENT", body["code"])
		})
	}
}

func TestCheckInAcceptsQuotedIDs(t *testing.T) {
	s := newServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/activities", orientation).Code)

	rec := s.do(t, http.MethodPost, "/api/checkin", `{"activity_id":"1","student_id_number":"S100","student_name":"Ada"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/checkin", `{"activity_id":"1","student_id":"1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetActivityAndRegenerateQR(t *testing.T) {
	s := newServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/activities", orientation).Code)

	rec := s.do(t, http.MethodGet, "/api/activities/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Orientation", decode(t, rec)["activity"].(map[string]any)["name"])

	_, err := s.db.Client.Exec("UPDATE activities SET qr_code_url = NULL WHERE id = 1")
	require.NoError(t, err)

	rec = s.do(t, http.MethodPost, "/api/activities/1/qr", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["activity"].(map[string]any)["qr_code_url"])

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/activities/42", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/activities/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/activities/42/qr", "").Code)
}

func TestCheckInTwice(t *testing.T) {
	s := newServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/activities", orientation).Code)

	payload := `{"activity_id":1,"student_id_number":"S100","student_name":"Ada"}`
	rec := s.do(t, http.MethodPost, "/api/checkin", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Check-in successful", body["message"])
	ci := body["check_in"].(map[string]any)
	assert.EqualValues(t, 1, ci["activity_id"])
	assert.Equal(t, attendance.MethodQRCode, ci["check_in_method"])
	assert.NotEmpty(t, ci["check_in_time"])

	rec = s.do(t, http.MethodPost, "/api/checkin", payload)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "student already checked in for this activity", decode(t, rec)["message"])

	assert.Equal(t, 1, s.count(t, "check_ins"))
	assert.Equal(t, 1, s.count(t, "students"))
}

func TestCheckInErrors(t *testing.T) {
	s := newServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/activities", orientation).Code)

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `not json`, http.StatusBadRequest},
		{"missing student", `{"activity_id":1}`, http.StatusBadRequest},
		{"missing name", `{"activity_id":1,"student_id_number":"S1"}`, http.StatusBadRequest},
		{"bad birthday", `{"activity_id":1,"student_id_number":"S1","student_name":"A","birthday":"1/2/2000"}`, http.StatusBadRequest},
		{"unknown activity", `{"activity_id":7,"student_id_number":"S1","student_name":"A"}`, http.StatusNotFound},
		{"unknown activity with bad birthday", `{"activity_id":99,"student_id_number":"S1","student_name":"Ada","birthday":"not-a-date"}`, http.StatusNotFound},
		{"non-numeric activity id", `{"activity_id":"abc","student_id_number":"S1","student_name":"A"}`, http.StatusBadRequest},
		{"unknown internal student", `{"activity_id":1,"student_id":55}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, s.do(t, http.MethodPost, "/api/checkin", tc.body).Code)
		})
	}
	assert.Zero(t, s.count(t, "students"))
	assert.Zero(t, s.count(t, "check_ins"))
}

func TestListCheckIns(t *testing.T) {
	s := newServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/activities", orientation).Code)
	for i, name := range []string{"Ada", "Grace"} {
		body := `{"activity_id":1,"student_id_number":"S` + strconv.Itoa(i) + `","student_name":"` + name + `"}`
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/checkin", body).Code)
	}

	rec := s.do(t, http.MethodGet, "/api/activities/1/checkins", "")
	require.Equal(t, http.StatusOK, rec.Code)
	roster := decode(t, rec)["check_ins"].([]any)
	require.Len(t, roster, 2)
	first := roster[0].(map[string]any)
	assert.Equal(t, "Ada", first["student_name"])
	assert.Equal(t, "S0", first["student_id_number"])
	assert.EqualValues(t, 1, first["activity_id"])

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/activities/9/checkins", "").Code)
}

func TestPages(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/create-activity", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/create-activity", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/activities")

	rec = s.do(t, http.MethodGet, "/activity/1/signin", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Activity not found")

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/activities",
		`{"name":"Career <Fair>","start_time":"2024-10-01","end_time":"2024-10-01","location":"Hall B","created_by":1}`).Code)

	rec = s.do(t, http.MethodGet, "/activity/1/signin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "Career &lt;Fair&gt;")
	assert.Contains(t, page, "Hall B")
	assert.Contains(t, page, `data-activity-id="1"`)
	assert.True(t, strings.Contains(page, "2024-10-01T00:00:00"))
}

func TestHealthz(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["db"])
	assert.NotContains(t, body, "redis")

	require.NoError(t, s.db.Close())
	rec = s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
