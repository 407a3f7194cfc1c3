// Package httpapi exposes the activity and check-in flows over HTTP.
package httpapi

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eventcheckin/internal/attendance"
	"eventcheckin/internal/httpmiddleware"
	"eventcheckin/internal/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// Handler serves the JSON API and the two human-facing pages.
type Handler struct {
	activities *attendance.ActivityService
	checkins   *attendance.Service
	log        *logger.Logger
	db         HealthChecker
	redis      HealthChecker // nil when redis is not configured
}

// New creates a handler. redis may be nil.
func New(activities *attendance.ActivityService, checkins *attendance.Service, log *logger.Logger, db, redis HealthChecker) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{activities: activities, checkins: checkins, log: log, db: db, redis: redis}
}

// Register mounts every route on r and installs the page templates.
func (h *Handler) Register(r *gin.Engine) {
	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/create-activity")
	})
	r.GET("/create-activity", h.CreateActivityPage)
	r.GET("/activity/:id/signin", h.SignInPage)

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/activities", h.CreateActivity)
		api.GET("/activities/:id", h.GetActivity)
		api.POST("/activities/:id/qr", h.RegenerateQR)
		api.GET("/activities/:id/checkins", h.ListCheckIns)
		api.POST("/checkin", h.CheckIn)
	}
}

// ---------- Pages ----------

func (h *Handler) CreateActivityPage(c *gin.Context) {
	c.HTML(http.StatusOK, "activity_create.html", nil)
}

func (h *Handler) SignInPage(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.HTML(http.StatusNotFound, "not_found.html", gin.H{"Message": "Activity not found"})
		return
	}
	act, err := h.activities.Get(c.Request.Context(), id)
	if err != nil {
		status := attendance.StatusOf(err)
		if status == http.StatusNotFound {
			c.HTML(status, "not_found.html", gin.H{"Message": "Activity not found"})
			return
		}
		h.logFailure(c, err)
		c.HTML(status, "not_found.html", gin.H{"Message": "Something went wrong"})
		return
	}
	c.HTML(http.StatusOK, "signin.html", gin.H{
		"Activity":  act,
		"StartTime": attendance.FormatTime(act.StartTime),
		"EndTime":   attendance.FormatTime(act.EndTime),
	})
}

// ---------- Activities ----------

func (h *Handler) CreateActivity(c *gin.Context) {
	var req createActivityRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	act, err := h.activities.Create(c.Request.Context(), attendance.CreateActivityInput{
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		CreatedBy:   int64(req.CreatedBy),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info("activity created", "activity_id", act.ID, "created_by", act.CreatedBy, "request_id", httpmiddleware.GetRequestID(c))
	c.Header("Location", "/api/activities/"+strconv.FormatInt(act.ID, 10))
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Activity created successfully",
		"activity": toActivityResponse(act),
	})
}

func (h *Handler) GetActivity(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		h.fail(c, attendance.NewNotFoundError("activity not found"))
		return
	}
	act, err := h.activities.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": toActivityResponse(act)})
}

// RegenerateQR re-runs the second phase of activity creation.
func (h *Handler) RegenerateQR(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		h.fail(c, attendance.NewNotFoundError("activity not found"))
		return
	}
	act, err := h.activities.RegenerateQR(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "QR code regenerated",
		"activity": toActivityResponse(act),
	})
}

// ---------- Check-ins ----------

func (h *Handler) CheckIn(c *gin.Context) {
	var req checkInRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	rec, err := h.checkins.CheckIn(c.Request.Context(), attendance.CheckInInput{
		ActivityID:      int64(req.ActivityID),
		StudentID:       int64(req.StudentID),
		StudentIDNumber: req.StudentIDNumber,
		StudentName:     req.StudentName,
		Email:           req.Email,
		Department:      req.Department,
		Birthday:        req.Birthday,
		Unit:            req.Unit,
		Title:           req.Title,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Check-in successful",
		"check_in": toCheckInResponse(rec),
	})
}

func (h *Handler) ListCheckIns(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		h.fail(c, attendance.NewNotFoundError("activity not found"))
		return
	}
	entries, err := h.checkins.ListCheckIns(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"check_ins": toRosterResponse(entries)})
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	ctx := c.Request.Context()
	dbHealthy := h.db != nil && h.db.Healthy(ctx)
	body := gin.H{"status": "ok", "db": dbHealthy}
	healthy := dbHealthy
	if h.redis != nil {
		redisHealthy := h.redis.Healthy(ctx)
		body["redis"] = redisHealthy
		healthy = healthy && redisHealthy
	}
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}

// ---------- helpers ----------

func (h *Handler) fail(c *gin.Context, err error) {
	status := attendance.StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.logFailure(c, err)
	}
	c.JSON(status, gin.H{"message": attendance.MessageOf(err), "code": attendance.CodeOf(err)})
}

func (h *Handler) logFailure(c *gin.Context, err error) {
	_ = c.Error(err)
	h.log.Error("request failed",
		"path", c.Request.URL.Path,
		"request_id", httpmiddleware.GetRequestID(c),
		"error", err,
	)
}

// bindJSON decodes the request body. Syntax errors and wrongly typed fields
// are both reported as invalid arguments, the latter naming the field.
func bindJSON(c *gin.Context, v any) error {
	err := c.ShouldBindJSON(v)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return attendance.NewInvalidArgumentError("invalid " + typeErr.Field)
	}
	return attendance.NewInvalidArgumentError("invalid JSON data")
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
