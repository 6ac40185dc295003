package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-agenda/internal/middleware"
	"github.com/harentsoaR/clinic-agenda/internal/models"
	"github.com/harentsoaR/clinic-agenda/internal/schedule"
	"github.com/harentsoaR/clinic-agenda/internal/store"
	"github.com/harentsoaR/clinic-agenda/internal/utils"
)

// Notifier tells patients about changes to their appointments.
type Notifier interface {
	AppointmentBooked(patient *models.Patient, apt *models.Appointment)
	AppointmentStatusChanged(patient *models.Patient, apt *models.Appointment)
}

type Handler struct {
	Store    store.Repository
	Notifier Notifier
	JWT      *utils.JWTManager
	Log      logrus.FieldLogger
	Now      func() time.Time
}

func NewHandler(repo store.Repository, notifier Notifier, jwt *utils.JWTManager, log logrus.FieldLogger) *Handler {
	return &Handler{
		Store:    repo,
		Notifier: notifier,
		JWT:      jwt,
		Log:      log,
		Now:      time.Now,
	}
}

// viewer reads the caller set by middleware.AuthMiddleware. It writes a 401
// and returns false when the token carried an unusable user id.
func viewer(c *gin.Context) (schedule.Viewer, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(middleware.UserIDKey))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token"})
		return schedule.Viewer{}, false
	}
	role, _ := c.Get(middleware.UserRoleKey)
	r, _ := role.(models.Role)
	return schedule.Viewer{UserID: id, Role: r}, true
}

func paramID(c *gin.Context, what string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " ID"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// fail maps domain errors onto HTTP statuses. Anything unrecognised is a 500:
// logged with the request id and reported to Sentry.
func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msg + ": not found"})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": msg + ": already exists"})
	case errors.Is(err, schedule.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, schedule.ErrUnknownStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.Log.WithError(err).WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"request_id": c.GetString(middleware.RequestIDKey),
		}).Error(msg)
		sentry.CaptureException(err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func (h *Handler) today() time.Time {
	now := h.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// dateQuery parses ?date=, defaulting to today.
func (h *Handler) dateQuery(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return h.today(), true
	}
	d, err := schedule.ParseDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, use YYYY-MM-DD"})
		return time.Time{}, false
	}
	return d, true
}

// activeDoctor loads id and checks it is an active doctor.
func (h *Handler) activeDoctor(c *gin.Context, id primitive.ObjectID) (*models.User, bool) {
	u, err := h.Store.GetUser(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && (u.Role != models.RoleDoctor || u.Status != models.UserActive)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown or inactive doctor"})
		return nil, false
	}
	if err != nil {
		h.fail(c, err, "Failed to load doctor")
		return nil, false
	}
	return u, true
}
