package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-agenda/internal/models"
	"github.com/harentsoaR/clinic-agenda/internal/schedule"
	"github.com/harentsoaR/clinic-agenda/internal/store"
)

const defaultDuration = 30

func canSee(v schedule.Viewer, a *models.Appointment) bool {
	switch {
	case v.Role == models.RoleDoctor:
		return a.DoctorID == v.UserID
	case v.IsStaff():
		return true
	}
	return false
}

// GetDay returns the slot grid and list view for ?date= (default today),
// scoped to the caller and the optional ?doctorId= selector.
func (h *Handler) GetDay(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	date, ok := h.dateQuery(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	doctors, err := store.ListDoctors(ctx, h.Store)
	if err != nil {
		h.fail(c, err, "Failed to retrieve doctors")
		return
	}
	appts, err := h.Store.ListAppointments(ctx, store.AppointmentFilter{Date: schedule.FormatDate(date)})
	if err != nil {
		h.fail(c, err, "Failed to retrieve appointments")
		return
	}

	c.JSON(http.StatusOK, schedule.BuildDay(date, appts, v, c.Query("doctorId"), doctors))
}

// GetAppointments lists appointments visible to the caller, optionally
// narrowed by ?date=, ?status=, ?patientId= and ?doctorId=.
func (h *Handler) GetAppointments(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	filter := store.AppointmentFilter{}
	if raw := c.Query("date"); raw != "" {
		d, err := schedule.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, use YYYY-MM-DD"})
			return
		}
		filter.Date = schedule.FormatDate(d)
	}
	if raw := c.Query("status"); raw != "" {
		filter.Status = models.AppointmentStatus(raw)
		if !schedule.KnownStatus(filter.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
			return
		}
	}
	if raw := c.Query("patientId"); raw != "" {
		pid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patient ID"})
			return
		}
		filter.PatientID = pid
	}

	ctx := c.Request.Context()
	doctors, err := store.ListDoctors(ctx, h.Store)
	if err != nil {
		h.fail(c, err, "Failed to retrieve doctors")
		return
	}
	appts, err := h.Store.ListAppointments(ctx, filter)
	if err != nil {
		h.fail(c, err, "Failed to retrieve appointments")
		return
	}

	c.JSON(http.StatusOK, schedule.FilterAppointments(appts, v, c.Query("doctorId"), doctors))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "appointment")
	if !ok {
		return
	}
	apt, err := h.Store.GetAppointment(c.Request.Context(), id)
	if err == nil && !canSee(v, apt) {
		err = store.ErrNotFound
	}
	if err != nil {
		h.fail(c, err, "Appointment")
		return
	}
	c.JSON(http.StatusOK, apt)
}

type createAppointmentRequest struct {
	PatientID       string `json:"patientId" binding:"required"`
	DoctorID        string `json:"doctorId" binding:"required"`
	Date            string `json:"date" binding:"required"`
	Time            string `json:"time" binding:"required"`
	DurationMinutes int    `json:"durationMinutes"`
}

// CreateAppointment books a Pending appointment (secretary/owner only).
func (h *Handler) CreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = defaultDuration
	}
	date, ok := validSlot(c, req.Date, req.Time, req.DurationMinutes)
	if !ok {
		return
	}
	patientID, err1 := primitive.ObjectIDFromHex(req.PatientID)
	doctorID, err2 := primitive.ObjectIDFromHex(req.DoctorID)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patient or doctor ID"})
		return
	}

	ctx := c.Request.Context()
	patient, err := h.Store.GetPatient(ctx, patientID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown patient"})
		return
	}
	if err != nil {
		h.fail(c, err, "Failed to load patient")
		return
	}
	doctor, ok := h.activeDoctor(c, doctorID)
	if !ok {
		return
	}

	apt := models.Appointment{
		Date:            date,
		Time:            req.Time,
		PatientID:       patient.ID,
		PatientName:     patient.Name,
		DoctorID:        doctor.ID,
		DoctorName:      doctor.Name,
		DurationMinutes: req.DurationMinutes,
		Status:          models.StatusPending,
	}
	if !h.checkConflict(c, apt) {
		return
	}
	if err := h.Store.CreateAppointment(ctx, &apt); err != nil {
		h.fail(c, err, "Failed to create appointment")
		return
	}

	h.Notifier.AppointmentBooked(patient, &apt)
	c.JSON(http.StatusCreated, apt)
}

type updateAppointmentRequest struct {
	Date            *string `json:"date,omitempty"`
	Time            *string `json:"time,omitempty"`
	DurationMinutes *int    `json:"durationMinutes,omitempty"`
	DoctorID        *string `json:"doctorId,omitempty"`
}

// UpdateAppointment reschedules an appointment (secretary/owner only).
func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, ok := paramID(c, "appointment")
	if !ok {
		return
	}
	var req updateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Date == nil && req.Time == nil && req.DurationMinutes == nil && req.DoctorID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	ctx := c.Request.Context()
	apt, err := h.Store.GetAppointment(ctx, id)
	if err != nil {
		h.fail(c, err, "Appointment")
		return
	}
	if len(schedule.NextStatuses(apt.Status)) == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Cannot reschedule an appointment that is " + string(apt.Status)})
		return
	}
	if req.Date != nil {
		apt.Date = *req.Date
	}
	if req.Time != nil {
		apt.Time = *req.Time
	}
	if req.DurationMinutes != nil {
		apt.DurationMinutes = *req.DurationMinutes
	}
	date, ok := validSlot(c, apt.Date, apt.Time, apt.DurationMinutes)
	if !ok {
		return
	}
	apt.Date = date
	if req.DoctorID != nil {
		doctorID, err := primitive.ObjectIDFromHex(*req.DoctorID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid doctor ID"})
			return
		}
		doctor, ok := h.activeDoctor(c, doctorID)
		if !ok {
			return
		}
		apt.DoctorID, apt.DoctorName = doctor.ID, doctor.Name
	}

	if !h.checkConflict(c, *apt) {
		return
	}
	if err := h.Store.UpdateAppointment(ctx, apt); err != nil {
		h.fail(c, err, "Failed to update appointment")
		return
	}
	c.JSON(http.StatusOK, apt)
}

// UpdateAppointmentStatus moves an appointment along the status table. Any
// role that can see the appointment may do it.
func (h *Handler) UpdateAppointmentStatus(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "appointment")
	if !ok {
		return
	}
	var req struct {
		Status models.AppointmentStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	ctx := c.Request.Context()
	apt, err := h.Store.GetAppointment(ctx, id)
	if err == nil && !canSee(v, apt) {
		err = store.ErrNotFound
	}
	if err != nil {
		h.fail(c, err, "Appointment")
		return
	}

	next, err := schedule.Transition(apt.Status, req.Status)
	if err != nil {
		h.fail(c, err, "Invalid status change")
		return
	}
	apt.Status = next
	if err := h.Store.UpdateAppointment(ctx, apt); err != nil {
		h.fail(c, err, "Failed to update appointment")
		return
	}

	if patient, err := h.Store.GetPatient(ctx, apt.PatientID); err == nil {
		h.Notifier.AppointmentStatusChanged(patient, apt)
	} else {
		h.Log.WithError(err).WithField("appointment_id", apt.ID.Hex()).Warn("status notification skipped")
	}
	c.JSON(http.StatusOK, apt)
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, ok := paramID(c, "appointment")
	if !ok {
		return
	}
	if err := h.Store.DeleteAppointment(c.Request.Context(), id); err != nil {
		h.fail(c, err, "Appointment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
}

// validSlot checks the date, grid slot and duration of a booking and returns
// the normalised date. It writes a 400 on failure.
func validSlot(c *gin.Context, date, tm string, duration int) (string, bool) {
	d, err := schedule.ParseDate(date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, use YYYY-MM-DD"})
		return "", false
	}
	if !schedule.ValidSlot(tm) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Time must be a 15 minute slot between 08:00 and 17:45"})
		return "", false
	}
	if !schedule.ValidDuration(duration) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Duration must be 15, 30, 45 or 60 minutes"})
		return "", false
	}
	return schedule.FormatDate(d), true
}

// checkConflict writes a 409 when apt overlaps another booking of the same
// doctor on the same day.
func (h *Handler) checkConflict(c *gin.Context, apt models.Appointment) bool {
	existing, err := h.Store.ListAppointments(c.Request.Context(), store.AppointmentFilter{Date: apt.Date, DoctorID: apt.DoctorID})
	if err != nil {
		h.fail(c, err, "Failed to check availability")
		return false
	}
	if other, clash := schedule.FindConflict(apt, existing); clash {
		c.JSON(http.StatusConflict, gin.H{
			"error":         "Doctor already has an appointment at that time",
			"conflictingId": other.ID.Hex(),
		})
		return false
	}
	return true
}
