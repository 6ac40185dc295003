package handlers

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/clinic-agenda/internal/models"
	"github.com/harentsoaR/clinic-agenda/internal/schedule"
	"github.com/harentsoaR/clinic-agenda/internal/store"
)

type DashboardStats struct {
	Date              string               `json:"date"`
	TotalPatients     int                  `json:"totalPatients"`
	TodayAppointments int                  `json:"todayAppointments"`
	PendingToday      int                  `json:"pendingToday"`
	AverageDuration   float64              `json:"averageDuration"`
	OccupancyPercent  float64              `json:"occupancyPercent"`
	Appointments      []models.Appointment `json:"appointments"`
}

// minutes one doctor can book in a day
const dayCapacity = (schedule.DayEndHour - schedule.DayStartHour) * 60

// GetDashboard summarises the caller's scope for ?date= (default today).
// Staff may narrow it with ?doctorId=.
func (h *Handler) GetDashboard(c *gin.Context) {
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
	patients, err := h.Store.ListPatients(ctx, patientFilterFor(v))
	if err != nil {
		h.fail(c, err, "Failed to retrieve patients")
		return
	}
	appts, err := h.Store.ListAppointments(ctx, store.AppointmentFilter{Date: schedule.FormatDate(date)})
	if err != nil {
		h.fail(c, err, "Failed to retrieve appointments")
		return
	}

	selected := c.Query("doctorId")
	day := schedule.BuildDay(date, appts, v, selected, doctors)
	stats := DashboardStats{
		Date:              day.Date,
		TodayAppointments: len(day.Appointments),
		Appointments:      day.Appointments,
	}
	if v.IsStaff() || v.Role == models.RoleDoctor {
		stats.TotalPatients = len(patients)
	}

	booked := 0
	for _, a := range day.Appointments {
		if a.Status == models.StatusPending {
			stats.PendingToday++
		}
		booked += a.DurationMinutes
	}
	if n := len(day.Appointments); n > 0 {
		stats.AverageDuration = round1(float64(booked) / float64(n))
	}
	if capacity := dayCapacity * doctorsInScope(v, selected, doctors); capacity > 0 {
		stats.OccupancyPercent = round1(float64(booked) * 100 / float64(capacity))
	}

	c.JSON(http.StatusOK, stats)
}

func doctorsInScope(v schedule.Viewer, selected string, doctors []models.Doctor) int {
	switch {
	case v.Role == models.RoleDoctor:
		return 1
	case !v.IsStaff():
		return 0
	case selected == "" || selected == schedule.AllDoctors:
		return len(doctors)
	}
	if _, ok := schedule.ResolveDoctor(doctors, selected); ok {
		return 1
	}
	return 0
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
