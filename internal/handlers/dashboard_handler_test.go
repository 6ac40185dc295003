package handlers

import (
	"net/http"
	"testing"
)

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		email string
		query string
		want  DashboardStats
	}{
		{"doctor", perez, "", DashboardStats{TotalPatients: 2, TodayAppointments: 2, PendingToday: 0, AverageDuration: 30, OccupancyPercent: 10}},
		{"secretary all", secretary, "", DashboardStats{TotalPatients: 4, TodayAppointments: 4, PendingToday: 2, AverageDuration: 30, OccupancyPercent: 10}},
		{"owner one doctor", owner, "?doctorId=" + env.user(ramos).ID.Hex(), DashboardStats{TotalPatients: 4, TodayAppointments: 2, PendingToday: 2, AverageDuration: 30, OccupancyPercent: 10}},
		{"empty day", owner, "?date=2025-08-02", DashboardStats{TotalPatients: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, "/api/dashboard"+tt.query, env.token(tt.email), nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			got := decode[DashboardStats](t, w)
			if got.TotalPatients != tt.want.TotalPatients ||
				got.TodayAppointments != tt.want.TodayAppointments ||
				got.PendingToday != tt.want.PendingToday ||
				got.AverageDuration != tt.want.AverageDuration ||
				got.OccupancyPercent != tt.want.OccupancyPercent {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if len(got.Appointments) != got.TodayAppointments {
				t.Errorf("appointments list = %d", len(got.Appointments))
			}
		})
	}

	if w := env.do(http.MethodGet, "/api/dashboard?date=bad", env.token(owner), nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad date = %d", w.Code)
	}
}
