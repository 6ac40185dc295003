package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/clinic-agenda/internal/middleware"
	"github.com/harentsoaR/clinic-agenda/internal/models"
)

// SetupRoutes registers every endpoint on r. loginLimiter throttles
// POST /auth/login per client IP.
func SetupRoutes(r *gin.Engine, h *Handler, loginLimiter *middleware.RateLimiter) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/login", middleware.RateLimit(loginLimiter), h.Login)
	}

	staff := middleware.RoleMiddleware(models.RoleSecretary, models.RoleOwner)
	owner := middleware.RoleMiddleware(models.RoleOwner)

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(h.JWT, h.Store))
	{
		api.GET("/me", h.GetCurrentUser)
		api.PUT("/me", h.UpdateCurrentUser)
		api.GET("/dashboard", h.GetDashboard)
		api.GET("/doctors", h.GetDoctors)

		appointments := api.Group("/appointments")
		appointments.GET("/day", h.GetDay)
		appointments.GET("", h.GetAppointments)
		appointments.POST("", staff, h.CreateAppointment)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", staff, h.UpdateAppointment)
		appointments.PATCH("/:id/status", h.UpdateAppointmentStatus)
		appointments.DELETE("/:id", staff, h.DeleteAppointment)

		patients := api.Group("/patients")
		patients.GET("", h.GetPatients)
		patients.POST("", staff, h.CreatePatient)
		patients.GET("/:id", h.GetPatient)
		patients.PUT("/:id", h.UpdatePatient)
		patients.DELETE("/:id", staff, h.DeletePatient)
		patients.POST("/:id/history", h.AddMedicalRecord)

		users := api.Group("/users", owner)
		users.GET("", h.GetUsers)
		users.GET("/summary", h.GetUserSummary)
		users.POST("", h.CreateUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}
}
