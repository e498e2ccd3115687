package routes

import (
	"time"

	"bookdesk/handlers"
	"bookdesk/middleware"
	"bookdesk/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registers the public auth proxy and logout.
func RegisterAuthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/auth")
	{
		api.POST("/register/user", hb.Auth.RegisterUserHandler)
		api.POST("/register/provider", hb.Auth.RegisterProviderHandler)
		api.POST("/login", hb.Auth.LoginHandler)
		api.POST("/verify-otp", hb.Auth.VerifyOTPHandler)
		api.POST("/logout", hb.Auth.LogoutHandler)
	}
}

// RegisterDashboardRoutes registers the booking dashboard endpoints.
func RegisterDashboardRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/dashboard")
	api.Use(middleware.JWTAuthMiddleware(hb.Resolver))
	api.Use(middleware.RequireRole(models.RoleUser, models.RoleProvider))
	{
		api.GET("", hb.Dashboard.GetDashboardHandler)
		api.POST("/refresh", hb.Dashboard.RefreshHandler)
		api.GET("/appointments", hb.Dashboard.ListAppointmentsHandler)
		api.GET("/slots", hb.Dashboard.ListSlotsHandler)

		user := api.Group("/appointments", middleware.RequireRole(models.RoleUser))
		user.POST("", hb.Dashboard.BookHandler)
		user.POST("/:id/reschedule", hb.Dashboard.RescheduleHandler)
		user.GET("/:id/reschedule-candidates", hb.Dashboard.RescheduleCandidatesHandler)
		user.DELETE("/:id", hb.Dashboard.CancelHandler)

		provider := api.Group("/slots", middleware.RequireRole(models.RoleProvider))
		provider.POST("", hb.Dashboard.AddSlotHandler)
		provider.DELETE("/:id", hb.Dashboard.DeleteSlotHandler)
	}
}

// RegisterAdminRoutes registers admin-only endpoints.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/admin")
	api.Use(middleware.JWTAuthMiddleware(hb.Resolver), middleware.RequireRole(models.RoleAdmin))
	{
		api.GET("/stats", hb.Admin.GetStatsHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.HealthHandler)
}

// RegisterRoutes sets up CORS for the dashboard origins and registers every route group.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterAuthRoutes(r, hb)
	RegisterDashboardRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r)
}
