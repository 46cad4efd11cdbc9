package http

import (
	"github.com/gin-gonic/gin"

	"github.com/grandigitals/superteam-academy/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, rewardsService *service.RewardsService) *gin.Engine {
	router := gin.Default()

	handlers := NewHandlers(authService, rewardsService)

	router.GET("/health", handlers.Health)

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.POST("/challenge", handlers.Challenge)
		auth.POST("/login", handlers.Login)
		auth.POST("/refresh", handlers.Refresh)
		auth.POST("/logout", handlers.Logout)
	}

	// Public read routes
	public := router.Group("/api")
	{
		public.GET("/courses", handlers.ListCourses)
		public.GET("/courses/:courseId", handlers.GetCourse)
		public.GET("/progress/:wallet", handlers.GetProgress)
		public.GET("/progress/:wallet/:courseId", handlers.GetCourseProgress)
		public.GET("/xp/:wallet", handlers.GetXP)
		public.GET("/streak/:wallet", handlers.GetStreak)
		public.GET("/leaderboard", handlers.GetLeaderboard)
		public.GET("/credentials/:wallet", handlers.GetCredentials)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(authService))
	{
		api.GET("/me", handlers.Me)
		api.POST("/enroll", handlers.Enroll)
		api.POST("/complete-lesson", handlers.CompleteLesson)
		api.POST("/finalize-course", handlers.FinalizeCourse)
		api.POST("/credentials/issue", handlers.IssueCredential)
		api.POST("/credentials/upgrade", handlers.IssueCredential)
	}

	return router
}
