package routes

import (
	"wolontariat/controllers"
	"wolontariat/middlewares"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupVolunteerRoutes registers profile, stats, badge and rating routes
func SetupVolunteerRoutes(router *gin.RouterGroup, volunteers *controllers.VolunteerController, enrollment *controllers.EnrollmentController, enforcer *casbin.Enforcer, log *zap.Logger) {
	rbac := func(resource, action string) gin.HandlerFunc {
		return middlewares.RBACMiddleware(enforcer, log, resource, action)
	}

	volunteerRoutes := router.Group("/volunteers")
	{
		volunteerRoutes.POST("", rbac(middlewares.ResourceProfile, middlewares.ActionCreate), volunteers.Register)
		volunteerRoutes.GET("/:id", volunteers.GetVolunteer)
		volunteerRoutes.GET("/:id/applications", middlewares.SelfOnly("id"), enrollment.ListApplications)
		volunteerRoutes.PUT("/:id/stats", rbac(middlewares.ResourceStats, middlewares.ActionUpdate), volunteers.UpdateStats)
		volunteerRoutes.GET("/:id/badges", volunteers.GetBadges)
		volunteerRoutes.GET("/:id/ratings", volunteers.GetRatings)
		volunteerRoutes.POST("/:id/ratings", rbac(middlewares.ResourceRating, middlewares.ActionCreate), volunteers.AddRating)
	}
}
