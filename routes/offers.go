package routes

import (
	"wolontariat/controllers"
	"wolontariat/middlewares"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupOfferRoutes registers offer lifecycle, enrollment and application review routes
func SetupOfferRoutes(router *gin.RouterGroup, offers *controllers.OfferController, enrollment *controllers.EnrollmentController, enforcer *casbin.Enforcer, log *zap.Logger) {
	rbac := func(resource, action string) gin.HandlerFunc {
		return middlewares.RBACMiddleware(enforcer, log, resource, action)
	}

	offerRoutes := router.Group("/offers")
	{
		offerRoutes.POST("", rbac(middlewares.ResourceOffer, middlewares.ActionCreate), offers.CreateOffer)
		offerRoutes.GET("", offers.ListOffers)
		offerRoutes.GET("/:id", offers.GetOffer)
		offerRoutes.PUT("/:id/status", rbac(middlewares.ResourceOffer, middlewares.ActionUpdate), offers.UpdateOfferStatus)

		offerRoutes.POST("/:id/signup", rbac(middlewares.ResourceEnrollment, middlewares.ActionWrite), enrollment.Signup)
		offerRoutes.DELETE("/:id/signup", rbac(middlewares.ResourceEnrollment, middlewares.ActionWrite), enrollment.Cancel)
		offerRoutes.GET("/:id/enrollment", rbac(middlewares.ResourceEnrollment, middlewares.ActionRead), enrollment.Status)
		offerRoutes.POST("/:id/enrollment/reconcile", rbac(middlewares.ResourceEnrollment, middlewares.ActionWrite), enrollment.Reconcile)

		offerRoutes.PUT("/:id/applications/:volunteerId/status", rbac(middlewares.ResourceApplication, middlewares.ActionReview), enrollment.SetApplicationStatus)
	}
}
