package routes

import (
	"net/http"

	"wolontariat/controllers"
	"wolontariat/internal/app"
	"wolontariat/middlewares"

	"github.com/casbin/casbin/v2"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter builds the gin engine with every route behind JWT auth
func SetupRouter(a *app.App, enforcer *casbin.Enforcer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestLogger(a.Log.Named("http")), a.Metrics.Middleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.Config.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-Id"},
		AllowCredentials: true,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(a.Metrics.Handler()))

	offers := controllers.NewOfferController(a.Roster, a.Log)
	enrollment := controllers.NewEnrollmentController(a.Coordinator, a.Ledger, a.Roster, a.Log)
	volunteers := controllers.NewVolunteerController(a.Volunteers, a.Badges, a.Ratings, a.Log)

	auth := router.Group("/")
	auth.Use(middlewares.AuthMiddleware(a.Config.JWT.Secret))
	{
		SetupOfferRoutes(auth, offers, enrollment, enforcer, a.Log)
		SetupVolunteerRoutes(auth, volunteers, enrollment, enforcer, a.Log)
		SetupGamificationRoutes(auth, a.Hub, a.Config.Server.AllowedOrigins, a.Log)
	}
	return router
}
