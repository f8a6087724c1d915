package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/IdoNaor1/TasteClub/config"
	"github.com/IdoNaor1/TasteClub/internal/app/controller"
	"github.com/IdoNaor1/TasteClub/internal/middleware"
)

type Router struct {
	authController       *controller.AuthController
	userController       *controller.UserController
	reviewController     *controller.ReviewController
	restaurantController *controller.RestaurantController
	streamController     *controller.StreamController
	authMiddleware       *middleware.AuthMiddleware
	config               *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	userController *controller.UserController,
	reviewController *controller.ReviewController,
	restaurantController *controller.RestaurantController,
	streamController *controller.StreamController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:       authController,
		userController:       userController,
		reviewController:     reviewController,
		restaurantController: restaurantController,
		streamController:     streamController,
		authMiddleware:       authMiddleware,
		config:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "TasteClub API is running",
		})
	})

	authenticate := r.authMiddleware.Authenticate()

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.RefreshToken)
			auth.POST("/logout", authenticate, r.authController.Logout)
			auth.POST("/forgot-password", r.authController.ForgotPassword)
			auth.POST("/reset-password", r.authController.ResetPassword)
			auth.GET("/me", authenticate, r.authController.GetMe)
			auth.PUT("/me", authenticate, r.authController.UpdateMe)
			auth.PUT("/me/profile-image", authenticate, r.authController.UpdateProfileImage)
			auth.DELETE("/me/profile-image", authenticate, r.authController.DeleteProfileImage)
		}

		users := v1.Group("/users")
		{
			users.GET("/:id", r.userController.GetUser)
			users.GET("/:id/reviews", r.userController.GetUserReviews)
		}

		reviews := v1.Group("/reviews")
		{
			reviews.GET("/feed", r.reviewController.GetFeed)
			reviews.GET("/cached", r.reviewController.GetCached)
			reviews.GET("/:id", r.reviewController.GetReview)
			reviews.POST("", authenticate, r.reviewController.CreateReview)
			reviews.PUT("/:id", authenticate, r.reviewController.UpdateReview)
			reviews.DELETE("/:id", authenticate, r.reviewController.DeleteReview)
			reviews.POST("/:id/like", authenticate, r.reviewController.ToggleLike)
		}

		restaurants := v1.Group("/restaurants")
		{
			restaurants.GET("", r.restaurantController.ListRestaurants)
			restaurants.GET("/nearby", r.restaurantController.Nearby)
			restaurants.POST("/resolve", authenticate, r.restaurantController.ResolvePlace)
			restaurants.GET("/:id", r.restaurantController.GetRestaurant)
			restaurants.GET("/:id/reviews", r.restaurantController.GetRestaurantReviews)
			restaurants.PUT("/:id", authenticate, r.restaurantController.UpsertRestaurant)
			restaurants.DELETE("/:id", authenticate, r.restaurantController.DeleteRestaurant)
		}

		v1.GET("/places/search", authenticate, r.restaurantController.SearchPlaces)

		// Browsers cannot set headers on websocket upgrades; the token comes as ?token=.
		streams := v1.Group("/ws")
		streams.Use(authenticate)
		{
			streams.GET("/restaurants/:id", r.streamController.Restaurant)
			streams.GET("/users/:id", r.streamController.User)
			streams.GET("/feed", r.streamController.Feed)
		}
	}

	return router
}

// corsMiddleware adapts rs/cors to gin. Preflight requests end here.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})
	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)
		if ctx.Request.Method == http.MethodOptions && ctx.GetHeader("Access-Control-Request-Method") != "" {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}
		ctx.Next()
	}
}
