package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notatki/notehub/internal/app/controllers"
	"github.com/notatki/notehub/internal/app/models/dto"
	"github.com/notatki/notehub/internal/middleware"
	"github.com/notatki/notehub/internal/pkg/websocket"
)

// Controllers groups every HTTP controller mounted by SetupRouter
type Controllers struct {
	Auth       *controllers.AuthController
	User       *controllers.UserController
	Note       *controllers.NoteController
	Rating     *controllers.RatingController
	Subjects   *controllers.DirectoryController
	Professors *controllers.DirectoryController
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	ctrl Controllers,
	authMiddleware *middleware.AuthMiddleware,
	authLimiter *middleware.IPRateLimiter,
	realtime *websocket.Handler,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes, rate limited per client IP ---
	auth := v1.Group("/auth")
	auth.Use(middleware.RateLimit(authLimiter))
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", ctrl.Auth.Login)
	}

	// --- Public catalog routes ---
	notes := v1.Group("/notes")
	{
		notes.GET("", ctrl.Note.ListNotes)
		notes.GET("/:id", ctrl.Note.GetNote)
		notes.GET("/:id/ratings", ctrl.Rating.ListRatings)
	}

	mountDirectory(v1.Group("/subjects"), ctrl.Subjects, authMiddleware)
	mountDirectory(v1.Group("/professors"), ctrl.Professors, authMiddleware)

	// Change feed; a token is optional
	v1.GET("/realtime/notes", authMiddleware.OptionalAuth(), realtime.HandleConnection)

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/notes", ctrl.Note.CreateNote)
		authenticated.PUT("/notes/:id", ctrl.Note.UpdateNote)
		authenticated.DELETE("/notes/:id", ctrl.Note.DeleteNote)
		authenticated.GET("/notes/:id/download", ctrl.Note.DownloadNote)

		authenticated.GET("/notes/:id/ratings/me", ctrl.Rating.GetMyRating)
		authenticated.PUT("/notes/:id/ratings", ctrl.Rating.SaveRating)

		me := authenticated.Group("/me")
		{
			me.GET("/profile", ctrl.User.GetProfile)
			me.PUT("/profile", ctrl.User.UpdateProfile)
			me.PUT("/password", ctrl.User.ChangePassword)
			me.POST("/avatar", ctrl.User.UploadAvatar)
			me.GET("/notes", ctrl.Note.ListMyNotes)
		}
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.APIResponse{
			Data: gin.H{"status": "ok"},
		})
	})
}

func mountDirectory(group *gin.RouterGroup, ctrl *controllers.DirectoryController, authMiddleware *middleware.AuthMiddleware) {
	group.GET("", ctrl.List)
	group.GET("/suggest", ctrl.Suggest)
	group.POST("", authMiddleware.JWTAuth(), ctrl.Create)
}
