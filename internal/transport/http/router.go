package http

import (
	"context"
	"net/http"

	"quizbox/internal/app"
	"quizbox/internal/domain"
	"quizbox/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Authenticator resolves an access token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.User, error)
}

// Services are the use cases the HTTP layer exposes.
type Services struct {
	Accounts *app.AccountService
	Quizzes  *app.QuizService
	Topics   *app.TopicService
	Attempts *app.AttemptService
}

// Handler holds the REST handlers.
type Handler struct {
	svc Services
	log *logger.Logger
}

func NewHandler(svc Services, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log.With("component", "http")}
}

// NewRouter wires every route onto a gin engine. allowedOrigins restricts
// cross-origin browser access; none means any origin.
func NewRouter(svc Services, log *logger.Logger, allowedOrigins ...string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log), CORS(allowedOrigins))

	h := NewHandler(svc, log)
	ws := NewWSHandler(svc.Attempts, log)
	auth := RequireAuth(svc.Accounts, h.log)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	})
	router.GET("/ws/quizzes/:id", auth, ws.ServeWS)

	api := router.Group("/api")
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		protected := api.Group("")
		protected.Use(auth)
		{
			protected.GET("/auth/me", h.Me)
			protected.GET("/dashboard", h.Dashboard)

			quizzes := protected.Group("/quizzes")
			{
				quizzes.GET("", h.ListQuizzes)
				quizzes.POST("", h.CreateQuiz)
				quizzes.GET("/:id", h.GetQuiz)
				quizzes.PUT("/:id", h.UpdateQuiz)
				quizzes.DELETE("/:id", h.DeleteQuiz)
				quizzes.GET("/:id/take", h.TakeQuiz)
				quizzes.POST("/:id/submit", h.SubmitQuestion)
				quizzes.GET("/:id/attempt", h.GetAttempt)
				quizzes.DELETE("/:id/attempt", h.ResetAttempt)
			}

			topics := protected.Group("/topics")
			{
				topics.POST("", h.CreateTopic)
				topics.GET("/:id", h.GetTopic)
				topics.PUT("/:id", h.UpdateTopic)
				topics.DELETE("/:id", h.DeleteTopic)
			}
		}
	}
	return router
}

// pathID parses the :id parameter. An unparseable id is reported with the
// route's not-found message, like any id that matches nothing.
func pathID(c *gin.Context, notFound string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, notFound)
		return uuid.Nil, false
	}
	return id, true
}
