package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"quizbox/internal/domain"
	"quizbox/internal/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const userKey = "user"

// RequestLogger logs one line per request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// CORS lets browser clients on other origins call the API. With no
// allowed origins configured every origin is accepted; tokens travel in the
// Authorization header, so credentials are never allowed.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}

// RequireAuth resolves the bearer token (or the token query parameter, which
// browsers need for websockets) to a user and stores it in the context.
func RequireAuth(auth Authenticator, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			fail(c, http.StatusUnauthorized, msgAuthRequired)
			return
		}
		user, err := auth.Authenticate(c.Request.Context(), token)
		if errors.Is(err, domain.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, msgAuthRequired)
			return
		}
		if err != nil {
			writeError(c, log, err, msgAuthRequired)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) domain.User {
	user, _ := c.MustGet(userKey).(domain.User)
	return user
}

func bearerToken(header string) string {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
