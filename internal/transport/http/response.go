package http

import (
	"errors"
	"net/http"

	"quizbox/internal/domain"
	"quizbox/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidIndex = "Invalid question index."
	msgInvalidBody  = "Invalid request body."
	msgInternal     = "Something went wrong. Please try again."
	msgAuthRequired = "Authentication required."
)

// ok writes {"success": true, ...payload}.
func ok(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// writeError renders err as a failure envelope. notFound is the message used
// for both a missing record and one the user does not own, so the two are
// indistinguishable to clients. Unexpected errors are logged and replaced by a
// generic message.
func writeError(c *gin.Context, log *logger.Logger, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuestionIndex):
		fail(c, http.StatusBadRequest, msgInvalidIndex)
	case errors.Is(err, domain.ErrNotOwned),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrTopicNotFound):
		fail(c, http.StatusNotFound, notFound)
	case errors.Is(err, domain.ErrInvalidQuestion):
		fail(c, http.StatusBadRequest, capitalize(err.Error())+".")
	case errors.Is(err, domain.ErrInvalidName):
		fail(c, http.StatusBadRequest, "Name is required.")
	case errors.Is(err, domain.ErrInvalidTopic):
		fail(c, http.StatusBadRequest, "Invalid topic.")
	case errors.Is(err, domain.ErrInvalidParent):
		fail(c, http.StatusBadRequest, "Invalid parent topic.")
	case errors.Is(err, domain.ErrInvalidEmail):
		fail(c, http.StatusBadRequest, "Invalid email address.")
	case errors.Is(err, domain.ErrWeakPassword):
		fail(c, http.StatusBadRequest, "Password is too short.")
	case errors.Is(err, domain.ErrEmailTaken):
		fail(c, http.StatusConflict, "Email is already registered.")
	case errors.Is(err, domain.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "Invalid email or password.")
	case errors.Is(err, domain.ErrUserNotFound):
		fail(c, http.StatusUnauthorized, msgAuthRequired)
	default:
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		fail(c, http.StatusInternalServerError, msgInternal)
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
