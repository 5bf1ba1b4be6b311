package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	session, err := h.svc.Accounts.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err, "User not found.")
		return
	}
	ok(c, http.StatusCreated, gin.H{"token": session.Token, "user": session.User})
}

func (h *Handler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	session, err := h.svc.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err, "User not found.")
		return
	}
	ok(c, http.StatusOK, gin.H{"token": session.Token, "user": session.User})
}

func (h *Handler) Me(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"user": currentUser(c)})
}

// Dashboard returns the user's full topic tree with quizzes.
func (h *Handler) Dashboard(c *gin.Context) {
	topics, err := h.svc.Quizzes.GetQuizzesAndTopics(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, h.log, err, "Topic not found.")
		return
	}
	ok(c, http.StatusOK, gin.H{"topics": topics})
}
