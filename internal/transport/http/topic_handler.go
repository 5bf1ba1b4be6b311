package http

import (
	"net/http"

	"quizbox/internal/app"

	"github.com/gin-gonic/gin"
)

const msgTopicNotFound = "Topic not found."

func (h *Handler) CreateTopic(c *gin.Context) {
	var req app.TopicInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	topic, err := h.svc.Topics.CreateTopic(c.Request.Context(), currentUser(c), req)
	if err != nil {
		writeError(c, h.log, err, msgTopicNotFound)
		return
	}
	ok(c, http.StatusCreated, gin.H{"topic": topic})
}

// GetTopic returns the topic with its direct subtopics and quizzes.
func (h *Handler) GetTopic(c *gin.Context) {
	id, found := pathID(c, msgTopicNotFound)
	if !found {
		return
	}
	node, err := h.svc.Topics.GetTopicListing(c.Request.Context(), currentUser(c), id)
	if err != nil {
		writeError(c, h.log, err, msgTopicNotFound)
		return
	}
	ok(c, http.StatusOK, gin.H{"topic": node})
}

func (h *Handler) UpdateTopic(c *gin.Context) {
	id, found := pathID(c, msgTopicNotFound)
	if !found {
		return
	}
	var req app.TopicPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	topic, err := h.svc.Topics.UpdateTopic(c.Request.Context(), currentUser(c), id, req)
	if err != nil {
		writeError(c, h.log, err, msgTopicNotFound)
		return
	}
	ok(c, http.StatusOK, gin.H{"topic": topic})
}

func (h *Handler) DeleteTopic(c *gin.Context) {
	id, found := pathID(c, msgTopicNotFound)
	if !found {
		return
	}
	if err := h.svc.Topics.DeleteTopic(c.Request.Context(), currentUser(c), id); err != nil {
		writeError(c, h.log, err, msgTopicNotFound)
		return
	}
	ok(c, http.StatusOK, nil)
}
