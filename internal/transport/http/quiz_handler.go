package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"quizbox/internal/app"
	"quizbox/internal/domain"

	"github.com/gin-gonic/gin"
)

const msgQuizNotFound = "Quiz not found."

type submitRequest struct {
	QuestionIndex json.RawMessage `json:"questionIndex"`
	Response      domain.Response `json:"response"`
}

func (h *Handler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.svc.Quizzes.ListQuizzes(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, h.log, err, msgQuizNotFound)
		return
	}
	summaries := make([]domain.QuizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		summaries = append(summaries, quiz.Summary())
	}
	ok(c, http.StatusOK, gin.H{"quizzes": summaries})
}

func (h *Handler) CreateQuiz(c *gin.Context) {
	var req app.QuizInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	quiz, err := h.svc.Quizzes.CreateQuiz(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.authoringError(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"quiz": quiz})
}

func (h *Handler) GetQuiz(c *gin.Context) {
	id, found := pathID(c, msgQuizNotFound)
	if !found {
		return
	}
	quiz, err := h.svc.Quizzes.GetQuiz(c.Request.Context(), currentUser(c), id)
	if err != nil {
		writeError(c, h.log, err, msgQuizNotFound)
		return
	}
	ok(c, http.StatusOK, gin.H{"quiz": quiz})
}

func (h *Handler) UpdateQuiz(c *gin.Context) {
	id, found := pathID(c, msgQuizNotFound)
	if !found {
		return
	}
	var req app.QuizPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	quiz, err := h.svc.Quizzes.UpdateQuiz(c.Request.Context(), currentUser(c), id, req)
	if err != nil {
		h.authoringError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"quiz": quiz})
}

func (h *Handler) DeleteQuiz(c *gin.Context) {
	id, found := pathID(c, msgQuizNotFound)
	if !found {
		return
	}
	if err := h.svc.Quizzes.DeleteQuiz(c.Request.Context(), currentUser(c), id); err != nil {
		writeError(c, h.log, err, msgQuizNotFound)
		return
	}
	ok(c, http.StatusOK, nil)
}

// TakeQuiz returns the questions without their answers.
func (h *Handler) TakeQuiz(c *gin.Context) {
	id, found := pathID(c, msgQuizNotFound)
	if !found {
		return
	}
	quiz, err := h.svc.Attempts.GetQuizForTaking(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err, msgQuizNotFound)
		return
	}
	ok(c, http.StatusOK, gin.H{"quiz": quiz})
}

// SubmitQuestion grades one answer. The result is the grading result itself,
// which already carries "success": true.
func (h *Handler) SubmitQuestion(c *gin.Context) {
	id, found := pathID(c, msgQuizNotFound)
	if !found {
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	index, err := domain.ParseQuestionIndex(req.QuestionIndex)
	if err != nil {
		writeError(c, h.log, err, msgQuizNotFound)
		return
	}
	result, err := h.svc.Attempts.SubmitQuestion(c.Request.Context(), currentUser(c), id, index, req.Response)
	if err != nil {
		writeError(c, h.log, err, msgQuizNotFound)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetAttempt(c *gin.Context) {
	id, found := pathID(c, msgQuizNotFound)
	if !found {
		return
	}
	summary, err := h.svc.Attempts.Summary(c.Request.Context(), currentUser(c), id)
	if err != nil {
		writeError(c, h.log, err, msgQuizNotFound)
		return
	}
	ok(c, http.StatusOK, gin.H{"attempt": summary})
}

func (h *Handler) ResetAttempt(c *gin.Context) {
	id, found := pathID(c, msgQuizNotFound)
	if !found {
		return
	}
	if err := h.svc.Attempts.Reset(c.Request.Context(), currentUser(c), id); err != nil {
		writeError(c, h.log, err, msgQuizNotFound)
		return
	}
	ok(c, http.StatusOK, nil)
}

// authoringError reports an unknown question kind as a client error. On
// this path it is the author's mistake, not stored data corruption.
func (h *Handler) authoringError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrUnrecognizedQuestionType) {
		fail(c, http.StatusBadRequest, "Unrecognized question type.")
		return
	}
	writeError(c, h.log, err, msgQuizNotFound)
}
