package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"quizbox/internal/app"
	"quizbox/internal/domain"
	"quizbox/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSHandler lets an authenticated user take a quiz over a websocket: each
// answer is graded and followed by the updated score.
type WSHandler struct {
	attempts *app.AttemptService
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(attempts *app.AttemptService, log *logger.Logger) *WSHandler {
	return &WSHandler{
		attempts: attempts,
		log:      log.With("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionIndex json.RawMessage `json:"questionIndex"`
	Response      domain.Response `json:"response"`
}

type joinedPayload struct {
	Quiz    domain.PublicQuiz `json:"quiz"`
	Attempt app.Summary       `json:"attempt"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS runs behind RequireAuth, so the user is already in the context.
func (h *WSHandler) ServeWS(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, msgQuizNotFound)
		return
	}
	user := currentUser(c)
	ctx := c.Request.Context()

	quiz, err := h.attempts.GetQuizForTaking(ctx, quizID)
	if err != nil {
		writeError(c, h.log, err, msgQuizNotFound)
		return
	}
	summary, err := h.attempts.Summary(ctx, user, quizID)
	if err != nil {
		writeError(c, h.log, err, msgQuizNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// single writer; gorilla connections allow one concurrent writer
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write failed", "error", err)
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: joinedPayload{Quiz: quiz, Attempt: summary}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			for _, msg := range h.answer(c, user, quizID, inbound.Payload) {
				send <- msg
			}
		default:
			send <- errorMessage("unsupported message type")
		}
	}

	close(send)
	<-writerDone
}

func (h *WSHandler) answer(c *gin.Context, user domain.User, quizID uuid.UUID, raw json.RawMessage) []outboundMessage[any] {
	ctx := c.Request.Context()
	var payload answerPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return []outboundMessage[any]{errorMessage("invalid answer payload")}
	}
	index, err := domain.ParseQuestionIndex(payload.QuestionIndex)
	if err != nil {
		return []outboundMessage[any]{errorMessage(msgInvalidIndex)}
	}
	result, err := h.attempts.SubmitQuestion(ctx, user, quizID, index, payload.Response)
	if err != nil {
		return []outboundMessage[any]{errorMessage(h.wsMessage(err))}
	}
	msgs := []outboundMessage[any]{{Type: "answerResult", Payload: result}}
	summary, err := h.attempts.Summary(ctx, user, quizID)
	if err != nil {
		return append(msgs, errorMessage(h.wsMessage(err)))
	}
	return append(msgs, outboundMessage[any]{Type: "score", Payload: summary})
}

func (h *WSHandler) wsMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidQuestionIndex):
		return msgInvalidIndex
	case errors.Is(err, domain.ErrQuizNotFound):
		return msgQuizNotFound
	default:
		h.log.Error("ws answer failed", "error", err)
		return msgInternal
	}
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}
