package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Quiz is an ordered, owned collection of questions.
type Quiz struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	DateCreated time.Time  `json:"dateCreated"`
	CreatedBy   uuid.UUID  `json:"createdBy"`
	Topic       *uuid.UUID `json:"topic"`
	Questions   []Question `json:"questions"`
}

// NewQuiz prepares a quiz owned by owner. The caller persists it.
func NewQuiz(owner uuid.UUID, name string, topic *uuid.UUID, questions []Question, now time.Time) (Quiz, error) {
	if questions == nil {
		questions = []Question{}
	}
	q := Quiz{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		DateCreated: now.UTC(),
		CreatedBy:   owner,
		Topic:       topic,
		Questions:   questions,
	}
	if err := q.Validate(); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

// Validate checks the name and every question.
func (q Quiz) Validate() error {
	if strings.TrimSpace(q.Name) == "" {
		return ErrInvalidName
	}
	return ValidateQuestions(q.Questions)
}

// ValidateQuestions reports the first invalid question with its position.
func ValidateQuestions(questions []Question) error {
	for i, question := range questions {
		if err := question.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

// SubmitQuestion grades a response to the question at index. The result is
// exactly the question's grading result.
func (q Quiz) SubmitQuestion(index int, r Response) (SubmissionResult, error) {
	if index < 0 || index >= len(q.Questions) {
		return SubmissionResult{}, ErrInvalidQuestionIndex
	}
	return Submit(q.Questions[index], r)
}

// QuizSummary is the dashboard view of a quiz.
type QuizSummary struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	DateCreated   time.Time  `json:"dateCreated"`
	Topic         *uuid.UUID `json:"topic"`
	QuestionCount int        `json:"questionCount"`
}

func (q Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:            q.ID,
		Name:          q.Name,
		DateCreated:   q.DateCreated,
		Topic:         q.Topic,
		QuestionCount: len(q.Questions),
	}
}

// PublicQuestion is a question stripped of everything that reveals the answer.
type PublicQuestion struct {
	Kind         QuestionKind `json:"kind"`
	QuestionHTML string       `json:"questionHtml"`
	Choices      []string     `json:"choices,omitempty"`
}

// PublicQuiz is what a quiz taker sees before submitting.
type PublicQuiz struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Questions []PublicQuestion `json:"questions"`
}

func (q Quiz) Public() PublicQuiz {
	questions := make([]PublicQuestion, 0, len(q.Questions))
	for _, question := range q.Questions {
		pq := PublicQuestion{Kind: question.Kind, QuestionHTML: question.QuestionHTML}
		if question.MultipleChoice != nil {
			pq.Choices = append([]string{}, question.MultipleChoice.Choices...)
		}
		questions = append(questions, pq)
	}
	return PublicQuiz{ID: q.ID, Name: q.Name, Questions: questions}
}
