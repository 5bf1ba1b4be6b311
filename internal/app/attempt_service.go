package app

import (
	"context"
	"fmt"

	"quizbox/internal/domain"
	"quizbox/internal/logger"

	"github.com/google/uuid"
)

// AttemptService grades answers while a user takes a quiz and keeps the
// running score.
type AttemptService struct {
	quizzes  QuizCache
	attempts AttemptRepository
	log      *logger.Logger
}

func NewAttemptService(quizzes QuizCache, attempts AttemptRepository, log *logger.Logger) *AttemptService {
	return &AttemptService{
		quizzes:  quizzes,
		attempts: attempts,
		log:      log.With("service", "AttemptService"),
	}
}

// Summary is a user's progress through one quiz.
type Summary struct {
	QuizID   uuid.UUID `json:"quizId"`
	Answered int       `json:"answered"`
	Correct  int       `json:"correct"`
	Total    int       `json:"total"`
	Complete bool      `json:"complete"`
}

// GetQuizForTaking returns the quiz without answer fields. Any authenticated
// user may take any quiz.
func (s *AttemptService) GetQuizForTaking(ctx context.Context, id uuid.UUID) (domain.PublicQuiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, id)
	if err != nil {
		return domain.PublicQuiz{}, err
	}
	return quiz.Public(), nil
}

// SubmitQuestion grades one answer and records the outcome. The latest answer
// for a question replaces earlier ones. A failed recording is logged and the
// grading result is still returned.
func (s *AttemptService) SubmitQuestion(ctx context.Context, user domain.User, quizID uuid.UUID, index int, r domain.Response) (domain.SubmissionResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	result, err := quiz.SubmitQuestion(index, r)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	if err := s.attempts.Record(ctx, quizID, user.ID, index, result.IsCorrect); err != nil {
		s.log.Warn("recording attempt failed", "quizID", quizID, "userID", user.ID, "index", index, "error", err)
	}
	return result, nil
}

// Summary reports the user's score so far. Answers recorded for questions
// that no longer exist are ignored.
func (s *AttemptService) Summary(ctx context.Context, user domain.User, quizID uuid.UUID) (Summary, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return Summary{}, err
	}
	outcomes, err := s.attempts.Get(ctx, quizID, user.ID)
	if err != nil {
		return Summary{}, fmt.Errorf("load attempt: %w", err)
	}
	return summarize(quizID, len(quiz.Questions), outcomes), nil
}

// Reset discards the user's answers so the quiz can be taken again.
func (s *AttemptService) Reset(ctx context.Context, user domain.User, quizID uuid.UUID) error {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return err
	}
	if err := s.attempts.Reset(ctx, quizID, user.ID); err != nil {
		return fmt.Errorf("reset attempt: %w", err)
	}
	return nil
}

func summarize(quizID uuid.UUID, total int, outcomes map[int]bool) Summary {
	summary := Summary{QuizID: quizID, Total: total}
	for index, correct := range outcomes {
		if index < 0 || index >= total {
			continue
		}
		summary.Answered++
		if correct {
			summary.Correct++
		}
	}
	summary.Complete = total > 0 && summary.Answered == total
	return summary
}
