package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizbox/internal/domain"
	"quizbox/internal/logger"

	"github.com/google/uuid"
)

// QuizService contains the quiz authoring use cases and the dashboard tree.
type QuizService struct {
	store    Store
	cache    QuizCache
	attempts AttemptRepository
	log      *logger.Logger
	now      func() time.Time
}

func NewQuizService(store Store, cache QuizCache, attempts AttemptRepository, log *logger.Logger) *QuizService {
	return &QuizService{
		store:    store,
		cache:    cache,
		attempts: attempts,
		log:      log.With("service", "QuizService"),
		now:      time.Now,
	}
}

// QuizInput is the authored content of a new quiz.
type QuizInput struct {
	Name      string            `json:"name"`
	Topic     *uuid.UUID        `json:"topic"`
	Questions []domain.Question `json:"questions"`
}

// OptionalID distinguishes an absent JSON field (Set false) from an explicit
// null (Set true, ID nil).
type OptionalID struct {
	Set bool
	ID  *uuid.UUID
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.ID = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.ID = &id
	return nil
}

// QuizPatch updates a quiz. Nil fields are left unchanged; Questions replaces
// the whole sequence.
type QuizPatch struct {
	Name      *string            `json:"name"`
	Topic     OptionalID         `json:"topic"`
	Questions *[]domain.Question `json:"questions"`
}

// CreateQuiz stores a new quiz and registers it in the owner's quiz list.
// Both writes share one transaction when the store supports it. When the
// registration fails on a store without transactions the quiz stays behind
// and the error wraps ErrPartialWrite and names it.
func (s *QuizService) CreateQuiz(ctx context.Context, owner domain.User, in QuizInput) (domain.Quiz, error) {
	if in.Topic != nil {
		if err := s.requireTopic(ctx, owner, *in.Topic); err != nil {
			return domain.Quiz{}, err
		}
	}
	quiz, err := domain.NewQuiz(owner.ID, in.Name, in.Topic, in.Questions, s.now())
	if err != nil {
		return domain.Quiz{}, err
	}

	err = s.store.WithinTx(ctx, func(tx Store) error {
		if err := tx.CreateQuiz(ctx, quiz); err != nil {
			return fmt.Errorf("create quiz: %w", err)
		}
		user, err := tx.GetUser(ctx, owner.ID)
		if err != nil {
			return ownerUpdateFailed(quiz.ID, err)
		}
		user.AddQuiz(quiz.ID)
		if err := tx.SaveUser(ctx, user); err != nil {
			return ownerUpdateFailed(quiz.ID, err)
		}
		return nil
	})
	if err != nil {
		err = settleOwnerUpdate(s.store, err)
		if errors.Is(err, domain.ErrPartialWrite) {
			s.log.Error("quiz created but not registered to owner", "quizID", quiz.ID, "userID", owner.ID, "error", err)
		}
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// GetQuiz returns the full quiz, answers included, to its owner.
func (s *QuizService) GetQuiz(ctx context.Context, user domain.User, id uuid.UUID) (domain.Quiz, error) {
	quiz, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !domain.OwnsQuiz(user, quiz) {
		return domain.Quiz{}, domain.ErrNotOwned
	}
	return quiz, nil
}

// ListQuizzes returns the user's quizzes in creation order. Ids left behind by
// an interrupted delete are skipped.
func (s *QuizService) ListQuizzes(ctx context.Context, user domain.User) ([]domain.Quiz, error) {
	quizzes := make([]domain.Quiz, 0, len(user.Quizzes))
	for _, id := range user.Quizzes {
		quiz, err := s.store.GetQuiz(ctx, id)
		if errors.Is(err, domain.ErrQuizNotFound) {
			s.log.Warn("user lists a missing quiz", "userID", user.ID, "quizID", id)
			continue
		}
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}

func (s *QuizService) UpdateQuiz(ctx context.Context, user domain.User, id uuid.UUID, patch QuizPatch) (domain.Quiz, error) {
	quiz, err := s.GetQuiz(ctx, user, id)
	if err != nil {
		return domain.Quiz{}, err
	}

	if patch.Name != nil {
		quiz.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Topic.Set {
		if patch.Topic.ID != nil {
			if err := s.requireTopic(ctx, user, *patch.Topic.ID); err != nil {
				return domain.Quiz{}, err
			}
		}
		quiz.Topic = patch.Topic.ID
	}
	questionsReplaced := patch.Questions != nil
	if questionsReplaced {
		quiz.Questions = *patch.Questions
		if quiz.Questions == nil {
			quiz.Questions = []domain.Question{}
		}
	}
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, err
	}

	if err := s.store.SaveQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("save quiz: %w", err)
	}
	s.invalidate(ctx, quiz.ID, questionsReplaced)
	return quiz, nil
}

// DeleteQuiz removes the quiz and its entry in the owner's quiz list.
func (s *QuizService) DeleteQuiz(ctx context.Context, user domain.User, id uuid.UUID) error {
	quiz, err := s.GetQuiz(ctx, user, id)
	if err != nil {
		return err
	}
	err = s.store.WithinTx(ctx, func(tx Store) error {
		return deleteQuizzes(ctx, tx, []domain.Quiz{quiz})
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, quiz.ID, true)
	return nil
}

// requireTopic checks that a topic exists and belongs to user before quizzes
// are attached to it.
func (s *QuizService) requireTopic(ctx context.Context, user domain.User, id uuid.UUID) error {
	topic, err := s.store.GetTopic(ctx, id)
	if errors.Is(err, domain.ErrTopicNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrInvalidTopic, id)
	}
	if err != nil {
		return err
	}
	if !domain.OwnsTopic(user, topic) {
		return fmt.Errorf("%w: %s", domain.ErrInvalidTopic, id)
	}
	return nil
}

func (s *QuizService) invalidate(ctx context.Context, id uuid.UUID, resetAttempts bool) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("quiz cache invalidation failed", "quizID", id, "error", err)
	}
	if !resetAttempts {
		return
	}
	if err := s.attempts.ResetQuiz(ctx, id); err != nil {
		s.log.Warn("attempt reset failed", "quizID", id, "error", err)
	}
}

// deleteQuizzes removes quizzes and drops them from their creators' lists.
func deleteQuizzes(ctx context.Context, tx Store, quizzes []domain.Quiz) error {
	byCreator := make(map[uuid.UUID][]uuid.UUID)
	var creators []uuid.UUID
	for _, quiz := range quizzes {
		if err := tx.DeleteQuiz(ctx, quiz.ID); err != nil && !errors.Is(err, domain.ErrQuizNotFound) {
			return fmt.Errorf("delete quiz %s: %w", quiz.ID, err)
		}
		if _, seen := byCreator[quiz.CreatedBy]; !seen {
			creators = append(creators, quiz.CreatedBy)
		}
		byCreator[quiz.CreatedBy] = append(byCreator[quiz.CreatedBy], quiz.ID)
	}
	for _, creatorID := range creators {
		user, err := tx.GetUser(ctx, creatorID)
		if errors.Is(err, domain.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		for _, id := range byCreator[creatorID] {
			user.RemoveQuiz(id)
		}
		if err := tx.SaveUser(ctx, user); err != nil {
			return fmt.Errorf("unregister quizzes: %w", err)
		}
	}
	return nil
}

// ownerUpdateError reports that a record was written but its owner's id
// list could not be updated.
type ownerUpdateError struct {
	id  uuid.UUID
	err error
}

func ownerUpdateFailed(id uuid.UUID, err error) error {
	return &ownerUpdateError{id: id, err: err}
}

func (e *ownerUpdateError) Error() string {
	return fmt.Sprintf("update owner of %s: %v", e.id, e.err)
}

func (e *ownerUpdateError) Unwrap() error { return e.err }

// settleOwnerUpdate turns a failed owner update into ErrPartialWrite when the
// record write before it could not be rolled back.
func settleOwnerUpdate(store Store, err error) error {
	var ou *ownerUpdateError
	if !errors.As(err, &ou) || store.Transactional() {
		return err
	}
	return fmt.Errorf("%w: %s stored but owner update failed: %w", domain.ErrPartialWrite, ou.id, ou.err)
}
