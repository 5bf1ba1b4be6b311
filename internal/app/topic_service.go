package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizbox/internal/domain"
	"quizbox/internal/logger"

	"github.com/google/uuid"
)

// TopicService manages the per-user topic tree.
type TopicService struct {
	store    Store
	cache    QuizCache
	attempts AttemptRepository
	log      *logger.Logger
	now      func() time.Time
}

func NewTopicService(store Store, cache QuizCache, attempts AttemptRepository, log *logger.Logger) *TopicService {
	return &TopicService{
		store:    store,
		cache:    cache,
		attempts: attempts,
		log:      log.With("service", "TopicService"),
		now:      time.Now,
	}
}

// TopicInput creates a topic; a nil Parent makes it a root topic.
type TopicInput struct {
	Name   string     `json:"name"`
	Parent *uuid.UUID `json:"parent"`
}

// TopicPatch renames and/or reparents a topic. Parent set to null moves the
// topic to the root level.
type TopicPatch struct {
	Name   *string    `json:"name"`
	Parent OptionalID `json:"parent"`
}

// CreateTopic stores a topic for owner. Root topics are also registered in
// owner.Topics, in the same transaction when the store supports one.
func (s *TopicService) CreateTopic(ctx context.Context, owner domain.User, in TopicInput) (domain.Topic, error) {
	if in.Parent != nil {
		if err := s.requireParent(ctx, owner, *in.Parent); err != nil {
			return domain.Topic{}, err
		}
	}
	topic, err := domain.NewTopic(owner.ID, in.Name, in.Parent, s.now())
	if err != nil {
		return domain.Topic{}, err
	}
	if err := domain.CheckReparent(ctx, topic.ID, topic.Parent, 1, s.store.GetTopic); err != nil {
		return domain.Topic{}, err
	}

	err = s.store.WithinTx(ctx, func(tx Store) error {
		if err := tx.CreateTopic(ctx, topic); err != nil {
			return fmt.Errorf("create topic: %w", err)
		}
		if !topic.IsRoot() {
			return nil
		}
		user, err := tx.GetUser(ctx, owner.ID)
		if err != nil {
			return ownerUpdateFailed(topic.ID, err)
		}
		user.AddTopic(topic.ID)
		if err := tx.SaveUser(ctx, user); err != nil {
			return ownerUpdateFailed(topic.ID, err)
		}
		return nil
	})
	if err != nil {
		return domain.Topic{}, settleOwnerUpdate(s.store, err)
	}
	return topic, nil
}

// GetTopic loads a topic owned by user.
func (s *TopicService) GetTopic(ctx context.Context, user domain.User, id uuid.UUID) (domain.Topic, error) {
	topic, err := s.store.GetTopic(ctx, id)
	if err != nil {
		return domain.Topic{}, err
	}
	if !domain.OwnsTopic(user, topic) {
		return domain.Topic{}, domain.ErrNotOwned
	}
	return topic, nil
}

// GetTopicListing returns an owned topic with its direct subtopics and quizzes.
func (s *TopicService) GetTopicListing(ctx context.Context, user domain.User, id uuid.UUID) (TopicNode, error) {
	topic, err := s.GetTopic(ctx, user, id)
	if err != nil {
		return TopicNode{}, err
	}
	subtopics, err := s.GetSubtopics(ctx, topic)
	if err != nil {
		return TopicNode{}, err
	}
	quizzes, err := s.GetQuizzesByTopic(ctx, topic)
	if err != nil {
		return TopicNode{}, err
	}

	node := TopicNode{
		Topic:     topic,
		Quizzes:   make([]domain.QuizSummary, 0, len(quizzes)),
		Subtopics: make([]TopicNode, 0, len(subtopics)),
	}
	for _, quiz := range quizzes {
		node.Quizzes = append(node.Quizzes, quiz.Summary())
	}
	for _, sub := range subtopics {
		node.Subtopics = append(node.Subtopics, TopicNode{
			Topic:     sub,
			Quizzes:   []domain.QuizSummary{},
			Subtopics: []TopicNode{},
		})
	}
	return node, nil
}

func (s *TopicService) GetSubtopics(ctx context.Context, topic domain.Topic) ([]domain.Topic, error) {
	return s.store.ListSubtopics(ctx, topic.ID)
}

func (s *TopicService) GetQuizzesByTopic(ctx context.Context, topic domain.Topic) ([]domain.Quiz, error) {
	return s.store.ListQuizzesByTopic(ctx, topic.ID)
}

// UpdateTopic applies a rename and/or a move.
func (s *TopicService) UpdateTopic(ctx context.Context, user domain.User, id uuid.UUID, patch TopicPatch) (domain.Topic, error) {
	topic, err := s.GetTopic(ctx, user, id)
	if err != nil {
		return domain.Topic{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return domain.Topic{}, domain.ErrInvalidName
		}
		topic.Name = name
	}
	if !patch.Parent.Set {
		if err := s.store.SaveTopic(ctx, topic); err != nil {
			return domain.Topic{}, fmt.Errorf("save topic: %w", err)
		}
		return topic, nil
	}
	return s.move(ctx, user, topic, patch.Parent.ID)
}

func (s *TopicService) RenameTopic(ctx context.Context, user domain.User, id uuid.UUID, name string) (domain.Topic, error) {
	return s.UpdateTopic(ctx, user, id, TopicPatch{Name: &name})
}

// MoveTopic reparents a topic; nil makes it a root topic. A parent that is
// missing, foreign, inside the topic's own subtree, or too deep to hold the
// whole subtree within MaxTopicDepth fails with ErrInvalidParent before
// anything is written.
func (s *TopicService) MoveTopic(ctx context.Context, user domain.User, id uuid.UUID, parent *uuid.UUID) (domain.Topic, error) {
	topic, err := s.GetTopic(ctx, user, id)
	if err != nil {
		return domain.Topic{}, err
	}
	return s.move(ctx, user, topic, parent)
}

func (s *TopicService) move(ctx context.Context, user domain.User, topic domain.Topic, parent *uuid.UUID) (domain.Topic, error) {
	if parent != nil {
		if err := s.requireParent(ctx, user, *parent); err != nil {
			return domain.Topic{}, err
		}
	}
	height, err := s.subtreeHeight(ctx, topic.ID, 1)
	if err != nil {
		return domain.Topic{}, err
	}
	if err := domain.CheckReparent(ctx, topic.ID, parent, height, s.store.GetTopic); err != nil {
		return domain.Topic{}, err
	}

	wasRoot := topic.IsRoot()
	topic.Parent = parent
	err = s.store.WithinTx(ctx, func(tx Store) error {
		if err := tx.SaveTopic(ctx, topic); err != nil {
			return fmt.Errorf("save topic: %w", err)
		}
		if wasRoot == topic.IsRoot() {
			return nil
		}
		owner, err := tx.GetUser(ctx, user.ID)
		if err != nil {
			return ownerUpdateFailed(topic.ID, err)
		}
		if topic.IsRoot() {
			owner.AddTopic(topic.ID)
		} else {
			owner.RemoveTopic(topic.ID)
		}
		if err := tx.SaveUser(ctx, owner); err != nil {
			return ownerUpdateFailed(topic.ID, err)
		}
		return nil
	})
	if err != nil {
		return domain.Topic{}, settleOwnerUpdate(s.store, err)
	}
	return topic, nil
}

// DeleteTopic removes a topic, every descendant topic and every quiz attached
// anywhere in that subtree. Leaves go first, so an interrupted delete never
// leaves a surviving node whose parent is already gone.
func (s *TopicService) DeleteTopic(ctx context.Context, user domain.User, id uuid.UUID) error {
	topic, err := s.GetTopic(ctx, user, id)
	if err != nil {
		return err
	}

	var removed []domain.Quiz
	err = s.store.WithinTx(ctx, func(tx Store) error {
		removed = removed[:0]
		if err := s.deleteSubtree(ctx, tx, topic, 1, &removed); err != nil {
			return err
		}
		if !topic.IsRoot() {
			return nil
		}
		owner, err := tx.GetUser(ctx, user.ID)
		if err != nil {
			return err
		}
		owner.RemoveTopic(topic.ID)
		return tx.SaveUser(ctx, owner)
	})
	if err != nil {
		return err
	}

	for _, quiz := range removed {
		if err := s.cache.Invalidate(ctx, quiz.ID); err != nil {
			s.log.Warn("quiz cache invalidation failed", "quizID", quiz.ID, "error", err)
		}
		if err := s.attempts.ResetQuiz(ctx, quiz.ID); err != nil {
			s.log.Warn("attempt reset failed", "quizID", quiz.ID, "error", err)
		}
	}
	s.log.Info("topic deleted", "topicID", topic.ID, "quizzes", len(removed))
	return nil
}

func (s *TopicService) deleteSubtree(ctx context.Context, tx Store, topic domain.Topic, depth int, removed *[]domain.Quiz) error {
	if depth > domain.MaxTopicDepth {
		return domain.ErrMaxDepthExceeded
	}
	children, err := tx.ListSubtopics(ctx, topic.ID)
	if err != nil {
		return fmt.Errorf("list subtopics of %s: %w", topic.ID, err)
	}
	for _, child := range children {
		if err := s.deleteSubtree(ctx, tx, child, depth+1, removed); err != nil {
			return err
		}
	}

	quizzes, err := tx.ListQuizzesByTopic(ctx, topic.ID)
	if err != nil {
		return fmt.Errorf("list quizzes of %s: %w", topic.ID, err)
	}
	if err := deleteQuizzes(ctx, tx, quizzes); err != nil {
		return err
	}
	*removed = append(*removed, quizzes...)

	if err := tx.DeleteTopic(ctx, topic.ID); err != nil && !errors.Is(err, domain.ErrTopicNotFound) {
		return fmt.Errorf("delete topic %s: %w", topic.ID, err)
	}
	return nil
}

// subtreeHeight counts the levels of the subtree rooted at id, the root
// included.
func (s *TopicService) subtreeHeight(ctx context.Context, id uuid.UUID, depth int) (int, error) {
	if depth > domain.MaxTopicDepth {
		return 0, domain.ErrMaxDepthExceeded
	}
	children, err := s.store.ListSubtopics(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("list subtopics of %s: %w", id, err)
	}
	height := 1
	for _, child := range children {
		h, err := s.subtreeHeight(ctx, child.ID, depth+1)
		if err != nil {
			return 0, err
		}
		if h+1 > height {
			height = h + 1
		}
	}
	return height, nil
}

// requireParent checks that a prospective parent exists and belongs to user.
func (s *TopicService) requireParent(ctx context.Context, user domain.User, id uuid.UUID) error {
	parent, err := s.store.GetTopic(ctx, id)
	if errors.Is(err, domain.ErrTopicNotFound) {
		return domain.ErrInvalidParent
	}
	if err != nil {
		return err
	}
	if !domain.OwnsTopic(user, parent) {
		return domain.ErrInvalidParent
	}
	return nil
}
