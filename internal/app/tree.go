package app

import (
	"context"
	"errors"
	"fmt"

	"quizbox/internal/domain"

	"golang.org/x/sync/errgroup"
)

// TopicNode is a topic with its directly attached quizzes and its subtopics.
// Quizzes and Subtopics are never nil.
type TopicNode struct {
	domain.Topic
	Quizzes   []domain.QuizSummary `json:"quizzes"`
	Subtopics []TopicNode          `json:"subtopics"`
}

// GetQuizzesAndTopics assembles the user's dashboard: every root topic in
// user.Topics order, each expanded recursively. Sibling subtrees load
// concurrently; each node's slot is fixed up front so output order follows
// user.Topics and creation order.
func (s *QuizService) GetQuizzesAndTopics(ctx context.Context, user domain.User) ([]TopicNode, error) {
	nodes := make([]*TopicNode, len(user.Topics))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range user.Topics {
		g.Go(func() error {
			topic, err := s.store.GetTopic(gctx, id)
			if errors.Is(err, domain.ErrTopicNotFound) {
				s.log.Warn("user lists a missing root topic", "userID", user.ID, "topicID", id)
				return nil
			}
			if err != nil {
				return fmt.Errorf("load topic %s: %w", id, err)
			}
			node, err := s.expand(gctx, topic, 1)
			if err != nil {
				return err
			}
			nodes[i] = &node
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]TopicNode, 0, len(nodes))
	for _, node := range nodes {
		if node != nil {
			out = append(out, *node)
		}
	}
	return out, nil
}

// expand loads a node's quizzes and subtopics in parallel, then recurses into
// the subtopics.
func (s *QuizService) expand(ctx context.Context, topic domain.Topic, depth int) (TopicNode, error) {
	if depth > domain.MaxTopicDepth {
		return TopicNode{}, domain.ErrMaxDepthExceeded
	}
	node := TopicNode{
		Topic:     topic,
		Quizzes:   []domain.QuizSummary{},
		Subtopics: []TopicNode{},
	}

	var subtopics []domain.Topic
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		quizzes, err := s.store.ListQuizzesByTopic(gctx, topic.ID)
		if err != nil {
			return fmt.Errorf("list quizzes of topic %s: %w", topic.ID, err)
		}
		for _, quiz := range quizzes {
			node.Quizzes = append(node.Quizzes, quiz.Summary())
		}
		return nil
	})
	g.Go(func() error {
		var err error
		subtopics, err = s.store.ListSubtopics(gctx, topic.ID)
		if err != nil {
			return fmt.Errorf("list subtopics of topic %s: %w", topic.ID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return TopicNode{}, err
	}

	if len(subtopics) == 0 {
		return node, nil
	}
	node.Subtopics = make([]TopicNode, len(subtopics))
	g, gctx = errgroup.WithContext(ctx)
	for i, sub := range subtopics {
		g.Go(func() error {
			child, err := s.expand(gctx, sub, depth+1)
			if err != nil {
				return err
			}
			node.Subtopics[i] = child
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return TopicNode{}, err
	}
	return node, nil
}
