package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"quizbox/internal/app"
	"quizbox/internal/domain"

	"github.com/google/uuid"
)

// Store is an in-memory implementation of app.Store. Records are copied in
// and out so callers never share slices with the store. It has no
// transactions: WithinTx runs fn directly and earlier writes survive a later
// failure.
type Store struct {
	mu      sync.RWMutex
	seq     uint64
	users   map[uuid.UUID]userRecord
	emails  map[string]uuid.UUID
	quizzes map[uuid.UUID]quizRecord
	topics  map[uuid.UUID]topicRecord
}

type userRecord struct {
	user domain.User
}

type quizRecord struct {
	seq  uint64
	quiz domain.Quiz
}

type topicRecord struct {
	seq   uint64
	topic domain.Topic
}

var _ app.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		users:   make(map[uuid.UUID]userRecord),
		emails:  make(map[string]uuid.UUID),
		quizzes: make(map[uuid.UUID]quizRecord),
		topics:  make(map[uuid.UUID]topicRecord),
	}
}

func (s *Store) WithinTx(_ context.Context, fn func(tx app.Store) error) error {
	return fn(s)
}

// Transactional is false: writes made inside WithinTx are not undone.
func (s *Store) Transactional() bool { return false }

func (s *Store) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("%w: user %s already exists", domain.ErrStorage, user.ID)
	}
	if _, ok := s.emails[user.Email]; ok {
		return domain.ErrEmailTaken
	}
	s.users[user.ID] = userRecord{user: cloneUser(user)}
	s.emails[user.Email] = user.ID
	return nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return cloneUser(rec.user), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return cloneUser(s.users[id].user), nil
}

func (s *Store) SaveUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if prev.user.Email != user.Email {
		if _, taken := s.emails[user.Email]; taken {
			return domain.ErrEmailTaken
		}
		delete(s.emails, prev.user.Email)
		s.emails[user.Email] = user.ID
	}
	s.users[user.ID] = userRecord{user: cloneUser(user)}
	return nil
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; ok {
		return fmt.Errorf("%w: quiz %s already exists", domain.ErrStorage, quiz.ID)
	}
	s.seq++
	s.quizzes[quiz.ID] = quizRecord{seq: s.seq, quiz: cloneQuiz(quiz)}
	return nil
}

func (s *Store) GetQuiz(_ context.Context, id uuid.UUID) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(rec.quiz), nil
}

func (s *Store) SaveQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.quizzes[quiz.ID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	rec.quiz = cloneQuiz(quiz)
	s.quizzes[quiz.ID] = rec
	return nil
}

func (s *Store) DeleteQuiz(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, id)
	return nil
}

func (s *Store) ListQuizzesByTopic(_ context.Context, topicID uuid.UUID) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var recs []quizRecord
	for _, rec := range s.quizzes {
		if rec.quiz.Topic != nil && *rec.quiz.Topic == topicID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]domain.Quiz, 0, len(recs))
	for _, rec := range recs {
		out = append(out, cloneQuiz(rec.quiz))
	}
	return out, nil
}

func (s *Store) CreateTopic(_ context.Context, topic domain.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topics[topic.ID]; ok {
		return fmt.Errorf("%w: topic %s already exists", domain.ErrStorage, topic.ID)
	}
	s.seq++
	s.topics[topic.ID] = topicRecord{seq: s.seq, topic: cloneTopic(topic)}
	return nil
}

func (s *Store) GetTopic(_ context.Context, id uuid.UUID) (domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.topics[id]
	if !ok {
		return domain.Topic{}, domain.ErrTopicNotFound
	}
	return cloneTopic(rec.topic), nil
}

func (s *Store) SaveTopic(_ context.Context, topic domain.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.topics[topic.ID]
	if !ok {
		return domain.ErrTopicNotFound
	}
	rec.topic = cloneTopic(topic)
	s.topics[topic.ID] = rec
	return nil
}

func (s *Store) DeleteTopic(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topics[id]; !ok {
		return domain.ErrTopicNotFound
	}
	delete(s.topics, id)
	return nil
}

func (s *Store) ListSubtopics(_ context.Context, parentID uuid.UUID) ([]domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var recs []topicRecord
	for _, rec := range s.topics {
		if rec.topic.Parent != nil && *rec.topic.Parent == parentID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]domain.Topic, 0, len(recs))
	for _, rec := range recs {
		out = append(out, cloneTopic(rec.topic))
	}
	return out, nil
}

// LoadQuiz lets the store back a QuizCache directly.
func (s *Store) LoadQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error) {
	return s.GetQuiz(ctx, id)
}

func cloneUser(u domain.User) domain.User {
	u.Quizzes = append([]uuid.UUID{}, u.Quizzes...)
	u.Topics = append([]uuid.UUID{}, u.Topics...)
	return u
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	q.Topic = cloneID(q.Topic)
	questions := make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		if question.FillIn != nil {
			fillIn := *question.FillIn
			fillIn.AlternativeAnswers = append([]string{}, fillIn.AlternativeAnswers...)
			question.FillIn = &fillIn
		}
		if question.MultipleChoice != nil {
			mc := *question.MultipleChoice
			mc.Choices = append([]string{}, mc.Choices...)
			question.MultipleChoice = &mc
		}
		questions[i] = question
	}
	q.Questions = questions
	return q
}

func cloneTopic(t domain.Topic) domain.Topic {
	t.Parent = cloneID(t.Parent)
	return t
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
