package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[uuid.UUID]map[uuid.UUID]map[int]bool
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[uuid.UUID]map[uuid.UUID]map[int]bool),
	}
}

func (s *AttemptStore) Record(_ context.Context, quizID, userID uuid.UUID, index int, correct bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser, ok := s.attempts[quizID]
	if !ok {
		byUser = make(map[uuid.UUID]map[int]bool)
		s.attempts[quizID] = byUser
	}
	outcomes, ok := byUser[userID]
	if !ok {
		outcomes = make(map[int]bool)
		byUser[userID] = outcomes
	}
	outcomes[index] = correct
	return nil
}

func (s *AttemptStore) Get(_ context.Context, quizID, userID uuid.UUID) (map[int]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]bool)
	for index, correct := range s.attempts[quizID][userID] {
		out[index] = correct
	}
	return out, nil
}

func (s *AttemptStore) Reset(_ context.Context, quizID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser, ok := s.attempts[quizID]
	if !ok {
		return nil
	}
	delete(byUser, userID)
	if len(byUser) == 0 {
		delete(s.attempts, quizID)
	}
	return nil
}

func (s *AttemptStore) ResetQuiz(_ context.Context, quizID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, quizID)
	return nil
}
