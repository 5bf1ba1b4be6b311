package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"quizbox/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AttemptStore implements app.AttemptRepository on redis.
// Outcomes live in a hash per attempt:  HSET attempt:{quizID}:{userID} {index} 1|0
// Users with an attempt are indexed in: SADD attempt:{quizID}:users {userID}
// Both keys are refreshed to ttl on every write.
type AttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{client: client, ttl: ttl}
}

func (s *AttemptStore) Record(ctx context.Context, quizID, userID uuid.UUID, index int, correct bool) error {
	value := "0"
	if correct {
		value = "1"
	}
	attemptKey := s.attemptKey(quizID, userID)
	usersKey := s.usersKey(quizID)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, attemptKey, strconv.Itoa(index), value)
	pipe.SAdd(ctx, usersKey, userID.String())
	if s.ttl > 0 {
		pipe.Expire(ctx, attemptKey, s.ttl)
		pipe.Expire(ctx, usersKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return storageErr("record attempt", err)
	}
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, quizID, userID uuid.UUID) (map[int]bool, error) {
	fields, err := s.client.HGetAll(ctx, s.attemptKey(quizID, userID)).Result()
	if err != nil {
		return nil, storageErr("load attempt", err)
	}
	out := make(map[int]bool, len(fields))
	for field, value := range fields {
		index, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		out[index] = value == "1"
	}
	return out, nil
}

func (s *AttemptStore) Reset(ctx context.Context, quizID, userID uuid.UUID) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.attemptKey(quizID, userID))
	pipe.SRem(ctx, s.usersKey(quizID), userID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return storageErr("reset attempt", err)
	}
	return nil
}

func (s *AttemptStore) ResetQuiz(ctx context.Context, quizID uuid.UUID) error {
	usersKey := s.usersKey(quizID)
	members, err := s.client.SMembers(ctx, usersKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return storageErr("list attempts", err)
	}
	keys := make([]string, 0, len(members)+1)
	for _, member := range members {
		userID, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		keys = append(keys, s.attemptKey(quizID, userID))
	}
	keys = append(keys, usersKey)
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return storageErr("reset quiz attempts", err)
	}
	return nil
}

func (s *AttemptStore) attemptKey(quizID, userID uuid.UUID) string {
	return "attempt:" + quizID.String() + ":" + userID.String()
}

func (s *AttemptStore) usersKey(quizID uuid.UUID) string {
	return "attempt:" + quizID.String() + ":users"
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}
