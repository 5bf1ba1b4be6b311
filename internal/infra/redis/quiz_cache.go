package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"quizbox/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches quiz content from the backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error)
}

// genTTL bounds how long an invalidation counter outlives its last write.
const genTTL = 24 * time.Hour

var errStaleFill = errors.New("quiz changed during load")

// QuizCache keeps a JSON snapshot of each quiz under quiz:{id}:doc and falls
// back to the loader on a miss. A redis failure degrades to a direct load.
// Invalidate bumps quiz:{id}:gen, and a fill that started before the bump is
// discarded.
type QuizCache struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizCache(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error) {
	if quiz, ok := c.cached(ctx, id); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(id.String(), func() (interface{}, error) {
		// another caller may have filled it meanwhile
		if quiz, ok := c.cached(ctx, id); ok {
			return quiz, nil
		}
		gen, genErr := c.generation(ctx, c.client, id)
		quiz, err := c.loader.LoadQuiz(ctx, id)
		if err != nil {
			return domain.Quiz{}, err
		}
		if genErr == nil {
			_ = c.fill(ctx, id, gen, quiz)
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	c.sf.Forget(id.String())
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.key(id))
		pipe.Incr(ctx, c.genKey(id))
		pipe.Expire(ctx, c.genKey(id), genTTL)
		return nil
	})
	if err != nil {
		return storageErr("invalidate quiz", err)
	}
	return nil
}

// fill stores quiz only while quiz:{id}:gen still equals gen. A concurrent
// Invalidate either changes the counter first or aborts the EXEC.
func (c *QuizCache) fill(ctx context.Context, id uuid.UUID, gen int64, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return err
	}
	return c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.generation(ctx, tx, id)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(id), data, c.ttlWithJitter())
			return nil
		})
		return err
	}, c.genKey(id))
}

func (c *QuizCache) generation(ctx context.Context, cmd redis.Cmdable, id uuid.UUID) (int64, error) {
	gen, err := cmd.Get(ctx, c.genKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *QuizCache) cached(ctx context.Context, id uuid.UUID) (domain.Quiz, bool) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		// corrupt snapshot, reload from the store
		_ = c.client.Del(ctx, c.key(id)).Err()
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (c *QuizCache) key(id uuid.UUID) string {
	return "quiz:" + id.String() + ":doc"
}

func (c *QuizCache) genKey(id uuid.UUID) string {
	return "quiz:" + id.String() + ":gen"
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
