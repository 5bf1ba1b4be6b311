package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quizbox/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches quiz content from the backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error)
}

// QuizCache keeps quizzes in process with a TTL so quiz taking does not hit
// the database for every answer.
type QuizCache struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[uuid.UUID]cachedQuiz
	// gens counts invalidations per quiz; a fill started under an older
	// generation is not stored
	gens map[uuid.UUID]uint64
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizCache(loader QuizLoader, ttl time.Duration) *QuizCache {
	return &QuizCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[uuid.UUID]cachedQuiz),
		gens:   make(map[uuid.UUID]uint64),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error) {
	if quiz, ok := c.lookup(id); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(id.String(), func() (interface{}, error) {
		if quiz, ok := c.lookup(id); ok {
			return quiz, nil
		}
		c.mu.RLock()
		gen := c.gens[id]
		c.mu.RUnlock()

		quiz, err := c.loader.LoadQuiz(ctx, id)
		if err != nil {
			return domain.Quiz{}, err
		}
		if c.ttl > 0 {
			c.mu.Lock()
			if c.gens[id] == gen {
				c.cache[id] = cachedQuiz{
					quiz:      quiz,
					expiresAt: c.clock().Add(c.ttlWithJitter()),
				}
			}
			c.mu.Unlock()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizCache) Invalidate(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	delete(c.cache, id)
	c.gens[id]++
	c.mu.Unlock()
	c.sf.Forget(id.String())
	return nil
}

func (c *QuizCache) lookup(id uuid.UUID) (domain.Quiz, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[id]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	// up to 10% jitter spreads expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
