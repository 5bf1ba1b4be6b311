package app

import (
	"context"

	"quizbox/internal/domain"

	"github.com/google/uuid"
)

// UserRepository persists accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user domain.User) error
	GetUser(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	SaveUser(ctx context.Context, user domain.User) error
}

// QuizRepository persists quiz documents. List methods return creation order.
type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	GetQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error)
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, id uuid.UUID) error
	ListQuizzesByTopic(ctx context.Context, topicID uuid.UUID) ([]domain.Quiz, error)
}

// TopicRepository persists topic nodes. ListSubtopics returns creation order.
type TopicRepository interface {
	CreateTopic(ctx context.Context, topic domain.Topic) error
	GetTopic(ctx context.Context, id uuid.UUID) (domain.Topic, error)
	SaveTopic(ctx context.Context, topic domain.Topic) error
	DeleteTopic(ctx context.Context, id uuid.UUID) error
	ListSubtopics(ctx context.Context, parentID uuid.UUID) ([]domain.Topic, error)
}

// Store is the document store behind every use case. WithinTx runs fn against
// a store whose writes commit together when Transactional reports true;
// otherwise fn runs directly and a failure part way through leaves earlier
// writes in place.
type Store interface {
	UserRepository
	QuizRepository
	TopicRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
	Transactional() bool
}

// QuizCache is the read path used while taking quizzes.
type QuizCache interface {
	GetQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error)
	Invalidate(ctx context.Context, id uuid.UUID) error
}

// AttemptRepository keeps per-user grading outcomes for a quiz.
type AttemptRepository interface {
	Record(ctx context.Context, quizID, userID uuid.UUID, index int, correct bool) error
	Get(ctx context.Context, quizID, userID uuid.UUID) (map[int]bool, error)
	Reset(ctx context.Context, quizID, userID uuid.UUID) error
	ResetQuiz(ctx context.Context, quizID uuid.UUID) error
}
