package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quizbox/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizLoader reads quiz documents straight from Postgres for the quiz cache.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error) {
	var (
		rawID, createdBy string
		topic            *string
		name             string
		questions        []byte
		dateCreated      time.Time
	)
	err := l.pool.QueryRow(ctx,
		`SELECT id::text, name, created_by::text, topic::text, questions, date_created FROM quizzes WHERE id = $1`,
		id.String(),
	).Scan(&rawID, &name, &createdBy, &topic, &questions, &dateCreated)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: load quiz: %w", domain.ErrStorage, err)
	}

	quiz := domain.Quiz{
		Name:        name,
		DateCreated: dateCreated.UTC(),
		Questions:   []domain.Question{},
	}
	if quiz.ID, err = uuid.Parse(rawID); err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: quiz id %q: %w", domain.ErrStorage, rawID, err)
	}
	if quiz.CreatedBy, err = uuid.Parse(createdBy); err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: quiz creator %q: %w", domain.ErrStorage, createdBy, err)
	}
	if topic != nil {
		topicID, err := uuid.Parse(*topic)
		if err != nil {
			return domain.Quiz{}, fmt.Errorf("%w: quiz topic %q: %w", domain.ErrStorage, *topic, err)
		}
		quiz.Topic = &topicID
	}
	if err := json.Unmarshal(questions, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: unmarshal questions: %w", domain.ErrStorage, err)
	}
	return quiz, nil
}
