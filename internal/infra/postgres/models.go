package postgres

import (
	"time"

	"quizbox/internal/domain"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type userModel struct {
	bun.BaseModel `bun:"table:users"`

	ID           uuid.UUID   `bun:"id,pk,type:uuid"`
	Email        string      `bun:"email,notnull"`
	PasswordHash string      `bun:"password_hash,notnull"`
	QuizIDs      []uuid.UUID `bun:"quiz_ids,type:jsonb,notnull"`
	TopicIDs     []uuid.UUID `bun:"topic_ids,type:jsonb,notnull"`
	DateCreated  time.Time   `bun:"date_created,notnull"`
}

type topicModel struct {
	bun.BaseModel `bun:"table:topics"`

	ID          uuid.UUID  `bun:"id,pk,type:uuid"`
	Name        string     `bun:"name,notnull"`
	CreatedBy   uuid.UUID  `bun:"created_by,type:uuid,notnull"`
	Parent      *uuid.UUID `bun:"parent,type:uuid,nullzero"`
	DateCreated time.Time  `bun:"date_created,notnull"`
}

type quizModel struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID          uuid.UUID         `bun:"id,pk,type:uuid"`
	Name        string            `bun:"name,notnull"`
	CreatedBy   uuid.UUID         `bun:"created_by,type:uuid,notnull"`
	Topic       *uuid.UUID        `bun:"topic,type:uuid,nullzero"`
	Questions   []domain.Question `bun:"questions,type:jsonb,notnull"`
	DateCreated time.Time         `bun:"date_created,notnull"`
}

func toUserModel(u domain.User) *userModel {
	return &userModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		QuizIDs:      nonNilIDs(u.Quizzes),
		TopicIDs:     nonNilIDs(u.Topics),
		DateCreated:  u.DateCreated,
	}
}

func (m *userModel) toDomain() domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Quizzes:      nonNilIDs(m.QuizIDs),
		Topics:       nonNilIDs(m.TopicIDs),
		DateCreated:  m.DateCreated.UTC(),
	}
}

func toTopicModel(t domain.Topic) *topicModel {
	return &topicModel{
		ID:          t.ID,
		Name:        t.Name,
		CreatedBy:   t.CreatedBy,
		Parent:      t.Parent,
		DateCreated: t.DateCreated,
	}
}

func (m *topicModel) toDomain() domain.Topic {
	return domain.Topic{
		ID:          m.ID,
		Name:        m.Name,
		CreatedBy:   m.CreatedBy,
		Parent:      m.Parent,
		DateCreated: m.DateCreated.UTC(),
	}
}

func toQuizModel(q domain.Quiz) *quizModel {
	questions := q.Questions
	if questions == nil {
		questions = []domain.Question{}
	}
	return &quizModel{
		ID:          q.ID,
		Name:        q.Name,
		CreatedBy:   q.CreatedBy,
		Topic:       q.Topic,
		Questions:   questions,
		DateCreated: q.DateCreated,
	}
}

func (m *quizModel) toDomain() domain.Quiz {
	questions := m.Questions
	if questions == nil {
		questions = []domain.Question{}
	}
	return domain.Quiz{
		ID:          m.ID,
		Name:        m.Name,
		DateCreated: m.DateCreated.UTC(),
		CreatedBy:   m.CreatedBy,
		Topic:       m.Topic,
		Questions:   questions,
	}
}

func nonNilIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
