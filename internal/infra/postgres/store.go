package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quizbox/internal/app"
	"quizbox/internal/domain"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Store is the bun-backed app.Store. Inside WithinTx every call shares one
// transaction.
type Store struct {
	db  bun.IDB
	raw *bun.DB
}

var _ app.Store = (*Store)(nil)

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, raw: db}
}

// Open connects to dsn with the pg driver and dialect.
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx app.Store) error) error {
	if s.raw == nil {
		return fn(s)
	}
	return s.raw.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(&Store{db: tx})
	})
}

// Transactional is always true: WithinTx rolls back every write on error.
func (s *Store) Transactional() bool { return true }

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	_, err := s.db.NewInsert().Model(toUserModel(user)).Exec(ctx)
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	return wrap("create user", err)
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	m := new(userModel)
	err := s.db.NewSelect().Model(m).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, wrap("get user", err)
	}
	return m.toDomain(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	m := new(userModel)
	err := s.db.NewSelect().Model(m).Where("email = ?", email).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, wrap("get user by email", err)
	}
	return m.toDomain(), nil
}

func (s *Store) SaveUser(ctx context.Context, user domain.User) error {
	res, err := s.db.NewUpdate().Model(toUserModel(user)).WherePK().Exec(ctx)
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return wrap("save user", err)
	}
	return expectRow(res, domain.ErrUserNotFound)
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	_, err := s.db.NewInsert().Model(toQuizModel(quiz)).Exec(ctx)
	return wrap("create quiz", err)
}

func (s *Store) GetQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error) {
	m := new(quizModel)
	err := s.db.NewSelect().Model(m).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, wrap("get quiz", err)
	}
	return m.toDomain(), nil
}

func (s *Store) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	res, err := s.db.NewUpdate().Model(toQuizModel(quiz)).WherePK().Exec(ctx)
	if err != nil {
		return wrap("save quiz", err)
	}
	return expectRow(res, domain.ErrQuizNotFound)
}

func (s *Store) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.NewDelete().Model((*quizModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return wrap("delete quiz", err)
	}
	return expectRow(res, domain.ErrQuizNotFound)
}

func (s *Store) ListQuizzesByTopic(ctx context.Context, topicID uuid.UUID) ([]domain.Quiz, error) {
	var models []quizModel
	err := s.db.NewSelect().Model(&models).Where("topic = ?", topicID).OrderExpr("seq ASC").Scan(ctx)
	if err != nil {
		return nil, wrap("list quizzes", err)
	}
	out := make([]domain.Quiz, 0, len(models))
	for i := range models {
		out = append(out, models[i].toDomain())
	}
	return out, nil
}

func (s *Store) CreateTopic(ctx context.Context, topic domain.Topic) error {
	_, err := s.db.NewInsert().Model(toTopicModel(topic)).Exec(ctx)
	return wrap("create topic", err)
}

func (s *Store) GetTopic(ctx context.Context, id uuid.UUID) (domain.Topic, error) {
	m := new(topicModel)
	err := s.db.NewSelect().Model(m).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Topic{}, domain.ErrTopicNotFound
	}
	if err != nil {
		return domain.Topic{}, wrap("get topic", err)
	}
	return m.toDomain(), nil
}

func (s *Store) SaveTopic(ctx context.Context, topic domain.Topic) error {
	res, err := s.db.NewUpdate().Model(toTopicModel(topic)).WherePK().Exec(ctx)
	if err != nil {
		return wrap("save topic", err)
	}
	return expectRow(res, domain.ErrTopicNotFound)
}

func (s *Store) DeleteTopic(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.NewDelete().Model((*topicModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return wrap("delete topic", err)
	}
	return expectRow(res, domain.ErrTopicNotFound)
}

func (s *Store) ListSubtopics(ctx context.Context, parentID uuid.UUID) ([]domain.Topic, error) {
	var models []topicModel
	err := s.db.NewSelect().Model(&models).Where("parent = ?", parentID).OrderExpr("seq ASC").Scan(ctx)
	if err != nil {
		return nil, wrap("list subtopics", err)
	}
	out := make([]domain.Topic, 0, len(models))
	for i := range models {
		out = append(out, models[i].toDomain())
	}
	return out, nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("rows affected", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}
