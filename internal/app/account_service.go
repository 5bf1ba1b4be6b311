package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"quizbox/internal/domain"
	"quizbox/internal/logger"

	"github.com/google/uuid"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePassword(hash, password string) error
}

// TokenIssuer creates access tokens and resolves them back to a user id.
type TokenIssuer interface {
	GenerateToken(userID uuid.UUID) (string, error)
	ValidateToken(token string) (uuid.UUID, error)
}

// AccountService registers users and authenticates requests.
type AccountService struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	log    *logger.Logger
	now    func() time.Time
}

func NewAccountService(users UserRepository, hasher PasswordHasher, tokens TokenIssuer, log *logger.Logger) *AccountService {
	return &AccountService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    log.With("service", "AccountService"),
		now:    time.Now,
	}
}

// Session is the outcome of a successful register or login.
type Session struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (s *AccountService) Register(ctx context.Context, email, password string) (Session, error) {
	email = domain.NormalizeEmail(email)
	// only a bare address is accepted, so one mailbox has one spelling
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return Session{}, domain.ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return Session{}, domain.ErrWeakPassword
	}
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return Session{}, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return Session{}, err
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Quizzes:      []uuid.UUID{},
		Topics:       []uuid.UUID{},
		DateCreated:  s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return Session{}, err
	}
	s.log.Info("user registered", "userID", user.ID)
	return s.issue(user)
}

// Login checks credentials. Unknown emails and wrong passwords fail the same
// way.
func (s *AccountService) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := s.hasher.ComparePassword(user.PasswordHash, password); err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}
	return s.issue(user)
}

// Authenticate resolves an access token to the current state of its user.
func (s *AccountService) Authenticate(ctx context.Context, token string) (domain.User, error) {
	id, err := s.tokens.ValidateToken(token)
	if err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	user, err := s.users.GetUser(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *AccountService) issue(user domain.User) (Session, error) {
	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, User: user}, nil
}
