package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account. Quizzes lists every quiz the user created; Topics lists
// only the user's root-level topics.
type User struct {
	ID           uuid.UUID   `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Quizzes      []uuid.UUID `json:"quizzes"`
	Topics       []uuid.UUID `json:"topics"`
	DateCreated  time.Time   `json:"dateCreated"`
}

// NormalizeEmail is applied before storing or looking up an email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) AddQuiz(id uuid.UUID) {
	u.Quizzes = appendUnique(u.Quizzes, id)
}

func (u *User) RemoveQuiz(id uuid.UUID) {
	u.Quizzes = removeID(u.Quizzes, id)
}

func (u *User) AddTopic(id uuid.UUID) {
	u.Topics = appendUnique(u.Topics, id)
}

func (u *User) RemoveTopic(id uuid.UUID) {
	u.Topics = removeID(u.Topics, id)
}

func appendUnique(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	if containsID(ids, id) {
		return ids
	}
	return append(ids, id)
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
