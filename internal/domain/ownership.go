package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// OwnsQuiz reports whether user owns the quiz named by ref. ref may be a Quiz,
// a *Quiz, a uuid.UUID or the id's string form; all three identify the same
// record. For entity refs the quiz's CreatedBy must agree with the user's
// quiz list, otherwise the quiz is treated as not owned.
func OwnsQuiz(user User, ref any) bool {
	var createdBy *uuid.UUID
	switch v := ref.(type) {
	case Quiz:
		createdBy = &v.CreatedBy
	case *Quiz:
		if v == nil {
			return false
		}
		createdBy = &v.CreatedBy
	}
	id, ok := quizRefID(ref)
	if !ok || !containsID(user.Quizzes, id) {
		return false
	}
	return createdBy == nil || *createdBy == user.ID
}

// OwnsTopic reports whether user owns the topic named by ref. Entity refs
// must carry CreatedBy == user.ID, and a root-level topic must also appear in
// user.Topics. Id refs can only be checked against user.Topics, so they
// identify root-level topics: a subtopic is owned by entity ref but never by
// its uuid or string id. Callers holding only an id load the topic first.
func OwnsTopic(user User, ref any) bool {
	var topic *Topic
	switch v := ref.(type) {
	case Topic:
		topic = &v
	case *Topic:
		topic = v
		if topic == nil {
			return false
		}
	}
	if topic != nil {
		if topic.CreatedBy != user.ID {
			return false
		}
		if topic.IsRoot() {
			return containsID(user.Topics, topic.ID)
		}
		return true
	}
	id, ok := parseRef(ref)
	return ok && containsID(user.Topics, id)
}

func quizRefID(ref any) (uuid.UUID, bool) {
	switch v := ref.(type) {
	case Quiz:
		return v.ID, true
	case *Quiz:
		return v.ID, true
	}
	return parseRef(ref)
}

func parseRef(ref any) (uuid.UUID, bool) {
	switch v := ref.(type) {
	case uuid.UUID:
		return v, true
	case *uuid.UUID:
		if v == nil {
			return uuid.Nil, false
		}
		return *v, true
	case string:
		id, err := uuid.Parse(v)
		return id, err == nil
	case fmt.Stringer:
		id, err := uuid.Parse(v.String())
		return id, err == nil
	}
	return uuid.Nil, false
}
