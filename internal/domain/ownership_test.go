package domain

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestOwnsQuizAgreesAcrossRefShapes(t *testing.T) {
	owner := User{ID: uuid.New()}
	quiz, err := NewQuiz(owner.ID, "Mine", nil, nil, time.Now())
	if err != nil {
		t.Fatalf("new quiz: %v", err)
	}
	owner.AddQuiz(quiz.ID)
	stranger := User{ID: uuid.New()}

	for _, user := range []User{owner, stranger} {
		want := user.ID == owner.ID
		refs := []any{quiz, &quiz, quiz.ID, quiz.ID.String(), strings.ToUpper(quiz.ID.String())}
		for _, ref := range refs {
			if got := OwnsQuiz(user, ref); got != want {
				t.Fatalf("ref %T %v: expected %v, got %v", ref, ref, want, got)
			}
		}
	}
}

func TestOwnsQuizFailsClosed(t *testing.T) {
	user := User{ID: uuid.New()}
	quiz, _ := NewQuiz(uuid.New(), "Foreign", nil, nil, time.Now())
	user.AddQuiz(quiz.ID)

	if OwnsQuiz(user, quiz) {
		t.Fatalf("expected createdBy disagreement to fail closed")
	}
	if OwnsQuiz(user, "not-a-uuid") || OwnsQuiz(user, 42) || OwnsQuiz(user, (*Quiz)(nil)) {
		t.Fatalf("expected unusable refs to be not owned")
	}
}

func TestOwnsTopic(t *testing.T) {
	user := User{ID: uuid.New()}
	root, _ := NewTopic(user.ID, "Root", nil, time.Now())
	user.AddTopic(root.ID)
	child, _ := NewTopic(user.ID, "Child", &root.ID, time.Now())

	if !OwnsTopic(user, root) || !OwnsTopic(user, root.ID) || !OwnsTopic(user, root.ID.String()) {
		t.Fatalf("expected root topic owned in every ref shape")
	}
	if !OwnsTopic(user, &child) {
		t.Fatalf("expected subtopic entity owned via createdBy")
	}

	unlisted, _ := NewTopic(user.ID, "Unlisted", nil, time.Now())
	if OwnsTopic(user, unlisted) {
		t.Fatalf("expected root topic missing from user topics to fail closed")
	}

	foreign := root
	foreign.CreatedBy = uuid.New()
	if OwnsTopic(user, foreign) {
		t.Fatalf("expected foreign createdBy to fail closed")
	}
}

func TestCheckReparent(t *testing.T) {
	owner := uuid.New()
	a, _ := NewTopic(owner, "A", nil, time.Now())
	b, _ := NewTopic(owner, "B", &a.ID, time.Now())
	c, _ := NewTopic(owner, "C", &b.ID, time.Now())
	topics := map[uuid.UUID]Topic{a.ID: a, b.ID: b, c.ID: c}
	lookup := func(_ context.Context, id uuid.UUID) (Topic, error) {
		if t, ok := topics[id]; ok {
			return t, nil
		}
		return Topic{}, ErrTopicNotFound
	}
	ctx := context.Background()

	if err := CheckReparent(ctx, a.ID, &c.ID, 3, lookup); !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("expected cycle to be rejected, got %v", err)
	}
	if err := CheckReparent(ctx, a.ID, &a.ID, 3, lookup); !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("expected self parent to be rejected, got %v", err)
	}
	missing := uuid.New()
	if err := CheckReparent(ctx, c.ID, &missing, 1, lookup); !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("expected missing parent to be rejected, got %v", err)
	}
	if err := CheckReparent(ctx, c.ID, &a.ID, 1, lookup); err != nil {
		t.Fatalf("expected valid move, got %v", err)
	}
	if err := CheckReparent(ctx, c.ID, nil, 1, lookup); err != nil {
		t.Fatalf("expected move to root to be valid, got %v", err)
	}
}

func TestCheckReparentDepthLimit(t *testing.T) {
	owner := uuid.New()
	topics := make(map[uuid.UUID]Topic)
	var parent *uuid.UUID
	var chain []Topic
	for i := 0; i < MaxTopicDepth; i++ {
		topic, _ := NewTopic(owner, "level", parent, time.Now())
		topics[topic.ID] = topic
		chain = append(chain, topic)
		id := topic.ID
		parent = &id
	}
	lookup := func(_ context.Context, id uuid.UUID) (Topic, error) {
		if t, ok := topics[id]; ok {
			return t, nil
		}
		return Topic{}, ErrTopicNotFound
	}
	ctx := context.Background()
	deepest := chain[MaxTopicDepth-1].ID
	middle := chain[MaxTopicDepth/2-1].ID

	if err := CheckReparent(ctx, uuid.New(), &deepest, 1, lookup); !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("expected a child below the deepest level to be rejected, got %v", err)
	}
	second := chain[MaxTopicDepth-2].ID
	if err := CheckReparent(ctx, uuid.New(), &second, 1, lookup); err != nil {
		t.Fatalf("expected a child at exactly max depth to be accepted, got %v", err)
	}
	if err := CheckReparent(ctx, uuid.New(), &middle, MaxTopicDepth/2, lookup); err != nil {
		t.Fatalf("expected a subtree that exactly fits to be accepted, got %v", err)
	}
	if err := CheckReparent(ctx, uuid.New(), &middle, MaxTopicDepth/2+1, lookup); !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("expected a subtree that overflows to be rejected, got %v", err)
	}
	if err := CheckReparent(ctx, uuid.New(), nil, MaxTopicDepth+1, lookup); !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("expected an over-tall subtree at root to be rejected, got %v", err)
	}
}

func TestOwnsTopicSubtopicRefs(t *testing.T) {
	user := User{ID: uuid.New()}
	root, _ := NewTopic(user.ID, "Root", nil, time.Now())
	user.Topics = []uuid.UUID{root.ID}
	sub, _ := NewTopic(user.ID, "Sub", &root.ID, time.Now())

	if !OwnsTopic(user, sub) || !OwnsTopic(user, &sub) {
		t.Fatalf("expected subtopic owned by entity ref")
	}
	if OwnsTopic(user, sub.ID) || OwnsTopic(user, sub.ID.String()) {
		t.Fatalf("id refs only resolve root-level topics")
	}
	if !OwnsTopic(user, root.ID) || !OwnsTopic(user, root.ID.String()) || !OwnsTopic(user, root) {
		t.Fatalf("root topic must be owned by every ref shape")
	}
}
