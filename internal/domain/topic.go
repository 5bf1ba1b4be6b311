package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxTopicDepth bounds every walk over the topic tree.
const MaxTopicDepth = 100

// Topic is a node of a user's topic tree. Root topics have a nil Parent.
type Topic struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	CreatedBy   uuid.UUID  `json:"createdBy"`
	Parent      *uuid.UUID `json:"parent"`
	DateCreated time.Time  `json:"dateCreated"`
}

func NewTopic(owner uuid.UUID, name string, parent *uuid.UUID, now time.Time) (Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Topic{}, ErrInvalidName
	}
	return Topic{
		ID:          uuid.New(),
		Name:        name,
		CreatedBy:   owner,
		Parent:      parent,
		DateCreated: now.UTC(),
	}, nil
}

func (t Topic) IsRoot() bool { return t.Parent == nil }

// TopicLookup loads a topic by id.
type TopicLookup func(ctx context.Context, id uuid.UUID) (Topic, error)

// CheckReparent verifies that placing topic, whose subtree spans height
// levels, under newParent keeps the tree acyclic and no deeper than
// MaxTopicDepth. A new topic has height 1. It walks up from newParent;
// reaching topic, a missing ancestor or running out of depth rejects the
// placement with ErrInvalidParent.
func CheckReparent(ctx context.Context, topic uuid.UUID, newParent *uuid.UUID, height int, lookup TopicLookup) error {
	if newParent == nil {
		if height > MaxTopicDepth {
			return ErrInvalidParent
		}
		return nil
	}
	current := *newParent
	// level is the depth of current, counted from newParent upwards
	for level := 1; level+height <= MaxTopicDepth; level++ {
		if current == topic {
			return ErrInvalidParent
		}
		ancestor, err := lookup(ctx, current)
		if err != nil {
			if errors.Is(err, ErrTopicNotFound) {
				return ErrInvalidParent
			}
			return err
		}
		if ancestor.Parent == nil {
			return nil
		}
		current = *ancestor.Parent
	}
	return ErrInvalidParent
}
