package domain

import "errors"

var (
	// ErrInvalidQuestionIndex is returned for a non-integer or out-of-range question index.
	ErrInvalidQuestionIndex = errors.New("invalid question index")
	// ErrUnrecognizedQuestionType signals a stored question whose kind matches no variant.
	ErrUnrecognizedQuestionType = errors.New("unrecognized question type")
	// ErrInvalidQuestion is returned when authored question content breaks a variant invariant.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidName is returned for an empty quiz or topic name.
	ErrInvalidName = errors.New("name is required")
	// ErrInvalidParent rejects a parent that is missing, foreign or would create a cycle.
	ErrInvalidParent = errors.New("invalid parent topic")
	// ErrInvalidTopic rejects attaching a quiz to a topic that is missing or foreign.
	ErrInvalidTopic = errors.New("invalid topic")
	// ErrMaxDepthExceeded stops a topic traversal that went deeper than MaxTopicDepth.
	ErrMaxDepthExceeded = errors.New("topic tree exceeds maximum depth")
	// ErrNotOwned is returned when a user acts on a quiz or topic they did not create.
	ErrNotOwned = errors.New("not owned by user")

	// ErrQuizNotFound indicates the quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrTopicNotFound indicates the topic does not exist.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidEmail rejects registration with a malformed address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrWeakPassword rejects registration with a password below MinPasswordLength.
	ErrWeakPassword = errors.New("password is too short")

	// ErrStorage wraps any persistence failure.
	ErrStorage = errors.New("storage error")
	// ErrPartialWrite marks a multi-step write that stopped after its first step succeeded.
	ErrPartialWrite = errors.New("partial write")
)
