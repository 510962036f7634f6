package agent

import "errors"

var (
	// ErrCompleterRequired is returned when a chat model is not provided.
	ErrCompleterRequired = errors.New("completer required")

	// ErrHistoryRequired is returned when a history repository is not provided.
	ErrHistoryRequired = errors.New("history repository required")

	// ErrNoTools is returned when an executor is built without any tools.
	ErrNoTools = errors.New("at least one tool required")

	// ErrInvalidIterations is returned for a non-positive iteration cap.
	ErrInvalidIterations = errors.New("iteration cap must be positive")

	// ErrEmptyUserID is returned when a session is requested without a user id.
	ErrEmptyUserID = errors.New("user id required")

	// ErrEmptyMessage is returned when a turn is started with no input.
	ErrEmptyMessage = errors.New("message required")
)
