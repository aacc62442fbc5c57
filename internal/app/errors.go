package app

import "errors"

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrUnknownStore      = errors.New("unknown status store driver")
	ErrQueueNameRequired = errors.New("queue and dead-letter queue names are required")
	ErrQueueNameConflict = errors.New("dead-letter queue must differ from its main queue")
	ErrUnsupportedMedia  = errors.New("content type must be application/json")
	ErrInvalidJSON       = errors.New("invalid JSON body")
	ErrUserIDRequired    = errors.New("user id is required")
)
