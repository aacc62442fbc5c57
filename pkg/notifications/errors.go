package notifications

import "errors"

var (
	// ErrRecordNotFound is returned when no record matches a lookup.
	ErrRecordNotFound = errors.New("notification record not found")

	// ErrTargetRequired is returned when a record or lookup has no target.
	ErrTargetRequired = errors.New("notification target is required")

	// ErrInvalidChannel is returned for an unknown delivery channel.
	ErrInvalidChannel = errors.New("invalid notification channel")

	// ErrInvalidStatus is returned for an unknown status.
	ErrInvalidStatus = errors.New("invalid notification status")

	// ErrStorageFailure wraps errors returned by the underlying database.
	ErrStorageFailure = errors.New("notification storage failure")

	// ErrPublishFailed is returned when a notification could not be queued.
	ErrPublishFailed = errors.New("failed to queue notification")

	// ErrInvalidPayload is returned when a payload fails validation or decoding.
	ErrInvalidPayload = errors.New("invalid notification payload")

	// ErrDeliveryFailed is returned by handlers when the transport failed.
	ErrDeliveryFailed = errors.New("notification delivery failed")
)
