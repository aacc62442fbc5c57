package notifications

import (
	"context"
)

// Storage persists notification records and their status.
//
// Lookups by (target, label) resolve to the most recently created record with
// that pair. Distinct notifications sharing the pair alias each other.
type Storage interface {
	// Create inserts a record. ID and CreatedAt are generated when empty and
	// Status defaults to queued.
	Create(ctx context.Context, rec Record) error

	// UpsertStatus sets the status of the latest record for (target, label), or
	// creates one when none exists. A status the current one cannot move to is
	// ignored. UpdatedAt is refreshed either way.
	UpsertStatus(ctx context.Context, target, label string, status Status, opts ...UpsertOption) error

	// Latest returns the most recent record for (target, label).
	Latest(ctx context.Context, target, label string) (Record, error)

	// Ping checks the storage backend is reachable.
	Ping(ctx context.Context) error
}

// UpsertOption sets fields used only when UpsertStatus has to create a record.
type UpsertOption func(*Record)

// WithChannel sets the channel of a record created by UpsertStatus.
func WithChannel(c Channel) UpsertOption {
	return func(r *Record) {
		if c.Valid() {
			r.Channel = c
		}
	}
}

// WithTemplateName sets the template of a record created by UpsertStatus.
func WithTemplateName(name string) UpsertOption {
	return func(r *Record) {
		r.TemplateName = name
	}
}

// WithData sets the data of a record created by UpsertStatus.
func WithData(data map[string]any) UpsertOption {
	return func(r *Record) {
		r.Data = data
	}
}

// newUpsertRecord builds the record inserted when UpsertStatus finds nothing.
func newUpsertRecord(target, label string, status Status, opts []UpsertOption) Record {
	rec := Record{
		Channel: ChannelEmail,
		Target:  target,
		Label:   label,
		Status:  status,
	}
	for _, opt := range opts {
		opt(&rec)
	}
	return rec
}

func validateUpsert(target string, status Status) error {
	if target == "" {
		return ErrTargetRequired
	}
	if !status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}
