package services

import (
	"context"

	"github.com/fastygo/remindbot/domain"
)

// Notifier delivers a text message to a user.
type Notifier interface {
	Send(ctx context.Context, userID int64, text string) error
}

// FailureRecorder keeps a record of notifications that could not be delivered.
// Recorded failures are reported, never retried.
type FailureRecorder interface {
	Record(ctx context.Context, decision domain.Decision, cause error) error
}
