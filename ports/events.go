package ports

import (
	"context"

	"github.com/grandigitals/superteam-academy/core"
)

// EventPublisher notifies other components about reward-relevant activity.
// Publishing is best-effort: the ledger write is the source of truth and
// a failed publish never fails the operation that triggered it.
type EventPublisher interface {
	PublishLessonCompleted(ctx context.Context, event core.LessonCompletedEvent) error
	PublishCourseFinalized(ctx context.Context, event core.CourseFinalizedEvent) error
	PublishCredential(ctx context.Context, event core.CredentialEvent) error
	PublishLogout(ctx context.Context, wallet, tokenID string) error
}
