package ports

import (
	"context"

	"github.com/grandigitals/superteam-academy/core"
)

// ProgressLedger records lesson completions per (wallet, course) pair and
// derives XP and streak aggregates. CompleteLesson is idempotent: the
// first call for a given (wallet, course, lessonIndex) awards XP, every
// later call returns XPEarned 0 and the unchanged total.
type ProgressLedger interface {
	Enroll(ctx context.Context, wallet, courseID string) (*core.CourseProgress, error)

	CompleteLesson(ctx context.Context, wallet, courseID string, lessonIndex int) (*core.CompletionResult, error)

	// MarkCourseCompleted stamps the completion time on the progress
	// record after a successful finalize.
	MarkCourseCompleted(ctx context.Context, wallet, courseID string) error

	// GetCourseProgress returns nil without error when no record exists.
	GetCourseProgress(ctx context.Context, wallet, courseID string) (*core.CourseProgress, error)

	GetAllProgress(ctx context.Context, wallet string) ([]core.CourseProgress, error)

	// GetXPBalance always equals the sum of recorded grants for the wallet.
	GetXPBalance(ctx context.Context, wallet string) (uint64, error)

	GetStreakData(ctx context.Context, wallet string) (*core.StreakData, error)

	GetLeaderboard(ctx context.Context, limit int) ([]core.LeaderboardEntry, error)
}

// ProfileStore keeps the per-wallet profile rows upserted on sign-in.
type ProfileStore interface {
	// Upsert creates the wallet's profile row if absent and returns it.
	Upsert(ctx context.Context, wallet string) (*core.UserProfile, error)
	Get(ctx context.Context, wallet string) (*core.UserProfile, error)
}
