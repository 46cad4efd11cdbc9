package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/grandigitals/superteam-academy/core"
	solbridge "github.com/grandigitals/superteam-academy/internal/solana"
	"github.com/grandigitals/superteam-academy/ports"
)

// activityMirror is the off-chain bookkeeping the chain cannot provide:
// streaks and the leaderboard. Both the gorm and memory ledgers satisfy it.
type activityMirror interface {
	RecordActivity(ctx context.Context, wallet string) error
	GetStreakData(ctx context.Context, wallet string) (*core.StreakData, error)
	GetLeaderboard(ctx context.Context, limit int) ([]core.LeaderboardEntry, error)
}

// progressBridge is the slice of the custodial bridge this ledger needs.
// *solbridge.Bridge satisfies it.
type progressBridge interface {
	FetchEnrollment(ctx context.Context, wallet, courseID string) (*solbridge.EnrollmentAccount, error)
	FetchEnrollmentsByLearner(ctx context.Context, wallet string) ([]*solbridge.EnrollmentAccount, error)
	EnsureRewardAccount(ctx context.Context, wallet string) (string, error)
	CompleteLessonOnChain(ctx context.Context, wallet, courseID string, lessonIndex int) (string, bool, error)
	XPBalance(ctx context.Context, wallet string) (uint64, error)
}

// ChainLedger reads progress from enrollment PDAs and XP from the
// Token-2022 balance, and routes mutations through the custodial bridge.
// The chain is the source of truth; the mirror only tracks streaks and
// rankings, which have no on-chain representation.
type ChainLedger struct {
	bridge  progressBridge
	catalog ports.CourseCatalog
	mirror  activityMirror
}

// NewChainLedger creates a chain-backed ledger.
func NewChainLedger(bridge progressBridge, catalog ports.CourseCatalog, mirror activityMirror) *ChainLedger {
	return &ChainLedger{bridge: bridge, catalog: catalog, mirror: mirror}
}

// Enroll is not custodial: the enrollment PDA is created by the learner's
// own wallet transaction, so the backend cannot perform it.
func (l *ChainLedger) Enroll(ctx context.Context, wallet, courseID string) (*core.CourseProgress, error) {
	return nil, fmt.Errorf("%w: enrollment is signed by the learner wallet", core.ErrModeNotSupported)
}

// CompleteLesson checks the on-chain bitmap first so replays return
// XPEarned 0 without paying for a transaction, then submits through the
// bridge and mirrors the activity for streak tracking.
func (l *ChainLedger) CompleteLesson(ctx context.Context, wallet, courseID string, lessonIndex int) (*core.CompletionResult, error) {
	course, err := l.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Active {
		return nil, fmt.Errorf("%w: %s", core.ErrCourseInactive, courseID)
	}
	if lessonIndex < 0 || lessonIndex >= course.LessonCount || lessonIndex >= core.BitmapCapacity {
		return nil, fmt.Errorf("%w: index %d, course has %d lessons", core.ErrLessonOutOfRange, lessonIndex, course.LessonCount)
	}

	enrollment, err := l.bridge.FetchEnrollment(ctx, wallet, courseID)
	if err != nil {
		return nil, err
	}
	if core.Bitmap(enrollment.LessonFlags).IsSet(lessonIndex) {
		total, err := l.bridge.XPBalance(ctx, wallet)
		if err != nil {
			return nil, err
		}
		return &core.CompletionResult{XPEarned: 0, TotalXP: total}, nil
	}

	if _, err := l.bridge.EnsureRewardAccount(ctx, wallet); err != nil {
		return nil, err
	}

	sig, applied, err := l.bridge.CompleteLessonOnChain(ctx, wallet, courseID, lessonIndex)
	if err != nil && !errors.Is(err, core.ErrTxUnconfirmed) {
		return nil, err
	}
	if !applied {
		// A concurrent request won the race after the bitmap pre-check;
		// the program rejected this one, so no XP was minted for it.
		total, balErr := l.bridge.XPBalance(ctx, wallet)
		if balErr != nil {
			return nil, balErr
		}
		return &core.CompletionResult{XPEarned: 0, TotalXP: total}, nil
	}
	unconfirmed := errors.Is(err, core.ErrTxUnconfirmed)

	// Streak bookkeeping must not undo a landed chain write.
	if mirrorErr := l.mirror.RecordActivity(ctx, wallet); mirrorErr != nil {
		fmt.Printf("Warning: Failed to mirror activity: %v\n", mirrorErr)
	}

	total, balErr := l.bridge.XPBalance(ctx, wallet)
	if balErr != nil {
		total = 0
	}
	result := &core.CompletionResult{
		XPEarned:    course.XPPerLesson,
		TotalXP:     total,
		TxSignature: sig,
	}
	if unconfirmed {
		return result, err
	}
	return result, nil
}

// MarkCourseCompleted is a no-op: finalize_course stamps the completion
// timestamp inside the enrollment account itself.
func (l *ChainLedger) MarkCourseCompleted(ctx context.Context, wallet, courseID string) error {
	return nil
}

// GetCourseProgress decodes the enrollment PDA. A missing account means
// the learner never enrolled, reported as no record rather than an error.
func (l *ChainLedger) GetCourseProgress(ctx context.Context, wallet, courseID string) (*core.CourseProgress, error) {
	enrollment, err := l.bridge.FetchEnrollment(ctx, wallet, courseID)
	if err != nil {
		if errors.Is(err, core.ErrNotEnrolled) {
			return nil, nil
		}
		return nil, err
	}
	course, err := l.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return toChainProgress(wallet, enrollment, course.XPPerLesson), nil
}

// GetAllProgress lists the learner's enrollment accounts. Enrollment PDAs
// embed a variable-length course ID before the learner key, so the filter
// runs client-side after decoding.
func (l *ChainLedger) GetAllProgress(ctx context.Context, wallet string) ([]core.CourseProgress, error) {
	enrollments, err := l.bridge.FetchEnrollmentsByLearner(ctx, wallet)
	if err != nil {
		return nil, err
	}

	out := make([]core.CourseProgress, 0, len(enrollments))
	for _, enrollment := range enrollments {
		var xpPerLesson uint64
		if course, err := l.catalog.GetCourse(ctx, enrollment.CourseID); err == nil {
			xpPerLesson = course.XPPerLesson
		}
		out = append(out, *toChainProgress(wallet, enrollment, xpPerLesson))
	}
	return out, nil
}

// GetXPBalance reads the Token-2022 XP balance.
func (l *ChainLedger) GetXPBalance(ctx context.Context, wallet string) (uint64, error) {
	return l.bridge.XPBalance(ctx, wallet)
}

// GetStreakData delegates to the off-chain mirror.
func (l *ChainLedger) GetStreakData(ctx context.Context, wallet string) (*core.StreakData, error) {
	return l.mirror.GetStreakData(ctx, wallet)
}

// GetLeaderboard delegates to the off-chain mirror.
func (l *ChainLedger) GetLeaderboard(ctx context.Context, limit int) ([]core.LeaderboardEntry, error) {
	return l.mirror.GetLeaderboard(ctx, limit)
}

func toChainProgress(wallet string, enrollment *solbridge.EnrollmentAccount, xpPerLesson uint64) *core.CourseProgress {
	bitmap := core.Bitmap(enrollment.LessonFlags)
	progress := &core.CourseProgress{
		CourseID:         enrollment.CourseID,
		Wallet:           wallet,
		CompletedLessons: bitmap.SetIndices(int(enrollment.LessonCount)),
		LessonCount:      int(enrollment.LessonCount),
		XPEarned:         uint64(bitmap.Count()) * xpPerLesson,
		EnrolledAt:       time.Unix(enrollment.EnrolledAt, 0).UTC(),
	}
	if enrollment.CompletedAt != nil {
		t := time.Unix(*enrollment.CompletedAt, 0).UTC()
		progress.CompletedAt = &t
	}
	if enrollment.CredentialAsset != nil {
		progress.CredentialAsset = enrollment.CredentialAsset.String()
	}
	return progress
}
