package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grandigitals/superteam-academy/adapters/catalog"
	"github.com/grandigitals/superteam-academy/adapters/ledger"
	"github.com/grandigitals/superteam-academy/core"
)

const rewardsWallet = "4Nd1mYvH6kZKhmqWZQw7XckDQ8qcVcRX5f2kDuKwD9mB"

type capturingPublisher struct {
	nullPublisher
	lessons   []core.LessonCompletedEvent
	finalized []core.CourseFinalizedEvent
}

func (p *capturingPublisher) PublishLessonCompleted(ctx context.Context, e core.LessonCompletedEvent) error {
	p.lessons = append(p.lessons, e)
	return nil
}

func (p *capturingPublisher) PublishCourseFinalized(ctx context.Context, e core.CourseFinalizedEvent) error {
	p.finalized = append(p.finalized, e)
	return nil
}

func newTestRewardsService() (*RewardsService, *capturingPublisher) {
	cat := catalog.NewStaticCatalog([]core.Course{
		{ID: "solana-101", Creator: "creator", LessonCount: 3, XPPerLesson: 50, Track: "fundamentals", Active: true},
	})
	pub := &capturingPublisher{}
	l := ledger.NewMemoryLedger(cat, ledger.NewMemoryProfiles())
	return NewRewardsService(cat, l, nil, nil, nil, pub), pub
}

func TestCompleteLessonPublishesOnlyOnFirstCompletion(t *testing.T) {
	s, pub := newTestRewardsService()
	ctx := context.Background()

	_, err := s.Enroll(ctx, rewardsWallet, "solana-101")
	require.NoError(t, err)

	res, err := s.CompleteLesson(ctx, rewardsWallet, "solana-101", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), res.XPEarned)
	assert.Len(t, pub.lessons, 1)

	res, err = s.CompleteLesson(ctx, rewardsWallet, "solana-101", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.XPEarned)
	assert.Len(t, pub.lessons, 1, "replays must not publish")
}

func TestFinalizeCourseRequiresFullCompletion(t *testing.T) {
	s, _ := newTestRewardsService()
	ctx := context.Background()

	_, err := s.FinalizeCourse(ctx, rewardsWallet, "solana-101", "")
	assert.ErrorIs(t, err, core.ErrNotEnrolled)

	_, err = s.Enroll(ctx, rewardsWallet, "solana-101")
	require.NoError(t, err)

	_, err = s.CompleteLesson(ctx, rewardsWallet, "solana-101", 0)
	require.NoError(t, err)

	_, err = s.FinalizeCourse(ctx, rewardsWallet, "solana-101", "")
	assert.ErrorIs(t, err, core.ErrCourseIncomplete)
}

func TestFinalizeCourseRejectsCreatorMismatch(t *testing.T) {
	s, pub := newTestRewardsService()
	ctx := context.Background()

	_, err := s.Enroll(ctx, rewardsWallet, "solana-101")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := s.CompleteLesson(ctx, rewardsWallet, "solana-101", i)
		require.NoError(t, err)
	}

	_, err = s.FinalizeCourse(ctx, rewardsWallet, "solana-101", "someone-else")
	assert.ErrorIs(t, err, core.ErrInvalidAddress)
	assert.Empty(t, pub.finalized, "a rejected finalize must not publish")

	// The catalog's creator is accepted.
	_, err = s.FinalizeCourse(ctx, rewardsWallet, "solana-101", "creator")
	require.NoError(t, err)
	assert.Len(t, pub.finalized, 1)
}

func TestFinalizeCourseHappyPathAndReplay(t *testing.T) {
	s, pub := newTestRewardsService()
	ctx := context.Background()

	_, err := s.Enroll(ctx, rewardsWallet, "solana-101")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := s.CompleteLesson(ctx, rewardsWallet, "solana-101", i)
		require.NoError(t, err)
	}

	_, err = s.FinalizeCourse(ctx, rewardsWallet, "solana-101", "")
	require.NoError(t, err)
	assert.Len(t, pub.finalized, 1)

	_, err = s.FinalizeCourse(ctx, rewardsWallet, "solana-101", "")
	assert.ErrorIs(t, err, core.ErrAlreadyFinalized)
}

func TestCredentialOperationsNeedChainBackend(t *testing.T) {
	s, _ := newTestRewardsService()
	ctx := context.Background()

	_, err := s.IssueCredential(ctx, core.CredentialRequest{
		Wallet: rewardsWallet, CourseID: "solana-101", Track: "fundamentals",
	})
	assert.ErrorIs(t, err, core.ErrModeNotSupported)

	_, err = s.GetCredentials(ctx, rewardsWallet)
	assert.ErrorIs(t, err, core.ErrModeNotSupported)
}

func TestUnknownCourseSurfacesBeforeSideEffects(t *testing.T) {
	s, pub := newTestRewardsService()
	ctx := context.Background()

	_, err := s.CompleteLesson(ctx, rewardsWallet, "missing", 0)
	assert.ErrorIs(t, err, core.ErrCourseNotFound)
	assert.Empty(t, pub.lessons)

	_, err = s.FinalizeCourse(ctx, rewardsWallet, "missing", "")
	assert.ErrorIs(t, err, core.ErrCourseNotFound)
}
