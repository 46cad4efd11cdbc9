package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/grandigitals/superteam-academy/core"
)

func newTestGormLedger(t *testing.T) *GormLedger {
	t.Helper()
	// A named shared-cache database keeps every pooled connection on the
	// same in-memory store, isolated per test.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	l, err := NewGormLedger(db, testCatalog())
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return l
}

func TestGormCompleteLessonIsIdempotent(t *testing.T) {
	l := newTestGormLedger(t)
	ctx := context.Background()

	_, err := l.Enroll(ctx, testWallet, "solana-101")
	require.NoError(t, err)

	first, err := l.CompleteLesson(ctx, testWallet, "solana-101", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), first.XPEarned)

	second, err := l.CompleteLesson(ctx, testWallet, "solana-101", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), second.XPEarned)
	assert.Equal(t, uint64(50), second.TotalXP)
}

func TestGormCompleteLessonRequiresEnrollment(t *testing.T) {
	l := newTestGormLedger(t)

	_, err := l.CompleteLesson(context.Background(), testWallet, "solana-101", 0)
	assert.ErrorIs(t, err, core.ErrNotEnrolled)
}

func TestGormXPBalanceMatchesGrants(t *testing.T) {
	l := newTestGormLedger(t)
	ctx := context.Background()

	_, err := l.Enroll(ctx, testWallet, "solana-101")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := l.CompleteLesson(ctx, testWallet, "solana-101", i)
		require.NoError(t, err)
	}
	// Replay one; the balance must not move.
	_, err = l.CompleteLesson(ctx, testWallet, "solana-101", 2)
	require.NoError(t, err)

	xp, err := l.GetXPBalance(ctx, testWallet)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), xp)

	progress, err := l.GetCourseProgress(ctx, testWallet, "solana-101")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, progress.CompletedLessons)
	assert.Equal(t, uint64(200), progress.XPEarned)
}

func TestGormEnrollIsIdempotent(t *testing.T) {
	l := newTestGormLedger(t)
	ctx := context.Background()

	first, err := l.Enroll(ctx, testWallet, "solana-101")
	require.NoError(t, err)
	second, err := l.Enroll(ctx, testWallet, "solana-101")
	require.NoError(t, err)

	assert.Equal(t, first.EnrolledAt.Unix(), second.EnrolledAt.Unix())

	all, err := l.GetAllProgress(ctx, testWallet)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGormStreakSingleIncrementPerDay(t *testing.T) {
	l := newTestGormLedger(t)
	ctx := context.Background()

	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return day }

	_, err := l.Enroll(ctx, testWallet, "solana-101")
	require.NoError(t, err)

	_, err = l.CompleteLesson(ctx, testWallet, "solana-101", 0)
	require.NoError(t, err)
	_, err = l.CompleteLesson(ctx, testWallet, "solana-101", 1)
	require.NoError(t, err)

	streak, err := l.GetStreakData(ctx, testWallet)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.Current)

	day = day.AddDate(0, 0, 1)
	_, err = l.CompleteLesson(ctx, testWallet, "solana-101", 2)
	require.NoError(t, err)

	streak, err = l.GetStreakData(ctx, testWallet)
	require.NoError(t, err)
	assert.Equal(t, 2, streak.Current)
	require.Len(t, streak.History, 7)
	assert.True(t, streak.History[6].Completed)
	assert.True(t, streak.History[5].Completed)
	assert.False(t, streak.History[4].Completed)
}

func TestGormLeaderboardAndProfiles(t *testing.T) {
	l := newTestGormLedger(t)
	ctx := context.Background()

	_, err := l.Upsert(ctx, "wallet-a")
	require.NoError(t, err)
	_, err = l.Upsert(ctx, "wallet-b")
	require.NoError(t, err)

	for _, w := range []string{"wallet-a", "wallet-b"} {
		_, err := l.Enroll(ctx, w, "solana-101")
		require.NoError(t, err)
	}
	_, err = l.CompleteLesson(ctx, "wallet-a", "solana-101", 0)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := l.CompleteLesson(ctx, "wallet-b", "solana-101", i)
		require.NoError(t, err)
	}

	board, err := l.GetLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "wallet-b", board[0].Wallet)
	assert.Equal(t, uint64(150), board[0].XP)
	assert.Equal(t, "wallet-a", board[1].Wallet)
	assert.Equal(t, 2, board[1].Rank)
}

func TestGormProfileUpsertIsStable(t *testing.T) {
	l := newTestGormLedger(t)
	ctx := context.Background()

	first, err := l.Upsert(ctx, testWallet)
	require.NoError(t, err)
	second, err := l.Upsert(ctx, testWallet)
	require.NoError(t, err)

	assert.Equal(t, first.JoinedAt.Unix(), second.JoinedAt.Unix())

	missing, err := l.Get(ctx, "unknown-wallet")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGormMarkCourseCompleted(t *testing.T) {
	l := newTestGormLedger(t)
	ctx := context.Background()

	_, err := l.Enroll(ctx, testWallet, "solana-101")
	require.NoError(t, err)

	require.NoError(t, l.MarkCourseCompleted(ctx, testWallet, "solana-101"))
	// Stamping again is harmless and keeps the original timestamp.
	require.NoError(t, l.MarkCourseCompleted(ctx, testWallet, "solana-101"))

	progress, err := l.GetCourseProgress(ctx, testWallet, "solana-101")
	require.NoError(t, err)
	assert.NotNil(t, progress.CompletedAt)

	assert.ErrorIs(t, l.MarkCourseCompleted(ctx, testWallet, "big-course"), core.ErrNotEnrolled)
}
