package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/grandigitals/superteam-academy/core"
	"github.com/grandigitals/superteam-academy/ports"
)

type memoryEnrollment struct {
	bitmap          core.Bitmap
	lessonCount     int
	xpPerLesson     uint64
	xpEarned        uint64
	enrolledAt      time.Time
	completedAt     *time.Time
	credentialAsset string
}

// MemoryLedger is an in-memory implementation of the ProgressLedger
// interface for the ephemeral backend and tests. All state is lost on
// restart.
type MemoryLedger struct {
	catalog  ports.CourseCatalog
	profiles ports.ProfileStore

	mu          sync.Mutex
	enrollments map[string]map[string]*memoryEnrollment // wallet -> courseID
	xp          map[string]uint64
	streaks     map[string]*core.StreakRecord
	activeDays  map[string]map[string]bool // wallet -> YYYY-MM-DD

	now func() time.Time
}

// NewMemoryLedger creates a new in-memory ledger. The profile store is
// consulted for leaderboard display names and may be nil.
func NewMemoryLedger(catalog ports.CourseCatalog, profiles ports.ProfileStore) *MemoryLedger {
	return &MemoryLedger{
		catalog:     catalog,
		profiles:    profiles,
		enrollments: make(map[string]map[string]*memoryEnrollment),
		xp:          make(map[string]uint64),
		streaks:     make(map[string]*core.StreakRecord),
		activeDays:  make(map[string]map[string]bool),
		now:         time.Now,
	}
}

// Enroll creates the progress record for a (wallet, course) pair.
// Enrolling twice returns the existing record unchanged.
func (l *MemoryLedger) Enroll(ctx context.Context, wallet, courseID string) (*core.CourseProgress, error) {
	course, err := l.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Active {
		return nil, fmt.Errorf("%w: %s", core.ErrCourseInactive, courseID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	byCourse := l.enrollments[wallet]
	if byCourse == nil {
		byCourse = make(map[string]*memoryEnrollment)
		l.enrollments[wallet] = byCourse
	}
	rec, exists := byCourse[courseID]
	if !exists {
		rec = &memoryEnrollment{
			lessonCount: course.LessonCount,
			xpPerLesson: course.XPPerLesson,
			enrolledAt:  l.now(),
		}
		byCourse[courseID] = rec
	}
	return l.toProgress(wallet, courseID, rec), nil
}

// CompleteLesson marks one lesson complete. The first call for a given
// (wallet, course, lessonIndex) awards XP and advances the streak; every
// later call returns XPEarned 0 and the unchanged total.
func (l *MemoryLedger) CompleteLesson(ctx context.Context, wallet, courseID string, lessonIndex int) (*core.CompletionResult, error) {
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

	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.enrollments[wallet][courseID]
	if rec == nil {
		return nil, core.ErrNotEnrolled
	}

	if rec.bitmap.IsSet(lessonIndex) {
		return &core.CompletionResult{XPEarned: 0, TotalXP: l.xp[wallet]}, nil
	}

	rec.bitmap = rec.bitmap.Set(lessonIndex)
	rec.xpEarned += course.XPPerLesson
	l.xp[wallet] += course.XPPerLesson
	l.touchStreak(wallet)

	return &core.CompletionResult{
		XPEarned: course.XPPerLesson,
		TotalXP:  l.xp[wallet],
	}, nil
}

// MarkCourseCompleted stamps the completion time after a finalize.
func (l *MemoryLedger) MarkCourseCompleted(ctx context.Context, wallet, courseID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.enrollments[wallet][courseID]
	if rec == nil {
		return core.ErrNotEnrolled
	}
	if rec.completedAt == nil {
		now := l.now()
		rec.completedAt = &now
	}
	return nil
}

// GetCourseProgress returns nil without error when no record exists.
func (l *MemoryLedger) GetCourseProgress(ctx context.Context, wallet, courseID string) (*core.CourseProgress, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.enrollments[wallet][courseID]
	if rec == nil {
		return nil, nil
	}
	return l.toProgress(wallet, courseID, rec), nil
}

func (l *MemoryLedger) GetAllProgress(ctx context.Context, wallet string) ([]core.CourseProgress, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	byCourse := l.enrollments[wallet]
	out := make([]core.CourseProgress, 0, len(byCourse))
	for courseID, rec := range byCourse {
		out = append(out, *l.toProgress(wallet, courseID, rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseID < out[j].CourseID })
	return out, nil
}

func (l *MemoryLedger) GetXPBalance(ctx context.Context, wallet string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.xp[wallet], nil
}

func (l *MemoryLedger) GetStreakData(ctx context.Context, wallet string) (*core.StreakData, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data := &core.StreakData{}
	if rec := l.streaks[wallet]; rec != nil {
		data.Current = rec.Current
		data.Longest = rec.Longest
		if rec.LastActive != "" {
			if t, err := time.Parse("2006-01-02", rec.LastActive); err == nil {
				data.LastActive = &t
			}
		}
	}

	now := l.now()
	days := l.activeDays[wallet]
	for i := 6; i >= 0; i-- {
		day := core.DateKey(now.AddDate(0, 0, -i))
		data.History = append(data.History, core.StreakDay{
			Date:      day,
			Completed: days[day],
		})
	}
	return data, nil
}

func (l *MemoryLedger) GetLeaderboard(ctx context.Context, limit int) ([]core.LeaderboardEntry, error) {
	l.mu.Lock()
	type row struct {
		wallet string
		xp     uint64
	}
	rows := make([]row, 0, len(l.xp))
	for wallet, xp := range l.xp {
		rows = append(rows, row{wallet: wallet, xp: xp})
	}
	l.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].xp != rows[j].xp {
			return rows[i].xp > rows[j].xp
		}
		return rows[i].wallet < rows[j].wallet
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	entries := make([]core.LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		entry := core.LeaderboardEntry{
			Rank:   i + 1,
			Wallet: r.wallet,
			XP:     r.xp,
			Level:  core.Level(r.xp),
		}
		if l.profiles != nil {
			if profile, err := l.profiles.Get(ctx, r.wallet); err == nil && profile != nil {
				entry.DisplayName = profile.DisplayName
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// RecordActivity advances the streak and marks today active without a
// completion record. Chain-backed ledgers use it to mirror on-chain
// completions.
func (l *MemoryLedger) RecordActivity(ctx context.Context, wallet string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touchStreak(wallet)
	return nil
}

// touchStreak is called with the lock held.
func (l *MemoryLedger) touchStreak(wallet string) {
	rec := l.streaks[wallet]
	if rec == nil {
		rec = &core.StreakRecord{}
		l.streaks[wallet] = rec
	}
	now := l.now()
	core.AdvanceStreak(rec, now)

	days := l.activeDays[wallet]
	if days == nil {
		days = make(map[string]bool)
		l.activeDays[wallet] = days
	}
	days[core.DateKey(now)] = true
}

// toProgress is called with the lock held.
func (l *MemoryLedger) toProgress(wallet, courseID string, rec *memoryEnrollment) *core.CourseProgress {
	return &core.CourseProgress{
		CourseID:         courseID,
		Wallet:           wallet,
		CompletedLessons: rec.bitmap.SetIndices(rec.lessonCount),
		LessonCount:      rec.lessonCount,
		XPEarned:         rec.xpEarned,
		EnrolledAt:       rec.enrolledAt,
		CompletedAt:      rec.completedAt,
		CredentialAsset:  rec.credentialAsset,
	}
}
