package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/grandigitals/superteam-academy/core"
	"github.com/grandigitals/superteam-academy/ports"
)

// User is the per-wallet profile row.
type User struct {
	Wallet      string `gorm:"primaryKey;size:64"`
	DisplayName string `gorm:"size:64"`
	JoinedAt    time.Time
}

// Enrollment is the per-(wallet, course) progress record.
type Enrollment struct {
	ID              uint   `gorm:"primaryKey"`
	Wallet          string `gorm:"size:64;uniqueIndex:idx_enrollment_pair"`
	CourseID        string `gorm:"size:64;uniqueIndex:idx_enrollment_pair"`
	LessonCount     int
	XPPerLesson     uint64
	EnrolledAt      time.Time
	CompletedAt     *time.Time
	CredentialAsset string `gorm:"size:64"`
}

// LessonCompletion is one immutable completion fact. The composite unique
// index is what makes CompleteLesson idempotent: the database, not the
// application, arbitrates concurrent duplicates.
type LessonCompletion struct {
	ID          uint   `gorm:"primaryKey"`
	Wallet      string `gorm:"size:64;uniqueIndex:idx_completion_key"`
	CourseID    string `gorm:"size:64;uniqueIndex:idx_completion_key"`
	LessonIndex int    `gorm:"uniqueIndex:idx_completion_key"`
	DayKey      string `gorm:"size:10;index"`
	CreatedAt   time.Time
}

// XPGrant is one immutable XP award, written only when the matching
// completion row was actually inserted.
type XPGrant struct {
	ID          uint   `gorm:"primaryKey"`
	Wallet      string `gorm:"size:64;index"`
	CourseID    string `gorm:"size:64"`
	LessonIndex int
	Amount      uint64
	CreatedAt   time.Time
}

// Streak is the mutable per-wallet streak row.
type Streak struct {
	Wallet     string `gorm:"primaryKey;size:64"`
	Current    int
	Longest    int
	LastActive string `gorm:"size:10"`
}

// ActivityDay marks one calendar day of activity per wallet. It feeds the
// streak history and is written on every XP-earning action, including
// chain-mode completions that bypass the completion table.
type ActivityDay struct {
	ID     uint   `gorm:"primaryKey"`
	Wallet string `gorm:"size:64;uniqueIndex:idx_activity_day"`
	DayKey string `gorm:"size:10;uniqueIndex:idx_activity_day"`
}

// GormLedger is the durable ProgressLedger and ProfileStore, backed by
// postgres in production and sqlite in tests.
type GormLedger struct {
	db      *gorm.DB
	catalog ports.CourseCatalog
	now     func() time.Time
}

// NewGormLedger migrates the schema and returns the ledger.
func NewGormLedger(db *gorm.DB, catalog ports.CourseCatalog) (*GormLedger, error) {
	if err := db.AutoMigrate(&User{}, &Enrollment{}, &LessonCompletion{}, &XPGrant{}, &Streak{}, &ActivityDay{}); err != nil {
		return nil, fmt.Errorf("migrate ledger schema: %w", err)
	}
	return &GormLedger{db: db, catalog: catalog, now: time.Now}, nil
}

// Enroll creates the progress record for a (wallet, course) pair.
// Enrolling twice returns the existing record unchanged.
func (l *GormLedger) Enroll(ctx context.Context, wallet, courseID string) (*core.CourseProgress, error) {
	course, err := l.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Active {
		return nil, fmt.Errorf("%w: %s", core.ErrCourseInactive, courseID)
	}

	row := Enrollment{
		Wallet:      wallet,
		CourseID:    courseID,
		LessonCount: course.LessonCount,
		XPPerLesson: course.XPPerLesson,
		EnrolledAt:  l.now(),
	}
	err = l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("%w: enroll: %v", core.ErrStoreUnavailable, err)
	}
	return l.GetCourseProgress(ctx, wallet, courseID)
}

// CompleteLesson inserts the completion fact with ON CONFLICT DO NOTHING;
// whether any row landed decides whether XP is granted. The grant and the
// streak update share the transaction with the insert.
func (l *GormLedger) CompleteLesson(ctx context.Context, wallet, courseID string, lessonIndex int) (*core.CompletionResult, error) {
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

	now := l.now()
	var awarded uint64

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var enrollment Enrollment
		if err := tx.Where("wallet = ? AND course_id = ?", wallet, courseID).First(&enrollment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return core.ErrNotEnrolled
			}
			return err
		}

		completion := LessonCompletion{
			Wallet:      wallet,
			CourseID:    courseID,
			LessonIndex: lessonIndex,
			DayKey:      core.DateKey(now),
			CreatedAt:   now,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&completion)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race or replayed: nothing more to record.
			return nil
		}

		awarded = course.XPPerLesson
		grant := XPGrant{
			Wallet:      wallet,
			CourseID:    courseID,
			LessonIndex: lessonIndex,
			Amount:      awarded,
			CreatedAt:   now,
		}
		if err := tx.Create(&grant).Error; err != nil {
			return err
		}
		return l.recordActivityTx(tx, wallet, now)
	})
	if err != nil {
		if errors.Is(err, core.ErrNotEnrolled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: complete lesson: %v", core.ErrStoreUnavailable, err)
	}

	total, err := l.GetXPBalance(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return &core.CompletionResult{XPEarned: awarded, TotalXP: total}, nil
}

// RecordActivity advances the streak and marks today active without
// touching the completion tables. Chain-backed ledgers use it to mirror
// on-chain completions.
func (l *GormLedger) RecordActivity(ctx context.Context, wallet string) error {
	now := l.now()
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return l.recordActivityTx(tx, wallet, now)
	})
	if err != nil {
		return fmt.Errorf("%w: record activity: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

func (l *GormLedger) recordActivityTx(tx *gorm.DB, wallet string, now time.Time) error {
	day := ActivityDay{Wallet: wallet, DayKey: core.DateKey(now)}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&day).Error; err != nil {
		return err
	}
	return l.advanceStreak(tx, wallet, now)
}

func (l *GormLedger) advanceStreak(tx *gorm.DB, wallet string, now time.Time) error {
	var row Streak
	err := tx.Where("wallet = ?", wallet).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = Streak{Wallet: wallet}
	} else if err != nil {
		return err
	}

	rec := core.StreakRecord{Current: row.Current, Longest: row.Longest, LastActive: row.LastActive}
	if !core.AdvanceStreak(&rec, now) {
		return nil
	}
	row.Current = rec.Current
	row.Longest = rec.Longest
	row.LastActive = rec.LastActive
	return tx.Save(&row).Error
}

// MarkCourseCompleted stamps the completion time after a finalize.
func (l *GormLedger) MarkCourseCompleted(ctx context.Context, wallet, courseID string) error {
	now := l.now()
	res := l.db.WithContext(ctx).Model(&Enrollment{}).
		Where("wallet = ? AND course_id = ? AND completed_at IS NULL", wallet, courseID).
		Update("completed_at", now)
	if res.Error != nil {
		return fmt.Errorf("%w: mark completed: %v", core.ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := l.db.WithContext(ctx).Model(&Enrollment{}).
			Where("wallet = ? AND course_id = ?", wallet, courseID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("%w: mark completed: %v", core.ErrStoreUnavailable, err)
		}
		if count == 0 {
			return core.ErrNotEnrolled
		}
	}
	return nil
}

// SetCredentialAsset records the issued credential address on the
// enrollment row.
func (l *GormLedger) SetCredentialAsset(ctx context.Context, wallet, courseID, asset string) error {
	err := l.db.WithContext(ctx).Model(&Enrollment{}).
		Where("wallet = ? AND course_id = ?", wallet, courseID).
		Update("credential_asset", asset).Error
	if err != nil {
		return fmt.Errorf("%w: set credential asset: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// GetCourseProgress returns nil without error when no record exists.
func (l *GormLedger) GetCourseProgress(ctx context.Context, wallet, courseID string) (*core.CourseProgress, error) {
	var enrollment Enrollment
	err := l.db.WithContext(ctx).Where("wallet = ? AND course_id = ?", wallet, courseID).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load progress: %v", core.ErrStoreUnavailable, err)
	}
	return l.toProgress(ctx, &enrollment)
}

func (l *GormLedger) GetAllProgress(ctx context.Context, wallet string) ([]core.CourseProgress, error) {
	var enrollments []Enrollment
	err := l.db.WithContext(ctx).Where("wallet = ?", wallet).Order("course_id").Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("%w: load progress: %v", core.ErrStoreUnavailable, err)
	}

	out := make([]core.CourseProgress, 0, len(enrollments))
	for i := range enrollments {
		progress, err := l.toProgress(ctx, &enrollments[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *progress)
	}
	return out, nil
}

func (l *GormLedger) toProgress(ctx context.Context, enrollment *Enrollment) (*core.CourseProgress, error) {
	var indices []int
	err := l.db.WithContext(ctx).Model(&LessonCompletion{}).
		Where("wallet = ? AND course_id = ?", enrollment.Wallet, enrollment.CourseID).
		Order("lesson_index").
		Pluck("lesson_index", &indices).Error
	if err != nil {
		return nil, fmt.Errorf("%w: load completions: %v", core.ErrStoreUnavailable, err)
	}

	var earned uint64
	err = l.db.WithContext(ctx).Model(&XPGrant{}).
		Where("wallet = ? AND course_id = ?", enrollment.Wallet, enrollment.CourseID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&earned).Error
	if err != nil {
		return nil, fmt.Errorf("%w: sum grants: %v", core.ErrStoreUnavailable, err)
	}

	return &core.CourseProgress{
		CourseID:         enrollment.CourseID,
		Wallet:           enrollment.Wallet,
		CompletedLessons: indices,
		LessonCount:      enrollment.LessonCount,
		XPEarned:         earned,
		EnrolledAt:       enrollment.EnrolledAt,
		CompletedAt:      enrollment.CompletedAt,
		CredentialAsset:  enrollment.CredentialAsset,
	}, nil
}

// GetXPBalance sums the wallet's recorded grants.
func (l *GormLedger) GetXPBalance(ctx context.Context, wallet string) (uint64, error) {
	var total uint64
	err := l.db.WithContext(ctx).Model(&XPGrant{}).
		Where("wallet = ?", wallet).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("%w: sum grants: %v", core.ErrStoreUnavailable, err)
	}
	return total, nil
}

func (l *GormLedger) GetStreakData(ctx context.Context, wallet string) (*core.StreakData, error) {
	data := &core.StreakData{}

	var row Streak
	err := l.db.WithContext(ctx).Where("wallet = ?", wallet).First(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: load streak: %v", core.ErrStoreUnavailable, err)
	}
	if err == nil {
		data.Current = row.Current
		data.Longest = row.Longest
		if row.LastActive != "" {
			if t, parseErr := time.Parse("2006-01-02", row.LastActive); parseErr == nil {
				data.LastActive = &t
			}
		}
	}

	now := l.now()
	since := core.DateKey(now.AddDate(0, 0, -6))
	var activeDays []string
	err = l.db.WithContext(ctx).Model(&ActivityDay{}).
		Where("wallet = ? AND day_key >= ?", wallet, since).
		Pluck("day_key", &activeDays).Error
	if err != nil {
		return nil, fmt.Errorf("%w: load activity: %v", core.ErrStoreUnavailable, err)
	}
	active := make(map[string]bool, len(activeDays))
	for _, d := range activeDays {
		active[d] = true
	}
	for i := 6; i >= 0; i-- {
		day := core.DateKey(now.AddDate(0, 0, -i))
		data.History = append(data.History, core.StreakDay{Date: day, Completed: active[day]})
	}
	return data, nil
}

// GetLeaderboard ranks wallets by their summed grants.
func (l *GormLedger) GetLeaderboard(ctx context.Context, limit int) ([]core.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	type row struct {
		Wallet string
		Total  uint64
	}
	var rows []row
	err := l.db.WithContext(ctx).Model(&XPGrant{}).
		Select("wallet, SUM(amount) as total").
		Group("wallet").
		Order("total DESC, wallet ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: leaderboard: %v", core.ErrStoreUnavailable, err)
	}

	wallets := make([]string, len(rows))
	for i, r := range rows {
		wallets[i] = r.Wallet
	}
	names := make(map[string]string, len(wallets))
	if len(wallets) > 0 {
		var users []User
		if err := l.db.WithContext(ctx).Where("wallet IN ?", wallets).Find(&users).Error; err != nil {
			return nil, fmt.Errorf("%w: leaderboard names: %v", core.ErrStoreUnavailable, err)
		}
		for _, u := range users {
			names[u.Wallet] = u.DisplayName
		}
	}

	entries := make([]core.LeaderboardEntry, len(rows))
	for i, r := range rows {
		entries[i] = core.LeaderboardEntry{
			Rank:        i + 1,
			Wallet:      r.Wallet,
			DisplayName: names[r.Wallet],
			XP:          r.Total,
			Level:       core.Level(r.Total),
		}
	}
	return entries, nil
}

// Upsert creates the wallet's profile row if absent and returns it.
func (l *GormLedger) Upsert(ctx context.Context, wallet string) (*core.UserProfile, error) {
	row := User{Wallet: wallet, JoinedAt: l.now()}
	err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("%w: upsert profile: %v", core.ErrStoreUnavailable, err)
	}
	return l.Get(ctx, wallet)
}

// Get returns nil without error for unknown wallets.
func (l *GormLedger) Get(ctx context.Context, wallet string) (*core.UserProfile, error) {
	var row User
	err := l.db.WithContext(ctx).Where("wallet = ?", wallet).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load profile: %v", core.ErrStoreUnavailable, err)
	}
	return &core.UserProfile{Wallet: row.Wallet, DisplayName: row.DisplayName, JoinedAt: row.JoinedAt}, nil
}
