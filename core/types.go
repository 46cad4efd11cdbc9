package core

import "time"

// Session represents an authenticated user session.
type Session struct {
	ID            string    // unique session identifier
	Wallet        string    // base58 public key of the user
	DisplayName   string    // optional profile display name
	IssuedAt      time.Time // when the session was created
	RefreshExpiry time.Time // when the refresh capability expires
	AccessExpiry  time.Time // when the access capability expires
	RefreshID     string    // unique identifier for the refresh token
}

// Course is read-only metadata supplied by the course catalog.
type Course struct {
	ID          string
	Creator     string // base58 public key of the course creator
	LessonCount int
	XPPerLesson uint64
	Track       string
	TrackLevel  int
	Difficulty  int
	Active      bool
}

// CourseProgress is the per-(wallet, course) completion record.
type CourseProgress struct {
	CourseID         string
	Wallet           string
	CompletedLessons []int // sorted lesson indices
	LessonCount      int
	XPEarned         uint64
	EnrolledAt       time.Time
	CompletedAt      *time.Time
	CredentialAsset  string // base58 address of the credential, if any
}

// CompletionResult is returned by ProgressLedger.CompleteLesson.
// XPEarned is zero when the lesson was already complete.
type CompletionResult struct {
	XPEarned    uint64
	TotalXP     uint64
	TxSignature string // set by the chain-backed ledger
}

// StreakDay is one day of the recent activity history.
type StreakDay struct {
	Date      string // YYYY-MM-DD
	Completed bool
}

// StreakData is the per-wallet streak summary.
type StreakData struct {
	Current    int
	Longest    int
	LastActive *time.Time
	History    []StreakDay // last 7 days, oldest first
}

// LeaderboardEntry is one row of the XP ranking.
type LeaderboardEntry struct {
	Rank        int
	Wallet      string
	DisplayName string
	XP          uint64
	Level       int
}

// UserProfile is the per-wallet profile row upserted on first sign-in.
type UserProfile struct {
	Wallet      string
	DisplayName string
	JoinedAt    time.Time
}

// Credential references an on-chain non-transferable achievement asset.
type Credential struct {
	Asset            string // base58 address of the asset
	Track            string
	Name             string
	Level            int
	CoursesCompleted int
	TotalXP          uint64
	ImageURL         string
	IssuedAt         time.Time
}

// CredentialRequest carries the inputs for issuing or upgrading a credential.
type CredentialRequest struct {
	Wallet           string
	CourseID         string
	Track            string
	Name             string
	MetadataURI      string
	CoursesCompleted uint32
	TotalXP          uint64
	Asset            string // existing asset address, required for upgrades
}

// CredentialGrant is the result of an issue or upgrade operation.
type CredentialGrant struct {
	Asset       string
	TxSignature string
}

// LessonCompletedEvent is published after a successful lesson completion.
type LessonCompletedEvent struct {
	Wallet      string `json:"wallet"`
	CourseID    string `json:"course_id"`
	LessonIndex int    `json:"lesson_index"`
	XPEarned    uint64 `json:"xp_earned"`
	TotalXP     uint64 `json:"total_xp"`
}

// CourseFinalizedEvent is published after a course is finalized.
type CourseFinalizedEvent struct {
	Wallet      string `json:"wallet"`
	CourseID    string `json:"course_id"`
	Creator     string `json:"creator"`
	TxSignature string `json:"tx_signature,omitempty"`
}

// CredentialEvent is published after a credential is issued or upgraded.
type CredentialEvent struct {
	Wallet      string `json:"wallet"`
	Track       string `json:"track"`
	Asset       string `json:"asset"`
	Upgraded    bool   `json:"upgraded"`
	TxSignature string `json:"tx_signature"`
}
