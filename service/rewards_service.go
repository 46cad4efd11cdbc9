package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/grandigitals/superteam-academy/core"
	"github.com/grandigitals/superteam-academy/ports"
)

// RewardsService orchestrates lesson completion, course finalization and
// credential issuance across the ledger, the chain bridge and the event
// stream. The bridge, issuer and reader are nil in off-chain modes; the
// ledger is always present and is the source of truth for preconditions.
type RewardsService struct {
	catalog  ports.CourseCatalog
	ledger   ports.ProgressLedger
	bridge   ports.ChainBridge
	issuer   ports.CredentialIssuer
	reader   ports.CredentialReader
	eventPub ports.EventPublisher
}

// NewRewardsService creates a new rewards service. bridge, issuer and
// reader may be nil when the active backend has no chain access.
func NewRewardsService(
	catalog ports.CourseCatalog,
	progressLedger ports.ProgressLedger,
	bridge ports.ChainBridge,
	issuer ports.CredentialIssuer,
	reader ports.CredentialReader,
	eventPub ports.EventPublisher,
) *RewardsService {
	return &RewardsService{
		catalog:  catalog,
		ledger:   progressLedger,
		bridge:   bridge,
		issuer:   issuer,
		reader:   reader,
		eventPub: eventPub,
	}
}

// Enroll creates the learner's progress record for a course.
func (s *RewardsService) Enroll(ctx context.Context, wallet, courseID string) (*core.CourseProgress, error) {
	return s.ledger.Enroll(ctx, wallet, courseID)
}

// CompleteLesson records one lesson completion and publishes the result.
// The ledger write is authoritative; the event is best-effort.
func (s *RewardsService) CompleteLesson(ctx context.Context, wallet, courseID string, lessonIndex int) (*core.CompletionResult, error) {
	result, err := s.ledger.CompleteLesson(ctx, wallet, courseID, lessonIndex)
	if err != nil && (result == nil || !errors.Is(err, core.ErrTxUnconfirmed)) {
		return nil, err
	}

	if result.XPEarned > 0 {
		if pubErr := s.eventPub.PublishLessonCompleted(ctx, core.LessonCompletedEvent{
			Wallet:      wallet,
			CourseID:    courseID,
			LessonIndex: lessonIndex,
			XPEarned:    result.XPEarned,
			TotalXP:     result.TotalXP,
		}); pubErr != nil {
			fmt.Printf("Warning: Failed to publish lesson event: %v\n", pubErr)
		}
	}
	return result, err
}

// FinalizeCourse verifies the full-completion precondition off the ledger
// before any chain submission, then finalizes on chain (when a bridge is
// configured) and stamps the ledger record. The catalog is authoritative
// for the creator; a non-empty creatorWallet is cross-checked against it
// rather than trusted.
func (s *RewardsService) FinalizeCourse(ctx context.Context, wallet, courseID, creatorWallet string) (string, error) {
	course, err := s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return "", err
	}
	if creatorWallet != "" && creatorWallet != course.Creator {
		return "", fmt.Errorf("%w: creator %s does not match course %s", core.ErrInvalidAddress, creatorWallet, courseID)
	}

	progress, err := s.ledger.GetCourseProgress(ctx, wallet, courseID)
	if err != nil {
		return "", err
	}
	if progress == nil {
		return "", core.ErrNotEnrolled
	}
	if progress.CompletedAt != nil {
		return "", core.ErrAlreadyFinalized
	}
	if len(progress.CompletedLessons) < course.LessonCount {
		return "", fmt.Errorf("%w: %d of %d lessons", core.ErrCourseIncomplete,
			len(progress.CompletedLessons), course.LessonCount)
	}

	var signature string
	if s.bridge != nil {
		if _, err := s.bridge.EnsureRewardAccount(ctx, wallet); err != nil {
			return "", err
		}
		if _, err := s.bridge.EnsureRewardAccount(ctx, course.Creator); err != nil {
			return "", err
		}
		signature, err = s.bridge.FinalizeCourse(ctx, wallet, courseID, course.Creator)
		if err != nil && !errors.Is(err, core.ErrTxUnconfirmed) {
			return "", err
		}
	}

	if markErr := s.ledger.MarkCourseCompleted(ctx, wallet, courseID); markErr != nil {
		// The finalize landed; a failed stamp surfaces on the next read.
		fmt.Printf("Warning: Failed to stamp course completion: %v\n", markErr)
	}

	if pubErr := s.eventPub.PublishCourseFinalized(ctx, core.CourseFinalizedEvent{
		Wallet:      wallet,
		CourseID:    courseID,
		Creator:     course.Creator,
		TxSignature: signature,
	}); pubErr != nil {
		fmt.Printf("Warning: Failed to publish finalize event: %v\n", pubErr)
	}

	return signature, err
}

// IssueCredential mints or upgrades the track credential for a wallet.
// An empty req.Asset means a fresh issue; otherwise the existing asset is
// upgraded in place.
func (s *RewardsService) IssueCredential(ctx context.Context, req core.CredentialRequest) (*core.CredentialGrant, error) {
	if s.issuer == nil {
		return nil, fmt.Errorf("%w: credential issuance needs the chain backend", core.ErrModeNotSupported)
	}
	if _, err := s.catalog.GetCourse(ctx, req.CourseID); err != nil {
		return nil, err
	}

	upgraded := req.Asset != ""
	var grant *core.CredentialGrant
	var err error
	if upgraded {
		grant, err = s.issuer.Upgrade(ctx, req)
	} else {
		grant, err = s.issuer.Issue(ctx, req)
	}
	if err != nil && !errors.Is(err, core.ErrTxUnconfirmed) {
		return nil, err
	}

	if pubErr := s.eventPub.PublishCredential(ctx, core.CredentialEvent{
		Wallet:      req.Wallet,
		Track:       req.Track,
		Asset:       grant.Asset,
		Upgraded:    upgraded,
		TxSignature: grant.TxSignature,
	}); pubErr != nil {
		fmt.Printf("Warning: Failed to publish credential event: %v\n", pubErr)
	}

	return grant, err
}

// GetCredentials lists the wallet's credentials via the configured reader.
func (s *RewardsService) GetCredentials(ctx context.Context, wallet string) ([]core.Credential, error) {
	if s.reader == nil {
		return nil, fmt.Errorf("%w: credential read-back needs the chain backend", core.ErrModeNotSupported)
	}
	return s.reader.GetCredentials(ctx, wallet)
}

// Read-side passthroughs.

func (s *RewardsService) GetCourse(ctx context.Context, courseID string) (*core.Course, error) {
	return s.catalog.GetCourse(ctx, courseID)
}

func (s *RewardsService) ListCourses(ctx context.Context) ([]core.Course, error) {
	return s.catalog.ListCourses(ctx)
}

func (s *RewardsService) GetCourseProgress(ctx context.Context, wallet, courseID string) (*core.CourseProgress, error) {
	return s.ledger.GetCourseProgress(ctx, wallet, courseID)
}

func (s *RewardsService) GetAllProgress(ctx context.Context, wallet string) ([]core.CourseProgress, error) {
	return s.ledger.GetAllProgress(ctx, wallet)
}

func (s *RewardsService) GetXPBalance(ctx context.Context, wallet string) (uint64, error) {
	return s.ledger.GetXPBalance(ctx, wallet)
}

func (s *RewardsService) GetStreakData(ctx context.Context, wallet string) (*core.StreakData, error) {
	return s.ledger.GetStreakData(ctx, wallet)
}

func (s *RewardsService) GetLeaderboard(ctx context.Context, limit int) ([]core.LeaderboardEntry, error) {
	return s.ledger.GetLeaderboard(ctx, limit)
}
