package ports

import (
	"context"

	"github.com/grandigitals/superteam-academy/core"
)

// ChainBridge submits custodially-signed instructions to the on-chain
// program. Transient RPC failures are distinguishable from terminal
// program rejections via core.IsTransient.
type ChainBridge interface {
	// EnsureRewardAccount returns the wallet's reward-token account,
	// creating it (backend pays) when absent. Concurrent creation is
	// tolerated: "already exists" is success.
	EnsureRewardAccount(ctx context.Context, wallet string) (string, error)

	// CompleteLessonOnChain marks one lesson complete. The program is
	// the arbiter of duplicates; a rejected duplicate is reported as
	// success with applied=false, meaning no XP was minted by this call.
	CompleteLessonOnChain(ctx context.Context, wallet, courseID string, lessonIndex int) (signature string, applied bool, err error)

	// FinalizeCourse is valid only once the lesson bitmap is full;
	// otherwise it fails with core.ErrCourseIncomplete.
	FinalizeCourse(ctx context.Context, wallet, courseID, creator string) (string, error)
}

// CredentialIssuer creates or upgrades the non-transferable achievement
// asset for a (wallet, track) pair. At most one asset exists per pair.
type CredentialIssuer interface {
	Issue(ctx context.Context, req core.CredentialRequest) (*core.CredentialGrant, error)
	Upgrade(ctx context.Context, req core.CredentialRequest) (*core.CredentialGrant, error)
}

// CredentialReader lists the credentials a wallet holds.
type CredentialReader interface {
	GetCredentials(ctx context.Context, wallet string) ([]core.Credential, error)
}
