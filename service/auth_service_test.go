package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grandigitals/superteam-academy/adapters/ledger"
	"github.com/grandigitals/superteam-academy/adapters/store"
	"github.com/grandigitals/superteam-academy/adapters/tokenizer"
	"github.com/grandigitals/superteam-academy/core"
)

type nullPublisher struct{}

func (nullPublisher) PublishLessonCompleted(context.Context, core.LessonCompletedEvent) error {
	return nil
}
func (nullPublisher) PublishCourseFinalized(context.Context, core.CourseFinalizedEvent) error {
	return nil
}
func (nullPublisher) PublishCredential(context.Context, core.CredentialEvent) error { return nil }
func (nullPublisher) PublishLogout(context.Context, string, string) error           { return nil }

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	memStore := store.NewMemoryStore()
	return NewAuthService(
		tokenizer.NewJWTTokenizer(key),
		memStore,
		memStore,
		ledger.NewMemoryProfiles(),
		nullPublisher{},
	)
}

func signedLogin(t *testing.T, s *AuthService, wallet *solana.Wallet) (signature, statement string) {
	t.Helper()
	ctx := context.Background()

	_, statement, err := s.IssueChallenge(ctx, wallet.PublicKey().String())
	require.NoError(t, err)

	sig, err := wallet.PrivateKey.Sign([]byte(statement))
	require.NoError(t, err)
	return sig.String(), statement
}

func TestLoginWithSignedChallenge(t *testing.T) {
	s := newTestAuthService(t)
	wallet := solana.NewWallet()
	ctx := context.Background()

	signature, statement := signedLogin(t, s, wallet)

	access, refresh, session, err := s.Login(ctx, wallet.PublicKey().String(), signature, statement)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.Equal(t, wallet.PublicKey().String(), session.Wallet)

	validated, err := s.ValidateAccessToken(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, wallet.PublicKey().String(), validated.Wallet)
}

func TestLoginReplayIsRejected(t *testing.T) {
	s := newTestAuthService(t)
	wallet := solana.NewWallet()
	ctx := context.Background()

	signature, statement := signedLogin(t, s, wallet)

	_, _, _, err := s.Login(ctx, wallet.PublicKey().String(), signature, statement)
	require.NoError(t, err)

	// Same statement and signature a second time: the nonce is spent.
	_, _, _, err = s.Login(ctx, wallet.PublicKey().String(), signature, statement)
	assert.ErrorIs(t, err, core.ErrInvalidChallenge)
}

func TestLoginRejectsTamperedStatement(t *testing.T) {
	s := newTestAuthService(t)
	wallet := solana.NewWallet()
	other := solana.NewWallet()
	ctx := context.Background()

	signature, statement := signedLogin(t, s, wallet)

	// A statement naming one wallet cannot authenticate another.
	_, _, _, err := s.Login(ctx, other.PublicKey().String(), signature, statement)
	assert.Error(t, err)
}

func TestLoginRejectsWrongSigner(t *testing.T) {
	s := newTestAuthService(t)
	wallet := solana.NewWallet()
	impostor := solana.NewWallet()
	ctx := context.Background()

	_, statement, err := s.IssueChallenge(ctx, wallet.PublicKey().String())
	require.NoError(t, err)

	sig, err := impostor.PrivateKey.Sign([]byte(statement))
	require.NoError(t, err)

	_, _, _, err = s.Login(ctx, wallet.PublicKey().String(), sig.String(), statement)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestLoginRejectsExpiredChallenge(t *testing.T) {
	s := newTestAuthService(t)
	wallet := solana.NewWallet()
	ctx := context.Background()

	signature, statement := signedLogin(t, s, wallet)

	s.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	_, _, _, err := s.Login(ctx, wallet.PublicKey().String(), signature, statement)
	assert.ErrorIs(t, err, core.ErrChallengeExpired)
}

func TestLoginRejectsInvalidAddress(t *testing.T) {
	s := newTestAuthService(t)

	_, _, err := s.IssueChallenge(context.Background(), "not-a-wallet")
	assert.ErrorIs(t, err, core.ErrInvalidAddress)
}

func TestStatementContainsAllFields(t *testing.T) {
	s := newTestAuthService(t)
	wallet := solana.NewWallet().PublicKey().String()

	nonce, statement, err := s.IssueChallenge(context.Background(), wallet)
	require.NoError(t, err)

	assert.Equal(t, nonce, statementField(statement, "Nonce"))
	assert.Equal(t, wallet, statementField(statement, "Wallet"))
	assert.Equal(t, "1", statementField(statement, "Version"))
	assert.Equal(t, "devnet", statementField(statement, "Chain ID"))
	assert.NotEmpty(t, statementField(statement, "Issued At"))
	assert.NotEmpty(t, statementField(statement, "Expiration Time"))
}

func TestRefreshRotationAndRevocation(t *testing.T) {
	s := newTestAuthService(t)
	wallet := solana.NewWallet()
	ctx := context.Background()

	signature, statement := signedLogin(t, s, wallet)
	_, refresh, _, err := s.Login(ctx, wallet.PublicKey().String(), signature, statement)
	require.NoError(t, err)

	access2, refresh2, err := s.Refresh(ctx, refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access2)

	// The rotated-out token is dead.
	_, _, err = s.Refresh(ctx, refresh)
	assert.ErrorIs(t, err, core.ErrTokenInvalidated)

	// Logout kills the current lineage, including the access token.
	require.NoError(t, s.Logout(ctx, refresh2))
	_, err = s.ValidateAccessToken(ctx, access2)
	assert.ErrorIs(t, err, core.ErrTokenInvalidated)
}
