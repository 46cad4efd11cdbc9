package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/grandigitals/superteam-academy/core"
	"github.com/grandigitals/superteam-academy/ports"
)

const (
	statementAppName  = "Superteam Academy"
	statementURI      = "https://academy.superteam.fun"
	statementVersion  = "1"
	statementChainID  = "devnet"
	nonceByteLength   = 16
	challengeValidity = 5 * time.Minute
)

// AuthService handles wallet sign-in and session lifecycle.
//
// The client signs the exact statement text returned by IssueChallenge.
// Verification always runs against the literal bytes the client submits,
// never against a server-side reconstruction, so any drift in the
// statement format cannot silently authenticate the wrong text.
type AuthService struct {
	tokenizer ports.Tokenizer
	nonces    ports.NonceStore
	revoked   ports.RevocationStore
	profiles  ports.ProfileStore
	eventPub  ports.EventPublisher

	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	tokenizer ports.Tokenizer,
	nonces ports.NonceStore,
	revoked ports.RevocationStore,
	profiles ports.ProfileStore,
	eventPub ports.EventPublisher,
) *AuthService {
	return &AuthService{
		tokenizer:  tokenizer,
		nonces:     nonces,
		revoked:    revoked,
		profiles:   profiles,
		eventPub:   eventPub,
		accessTTL:  15 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
		now:        time.Now,
	}
}

// IssueChallenge generates a nonce for the wallet and returns the sign-in
// statement embedding it. Issuing a new challenge replaces any outstanding
// one for the same wallet.
func (s *AuthService) IssueChallenge(ctx context.Context, wallet string) (nonce, statement string, err error) {
	if _, err := solana.PublicKeyFromBase58(wallet); err != nil {
		return "", "", fmt.Errorf("%w: %s", core.ErrInvalidAddress, wallet)
	}

	nonceBytes := make([]byte, nonceByteLength)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce = hex.EncodeToString(nonceBytes)

	if err := s.nonces.Put(ctx, wallet, nonce, challengeValidity); err != nil {
		return "", "", fmt.Errorf("failed to store nonce: %w", err)
	}

	return nonce, s.BuildStatement(wallet, nonce, s.now()), nil
}

// BuildStatement renders the sign-in text for a wallet and nonce. The line
// format is shared with the web client, which signs exactly these bytes.
func (s *AuthService) BuildStatement(wallet, nonce string, issuedAt time.Time) string {
	lines := []string{
		statementAppName,
		"",
		fmt.Sprintf("Sign in to %s.", statementAppName),
		"",
		"URI: " + statementURI,
		"Version: " + statementVersion,
		"Chain ID: " + statementChainID,
		"Nonce: " + nonce,
		"Issued At: " + issuedAt.UTC().Format(time.RFC3339),
		"Expiration Time: " + issuedAt.Add(challengeValidity).UTC().Format(time.RFC3339),
		"Wallet: " + wallet,
	}
	return strings.Join(lines, "\n")
}

// Login verifies a signed statement and opens a session. All failure
// modes return core sentinel errors that the transport collapses into a
// uniform invalid-credentials response.
func (s *AuthService) Login(ctx context.Context, wallet, signature, message string) (accessToken, refreshToken string, session *core.Session, err error) {
	pubkey, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %s", core.ErrInvalidAddress, wallet)
	}

	// Cheap identity check before touching the nonce store.
	if statementField(message, "Wallet") != wallet {
		return "", "", nil, core.ErrInvalidChallenge
	}

	nonce := statementField(message, "Nonce")
	if nonce == "" {
		return "", "", nil, core.ErrInvalidChallenge
	}
	if err := s.nonces.Consume(ctx, wallet, nonce); err != nil {
		return "", "", nil, err
	}

	issuedAtStr := statementField(message, "Issued At")
	issuedAt, err := time.Parse(time.RFC3339, issuedAtStr)
	if err != nil {
		return "", "", nil, core.ErrInvalidChallenge
	}
	now := s.now()
	if now.Before(issuedAt.Add(-time.Minute)) || now.After(issuedAt.Add(challengeValidity)) {
		return "", "", nil, core.ErrChallengeExpired
	}

	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return "", "", nil, core.ErrInvalidSignature
	}
	// The signature must cover the exact bytes the client signed.
	if !pubkey.Verify([]byte(message), sig) {
		return "", "", nil, core.ErrInvalidSignature
	}

	profile, err := s.profiles.Upsert(ctx, wallet)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	session = &core.Session{
		ID:            uuid.New().String(),
		Wallet:        wallet,
		DisplayName:   profile.DisplayName,
		IssuedAt:      now,
		RefreshExpiry: now.Add(s.refreshTTL),
		AccessExpiry:  now.Add(s.accessTTL),
		RefreshID:     uuid.New().String(),
	}

	accessToken, err = s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to create access token: %w", err)
	}
	refreshToken, err = s.tokenizer.SessionToRefreshToken(session)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	return accessToken, refreshToken, session, nil
}

// Refresh rotates the refresh token and issues new access and refresh tokens
func (s *AuthService) Refresh(ctx context.Context, refreshTokenStr string) (string, string, error) {
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return "", "", fmt.Errorf("invalid refresh token: %w", err)
	}

	if s.now().After(session.RefreshExpiry) {
		return "", "", core.ErrTokenExpired
	}

	invalidated, err := s.revoked.IsRevoked(ctx, session.RefreshID)
	if err != nil {
		return "", "", fmt.Errorf("failed to check token revocation: %w", err)
	}
	if invalidated {
		return "", "", core.ErrTokenInvalidated
	}

	// Invalidate the old refresh token for the remainder of its lifetime.
	if err := s.revoked.Revoke(ctx, session.RefreshID, time.Until(session.RefreshExpiry)); err != nil {
		return "", "", fmt.Errorf("failed to revoke old token: %w", err)
	}

	now := s.now()
	newSession := &core.Session{
		ID:            uuid.New().String(),
		Wallet:        session.Wallet,
		IssuedAt:      now,
		RefreshExpiry: now.Add(s.refreshTTL),
		AccessExpiry:  now.Add(s.accessTTL),
		RefreshID:     uuid.New().String(),
	}

	accessToken, err := s.tokenizer.SessionToAccessToken(newSession)
	if err != nil {
		return "", "", fmt.Errorf("failed to create new access token: %w", err)
	}
	refreshToken, err := s.tokenizer.SessionToRefreshToken(newSession)
	if err != nil {
		return "", "", fmt.Errorf("failed to create new refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// Logout invalidates a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshTokenStr string) error {
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return fmt.Errorf("invalid refresh token: %w", err)
	}

	// Even an expired token gets a revocation record, so it can never be
	// replayed against instances with skewed clocks.
	remaining := time.Until(session.RefreshExpiry)
	if remaining <= 0 {
		remaining = time.Hour
	}
	if err := s.revoked.Revoke(ctx, session.RefreshID, remaining); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	// The revocation is the critical part; a failed publish only costs
	// cross-instance notification.
	if err := s.eventPub.PublishLogout(ctx, session.Wallet, session.RefreshID); err != nil {
		fmt.Printf("Warning: Failed to publish logout event: %v\n", err)
	}

	return nil
}

// ValidateAccessToken parses an access token and checks that its refresh
// lineage has not been revoked.
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*core.Session, error) {
	session, err := s.tokenizer.AccessTokenToSession(accessToken)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	if s.now().After(session.AccessExpiry) {
		return nil, core.ErrTokenExpired
	}

	if session.RefreshID != "" {
		invalidated, err := s.revoked.IsRevoked(ctx, session.RefreshID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if invalidated {
			return nil, core.ErrTokenInvalidated
		}
	}

	return session, nil
}

// statementField extracts the value of a "Key: value" line from the
// signed statement.
func statementField(message, key string) string {
	prefix := key + ": "
	for _, line := range strings.Split(message, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return ""
}
