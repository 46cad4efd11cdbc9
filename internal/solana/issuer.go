package solana

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/grandigitals/superteam-academy/core"
)

// Issuer mints and upgrades the non-transferable track credentials
// through the academy program. Each track maps to one Metaplex Core
// collection; a request for an unmapped track fails before any RPC call.
type Issuer struct {
	bridge      *Bridge
	collections map[string]solana.PublicKey
}

// NewIssuer wraps a bridge with the track-to-collection mapping.
func NewIssuer(bridge *Bridge, collections map[string]solana.PublicKey) *Issuer {
	return &Issuer{bridge: bridge, collections: collections}
}

// Issue creates a fresh credential asset for the (wallet, track) pair.
// The asset keypair is generated server-side and co-signs the mint; only
// the resulting address survives the call.
func (s *Issuer) Issue(ctx context.Context, req core.CredentialRequest) (*core.CredentialGrant, error) {
	collection, ok := s.collections[req.Track]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrTrackNotConfigured, req.Track)
	}
	learner, err := solana.PublicKeyFromBase58(req.Wallet)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidAddress, req.Wallet)
	}

	accounts, err := s.bridge.progressAccounts(req.CourseID, learner)
	if err != nil {
		return nil, err
	}

	asset := solana.NewWallet()
	data, err := encodeInstruction("issue_credential", credentialArgs{
		Name:             req.Name,
		MetadataURI:      req.MetadataURI,
		CoursesCompleted: req.CoursesCompleted,
		TotalXP:          req.TotalXP,
	})
	if err != nil {
		return nil, err
	}

	ix := solana.NewInstruction(
		s.bridge.programID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(accounts.config, false, false),
			solana.NewAccountMeta(accounts.course, false, false),
			solana.NewAccountMeta(accounts.enrollment, true, false),
			solana.NewAccountMeta(learner, false, false),
			solana.NewAccountMeta(asset.PublicKey(), true, true),
			solana.NewAccountMeta(collection, true, false),
			solana.NewAccountMeta(s.bridge.signer.PublicKey(), true, true),
			solana.NewAccountMeta(MplCoreProgramID, false, false),
			solana.NewAccountMeta(solana.SystemProgramID, false, false),
		},
		data,
	)

	sig, err := s.bridge.sendAndConfirm(ctx, []solana.Instruction{ix}, []solana.PrivateKey{asset.PrivateKey})
	if err != nil && !errors.Is(err, core.ErrTxUnconfirmed) {
		return nil, err
	}
	return &core.CredentialGrant{
		Asset:       asset.PublicKey().String(),
		TxSignature: sig.String(),
	}, err
}

// Upgrade rewrites the metadata of an existing credential asset in place.
// The asset address comes from the enrollment record, so no new keypair
// is involved.
func (s *Issuer) Upgrade(ctx context.Context, req core.CredentialRequest) (*core.CredentialGrant, error) {
	collection, ok := s.collections[req.Track]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrTrackNotConfigured, req.Track)
	}
	learner, err := solana.PublicKeyFromBase58(req.Wallet)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidAddress, req.Wallet)
	}
	asset, err := solana.PublicKeyFromBase58(req.Asset)
	if err != nil {
		return nil, fmt.Errorf("%w: asset %s", core.ErrInvalidAddress, req.Asset)
	}

	accounts, err := s.bridge.progressAccounts(req.CourseID, learner)
	if err != nil {
		return nil, err
	}

	data, err := encodeInstruction("upgrade_credential", credentialArgs{
		Name:             req.Name,
		MetadataURI:      req.MetadataURI,
		CoursesCompleted: req.CoursesCompleted,
		TotalXP:          req.TotalXP,
	})
	if err != nil {
		return nil, err
	}

	ix := solana.NewInstruction(
		s.bridge.programID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(accounts.config, false, false),
			solana.NewAccountMeta(accounts.course, false, false),
			solana.NewAccountMeta(accounts.enrollment, true, false),
			solana.NewAccountMeta(learner, false, false),
			solana.NewAccountMeta(asset, true, false),
			solana.NewAccountMeta(collection, true, false),
			solana.NewAccountMeta(s.bridge.signer.PublicKey(), true, true),
			solana.NewAccountMeta(MplCoreProgramID, false, false),
		},
		data,
	)

	sig, err := s.bridge.sendAndConfirm(ctx, []solana.Instruction{ix}, nil)
	if err != nil && !errors.Is(err, core.ErrTxUnconfirmed) {
		return nil, err
	}
	return &core.CredentialGrant{
		Asset:       asset.String(),
		TxSignature: sig.String(),
	}, err
}
