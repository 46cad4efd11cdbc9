package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"github.com/grandigitals/superteam-academy/core"
)

const (
	defaultConfirmTimeout = 30 * time.Second
	confirmPollInterval   = 500 * time.Millisecond
)

// Bridge submits custodially-signed instructions to the academy program.
// The custodial key is read-only after construction and safe for
// concurrent use; no lock is held across RPC round trips.
type Bridge struct {
	client         *rpc.Client
	signer         solana.PrivateKey
	programID      solana.PublicKey
	xpMint         solana.PublicKey
	confirmTimeout time.Duration
}

// NewBridge creates a bridge around an RPC client and the custodial key.
func NewBridge(client *rpc.Client, signer solana.PrivateKey, programID, xpMint solana.PublicKey) *Bridge {
	return &Bridge{
		client:         client,
		signer:         signer,
		programID:      programID,
		xpMint:         xpMint,
		confirmTimeout: defaultConfirmTimeout,
	}
}

// SignerPublicKey returns the custodial signer's public key.
func (b *Bridge) SignerPublicKey() solana.PublicKey {
	return b.signer.PublicKey()
}

// EnsureRewardAccount returns the wallet's Token-2022 XP account address,
// creating the account when it does not exist yet. Creation uses the
// idempotent ATA variant, so a concurrent creator winning the race still
// counts as success.
func (b *Bridge) EnsureRewardAccount(ctx context.Context, wallet string) (string, error) {
	owner, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return "", fmt.Errorf("%w: %s", core.ErrInvalidAddress, wallet)
	}

	ata, err := RewardTokenAccount(owner, b.xpMint)
	if err != nil {
		return "", fmt.Errorf("derive reward account: %w", err)
	}

	_, err = b.client.GetAccountInfoWithOpts(ctx, ata, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err == nil {
		return ata.String(), nil
	}
	if !errors.Is(err, rpc.ErrNotFound) {
		return "", fmt.Errorf("%w: %v", core.ErrChainUnavailable, err)
	}

	ix := solana.NewInstruction(
		solana.SPLAssociatedTokenAccountProgramID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(b.signer.PublicKey(), true, true),
			solana.NewAccountMeta(ata, true, false),
			solana.NewAccountMeta(owner, false, false),
			solana.NewAccountMeta(b.xpMint, false, false),
			solana.NewAccountMeta(solana.SystemProgramID, false, false),
			solana.NewAccountMeta(Token2022ProgramID, false, false),
		},
		[]byte{1}, // CreateIdempotent
	)

	if _, err := b.sendAndConfirm(ctx, []solana.Instruction{ix}, nil); err != nil {
		if errors.Is(err, core.ErrTxUnconfirmed) {
			// Account creation landed but confirmation timed out; the
			// address is still deterministic and usable.
			return ata.String(), nil
		}
		return "", err
	}
	return ata.String(), nil
}

// CompleteLessonOnChain signs and submits a complete_lesson instruction.
// The program rejects duplicate completions itself; that rejection is a
// successful no-op reported with applied=false so callers know no XP was
// minted by this call.
func (b *Bridge) CompleteLessonOnChain(ctx context.Context, wallet, courseID string, lessonIndex int) (string, bool, error) {
	if lessonIndex < 0 || lessonIndex >= core.BitmapCapacity {
		return "", false, fmt.Errorf("%w: index %d", core.ErrLessonOutOfRange, lessonIndex)
	}
	learner, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return "", false, fmt.Errorf("%w: %s", core.ErrInvalidAddress, wallet)
	}

	accounts, err := b.progressAccounts(courseID, learner)
	if err != nil {
		return "", false, err
	}
	learnerATA, err := RewardTokenAccount(learner, b.xpMint)
	if err != nil {
		return "", false, fmt.Errorf("derive reward account: %w", err)
	}

	data, err := encodeInstruction("complete_lesson", completeLessonArgs{LessonIndex: uint8(lessonIndex)})
	if err != nil {
		return "", false, err
	}

	ix := solana.NewInstruction(
		b.programID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(accounts.config, false, false),
			solana.NewAccountMeta(accounts.course, true, false),
			solana.NewAccountMeta(accounts.enrollment, true, false),
			solana.NewAccountMeta(learner, false, false),
			solana.NewAccountMeta(learnerATA, true, false),
			solana.NewAccountMeta(b.xpMint, true, false),
			solana.NewAccountMeta(b.signer.PublicKey(), true, true),
			solana.NewAccountMeta(Token2022ProgramID, false, false),
		},
		data,
	)

	sig, err := b.sendAndConfirm(ctx, []solana.Instruction{ix}, nil)
	if err != nil {
		if errors.Is(err, errAlreadyComplete) {
			// A concurrent completion landed first; idempotent success,
			// but nothing was minted here.
			return "", false, nil
		}
		if errors.Is(err, core.ErrTxUnconfirmed) {
			return sig.String(), true, err
		}
		return sig.String(), false, err
	}
	return sig.String(), true, nil
}

// FinalizeCourse signs and submits a finalize_course instruction. The
// program verifies the full lesson bitmap; an incomplete course surfaces
// as core.ErrCourseIncomplete so callers can tell it apart from RPC trouble.
func (b *Bridge) FinalizeCourse(ctx context.Context, wallet, courseID, creator string) (string, error) {
	learner, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return "", fmt.Errorf("%w: learner %s", core.ErrInvalidAddress, wallet)
	}
	creatorKey, err := solana.PublicKeyFromBase58(creator)
	if err != nil {
		return "", fmt.Errorf("%w: creator %s", core.ErrInvalidAddress, creator)
	}

	accounts, err := b.progressAccounts(courseID, learner)
	if err != nil {
		return "", err
	}
	learnerATA, err := RewardTokenAccount(learner, b.xpMint)
	if err != nil {
		return "", fmt.Errorf("derive learner reward account: %w", err)
	}
	creatorATA, err := RewardTokenAccount(creatorKey, b.xpMint)
	if err != nil {
		return "", fmt.Errorf("derive creator reward account: %w", err)
	}

	data, err := encodeInstruction("finalize_course", nil)
	if err != nil {
		return "", err
	}

	ix := solana.NewInstruction(
		b.programID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(accounts.config, false, false),
			solana.NewAccountMeta(accounts.course, true, false),
			solana.NewAccountMeta(accounts.enrollment, true, false),
			solana.NewAccountMeta(learner, false, false),
			solana.NewAccountMeta(learnerATA, true, false),
			solana.NewAccountMeta(creatorATA, true, false),
			solana.NewAccountMeta(creatorKey, false, false),
			solana.NewAccountMeta(b.xpMint, true, false),
			solana.NewAccountMeta(b.signer.PublicKey(), true, true),
			solana.NewAccountMeta(Token2022ProgramID, false, false),
		},
		data,
	)

	sig, err := b.sendAndConfirm(ctx, []solana.Instruction{ix}, nil)
	if err != nil {
		return sig.String(), err
	}
	return sig.String(), nil
}

// FetchEnrollment reads and decodes the enrollment PDA for a learner.
// Returns core.ErrNotEnrolled when the account does not exist.
func (b *Bridge) FetchEnrollment(ctx context.Context, wallet, courseID string) (*EnrollmentAccount, error) {
	learner, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidAddress, wallet)
	}
	pda, err := EnrollmentPDA(b.programID, courseID, learner)
	if err != nil {
		return nil, fmt.Errorf("derive enrollment pda: %w", err)
	}

	res, err := b.client.GetAccountInfoWithOpts(ctx, pda, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, core.ErrNotEnrolled
		}
		return nil, fmt.Errorf("%w: %v", core.ErrChainUnavailable, err)
	}
	return DecodeEnrollment(res.Value.Data.GetBinary())
}

// FetchEnrollmentsByLearner scans the program's Enrollment accounts and
// keeps those belonging to the wallet. The learner key sits after a
// variable-length course ID, so the match happens after decoding rather
// than in a memcmp filter.
func (b *Bridge) FetchEnrollmentsByLearner(ctx context.Context, wallet string) ([]*EnrollmentAccount, error) {
	learner, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidAddress, wallet)
	}

	disc := AccountDiscriminator("Enrollment")
	res, err := b.client.GetProgramAccountsWithOpts(ctx, b.programID, &rpc.GetProgramAccountsOpts{
		Commitment: rpc.CommitmentConfirmed,
		Filters: []rpc.RPCFilter{
			{Memcmp: &rpc.RPCFilterMemcmp{Offset: 0, Bytes: solana.Base58(disc[:])}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrChainUnavailable, err)
	}

	var out []*EnrollmentAccount
	for _, keyed := range res {
		acct, err := DecodeEnrollment(keyed.Account.Data.GetBinary())
		if err != nil {
			continue
		}
		if acct.Learner.Equals(learner) {
			out = append(out, acct)
		}
	}
	return out, nil
}

// XPBalance reads the wallet's Token-2022 XP balance. A missing token
// account means the learner simply has no XP yet.
func (b *Bridge) XPBalance(ctx context.Context, wallet string) (uint64, error) {
	owner, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", core.ErrInvalidAddress, wallet)
	}
	ata, err := RewardTokenAccount(owner, b.xpMint)
	if err != nil {
		return 0, fmt.Errorf("derive reward account: %w", err)
	}

	res, err := b.client.GetTokenAccountBalance(ctx, ata, rpc.CommitmentConfirmed)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) || isAccountMissing(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", core.ErrChainUnavailable, err)
	}

	var amount uint64
	if _, convErr := fmt.Sscanf(res.Value.Amount, "%d", &amount); convErr != nil {
		return 0, fmt.Errorf("parse token amount %q: %w", res.Value.Amount, convErr)
	}
	return amount, nil
}

type progressAccountSet struct {
	config     solana.PublicKey
	course     solana.PublicKey
	enrollment solana.PublicKey
}

func (b *Bridge) progressAccounts(courseID string, learner solana.PublicKey) (*progressAccountSet, error) {
	configKey, err := ConfigPDA(b.programID)
	if err != nil {
		return nil, fmt.Errorf("derive config pda: %w", err)
	}
	courseKey, err := CoursePDA(b.programID, courseID)
	if err != nil {
		return nil, fmt.Errorf("derive course pda: %w", err)
	}
	enrollmentKey, err := EnrollmentPDA(b.programID, courseID, learner)
	if err != nil {
		return nil, fmt.Errorf("derive enrollment pda: %w", err)
	}
	return &progressAccountSet{config: configKey, course: courseKey, enrollment: enrollmentKey}, nil
}

// sendAndConfirm builds, signs and submits a transaction, then waits a
// bounded time for confirmation. On timeout the signature is returned
// wrapped in core.ErrTxUnconfirmed instead of hanging.
func (b *Bridge) sendAndConfirm(ctx context.Context, instructions []solana.Instruction, extraSigners []solana.PrivateKey) (solana.Signature, error) {
	blockhash, err := b.client.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %v", core.ErrChainUnavailable, err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		blockhash.Value.Blockhash,
		solana.TransactionPayer(b.signer.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}

	signers := append([]solana.PrivateKey{b.signer}, extraSigners...)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}

	sig, err := b.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, classifyRPCError(err)
	}

	deadline := time.Now().Add(b.confirmTimeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return sig, fmt.Errorf("%w: %s", core.ErrTxUnconfirmed, sig)
		case <-time.After(confirmPollInterval):
		}

		statuses, err := b.client.GetSignatureStatuses(ctx, false, sig)
		if err != nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
			continue
		}
		st := statuses.Value[0]
		if st.Err != nil {
			return sig, fmt.Errorf("%w: %v", core.ErrChainRejected, st.Err)
		}
		if st.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
			st.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
			return sig, nil
		}
	}
	return sig, fmt.Errorf("%w: %s", core.ErrTxUnconfirmed, sig)
}

// errAlreadyComplete marks the program's duplicate-completion rejection,
// which CompleteLessonOnChain treats as success.
var errAlreadyComplete = errors.New("lesson already completed on chain")

// classifyRPCError splits chain failures into terminal program rejections
// and transient infrastructure errors so higher layers can retry the
// latter safely.
func classifyRPCError(err error) error {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return fmt.Errorf("%w: %v", core.ErrChainUnavailable, err)
	}

	msg := rpcErr.Message
	switch {
	case strings.Contains(msg, "LessonAlreadyCompleted"):
		return errAlreadyComplete
	case strings.Contains(msg, "CourseIncomplete"):
		return fmt.Errorf("%w: %s", core.ErrCourseIncomplete, msg)
	case strings.Contains(msg, "AlreadyFinalized"):
		return fmt.Errorf("%w: %s", core.ErrAlreadyFinalized, msg)
	case strings.Contains(msg, "NotEnrolled"):
		return fmt.Errorf("%w: %s", core.ErrNotEnrolled, msg)
	default:
		return fmt.Errorf("%w: %s", core.ErrChainRejected, msg)
	}
}

func isAccountMissing(err error) bool {
	return err != nil && strings.Contains(err.Error(), "could not find account")
}
