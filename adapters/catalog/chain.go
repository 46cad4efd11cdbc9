package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/grandigitals/superteam-academy/core"
	solbridge "github.com/grandigitals/superteam-academy/internal/solana"
)

// trackNames maps the on-chain track_id byte to its published name.
var trackNames = map[uint8]string{
	0: "fundamentals",
	1: "anchor",
	2: "defi",
	3: "nft",
	4: "security",
}

// ChainCatalog reads course metadata from Course PDAs. Course accounts are
// small and change rarely, so every call hits the RPC node directly; a
// cache can sit in front if listing becomes hot.
type ChainCatalog struct {
	client    *rpc.Client
	programID solana.PublicKey
}

// NewChainCatalog creates a catalog backed by the deployed program.
func NewChainCatalog(client *rpc.Client, programID solana.PublicKey) *ChainCatalog {
	return &ChainCatalog{client: client, programID: programID}
}

// GetCourse derives the course PDA and decodes its account.
func (c *ChainCatalog) GetCourse(ctx context.Context, courseID string) (*core.Course, error) {
	pda, err := solbridge.CoursePDA(c.programID, courseID)
	if err != nil {
		return nil, fmt.Errorf("derive course pda: %w", err)
	}

	res, err := c.client.GetAccountInfoWithOpts(ctx, pda, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", core.ErrCourseNotFound, courseID)
		}
		return nil, fmt.Errorf("%w: %v", core.ErrChainUnavailable, err)
	}

	acct, err := solbridge.DecodeCourse(res.Value.Data.GetBinary())
	if err != nil {
		return nil, err
	}
	return toCourse(acct), nil
}

// ListCourses scans all Course accounts owned by the program, filtered by
// their discriminator.
func (c *ChainCatalog) ListCourses(ctx context.Context) ([]core.Course, error) {
	disc := solbridge.AccountDiscriminator("Course")
	res, err := c.client.GetProgramAccountsWithOpts(ctx, c.programID, &rpc.GetProgramAccountsOpts{
		Commitment: rpc.CommitmentConfirmed,
		Filters: []rpc.RPCFilter{
			{Memcmp: &rpc.RPCFilterMemcmp{Offset: 0, Bytes: solana.Base58(disc[:])}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrChainUnavailable, err)
	}

	courses := make([]core.Course, 0, len(res))
	for _, keyed := range res {
		acct, err := solbridge.DecodeCourse(keyed.Account.Data.GetBinary())
		if err != nil {
			// A malformed account must not hide the rest of the catalog.
			continue
		}
		courses = append(courses, *toCourse(acct))
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

func toCourse(acct *solbridge.CourseAccount) *core.Course {
	return &core.Course{
		ID:          acct.CourseID,
		Creator:     acct.Creator.String(),
		LessonCount: int(acct.LessonCount),
		XPPerLesson: acct.XPPerLesson,
		Track:       trackNames[acct.TrackID],
		TrackLevel:  int(acct.TrackLevel),
		Difficulty:  int(acct.Difficulty),
		Active:      acct.IsActive,
	}
}
