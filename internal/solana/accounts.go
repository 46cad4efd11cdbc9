package solana

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// EnrollmentAccount mirrors the on-chain Enrollment PDA layout.
type EnrollmentAccount struct {
	CourseID        string
	Learner         solana.PublicKey
	LessonCount     uint16
	LessonFlags     [4]uint64
	EnrolledAt      int64
	CompletedAt     *int64            `bin:"optional"`
	CredentialAsset *solana.PublicKey `bin:"optional"`
	Bump            uint8
}

// CourseAccount mirrors the on-chain Course PDA layout.
type CourseAccount struct {
	CourseID                string
	Creator                 solana.PublicKey
	LessonCount             uint16
	Difficulty              uint8
	XPPerLesson             uint64
	TrackID                 uint8
	TrackLevel              uint8
	IsActive                bool
	TotalCompletions        uint32
	CreatorRewardXP         uint64
	MinCompletionsForReward uint32
	Prerequisite            *solana.PublicKey `bin:"optional"`
	Bump                    uint8
}

// DecodeEnrollment borsh-decodes an Enrollment account, checking its
// discriminator prefix.
func DecodeEnrollment(data []byte) (*EnrollmentAccount, error) {
	payload, err := stripDiscriminator(data, "Enrollment")
	if err != nil {
		return nil, err
	}
	var acct EnrollmentAccount
	if err := bin.NewBorshDecoder(payload).Decode(&acct); err != nil {
		return nil, fmt.Errorf("decode enrollment account: %w", err)
	}
	return &acct, nil
}

// DecodeCourse borsh-decodes a Course account, checking its discriminator.
func DecodeCourse(data []byte) (*CourseAccount, error) {
	payload, err := stripDiscriminator(data, "Course")
	if err != nil {
		return nil, err
	}
	var acct CourseAccount
	if err := bin.NewBorshDecoder(payload).Decode(&acct); err != nil {
		return nil, fmt.Errorf("decode course account: %w", err)
	}
	return &acct, nil
}

func stripDiscriminator(data []byte, accountName string) ([]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%s account data too short: %d bytes", accountName, len(data))
	}
	want := AccountDiscriminator(accountName)
	if !bytes.Equal(data[:8], want[:]) {
		return nil, fmt.Errorf("%s account discriminator mismatch", accountName)
	}
	return data[8:], nil
}
