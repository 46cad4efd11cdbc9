package solana

import (
	"crypto/sha256"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructionDiscriminatorMatchesAnchorScheme(t *testing.T) {
	sum := sha256.Sum256([]byte("global:complete_lesson"))
	disc := InstructionDiscriminator("complete_lesson")
	assert.Equal(t, sum[:8], disc[:])
}

func TestEncodeInstructionPrependsDiscriminator(t *testing.T) {
	data, err := encodeInstruction("complete_lesson", completeLessonArgs{LessonIndex: 7})
	require.NoError(t, err)

	disc := InstructionDiscriminator("complete_lesson")
	require.Len(t, data, 9)
	assert.Equal(t, disc[:], data[:8])
	assert.Equal(t, byte(7), data[8])
}

func TestEncodeInstructionWithoutArgs(t *testing.T) {
	data, err := encodeInstruction("finalize_course", nil)
	require.NoError(t, err)
	assert.Len(t, data, 8)
}

func TestEnrollmentAccountRoundTrip(t *testing.T) {
	completedAt := int64(1717171717)
	asset := solana.NewWallet().PublicKey()
	original := EnrollmentAccount{
		CourseID:        "anchor-201",
		Learner:         solana.NewWallet().PublicKey(),
		LessonCount:     12,
		LessonFlags:     [4]uint64{0xfff, 0, 0, 0},
		EnrolledAt:      1700000000,
		CompletedAt:     &completedAt,
		CredentialAsset: &asset,
		Bump:            254,
	}

	payload, err := bin.MarshalBorsh(&original)
	require.NoError(t, err)
	disc := AccountDiscriminator("Enrollment")
	raw := append(disc[:], payload...)

	decoded, err := DecodeEnrollment(raw)
	require.NoError(t, err)
	assert.Equal(t, original, *decoded)
}

func TestDecodeEnrollmentRejectsWrongDiscriminator(t *testing.T) {
	disc := AccountDiscriminator("Course")
	raw := append(disc[:], make([]byte, 64)...)

	_, err := DecodeEnrollment(raw)
	assert.Error(t, err)
}

func TestDecodeCourseRejectsShortData(t *testing.T) {
	_, err := DecodeCourse([]byte{1, 2, 3})
	assert.Error(t, err)
}
