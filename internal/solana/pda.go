package solana

import (
	"github.com/gagliardetto/solana-go"
)

// PDA seed strings shared with the on-chain program. Every component that
// needs one of these accounts recomputes the address from the same seeds;
// there is no other index.
const (
	seedConfig             = "config"
	seedCourse             = "course"
	seedEnrollment         = "enrollment"
	seedMinter             = "minter"
	seedAchievement        = "achievement"
	seedAchievementReceipt = "achievement_receipt"
)

// ConfigPDA derives the program configuration singleton: ["config"].
func ConfigPDA(programID solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(seedConfig)}, programID)
	return addr, err
}

// CoursePDA derives the per-course account: ["course", courseID].
func CoursePDA(programID solana.PublicKey, courseID string) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(seedCourse), []byte(courseID)},
		programID,
	)
	return addr, err
}

// EnrollmentPDA derives the per-(course, learner) enrollment account:
// ["enrollment", courseID, learner].
func EnrollmentPDA(programID solana.PublicKey, courseID string, learner solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(seedEnrollment), []byte(courseID), learner.Bytes()},
		programID,
	)
	return addr, err
}

// MinterRolePDA derives the per-minter role account: ["minter", minter].
func MinterRolePDA(programID solana.PublicKey, minter solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(seedMinter), minter.Bytes()},
		programID,
	)
	return addr, err
}

// AchievementTypePDA derives the per-achievement-type account:
// ["achievement", achievementID].
func AchievementTypePDA(programID solana.PublicKey, achievementID string) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(seedAchievement), []byte(achievementID)},
		programID,
	)
	return addr, err
}

// AchievementReceiptPDA derives the per-(achievement, recipient) receipt:
// ["achievement_receipt", achievementID, recipient].
func AchievementReceiptPDA(programID solana.PublicKey, achievementID string, recipient solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(seedAchievementReceipt), []byte(achievementID), recipient.Bytes()},
		programID,
	)
	return addr, err
}

// RewardTokenAccount derives the learner's Token-2022 associated token
// account for the XP mint. The ATA program seeds are [owner, tokenProgram,
// mint]; the generic helper in the SDK hardcodes the legacy token program,
// so the derivation is spelled out here.
func RewardTokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{owner.Bytes(), Token2022ProgramID.Bytes(), mint.Bytes()},
		solana.SPLAssociatedTokenAccountProgramID,
	)
	return addr, err
}
