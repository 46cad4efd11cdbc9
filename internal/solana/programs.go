package solana

import "github.com/gagliardetto/solana-go"

// Well-known program addresses this bridge invokes.
var (
	// Token2022ProgramID is the Token-2022 program that owns the XP mint.
	Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

	// MplCoreProgramID is the Metaplex Core program that owns credential assets.
	MplCoreProgramID = solana.MustPublicKeyFromBase58("CoREENxT6tW1HoK8ypY1SxRMZTcVPm7R94rH4PZNhX7d")

	// DefaultProgramID is the deployed academy program.
	DefaultProgramID = solana.MustPublicKeyFromBase58("ACADBRCB3zGvo1KSCbkztS33ZNzeBv2d7bqGceti3ucf")
)
