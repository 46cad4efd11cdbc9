package service

import (
	"fmt"
	"log"
	"strings"

	"github.com/grandigitals/superteam-academy/ports"
)

// Mode names a storage backend for progress bookkeeping.
type Mode string

const (
	// ModeEphemeral keeps everything in process memory.
	ModeEphemeral Mode = "ephemeral"
	// ModeDurable keeps progress in the relational database.
	ModeDurable Mode = "durable"
	// ModeChain reads and writes through the deployed program.
	ModeChain Mode = "chain-backed"
)

// BackendSet is one assembled storage backend: the ledger plus every
// port whose implementation varies with the mode. Bridge, Issuer and
// Credentials are nil outside chain-backed mode.
type BackendSet struct {
	Ledger      ports.ProgressLedger
	Profiles    ports.ProfileStore
	Catalog     ports.CourseCatalog
	Credentials ports.CredentialReader
	Bridge      ports.ChainBridge
	Issuer      ports.CredentialIssuer
}

// BackendFactories supplies a constructor per mode. The ephemeral factory
// is mandatory; the others stay nil when their configuration is absent.
type BackendFactories struct {
	Ephemeral func() (*BackendSet, error)
	Durable   func() (*BackendSet, error)
	Chain     func() (*BackendSet, error)
}

// SelectBackend resolves a mode string to a constructed backend. An
// unrecognized mode degrades to ephemeral so a typo in deployment config
// yields a running (if forgetful) service instead of a crash loop; a
// recognized mode whose dependencies are missing is a hard error, because
// silently dropping durability would lose data.
func SelectBackend(rawMode string, factories BackendFactories) (*BackendSet, Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(rawMode)))

	switch mode {
	case ModeEphemeral, "":
		mode = ModeEphemeral
	case ModeDurable:
		if factories.Durable == nil {
			return nil, mode, fmt.Errorf("durable mode requires a database DSN")
		}
		set, err := factories.Durable()
		return set, mode, err
	case ModeChain:
		if factories.Chain == nil {
			return nil, mode, fmt.Errorf("chain-backed mode requires an RPC endpoint and custodial key")
		}
		set, err := factories.Chain()
		return set, mode, err
	default:
		log.Printf("unknown backend mode %q, falling back to ephemeral", rawMode)
		mode = ModeEphemeral
	}

	if factories.Ephemeral == nil {
		return nil, mode, fmt.Errorf("ephemeral backend factory is missing")
	}
	set, err := factories.Ephemeral()
	return set, mode, err
}
