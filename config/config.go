package config

import (
	"fmt"
	"os"
	"strings"
)

// Config is the process configuration, read once at startup. Fields that
// are only meaningful for one backend mode are validated when that mode
// is selected, not before.
type Config struct {
	Mode string
	Port string

	RedisURL    string
	DatabaseDSN string

	SolanaRPCURL string
	DASEndpoint  string
	ProgramID    string
	XPMint       string
	SignerKey    string

	// TrackCollections maps a track name to its credential collection
	// address, from TRACK_COLLECTION_<NAME> variables.
	TrackCollections map[string]string
}

var trackNames = []string{"fundamentals", "anchor", "defi", "nft", "security"}

// Load reads the configuration from the environment.
func Load() *Config {
	cfg := &Config{
		Mode:             getEnv("BACKEND_MODE", "ephemeral"),
		Port:             getEnv("PORT", "8080"),
		RedisURL:         os.Getenv("REDIS_URL"),
		DatabaseDSN:      os.Getenv("DATABASE_DSN"),
		SolanaRPCURL:     getEnv("SOLANA_RPC_URL", "https://api.devnet.solana.com"),
		DASEndpoint:      os.Getenv("DAS_ENDPOINT"),
		ProgramID:        os.Getenv("PROGRAM_ID"),
		XPMint:           os.Getenv("XP_MINT"),
		SignerKey:        os.Getenv("BACKEND_SIGNER_KEYPAIR"),
		TrackCollections: make(map[string]string),
	}

	for _, track := range trackNames {
		key := "TRACK_COLLECTION_" + strings.ToUpper(track)
		if addr := os.Getenv(key); addr != "" {
			cfg.TrackCollections[track] = addr
		}
	}
	return cfg
}

// ValidateDurable checks the settings durable mode cannot run without.
func (c *Config) ValidateDurable() error {
	if c.DatabaseDSN == "" {
		return fmt.Errorf("durable mode requires DATABASE_DSN")
	}
	return nil
}

// ValidateChain checks the settings chain-backed mode cannot run without.
// The custodial key authorizes every mint, so its absence is fatal here
// rather than a per-request surprise.
func (c *Config) ValidateChain() error {
	var missing []string
	if c.SignerKey == "" {
		missing = append(missing, "BACKEND_SIGNER_KEYPAIR")
	}
	if c.XPMint == "" {
		missing = append(missing, "XP_MINT")
	}
	if len(missing) > 0 {
		return fmt.Errorf("chain-backed mode requires %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
