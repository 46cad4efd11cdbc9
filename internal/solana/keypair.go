package solana

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// LoadCustodialKey parses the backend signer keypair from its environment
// representation: either a JSON byte array ([1,2,...,64]) or a base58
// string. The key authorizes every mint and credential operation, so a
// missing or malformed value must abort startup rather than surface later
// as per-request failures.
func LoadCustodialKey(raw string) (solana.PrivateKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("custodial keypair is empty")
	}

	var key solana.PrivateKey
	if strings.HasPrefix(raw, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(raw), &ints); err != nil {
			return nil, fmt.Errorf("parse keypair byte array: %w", err)
		}
		buf := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("keypair byte %d out of range: %d", i, v)
			}
			buf[i] = byte(v)
		}
		key = solana.PrivateKey(buf)
	} else {
		parsed, err := solana.PrivateKeyFromBase58(raw)
		if err != nil {
			return nil, fmt.Errorf("parse base58 keypair: %w", err)
		}
		key = parsed
	}

	if len(key) != 64 {
		return nil, fmt.Errorf("custodial keypair must be 64 bytes, got %d", len(key))
	}
	return key, nil
}
