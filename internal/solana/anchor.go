package solana

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// anchorDiscriminator computes the 8-byte Anchor discriminator:
// sha256("namespace:name")[:8].
func anchorDiscriminator(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var disc [8]byte
	copy(disc[:], sum[:8])
	return disc
}

// InstructionDiscriminator returns the discriminator for a global instruction.
func InstructionDiscriminator(name string) [8]byte {
	return anchorDiscriminator("global", name)
}

// AccountDiscriminator returns the discriminator prefixing an account type.
func AccountDiscriminator(name string) [8]byte {
	return anchorDiscriminator("account", name)
}

// encodeInstruction serializes an instruction payload: discriminator
// followed by the borsh encoding of args. A nil args encodes no arguments.
func encodeInstruction(name string, args interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	disc := InstructionDiscriminator(name)
	buf.Write(disc[:])

	if args != nil {
		if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
			return nil, fmt.Errorf("encode %s args: %w", name, err)
		}
	}
	return buf.Bytes(), nil
}

type completeLessonArgs struct {
	LessonIndex uint8
}

type credentialArgs struct {
	Name             string
	MetadataURI      string
	CoursesCompleted uint32
	TotalXP          uint64
}
