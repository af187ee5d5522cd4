package encryption

import (
	"encoding/pem"
	"errors"
	"fmt"
)

// x25519KeySize is the raw length of both halves of an X25519 keypair.
const x25519KeySize = 32

// DER prefixes for X25519 keys: SubjectPublicKeyInfo and PKCS#8, as written
// by "openssl genpkey -algorithm X25519". The raw key is the final 32 bytes
// in both encodings.
var (
	derPublicKeyPrefix  = []byte{0x30, 0x2a, 0x30, 0x05, 0x06, 0x03, 0x2b, 0x65, 0x6e, 0x03, 0x21, 0x00}
	derPrivateKeyPrefix = []byte{0x30, 0x2e, 0x02, 0x01, 0x00, 0x30, 0x05, 0x06, 0x03, 0x2b, 0x65, 0x6e, 0x04, 0x22, 0x04, 0x20}
)

// parsePEMKey extracts a raw 32 byte X25519 key from a PEM block. The last
// 32 bytes of the decoded body are taken, which handles SPKI, PKCS#8 and
// bare keys alike.
func parsePEMKey(s string) ([]byte, error) {
	block, _ := pem.Decode([]byte(s))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	if len(block.Bytes) < x25519KeySize {
		return nil, fmt.Errorf("key length incorrect, expected %d, got %d", x25519KeySize, len(block.Bytes))
	}

	return block.Bytes[len(block.Bytes)-x25519KeySize:], nil
}

// GenerateKeyPair creates a fresh X25519 keypair and returns both halves as
// OpenSSL compatible PEM.
func GenerateKeyPair() (publicPEM, privatePEM string, err error) {
	scheme := suiteKEM.Scheme()

	public, private, err := scheme.GenerateKeyPair()
	if err != nil {
		return "", "", fmt.Errorf("generating keypair: %w", err)
	}

	publicBytes, err := public.MarshalBinary()
	if err != nil {
		return "", "", fmt.Errorf("encoding public key: %w", err)
	}
	privateBytes, err := private.MarshalBinary()
	if err != nil {
		return "", "", fmt.Errorf("encoding private key: %w", err)
	}

	publicPEM = string(pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: append(append([]byte{}, derPublicKeyPrefix...), publicBytes...),
	}))
	privatePEM = string(pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: append(append([]byte{}, derPrivateKeyPrefix...), privateBytes...),
	}))

	return publicPEM, privatePEM, nil
}
