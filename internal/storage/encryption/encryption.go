// Package encryption implements at-rest encryption for archived objects
// using HPKE (RFC 9180). Objects are sealed to an X25519 public key, so
// recorders only need the public half; the private half stays with whoever
// needs to read the archive back.
package encryption

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/hpke"
	"github.com/cloudflare/circl/kem"
	"github.com/fxamacker/cbor/v2"
)

// ErrKeyMissing is returned when decryption is attempted with a key that
// only has the public half.
var ErrKeyMissing = errors.New("private key missing")

// hpkeInfo is the application binding string for every HPKE operation.
var hpkeInfo = []byte("satori")

// Suite parameters: X25519 key encapsulation, HKDF-SHA384 key derivation,
// ChaCha20-Poly1305 payload encryption.
const (
	suiteKEM  = hpke.KEM_X25519_HKDF_SHA256
	suiteKDF  = hpke.KDF_HKDF_SHA384
	suiteAEAD = hpke.AEAD_ChaCha20Poly1305
)

// payload is the serialized form of an encrypted object: the encapsulated
// KEM shared secret alongside the ciphertext.
type payload struct {
	Key        []byte `cbor:"key"`
	Ciphertext []byte `cbor:"ciphertext"`
}

// Key holds an HPKE keypair, possibly without its private half.
type Key struct {
	public  kem.PublicKey
	private kem.PrivateKey
}

// KeyConfig is the configuration form of an encryption key. Keys are PEM
// encoded; the private key is optional.
type KeyConfig struct {
	Kind       string `mapstructure:"kind"`
	PublicKey  string `mapstructure:"public_key"`
	PrivateKey string `mapstructure:"private_key"`
}

// Key builds the usable key from its configuration.
func (c KeyConfig) Key() (*Key, error) {
	if c.Kind != "hpke" {
		return nil, fmt.Errorf("unknown encryption key kind %q", c.Kind)
	}
	return NewKey(c.PublicKey, c.PrivateKey)
}

// NewKey parses PEM encoded X25519 keys. privatePEM may be empty, in which
// case the key can encrypt but not decrypt.
func NewKey(publicPEM, privatePEM string) (*Key, error) {
	scheme := suiteKEM.Scheme()

	publicBytes, err := parsePEMKey(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	public, err := scheme.UnmarshalBinaryPublicKey(publicBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}

	key := &Key{public: public}

	if privatePEM != "" {
		privateBytes, err := parsePEMKey(privatePEM)
		if err != nil {
			return nil, fmt.Errorf("parsing private key: %w", err)
		}
		private, err := scheme.UnmarshalBinaryPrivateKey(privateBytes)
		if err != nil {
			return nil, fmt.Errorf("parsing private key: %w", err)
		}
		key.private = private
	}

	return key, nil
}

// CanDecrypt reports whether the private half of the key is present.
func (k *Key) CanDecrypt() bool {
	return k.private != nil
}

// Encrypt seals data to the public key. id binds the ciphertext to the
// object's identity, so a payload moved to another object name fails to
// decrypt.
func (k *Key) Encrypt(id, data []byte) ([]byte, error) {
	suite := hpke.NewSuite(suiteKEM, suiteKDF, suiteAEAD)

	sender, err := suite.NewSender(k.public, hpkeInfo)
	if err != nil {
		return nil, fmt.Errorf("creating HPKE sender: %w", err)
	}

	enc, sealer, err := sender.Setup(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("HPKE setup: %w", err)
	}

	ciphertext, err := sealer.Seal(data, id)
	if err != nil {
		return nil, fmt.Errorf("sealing payload: %w", err)
	}

	return cbor.Marshal(payload{Key: enc, Ciphertext: ciphertext})
}

// Decrypt opens a payload produced by Encrypt with the same id. It fails
// with ErrKeyMissing when only the public half of the key is available.
func (k *Key) Decrypt(id, data []byte) ([]byte, error) {
	if k.private == nil {
		return nil, ErrKeyMissing
	}

	var p payload
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding encrypted payload: %w", err)
	}

	suite := hpke.NewSuite(suiteKEM, suiteKDF, suiteAEAD)

	receiver, err := suite.NewReceiver(k.private, hpkeInfo)
	if err != nil {
		return nil, fmt.Errorf("creating HPKE receiver: %w", err)
	}

	opener, err := receiver.Setup(p.Key)
	if err != nil {
		return nil, fmt.Errorf("HPKE setup: %w", err)
	}

	plaintext, err := opener.Open(p.Ciphertext, id)
	if err != nil {
		return nil, fmt.Errorf("opening payload: %w", err)
	}

	return plaintext, nil
}
