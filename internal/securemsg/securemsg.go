// Package securemsg seals short emergency messages for relay across channels
// the caller does not trust. Messages are encrypted with AES-256-GCM and
// additionally carry a "quantum signature", a keyed SHA-256 over the
// plaintext and the shared key, re-derived on decrypt. The name is a labeled
// simulation inherited from the product design, not physical quantum key
// distribution; it is a second integrity check beyond the GCM tag.
package securemsg

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"

	"github.com/resqlink/disaster-server/internal/models"
)

const (
	keySize = 32 // AES-256
	ivSize  = 12 // standard GCM nonce
	tagSize = 16
)

// hkdfInfo binds derived keys to this messaging context.
var hkdfInfo = []byte("resqlink emergency messaging v1")

// Messenger encrypts and decrypts emergency message payloads with a key
// derived from a shared secret. Safe for concurrent use.
type Messenger struct {
	key    []byte
	clock  clockwork.Clock
	logger *zap.SugaredLogger
}

// New derives the AES-256 key from secret with HKDF-SHA256 and returns a
// ready messenger.
func New(secret string, clock clockwork.Clock, logger *zap.SugaredLogger) (*Messenger, error) {
	if secret == "" {
		return nil, fmt.Errorf("messaging secret is empty")
	}

	key := make([]byte, keySize)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, hkdfInfo)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive messaging key: %w", err)
	}

	return &Messenger{key: key, clock: clock, logger: logger}, nil
}

// Encrypt seals message for recipientID with a fresh random IV. The GCM tag
// is carried separately from the ciphertext, and the quantum signature is
// computed over the plaintext before sealing.
func (m *Messenger) Encrypt(message, recipientID string) (models.EncryptedMessage, error) {
	block, err := aes.NewCipher(m.key)
	if err != nil {
		return models.EncryptedMessage{}, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return models.EncryptedMessage{}, fmt.Errorf("init gcm: %w", err)
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return models.EncryptedMessage{}, fmt.Errorf("generate iv: %w", err)
	}

	sealed := gcm.Seal(nil, iv, []byte(message), nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	authTag := sealed[len(sealed)-tagSize:]

	return models.EncryptedMessage{
		Ciphertext:       hex.EncodeToString(ciphertext),
		IV:               hex.EncodeToString(iv),
		AuthTag:          hex.EncodeToString(authTag),
		RecipientID:      recipientID,
		QuantumSignature: m.sign(message),
		Timestamp:        m.clock.Now(),
	}, nil
}

// Decrypt opens a sealed payload. Any malformed field, wrong key, tag
// mismatch, or signature mismatch yields Verified=false; low-level cipher
// errors never reach the caller.
func (m *Messenger) Decrypt(payload models.EncryptedMessage) models.DecryptResult {
	ciphertext, err := hex.DecodeString(payload.Ciphertext)
	if err != nil {
		return m.fail("malformed ciphertext")
	}
	iv, err := hex.DecodeString(payload.IV)
	if err != nil || len(iv) != ivSize {
		return m.fail("malformed iv")
	}
	authTag, err := hex.DecodeString(payload.AuthTag)
	if err != nil || len(authTag) != tagSize {
		return m.fail("malformed auth tag")
	}

	block, err := aes.NewCipher(m.key)
	if err != nil {
		return m.fail("cipher init failed")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return m.fail("gcm init failed")
	}

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, authTag...), nil)
	if err != nil {
		return m.fail("authentication failed")
	}

	message := string(plaintext)
	return models.DecryptResult{
		Message:   message,
		Verified:  m.sign(message) == payload.QuantumSignature,
		Timestamp: payload.Timestamp,
	}
}

// sign computes the keyed integrity hash over (plaintext, shared key).
func (m *Messenger) sign(message string) string {
	h := sha256.New()
	h.Write([]byte(message))
	h.Write(m.key)
	return hex.EncodeToString(h.Sum(nil))
}

func (m *Messenger) fail(reason string) models.DecryptResult {
	if m.logger != nil {
		m.logger.Warnw("Message decryption failed", "reason", reason)
	}
	return models.DecryptResult{Verified: false}
}
