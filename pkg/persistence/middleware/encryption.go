package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/ports"
)

// envelopePrefix marks a Description that carries the sealed team.
const envelopePrefix = "teamboard-sealed:v1:"

// ErrNotSealed is returned when a stored team is not an encrypted envelope.
var ErrNotSealed = errors.New("team is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey encrypts new data. Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried when the active key cannot decrypt, which
	// allows rotating keys without rewriting every team first.
	FallbackKeys [][]byte
}

// ParseKeys decodes a hex active key and optional hex fallback keys.
func ParseKeys(active string, fallbacks ...string) (EncryptionConfig, error) {
	var cfg EncryptionConfig
	key, err := hex.DecodeString(strings.TrimSpace(active))
	if err != nil {
		return cfg, fmt.Errorf("invalid encryption key: %w", err)
	}
	if len(key) != 32 {
		return cfg, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	cfg.ActiveKey = key

	for i, f := range fallbacks {
		k, err := hex.DecodeString(strings.TrimSpace(f))
		if err != nil || len(k) != 32 {
			return cfg, fmt.Errorf("fallback key %d must be 32 hex-encoded bytes", i)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, k)
	}
	return cfg, nil
}

type encryptionMiddleware struct {
	next   ports.TeamStore
	config EncryptionConfig
}

// NewEncryptionMiddleware seals every team with AES-GCM before it reaches the
// wrapped store. Only ID, Name and the timestamps stay readable, so the
// backend can still index and order teams.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.TeamStore) ports.TeamStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, team *domain.Team) error {
	plainText, err := json.Marshal(team)
	if err != nil {
		return fmt.Errorf("failed to marshal team: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt team: %w", err)
	}

	envelope := &domain.Team{
		ID:          team.ID,
		Name:        team.Name,
		Description: envelopePrefix + base64.StdEncoding.EncodeToString(ciphertext),
		CreatedAt:   team.CreatedAt,
		UpdatedAt:   team.UpdatedAt,
	}
	return m.next.Save(ctx, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, id string) (*domain.Team, error) {
	envelope, err := m.next.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.open(envelope)
}

func (m *encryptionMiddleware) open(envelope *domain.Team) (*domain.Team, error) {
	sealed, ok := strings.CutPrefix(envelope.Description, envelopePrefix)
	if !ok {
		// Fail closed: a plain team under an encrypting store is not trusted.
		return nil, fmt.Errorf("%w: %s", ErrNotSealed, envelope.ID)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt team %s: %w", envelope.ID, err)
	}

	var team domain.Team
	if err := json.Unmarshal(plainText, &team); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted team: %w", err)
	}
	return &team, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]*domain.Team, error) {
	envelopes, err := m.next.List(ctx)
	if err != nil {
		return nil, err
	}
	teams := make([]*domain.Team, 0, len(envelopes))
	for _, e := range envelopes {
		team, err := m.open(e)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, nil
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
