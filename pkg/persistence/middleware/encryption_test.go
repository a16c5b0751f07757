package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/teamboard/pkg/adapters/memory"
	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/persistence/middleware"
	"github.com/aretw0/teamboard/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func secretTeam() *domain.Team {
	return &domain.Team{
		ID:               "team-1",
		Name:             "Payments",
		Members:          []domain.Member{{Name: "Ada", Email: "ada@example.com"}},
		WorkingAgreement: domain.WorkingAgreement{Body: "my-secret-sauce"},
		Capabilities:     []string{"tax-compliance"},
		CreatedAt:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	tests.TeamStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, secretTeam()))

	stored, err := underlying.Load(ctx, "team-1")
	require.NoError(t, err)
	assert.Equal(t, "Payments", stored.Name, "name stays readable for ordering")
	assert.Empty(t, stored.Members)
	assert.Empty(t, stored.Capabilities)
	assert.Empty(t, stored.WorkingAgreement.Body)
	assert.NotContains(t, stored.Description, "my-secret-sauce")

	loaded, err := secure.Load(ctx, "team-1")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.WorkingAgreement.Body)
	assert.Equal(t, "ada@example.com", loaded.Members[0].Email)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	secureOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, secureOld.Save(ctx, secretTeam()))

	secureNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := secureNew.Load(ctx, "team-1")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.WorkingAgreement.Body)

	loaded.WorkingAgreement.Body = "re-sealed"
	require.NoError(t, secureNew.Save(ctx, loaded))

	_, err = secureOld.Load(ctx, "team-1")
	assert.Error(t, err, "old key alone cannot read data sealed with the new key")
}

func TestEncryptionMiddleware_RejectsPlainTeams(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, secretTeam()))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "team-1")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)

	_, err = secure.List(ctx)
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestParseKeys(t *testing.T) {
	active := hex.EncodeToString(generateKey(t))
	old := hex.EncodeToString(generateKey(t))

	cfg, err := middleware.ParseKeys(active, old)
	require.NoError(t, err)
	assert.Len(t, cfg.ActiveKey, 32)
	assert.Len(t, cfg.FallbackKeys, 1)

	_, err = middleware.ParseKeys("zz")
	assert.Error(t, err)

	_, err = middleware.ParseKeys(strings.Repeat("ab", 16))
	assert.Error(t, err, "16 bytes is AES-128, not accepted")

	_, err = middleware.ParseKeys(active, "nope")
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	store := middleware.Chain(memory.NewStore(),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)}),
	)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, secretTeam()))
	teams, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, []string{"tax-compliance"}, teams[0].Capabilities)
}
