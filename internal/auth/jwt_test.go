// AngelaMos | 2026
// jwt_test.go

package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/curator-backend/internal/auth"
	"github.com/carterperez-dev/curator-backend/internal/config"
	"github.com/carterperez-dev/curator-backend/internal/core"
	"github.com/carterperez-dev/curator-backend/internal/testutil"
)

func jwtConfig(t *testing.T) config.JWTConfig {
	t.Helper()

	dir := t.TempDir()
	cfg := config.JWTConfig{
		PrivateKeyPath:     filepath.Join(dir, "private.pem"),
		PublicKeyPath:      filepath.Join(dir, "public.pem"),
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 24 * time.Hour,
		Issuer:             "curator-test",
		Audience:           "curator-test",
	}
	require.NoError(t, auth.GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath))
	return cfg
}

func TestAccessToken_RoundTripAndExpiry(t *testing.T) {
	clock := testutil.NewClock()
	manager, err := auth.NewJWTManager(jwtConfig(t), clock)
	require.NoError(t, err)

	issued, err := manager.CreateAccessToken("user-1", "admin", 3)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(15*time.Minute), issued.ExpiresAt)

	claims, err := manager.VerifyAccessToken(t.Context(), issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.NotEmpty(t, claims.JTI)

	clock.Advance(16 * time.Minute)

	_, err = manager.VerifyAccessToken(t.Context(), issued.Token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestAccessToken_ForeignKeyIsInvalid(t *testing.T) {
	clock := testutil.NewClock()
	ours, err := auth.NewJWTManager(jwtConfig(t), clock)
	require.NoError(t, err)
	theirs, err := auth.NewJWTManager(jwtConfig(t), clock)
	require.NoError(t, err)

	issued, err := theirs.CreateAccessToken("user-1", "curator", 0)
	require.NoError(t, err)

	_, err = ours.VerifyAccessToken(t.Context(), issued.Token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestKeyID_StableAcrossRestarts(t *testing.T) {
	cfg := jwtConfig(t)

	first, err := auth.NewJWTManager(cfg, core.SystemClock())
	require.NoError(t, err)
	second, err := auth.NewJWTManager(cfg, core.SystemClock())
	require.NoError(t, err)

	assert.Len(t, first.KeyID(), 16)
	assert.Equal(t, first.KeyID(), second.KeyID())

	rec := httptest.NewRecorder()
	first.JWKSHandler()(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var set struct {
		Keys []struct {
			Kid string `json:"kid"`
			Alg string `json:"alg"`
			D   string `json:"d"`
		} `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	require.Len(t, set.Keys, 1)
	assert.Equal(t, first.KeyID(), set.Keys[0].Kid)
	assert.Equal(t, "ES256", set.Keys[0].Alg)
	assert.Empty(t, set.Keys[0].D, "private component must not be published")
}

func TestRefreshToken_KeepsFamily(t *testing.T) {
	clock := testutil.NewClock()
	manager, err := auth.NewJWTManager(jwtConfig(t), clock)
	require.NoError(t, err)

	fresh, err := manager.CreateRefreshToken("")
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.FamilyID)
	assert.Equal(t, core.HashToken(fresh.Token), fresh.Hash)
	assert.Equal(t, clock.Now().Add(24*time.Hour), fresh.ExpiresAt)

	rotated, err := manager.CreateRefreshToken(fresh.FamilyID)
	require.NoError(t, err)
	assert.Equal(t, fresh.FamilyID, rotated.FamilyID)
	assert.NotEqual(t, fresh.Token, rotated.Token)
}
