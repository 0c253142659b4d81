// AngelaMos | 2026
// security_test.go

package core_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/curator-backend/internal/core"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := core.HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := core.VerifyPassword("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = core.VerifyPassword("wrong horse battery", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = core.VerifyPassword("anything", "not-a-hash")
	assert.Error(t, err)
}

func TestTokenHash(t *testing.T) {
	token, err := core.GenerateRefreshToken()
	require.NoError(t, err)

	hash := core.HashToken(token)
	assert.Len(t, hash, 64)
	assert.True(t, core.CompareTokenHash(token, hash))
	assert.False(t, core.CompareTokenHash(token+"x", hash))
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]struct{})

	for range 50 {
		code, err := core.GenerateCode(10)
		require.NoError(t, err)
		require.Len(t, code, 10)
		assert.Equal(t, code, core.NormalizeCode(code))
		assert.Empty(t, strings.Trim(code, "ABCDEFGHJKMNPQRSTVWXYZ23456789"))
		seen[code] = struct{}{}
	}

	assert.Greater(t, len(seen), 45)

	_, err := core.GenerateCode(0)
	assert.Error(t, err)
}

func TestNormalization(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"code dashes and case", core.NormalizeCode, " abcd-efgh-23 ", "ABCDEFGH23"},
		{"text trims", core.NormalizeText, "\t Ada Reader \n", "Ada Reader"},
		{"text composes", core.NormalizeText, "Cafe\u0301", "Caf\u00e9"},
		{"email folds", core.FoldEmail, " Ada@Example.COM ", "ada@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.in))
		})
	}
}
