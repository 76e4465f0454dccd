package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-very-long-test-secret"

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWTToken(testSecret, "v1", "Ania", RoleOrganization, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWTToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "v1", claims.UserID)
	assert.Equal(t, "Ania", claims.DisplayName)
	assert.Equal(t, RoleOrganization, claims.Role)

	_, err = ParseJWTToken("another-long-test-secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseJWTToken(testSecret, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTExpired(t *testing.T) {
	token, err := GenerateJWTToken(testSecret, "v1", "", RoleVolunteer, -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWTToken(testSecret, token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestJWTDefaultRole(t *testing.T) {
	token, err := GenerateJWTToken(testSecret, "v1", "", "", time.Hour)
	require.NoError(t, err)
	claims, err := ParseJWTToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, RoleVolunteer, claims.Role)
}

func TestInitLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := InitLogger("info", path)
	require.NoError(t, err)
	log.Info("hello")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)

	_, err = InitLogger("loud", "")
	assert.Error(t, err)
}
