package auth

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/juancollazo-ch/magazord-sales-dashboard/internal/errors"
)

func TestMain(m *testing.M) {
	hashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func TestLoadUsersSeedsDefaultUser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	u, err := LoadUsers(path, "admin", "s3cret", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, u.Authenticate("admin", "s3cret"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var stored map[string]string
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.True(t, isHash(stored["admin"]), "password must be stored hashed")
}

func TestLoadUsersWithoutDefaultsDisablesLogin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	u, err := LoadUsers(path, "admin", "", zap.NewNop())
	require.NoError(t, err)
	assert.Error(t, u.Authenticate("admin", ""))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadUsersHashesPlaintextEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"vendas": "via123"}`), 0o600))

	u, err := LoadUsers(path, "admin", "ignored", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, u.Authenticate("vendas", "via123"))

	// el archivo existente manda: no se agrega el usuario por defecto
	assert.Error(t, u.Authenticate("admin", "ignored"))

	data, _ := os.ReadFile(path)
	assert.NotContains(t, string(data), "via123")
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	u, err := LoadUsers(filepath.Join(t.TempDir(), "users.json"), "admin", "s3cret", zap.NewNop())
	require.NoError(t, err)

	for _, tc := range []struct{ user, pass string }{
		{"admin", "wrong"},
		{"ghost", "s3cret"},
		{"", ""},
	} {
		err := u.Authenticate(tc.user, tc.pass)
		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, apperrors.GetStatusCode(err))
	}
}

func TestLoadUsersCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`{nope`), 0o600))

	_, err := LoadUsers(path, "admin", "x", zap.NewNop())
	assert.Error(t, err)
}

func TestSessionsLifecycle(t *testing.T) {
	clock := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	s := NewSessions(time.Hour)
	s.now = func() time.Time { return clock }

	token, expires := s.Issue("admin")
	assert.Equal(t, clock.Add(time.Hour), expires)

	user, ok := s.Validate(token)
	assert.True(t, ok)
	assert.Equal(t, "admin", user)

	_, ok = s.Validate("unknown")
	assert.False(t, ok)

	clock = clock.Add(time.Hour)
	_, ok = s.Validate(token)
	assert.False(t, ok, "token expires at ttl")

	other, _ := s.Issue("admin")
	s.Revoke(other)
	_, ok = s.Validate(other)
	assert.False(t, ok)
}
