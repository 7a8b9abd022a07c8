package auth_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storycreative/ledger/internal/auth"
	"github.com/storycreative/ledger/internal/user"
)

var bootstrap = user.User{
	ID:       "super_admin_01",
	Name:     "Owner",
	Email:    "admin@rayan2media.com",
	Password: "546884",
	Role:     user.RoleSuperAdmin,
}

type userSourceStub struct {
	users map[string]user.User
}

func (s *userSourceStub) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	u, ok := s.users[email]
	if !ok {
		return user.User{}, errors.New("no rows")
	}

	return u, nil
}

func newService(t *testing.T) *auth.Service {
	t.Helper()

	return auth.NewService("test-secret", time.Hour, bootstrap, &userSourceStub{
		users: map[string]user.User{
			"staff@studio.test": {ID: "u1", Name: "Staff", Email: "staff@studio.test", Password: "secret", Role: user.RoleAdmin},
		},
	})
}

func TestService_LoginBootstrap(t *testing.T) {
	svc := newService(t)

	u, token, err := svc.Login(context.Background(), bootstrap.Email, bootstrap.Password)
	require.NoError(t, err)

	assert.Equal(t, "super_admin_01", u.ID)
	assert.Equal(t, user.RoleSuperAdmin, u.Role)
	assert.Empty(t, u.Password)
	assert.NotEmpty(t, token)
}

func TestService_LoginRegistryUser(t *testing.T) {
	svc := newService(t)

	u, token, err := svc.Login(context.Background(), "staff@studio.test", "secret")
	require.NoError(t, err)

	assert.Equal(t, "u1", u.ID)
	assert.Empty(t, u.Password)

	verified, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u, verified)
}

func TestService_LoginBadCredentials(t *testing.T) {
	svc := newService(t)

	tests := []struct {
		name, email, password string
	}{
		{"UnknownEmail", "nobody@studio.test", "secret"},
		{"WrongPassword", "staff@studio.test", "wrong"},
		{"WrongBootstrapPassword", bootstrap.Email, "wrong"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Login(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		})
	}
}

func TestService_VerifyRejectsGarbage(t *testing.T) {
	svc := newService(t)

	_, err := svc.Verify("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestService_VerifyRejectsForeignSignature(t *testing.T) {
	svc := newService(t)
	other := auth.NewService("other-secret", time.Hour, bootstrap, &userSourceStub{})

	_, token, err := other.Login(context.Background(), bootstrap.Email, bootstrap.Password)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestService_LogoutKillsToken(t *testing.T) {
	svc := newService(t)

	_, token, err := svc.Login(context.Background(), "staff@studio.test", "secret")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.NoError(t, err)

	svc.Logout(token)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestService_ExpiredToken(t *testing.T) {
	svc := auth.NewService("test-secret", -time.Minute, bootstrap, &userSourceStub{})

	_, token, err := svc.Login(context.Background(), bootstrap.Email, bootstrap.Password)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestSession_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	want := auth.Session{
		User:  user.User{ID: "u1", Name: "Staff", Email: "staff@studio.test", Role: user.RoleAdmin},
		Token: "tok-123",
	}

	require.NoError(t, auth.SaveSession(path, want))

	got, ok := auth.LoadSession(path)
	require.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, auth.ClearSession(path))

	_, ok = auth.LoadSession(path)
	assert.False(t, ok)
}

func TestSession_CorruptFileMeansLoggedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, ok := auth.LoadSession(path)
	assert.False(t, ok)
}

func TestSession_ClearAbsentIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	assert.NoError(t, auth.ClearSession(path))
}
