package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deligo/server/internal/model"
)

func testUser() *model.User {
	return &model.User{
		ID:        uuid.New(),
		Firstname: "Ada",
		Lastname:  "Lovelace",
		Email:     "ada@example.com",
		Role:      model.RoleUser,
	}
}

func TestJWTService_roundtrip(t *testing.T) {
	svc := NewJWTService("test-secret-at-least-32-characters!!", time.Hour)
	user := testUser()

	token, err := svc.SignAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "Ada Lovelace", claims.Username)
	assert.Equal(t, model.RoleUser, claims.Role)
	assert.Equal(t, "ada@example.com", claims.Email)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestJWTService_wrongSecret(t *testing.T) {
	issuer := NewJWTService("secret-one-for-signing-tokens!!!", time.Hour)
	verifier := NewJWTService("secret-two-for-verifying-tokens!", time.Hour)

	token, err := issuer.SignAccessToken(testUser())
	require.NoError(t, err)

	_, err = verifier.VerifyAccessToken(token)
	assert.Error(t, err, "token signed with a different secret must not verify")
}

func TestJWTService_expired(t *testing.T) {
	svc := NewJWTService("test-secret-at-least-32-characters!!", -time.Minute)

	token, err := svc.SignAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.Error(t, err, "expired token must not verify")
}

func TestJWTService_garbage(t *testing.T) {
	svc := NewJWTService("test-secret-at-least-32-characters!!", time.Hour)
	_, err := svc.VerifyAccessToken("not.a.token")
	assert.Error(t, err)
	_, err = svc.VerifyAccessToken("")
	assert.Error(t, err)
}
