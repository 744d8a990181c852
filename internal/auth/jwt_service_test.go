package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finhub/internal/model"
)

func testUser() *model.User {
	return &model.User{ID: uuid.New(), Email: "admin@acme.io", Role: model.RoleAdmin, CompanyID: "COMP_1_abc"}
}

func TestJWTService_SessionToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	user := testUser()

	token, err := svc.GenerateSessionToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.CompanyID, claims.CompanyID)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.True(t, claims.IsSession())
	assert.NotEmpty(t, claims.ID)
	assert.InDelta(t, time.Hour.Seconds(), claims.Remaining().Seconds(), 5)

	_, err = svc.ValidateRefreshToken(token)
	assert.Error(t, err)
}

func TestJWTService_RefreshToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	tokenID, token, err := svc.GenerateRefreshToken(testUser())
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, tokenID, claims.ID)
	assert.False(t, claims.IsSession())
}

func TestJWTService_RejectsForeignSignature(t *testing.T) {
	token, err := NewJWTService("secret-a", time.Hour).GenerateSessionToken(testUser())
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute)
	token, err := svc.GenerateSessionToken(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
