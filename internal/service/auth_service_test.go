package service

import (
	"learnpulse_backend/internal/config"
	"learnpulse_backend/internal/model"
	"learnpulse_backend/internal/repository"
	"learnpulse_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthService(db *gorm.DB) *AuthService {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(repository.NewUserRepository(db), cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	user, err := svc.Register(&RegisterRequest{
		Name:       "Sam",
		Email:      "sam@example.com",
		Password:   "sup3rsecret",
		GradeLevel: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, model.Student, user.Role)
	assert.NotEqual(t, "sup3rsecret", user.Password, "password must be stored hashed")

	resp, err := svc.Login(&LoginRequest{Email: "sam@example.com", Password: "sup3rsecret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	claims, err := util.ParseJWT(resp.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	_, err := svc.Register(&RegisterRequest{Name: "Sam", Email: "sam@example.com", Password: "sup3rsecret"})
	require.NoError(t, err)

	_, err = svc.Register(&RegisterRequest{Name: "Other", Email: "sam@example.com", Password: "different1"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	_, err := svc.Register(&RegisterRequest{Name: "Sam", Email: "sam@example.com", Password: "sup3rsecret"})
	require.NoError(t, err)

	_, err = svc.Login(&LoginRequest{Email: "sam@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, err = svc.Login(&LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}
