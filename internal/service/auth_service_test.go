package service

import (
	"questline_backend/internal/config"
	"questline_backend/internal/model"
	"questline_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireTime = time.Hour
	authSvc := NewAuthService(env.users, cfg)

	user := &model.User{Name: "选手", Email: "player@example.com", Password: "s3cret-pass"}
	require.NoError(t, authSvc.Register(user))
	assert.NotEqual(t, "s3cret-pass", user.Password, "password stored hashed")

	err := authSvc.Register(&model.User{Name: "重复", Email: "player@example.com", Password: "x"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)

	_, err = authSvc.Login("player@example.com", "wrong-pass")
	assert.Error(t, err)

	token, err := authSvc.Login("player@example.com", "s3cret-pass")
	require.NoError(t, err)

	claims, err := util.ParseJWT(token, cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.Participant, claims.Role)
}

func TestLogin_DisabledAccount(t *testing.T) {
	env := newTestEnv(t)
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireTime = time.Hour
	authSvc := NewAuthService(env.users, cfg)

	user := &model.User{Name: "禁用", Email: "blocked@example.com", Password: "s3cret-pass"}
	require.NoError(t, authSvc.Register(user))
	require.NoError(t, env.db.Model(&model.User{}).
		Where("id = ?", user.ID).
		Update("disabled", true).Error)

	_, err := authSvc.Login("blocked@example.com", "s3cret-pass")
	assert.Error(t, err)
}
