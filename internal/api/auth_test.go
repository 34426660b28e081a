package api

import (
	"net/http"
	"testing"

	"xpanel/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginMe(t *testing.T) {
	e := newEnv(t)

	w, env := e.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"email": "Alice@Example.com", "password": testPassword})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reg AuthResponse
	decodeData(t, env, &reg)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "alice@example.com", reg.User.Email)
	assert.Equal(t, "alice", reg.User.Username)
	assert.Len(t, reg.User.ReferralCode, 8)
	assert.NotContains(t, w.Body.String(), "password")

	w, env = e.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"email": "alice@example.com", "password": testPassword})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)

	w, _ = e.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = e.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ALICE@example.com", "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code)
	var login AuthResponse
	decodeData(t, env, &login)
	require.NotNil(t, login.User.LastLoginAt)

	w, env = e.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me domain.User
	decodeData(t, env, &me)
	assert.Equal(t, reg.User.ID, me.ID)

	w, _ = e.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterWithReferralCode(t *testing.T) {
	e := newEnv(t)
	referrer, _ := e.seedUser(t, "bob@example.com", domain.RoleUser)

	w, _ := e.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"email": "x@example.com", "password": testPassword, "referral_code": "NOPE0000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := e.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"email": "carol@example.com", "password": testPassword, "referral_code": "bob"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reg AuthResponse
	decodeData(t, env, &reg)
	require.NotNil(t, reg.User.ReferrerID)
	assert.Equal(t, referrer.ID, *reg.User.ReferrerID)
}

func TestLoginDisabledAndAdminLogin(t *testing.T) {
	e := newEnv(t)
	u, _ := e.seedUser(t, "dave@example.com", domain.RoleUser)
	e.seedUser(t, "root@example.com", domain.RoleAdmin)

	w, _ := e.do(t, http.MethodPost, "/api/auth/admin-login", "", gin.H{"email": "dave@example.com", "password": testPassword})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = e.do(t, http.MethodPost, "/api/auth/admin-login", "", gin.H{"email": "root@example.com", "password": testPassword})
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, e.db.Model(u).Update("status", domain.UserDisabled).Error)
	w, _ = e.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "dave@example.com", "password": testPassword})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
