package api

import (
	"net/http"
	"testing"

	"xpanel/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfile(t *testing.T) {
	e := newEnv(t)
	_, token := e.seedUser(t, "lena@example.com", domain.RoleUser)

	w, _ := e.do(t, http.MethodPut, "/api/user/profile", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.do(t, http.MethodPut, "/api/user/profile", token, gin.H{"avatar_url": "javascript:alert(1)"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := e.do(t, http.MethodPut, "/api/user/profile", token, gin.H{"username": " Lena ", "avatar_url": "https://cdn.example/l.png"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var u domain.User
	decodeData(t, env, &u)
	assert.Equal(t, "Lena", u.Username)
	assert.Equal(t, "https://cdn.example/l.png", u.AvatarURL)

	w, env = e.do(t, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, env, &u)
	assert.Equal(t, "Lena", u.Username)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	_, token := e.seedUser(t, "mike@example.com", domain.RoleUser)

	w, _ := e.do(t, http.MethodPut, "/api/user/password", token, gin.H{"old_password": "nope", "new_password": "newsecret"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.do(t, http.MethodPut, "/api/user/password", token, gin.H{"old_password": testPassword, "new_password": "newsecret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = e.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "mike@example.com", "password": testPassword})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = e.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "mike@example.com", "password": "newsecret"})
	assert.Equal(t, http.StatusOK, w.Code)
}
