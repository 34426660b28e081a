package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"xpanel/internal/billing"
	"xpanel/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingValue(t *testing.T) {
	v, err := settingValue("XPanel")
	require.NoError(t, err)
	assert.Equal(t, "XPanel", v)

	v, err = settingValue([]any{"alipay", "stripe"})
	require.NoError(t, err)
	assert.Equal(t, `["alipay","stripe"]`, v)

	v, err = settingValue(0.15)
	require.NoError(t, err)
	assert.Equal(t, "0.15", v)
}

func TestSettingsAndPaymentMethods(t *testing.T) {
	e := newEnv(t)
	_, adminToken := e.seedUser(t, "root@example.com", domain.RoleAdmin)

	w, env := e.do(t, http.MethodGet, "/api/payments/methods", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var methods []struct{ ID, Name string }
	decodeData(t, env, &methods)
	assert.Len(t, methods, 3)

	w, _ = e.do(t, http.MethodPut, "/api/admin/settings", adminToken, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = e.do(t, http.MethodPut, "/api/admin/settings", adminToken, gin.H{
		"site_name": "FastVPN", "payment_methods": []string{"usdt"}, "support_email": "help@fastvpn.example",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var st billing.Settings
	decodeData(t, env, &st)
	assert.Equal(t, "FastVPN", st.SiteName)
	assert.Equal(t, []string{"usdt"}, st.PaymentMethods)
	assert.Equal(t, "help@fastvpn.example", st.Extra["support_email"])

	w, env = e.do(t, http.MethodGet, "/api/payments/methods", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, env, &methods)
	require.Len(t, methods, 1)
	assert.Equal(t, "USDT", methods[0].Name)
}

func TestHealthAndPreflight(t *testing.T) {
	e := newEnv(t)
	w, env := e.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodOptions, "/api/plans", nil)
	req.Header.Set("Origin", "https://panel.example")
	rec := httptest.NewRecorder()
	e.r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://panel.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
