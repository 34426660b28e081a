package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"xpanel/internal/billing"
	"xpanel/internal/domain"
	"xpanel/internal/notify"
	"xpanel/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "secret123"

func init() { gin.SetMode(gin.TestMode) }

type testEnv struct {
	r      *gin.Engine
	db     *gorm.DB
	rdb    *redis.Client
	svc    *billing.Service
	tokens TokenIssuer
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	e := &testEnv{
		db:     gdb,
		rdb:    rdb,
		svc:    billing.NewService(gdb, notify.Nop{}, 30*time.Minute),
		tokens: TokenIssuer{Secret: "test-secret", TTL: time.Hour},
	}
	r, err := NewRouter(Deps{
		DB:            gdb,
		Redis:         rdb,
		Billing:       e.svc,
		Tokens:        e.tokens,
		CORSOrigins:   []string{"https://panel.example"},
		PublicBaseURL: "https://vpn.example",
		RateLimit:     100,
	})
	require.NoError(t, err)
	e.r = r
	return e
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

// seedUser inserts an active account and returns it with a valid token
func (e *testEnv) seedUser(t *testing.T, email, role string) (*domain.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	u := domain.User{
		Email:        email,
		Username:     strings.SplitN(email, "@", 2)[0],
		Password:     string(hash),
		Role:         role,
		Status:       domain.UserActive,
		ReferralCode: strings.ToUpper(strings.SplitN(email, "@", 2)[0]),
	}
	require.NoError(t, e.db.Create(&u).Error)
	token, err := e.tokens.issue(&u)
	require.NoError(t, err)
	return &u, token
}

func decodeData(t *testing.T, env envelope, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dest), string(env.Data))
}
