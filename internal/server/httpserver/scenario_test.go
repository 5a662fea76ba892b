package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/scorekeeper/internal/logging"
	"github.com/dmitrijs2005/scorekeeper/internal/server/auth"
	"github.com/dmitrijs2005/scorekeeper/internal/server/config"
	"github.com/dmitrijs2005/scorekeeper/internal/server/models"
	"github.com/dmitrijs2005/scorekeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/scorekeeper/internal/server/services"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioSecret = "scenario-secret"

// newScenarioServer wires the real service and redis repository against an
// in-memory redis.
func newScenarioServer(t *testing.T) http.Handler {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := users.NewRedisRepository(client, "test")
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = scenarioSecret

	s, err := NewHTTPServer("127.0.0.1:0", logging.Discard(), services.NewUserService(repo, cfg), repo, Options{})
	require.NoError(t, err)
	return s.Handler()
}

func signup(t *testing.T, h http.Handler, email, password string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/users/signup", fmt.Sprintf(`{"email":%q,"password":%q}`, email, password), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[authResponse](t, rec).Token
}

func TestScenario_SignupAndUpdateScore(t *testing.T) {
	h := newScenarioServer(t)

	token := signup(t, h, "a@x.com", "p")

	rec := do(t, h, http.MethodGet, "/users/updatescore", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[models.User](t, rec)
	assert.EqualValues(t, 1, first.Score)
	assert.Equal(t, "a@x.com", first.Email)

	id, err := auth.GetUserIDFromToken(token, []byte(scenarioSecret))
	require.NoError(t, err)
	assert.Equal(t, id, first.ID)

	rec = do(t, h, http.MethodGet, "/users/updatescore", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[models.User](t, rec).Score)
}

func TestScenario_Login(t *testing.T) {
	h := newScenarioServer(t)
	signup(t, h, "a@x.com", "p")

	rec := do(t, h, http.MethodPost, "/users/login", `{"email":"a@x.com","password":"wrong"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid email or password"}`, rec.Body.String())

	for _, body := range []string{
		`{"email":"ghost@x.com","password":"p"}`,
		`{"email":"a@x.com","password":""}`,
		`{"email":"bob","password":"p"}`,
	} {
		rec = do(t, h, http.MethodPost, "/users/login", body, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code, body)
		assert.JSONEq(t, `{"message":"Invalid email or password"}`, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/users/login", `{"email":"a@x.com","password":"p"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[authResponse](t, rec).Token

	rec = do(t, h, http.MethodGet, "/users/updatescore", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestScenario_DuplicateSignup(t *testing.T) {
	h := newScenarioServer(t)
	signup(t, h, "a@x.com", "p")

	rec := do(t, h, http.MethodPost, "/users/signup", `{"email":"a@x.com","password":"q"}`, "")
	require.Equal(t, http.StatusConflict, rec.Code)

	token := signup(t, h, "b@x.com", "p")
	rec = do(t, h, http.MethodGet, "/users/", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.User](t, rec), 2)
}

func TestScenario_RejectedTokens(t *testing.T) {
	h := newScenarioServer(t)
	token := signup(t, h, "a@x.com", "p")

	rec := do(t, h, http.MethodGet, "/users/updatescore", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgTokenMissing, decode[errorResponse](t, rec).Error)

	rec = do(t, h, http.MethodGet, "/users/updatescore", "", token+"x")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgTokenNotVerified, decode[errorResponse](t, rec).Error)

	id, err := auth.GetUserIDFromToken(token, []byte(scenarioSecret))
	require.NoError(t, err)
	expired, err := auth.GenerateToken(id, []byte(scenarioSecret), -time.Minute)
	require.NoError(t, err)

	rec = do(t, h, http.MethodGet, "/users/updatescore", "", expired)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgTokenNotVerified, decode[errorResponse](t, rec).Error)
}

func TestScenario_Highest(t *testing.T) {
	h := newScenarioServer(t)

	var token string
	for i := 0; i < 12; i++ {
		tok := signup(t, h, fmt.Sprintf("u%d@x.com", i), "p")
		for j := 0; j < i; j++ {
			rec := do(t, h, http.MethodGet, "/users/updatescore", "", tok)
			require.Equal(t, http.StatusOK, rec.Code)
		}
		token = tok
	}

	rec := do(t, h, http.MethodGet, "/users/highest", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	top := decode[[]models.User](t, rec)
	require.Len(t, top, 10)
	assert.EqualValues(t, 11, top[0].Score)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Score, top[i].Score)
	}
}

func TestScenario_ConcurrentUpdates(t *testing.T) {
	h := newScenarioServer(t)
	token := signup(t, h, "a@x.com", "p")

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/users/updatescore", nil).WithContext(context.Background())
			req.Header.Set("Authorization", "Bearer "+token)
			h.ServeHTTP(httptest.NewRecorder(), req)
		}()
	}
	wg.Wait()

	rec := do(t, h, http.MethodGet, "/users/updatescore", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, n+1, decode[models.User](t, rec).Score)
}
