package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/scorekeeper/internal/common"
	"github.com/dmitrijs2005/scorekeeper/internal/logging"
	"github.com/dmitrijs2005/scorekeeper/internal/server/models"
	"github.com/stretchr/testify/require"
)

type fakeUserService struct {
	gotEmail string

	registerUser  *models.User
	registerToken string
	registerErr   error

	loginUser  *models.User
	loginToken string
	loginErr   error

	authID  string
	authErr error

	incUser   *models.User
	incErr    error
	incCalled bool
	incUserID string

	list    []*models.User
	listErr error
}

func (f *fakeUserService) Register(ctx context.Context, email, password string) (*models.User, string, error) {
	f.gotEmail = email
	return f.registerUser, f.registerToken, f.registerErr
}

func (f *fakeUserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	f.gotEmail = email
	return f.loginUser, f.loginToken, f.loginErr
}

func (f *fakeUserService) Authenticate(token string) (string, error) {
	if f.authErr != nil {
		return "", f.authErr
	}
	if token == "" {
		return "", common.ErrInvalidToken
	}
	return f.authID, nil
}

func (f *fakeUserService) IncrementScore(ctx context.Context, userID string) (*models.User, error) {
	f.incCalled = true
	f.incUserID = userID
	return f.incUser, f.incErr
}

func (f *fakeUserService) TopScores(ctx context.Context) ([]*models.User, error) {
	return f.list, f.listErr
}

func (f *fakeUserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return f.list, f.listErr
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, us UserService, store Pinger) *HTTPServer {
	t.Helper()
	s, err := NewHTTPServer("127.0.0.1:0", logging.Discard(), us, store, Options{})
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}
