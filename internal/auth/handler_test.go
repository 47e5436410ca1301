package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsdesk/opsdesk/internal/shared"
)

type fakeRepo struct {
	users map[string]*User
}

func (r *fakeRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (r *fakeRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func newTestService(t *testing.T) (*Service, *fakeRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &fakeRepo{users: map[string]*User{
		"ops@example.com": {
			ID:           1,
			Email:        "ops@example.com",
			Name:         "Ops User",
			PasswordHash: string(hash),
			IsActive:     true,
		},
	}}
	return NewService(repo, NewTokenStore(client, time.Hour)), repo
}

func newTestRouter(svc *Service) http.Handler {
	h := NewHandler(slog.Default(), svc)
	r := chi.NewRouter()
	r.Route("/auth", h.MountRoutes)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestLoginIssuesToken(t *testing.T) {
	svc, _ := newTestService(t)
	router := newTestRouter(svc)

	rr := postJSON(t, router, "/auth/login", map[string]string{
		"email":    "ops@example.com",
		"password": "correct-horse",
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "ops@example.com", resp.Email)

	principal, err := svc.Resolve(context.Background(), resp.Token)
	require.NoError(t, err)
	require.Equal(t, int64(1), principal.UserID)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc, _ := newTestService(t)
	router := newTestRouter(svc)

	rr := postJSON(t, router, "/auth/login", map[string]string{
		"email":    "ops@example.com",
		"password": "wrong-password",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, repo := newTestService(t)
	repo.users["ops@example.com"].IsActive = false
	router := newTestRouter(svc)

	rr := postJSON(t, router, "/auth/login", map[string]string{
		"email":    "ops@example.com",
		"password": "correct-horse",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginValidatesPayload(t *testing.T) {
	svc, _ := newTestService(t)
	router := newTestRouter(svc)

	rr := postJSON(t, router, "/auth/login", map[string]string{
		"email":    "not-an-email",
		"password": "short",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var problem struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	require.Contains(t, problem.Fields, "Email")
	require.Contains(t, problem.Fields, "Password")
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := newTestService(t)
	router := newTestRouter(svc)

	rr := postJSON(t, router, "/auth/login", map[string]string{
		"email":    "ops@example.com",
		"password": "correct-horse",
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp loginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	rr = postJSON(t, router, "/auth/logout", nil, map[string]string{
		"Authorization": "Bearer " + resp.Token,
	})
	require.Equal(t, http.StatusNoContent, rr.Code)

	_, err := svc.Resolve(context.Background(), resp.Token)
	require.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	svc, _ := newTestService(t)
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
