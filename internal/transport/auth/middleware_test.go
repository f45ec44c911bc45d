package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"secretariat_import/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	tokens map[string]*repository.PersonalAccessToken
	seen   []string
}

func (f *fakeRepo) FindTokenByPlainToken(_ context.Context, plainToken string) (*repository.PersonalAccessToken, error) {
	f.seen = append(f.seen, plainToken)
	if t, ok := f.tokens[plainToken]; ok {
		return t, nil
	}
	return nil, repository.ErrTokenNotFound
}

func serve(t *testing.T, repo TokenRepo, req *http.Request, next http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	TokenMiddleware(repo, nil)(next).ServeHTTP(rr, req)
	return rr
}

func TestTokenMiddleware_SetsUserID(t *testing.T) {
	repo := &fakeRepo{tokens: map[string]*repository.PersonalAccessToken{
		"1|secret": {ID: 1, UserID: 123},
	}}

	var got string
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	req.Header.Set("Authorization", "Bearer 1|secret")

	rr := serve(t, repo, req, func(w http.ResponseWriter, r *http.Request) {
		uid, err := GetUserID(r.Context())
		require.NoError(t, err)
		got = uid
		w.WriteHeader(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "123", got)
}

func TestTokenMiddleware_FallsBackToQueryToken(t *testing.T) {
	repo := &fakeRepo{tokens: map[string]*repository.PersonalAccessToken{
		"good": {ID: 2, UserID: 7},
	}}

	req := httptest.NewRequest(http.MethodGet, "/imports?token=good", nil)
	req.Header.Set("Authorization", "Bearer bad")

	rr := serve(t, repo, req, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []string{"bad", "good"}, repo.seen)
}

func TestTokenMiddleware_BlocksWhenMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	rr := serve(t, &fakeRepo{}, req, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler reached without token")
	})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rr.Body.String())
}

func TestTokenMiddleware_RejectsExpired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	repo := &fakeRepo{tokens: map[string]*repository.PersonalAccessToken{
		"old": {ID: 3, UserID: 9, ExpiresAt: &past},
	}}

	req := httptest.NewRequest(http.MethodPost, "/import", nil)
	req.Header.Set("Authorization", "bearer old")
	rr := serve(t, repo, req, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler reached with expired token")
	})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"token expired"}`, rr.Body.String())
}

func TestTokenMiddleware_AllowsOptions(t *testing.T) {
	reached := false
	req := httptest.NewRequest(http.MethodOptions, "/upload", nil)
	rr := serve(t, &fakeRepo{}, req, func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, reached)
}

func TestGetUserID(t *testing.T) {
	_, err := GetUserID(context.Background())
	assert.Error(t, err)

	ctx := context.WithValue(context.Background(), UserIDKey, "5")
	uid, err := GetUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5", uid)
}
