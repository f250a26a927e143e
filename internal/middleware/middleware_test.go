package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/examforge/internal/identity"
	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/profile"
	"github.com/stemsi/examforge/internal/response"
	"github.com/stemsi/examforge/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct {
	tokens map[string]*identity.Claims
	err    error
}

func (s stubVerifier) Verify(_ context.Context, token string) (*identity.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	if c, ok := s.tokens[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

type stubResolver struct {
	state profile.State
}

func (s stubResolver) Resolve(_ context.Context, _ *session.User) profile.State {
	return s.state
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body struct {
		Data  json.RawMessage     `json:"data"`
		Error *response.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return response.Response{Data: body.Data, Error: body.Error}
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": GetUser(c).UID, "role": GetRole(c)})
	})
	r.GET("/", handlers...)
	return r
}

func TestRequireSession(t *testing.T) {
	hub := session.NewHub()
	hub.Publish(session.Event{UID: "u1", User: &session.User{UID: "u1", DisplayName: "Ada"}})
	verifier := stubVerifier{tokens: map[string]*identity.Claims{"good": {UID: "u1", Email: "ada@example.com"}}}

	tests := []struct {
		name     string
		verifier TokenVerifier
		header   string
		query    string
		status   int
		code     response.ErrCode
	}{
		{"Missing token", verifier, "", "", http.StatusUnauthorized, response.ErrTokenRequired},
		{"Bad token", verifier, "Bearer nope", "", http.StatusUnauthorized, response.ErrTokenInvalid},
		{"Revoked session", stubVerifier{err: identity.ErrSessionRevoked}, "Bearer good", "", http.StatusUnauthorized, response.ErrSessionInvalidated},
		{"Header token", verifier, "Bearer good", "", http.StatusOK, ""},
		{"Query token", verifier, "", "?token=good", http.StatusOK, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(RequireSession(tc.verifier, hub))
			req := httptest.NewRequest(http.MethodGet, "/"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.code != "" {
				body := decode(t, w)
				require.NotNil(t, body.Error)
				assert.Equal(t, tc.code, body.Error.Code)
				assert.Equal(t, "/login", body.Error.Fields["redirect"])
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	verifier := stubVerifier{tokens: map[string]*identity.Claims{"good": {UID: "u1"}}}
	hub := session.NewHub()

	tests := []struct {
		name     string
		guard    func(RoleResolver) gin.HandlerFunc
		state    profile.State
		status   int
		redirect string
	}{
		{"Admin allowed", RequireAdmin, profile.State{Role: model.RoleAdmin}, http.StatusOK, ""},
		{"Student on admin route", RequireAdmin, profile.State{Role: model.RoleStudent}, http.StatusForbidden, "/dashboard"},
		{"Student allowed", RequireStudent, profile.State{Role: model.RoleStudent}, http.StatusOK, ""},
		{"Admin on student route", RequireStudent, profile.State{Role: model.RoleAdmin}, http.StatusForbidden, "/admin"},
		{"Role still loading", RequireAdmin, profile.State{Loading: true}, http.StatusServiceUnavailable, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(RequireSession(verifier, hub), tc.guard(stubResolver{state: tc.state}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer good")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.redirect != "" {
				body := decode(t, w)
				require.NotNil(t, body.Error)
				assert.Equal(t, tc.redirect, body.Error.Fields["redirect"])
			}
			if tc.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), string(tc.state.Role))
			}
		})
	}
}

func TestRequireRole_WithoutSession(t *testing.T) {
	r := gin.New()
	r.GET("/", RequireAdmin(stubResolver{}), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute).WithMessage(response.ErrAuth, "Too many failed attempts. Please try again later.")
	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
	body := decode(t, last)
	assert.Equal(t, response.ErrAuth, body.Error.Code)
	assert.Equal(t, "Too many failed attempts. Please try again later.", body.Error.Message)
}

func TestRateLimiter_Refills(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	now := time.Now()

	assert.True(t, rl.allow("1.2.3.4", now))
	assert.False(t, rl.allow("1.2.3.4", now.Add(time.Second)))
	assert.True(t, rl.allow("1.2.3.4", now.Add(2*time.Minute)))
	assert.True(t, rl.allow("5.6.7.8", now))
}

func TestBrotli(t *testing.T) {
	big := strings.Repeat("question ", 500)
	r := gin.New()
	r.Use(BrotliWithConfig(BrotliConfig{MinLength: 64, SkipPrefixes: []string{"/uploads"}}))
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, big) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/uploads/a", func(c *gin.Context) { c.String(http.StatusOK, big) })

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept-Encoding", "gzip, br")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/big")
	require.Equal(t, "br", w.Header().Get("Content-Encoding"))
	plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, big, string(plain))

	w = get("/small")
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "ok", w.Body.String())

	w = get("/uploads/a")
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, big, w.Body.String())
}

func TestCacheHeaders(t *testing.T) {
	r := gin.New()
	r.GET("/media", CacheControl(60), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/auth", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media", nil))
	assert.Equal(t, "public, max-age=60, immutable", w.Header().Get("Cache-Control"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
