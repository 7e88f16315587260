package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/auth"
	"github.com/geopunch/attendance-backend/internal/pkg/jwt"
	"github.com/geopunch/attendance-backend/internal/pkg/oauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeAuthService struct {
	tokens     auth.TokenResponse
	err        error
	loggedOut  string
	refreshed  string
	googleUser string
}

func (f *fakeAuthService) Register(_ context.Context, _ auth.RegisterRequest, _ auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	return f.tokens, f.err
}

func (f *fakeAuthService) Login(_ context.Context, _ auth.LoginRequest, _ auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	return f.tokens, f.err
}

func (f *fakeAuthService) LoginWithEmployeeCode(_ context.Context, _ auth.LoginEmployeeCodeRequest, _ auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	return f.tokens, f.err
}

func (f *fakeAuthService) LoginWithGoogle(_ context.Context, email, _ string, _ auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	f.googleUser = email
	return f.tokens, f.err
}

func (f *fakeAuthService) Logout(_ context.Context, refreshToken string) error {
	f.loggedOut = refreshToken
	return f.err
}

func (f *fakeAuthService) RefreshToken(_ context.Context, req auth.RefreshTokenRequest) (auth.AccessTokenResponse, error) {
	f.refreshed = req.RefreshToken
	return auth.AccessTokenResponse{AccessToken: f.tokens.AccessToken, AccessTokenExpiresIn: f.tokens.AccessTokenExpiresIn}, f.err
}

type fakeGoogle struct {
	user oauth.GoogleUser
	err  error
}

func (fakeGoogle) GenerateState() (string, error) { return "state-123", nil }

func (fakeGoogle) RedirectURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (f fakeGoogle) Exchange(_ context.Context, _ string) (*oauth2.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &oauth2.Token{AccessToken: "google-token"}, nil
}

func (f fakeGoogle) UserInfo(_ context.Context, _ *oauth2.Token) (oauth.GoogleUser, error) {
	return f.user, nil
}

func testTokens() auth.TokenResponse {
	return auth.TokenResponse{
		AccessToken:           "access-abc",
		AccessTokenExpiresIn:  time.Now().Add(time.Hour).Unix(),
		RefreshToken:          "refresh-xyz",
		RefreshTokenExpiresIn: time.Now().Add(24 * time.Hour).Unix(),
	}
}

func newTestAuthHandler(svc *fakeAuthService, google oauth.GoogleService) AuthHandler {
	jwtSvc := jwt.NewJWTService(testSecret, "1h", "24h", false)
	return NewAuthHandler(jwtSvc, svc, google, "http://localhost:3000", false)
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest(method, target, bytes.NewReader(b))
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("success sets refresh cookie", func(t *testing.T) {
		svc := &fakeAuthService{tokens: testTokens()}
		h := newTestAuthHandler(svc, nil)

		w := httptest.NewRecorder()
		h.Register(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", auth.RegisterRequest{
			Email: "owner@example.com", Password: "SecurePass123!", ConfirmPassword: "SecurePass123!",
		}))

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w)
		assert.True(t, env.Success)

		var data auth.TokenResponse
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "access-abc", data.AccessToken)

		cookie := findCookie(w, refreshTokenCookie)
		require.NotNil(t, cookie)
		assert.Equal(t, "refresh-xyz", cookie.Value)
		assert.True(t, cookie.HttpOnly)
	})

	t.Run("password mismatch is a validation error", func(t *testing.T) {
		h := newTestAuthHandler(&fakeAuthService{}, nil)

		w := httptest.NewRecorder()
		h.Register(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", auth.RegisterRequest{
			Email: "owner@example.com", Password: "SecurePass123!", ConfirmPassword: "Different123!",
		}))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		env := decodeEnvelope(t, w)
		assert.False(t, env.Success)
		require.NotNil(t, env.Error)
		assert.Contains(t, env.Error.Details, "confirm_password")
	})

	t.Run("invalid json", func(t *testing.T) {
		h := newTestAuthHandler(&fakeAuthService{}, nil)

		w := httptest.NewRecorder()
		h.Register(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("invalid json")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate email", func(t *testing.T) {
		h := newTestAuthHandler(&fakeAuthService{err: auth.ErrEmailAlreadyExists}, nil)

		w := httptest.NewRecorder()
		h.Register(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", auth.RegisterRequest{
			Email: "owner@example.com", Password: "SecurePass123!", ConfirmPassword: "SecurePass123!",
		}))

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := newTestAuthHandler(&fakeAuthService{tokens: testTokens()}, nil)

		w := httptest.NewRecorder()
		h.Login(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/login", auth.LoginRequest{
			Email: "owner@example.com", Password: "password123",
		}))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NotNil(t, findCookie(w, refreshTokenCookie))
	})

	t.Run("invalid credentials", func(t *testing.T) {
		h := newTestAuthHandler(&fakeAuthService{err: auth.ErrInvalidCredentials}, nil)

		w := httptest.NewRecorder()
		h.Login(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/login", auth.LoginRequest{
			Email: "owner@example.com", Password: "wrongpassword",
		}))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, findCookie(w, refreshTokenCookie))
	})
}

func TestAuthHandler_LoginWithEmployeeCode(t *testing.T) {
	t.Run("inactive employee", func(t *testing.T) {
		h := newTestAuthHandler(&fakeAuthService{err: auth.ErrEmployeeInactive}, nil)

		w := httptest.NewRecorder()
		h.LoginWithEmployeeCode(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/login/employee-code", auth.LoginEmployeeCodeRequest{
			CompanyUsername: "acme", EmployeeCode: "E001", Password: "secret1",
		}))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		h := newTestAuthHandler(&fakeAuthService{}, nil)

		w := httptest.NewRecorder()
		h.LoginWithEmployeeCode(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/login/employee-code", auth.LoginEmployeeCodeRequest{}))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		env := decodeEnvelope(t, w)
		require.NotNil(t, env.Error)
		assert.Contains(t, env.Error.Details, "employee_code")
	})
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	t.Run("cookie wins over body", func(t *testing.T) {
		svc := &fakeAuthService{tokens: testTokens()}
		h := newTestAuthHandler(svc, nil)

		req := jsonRequest(t, http.MethodPost, "/api/v1/auth/refresh", auth.RefreshTokenRequest{RefreshToken: "from-body"})
		req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: "from-cookie"})
		w := httptest.NewRecorder()
		h.RefreshToken(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "from-cookie", svc.refreshed)
	})

	t.Run("body fallback", func(t *testing.T) {
		svc := &fakeAuthService{tokens: testTokens()}
		h := newTestAuthHandler(svc, nil)

		w := httptest.NewRecorder()
		h.RefreshToken(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/refresh", auth.RefreshTokenRequest{RefreshToken: "from-body"}))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "from-body", svc.refreshed)
	})

	t.Run("revoked", func(t *testing.T) {
		h := newTestAuthHandler(&fakeAuthService{err: auth.ErrRefreshTokenRevoked}, nil)

		w := httptest.NewRecorder()
		h.RefreshToken(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/refresh", auth.RefreshTokenRequest{RefreshToken: "old"}))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("clears cookie", func(t *testing.T) {
		svc := &fakeAuthService{}
		h := newTestAuthHandler(svc, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: "refresh-xyz"})
		w := httptest.NewRecorder()
		h.Logout(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "refresh-xyz", svc.loggedOut)
		cookie := findCookie(w, refreshTokenCookie)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.Equal(t, -1, cookie.MaxAge)
	})

	t.Run("without cookie", func(t *testing.T) {
		h := newTestAuthHandler(&fakeAuthService{}, nil)

		w := httptest.NewRecorder()
		h.Logout(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_Google(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h := newTestAuthHandler(&fakeAuthService{}, nil)

		w := httptest.NewRecorder()
		h.LoginWithGoogle(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/login/oauth/google", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("login sets state and redirects", func(t *testing.T) {
		h := newTestAuthHandler(&fakeAuthService{}, fakeGoogle{})

		w := httptest.NewRecorder()
		h.LoginWithGoogle(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/login/oauth/google", nil))

		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "state=state-123")
		state := findCookie(w, oauthStateCookie)
		require.NotNil(t, state)
		assert.Equal(t, "state-123", state.Value)
	})

	t.Run("callback state mismatch", func(t *testing.T) {
		h := newTestAuthHandler(&fakeAuthService{}, fakeGoogle{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/oauth/callback/google?state=other&code=abc", nil)
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "state-123"})
		w := httptest.NewRecorder()
		h.OAuthCallbackGoogle(w, req)

		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "error=state_mismatch")
	})

	t.Run("callback exchange failure", func(t *testing.T) {
		h := newTestAuthHandler(&fakeAuthService{}, fakeGoogle{err: errors.New("boom")})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/oauth/callback/google?state=state-123&code=abc", nil)
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "state-123"})
		w := httptest.NewRecorder()
		h.OAuthCallbackGoogle(w, req)

		assert.Contains(t, w.Header().Get("Location"), "error=token_verification_failed")
	})

	t.Run("callback success", func(t *testing.T) {
		svc := &fakeAuthService{tokens: testTokens()}
		h := newTestAuthHandler(svc, fakeGoogle{user: oauth.GoogleUser{GoogleID: "g-1", Email: "owner@example.com", VerifiedEmail: true}})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/oauth/callback/google?state=state-123&code=abc", nil)
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "state-123"})
		w := httptest.NewRecorder()
		h.OAuthCallbackGoogle(w, req)

		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		assert.Equal(t, "owner@example.com", svc.googleUser)

		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/auth/callback/google", loc.Path)
		assert.Equal(t, "access-abc", loc.Query().Get("access_token"))
		assert.NotNil(t, findCookie(w, refreshTokenCookie))
	})
}
