package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/spotlite/internal/auth"
	"github.com/desertthunder/spotlite/internal/shared"
)

func newTestCodec(t *testing.T) *auth.Codec {
	t.Helper()

	codec, err := auth.NewCodec("test-secret", 7, false, shared.NewLogger(io.Discard))
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	return codec
}

func validSessionCookie(t *testing.T, codec *auth.Codec) *http.Cookie {
	t.Helper()

	token, err := codec.Encode(auth.SessionPayload{
		UserID:      "user_1",
		AccessToken: "access-1",
	})
	if err != nil {
		t.Fatalf("failed to encode session: %v", err)
	}
	return &http.Cookie{Name: auth.SessionCookie, Value: token}
}

func TestAuthGate(t *testing.T) {
	codec := newTestCodec(t)
	gate := AuthGate(codec, shared.NewLogger(io.Discard))

	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	guarded := gate(next)

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		reached = false
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		return rec
	}

	t.Run("ProtectedWithoutSessionRedirects", func(t *testing.T) {
		rec := serve(httptest.NewRequest("GET", "/songs", nil))

		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("expected 307, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Errorf("expected redirect to /login, got %s", loc)
		}
		if reached {
			t.Error("handler should not run for unauthenticated request")
		}
	})

	t.Run("ProtectedWithSessionPasses", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/songs", nil)
		req.AddCookie(validSessionCookie(t, codec))
		rec := serve(req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !reached {
			t.Error("handler should run for authenticated request")
		}
	})

	t.Run("LoginWithSessionRedirectsHome", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/login", nil)
		req.AddCookie(validSessionCookie(t, codec))
		rec := serve(req)

		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("expected 307, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/" {
			t.Errorf("expected redirect to /, got %s", loc)
		}
	})

	t.Run("LoginWithoutSessionPasses", func(t *testing.T) {
		rec := serve(httptest.NewRequest("GET", "/login", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !reached {
			t.Error("login page should be reachable without a session")
		}
	})

	t.Run("LoginStartIsPublic", func(t *testing.T) {
		rec := serve(httptest.NewRequest("GET", "/login/start", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("CallbackIsPublic", func(t *testing.T) {
		rec := serve(httptest.NewRequest("GET", "/callback?code=abc", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("APIPrefixSkipsGate", func(t *testing.T) {
		rec := serve(httptest.NewRequest("POST", "/api/token", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !reached {
			t.Error("api routes should bypass the gate")
		}
	})

	t.Run("InvalidCookieFailsClosed", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/songs", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "forged"})
		rec := serve(req)

		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("expected 307, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Errorf("expected redirect to /login, got %s", loc)
		}
	})

	t.Run("GateDoesNotSetCookies", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/songs", nil)
		req.AddCookie(validSessionCookie(t, codec))
		rec := serve(req)

		if len(rec.Result().Cookies()) != 0 {
			t.Error("gate must not mutate session state")
		}
	})
}
