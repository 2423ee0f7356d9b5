package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/spotlite/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()

	codec, err := NewCodec("test-secret", 7, false, shared.NewLogger(io.Discard))
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	return codec
}

func TestNewCodec(t *testing.T) {
	t.Run("RequiresSecret", func(t *testing.T) {
		if _, err := NewCodec("", 7, false, nil); err == nil {
			t.Error("expected error for empty secret")
		}
	})

	t.Run("DefaultsValidity", func(t *testing.T) {
		codec, err := NewCodec("secret", 0, false, nil)
		if err != nil {
			t.Fatalf("failed to create codec: %v", err)
		}
		if codec.validity != DefaultSessionDays*24*time.Hour {
			t.Errorf("expected default validity, got %v", codec.validity)
		}
	})
}

func TestCodecRoundTrip(t *testing.T) {
	codec := testCodec(t)

	payload := SessionPayload{
		UserID:       "user_1",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	}

	token, err := codec.Encode(payload)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	decoded := codec.Decode(token)
	if decoded == nil {
		t.Fatal("expected payload, got nil")
	}
	if decoded.UserID != payload.UserID {
		t.Errorf("expected user %s, got %s", payload.UserID, decoded.UserID)
	}
	if decoded.AccessToken != payload.AccessToken {
		t.Errorf("expected access token %s, got %s", payload.AccessToken, decoded.AccessToken)
	}
	if decoded.RefreshToken != payload.RefreshToken {
		t.Errorf("expected refresh token %s, got %s", payload.RefreshToken, decoded.RefreshToken)
	}
}

func TestCodecDecodeRejects(t *testing.T) {
	codec := testCodec(t)

	t.Run("Empty", func(t *testing.T) {
		if codec.Decode("") != nil {
			t.Error("empty input should decode to nil")
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if codec.Decode("not-a-token") != nil {
			t.Error("garbage input should decode to nil")
		}
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other, err := NewCodec("other-secret", 7, false, shared.NewLogger(io.Discard))
		if err != nil {
			t.Fatalf("failed to create codec: %v", err)
		}

		token, err := other.Encode(SessionPayload{UserID: "user_1"})
		if err != nil {
			t.Fatalf("failed to encode: %v", err)
		}

		if codec.Decode(token) != nil {
			t.Error("token signed with another secret should decode to nil")
		}
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := codec.Encode(SessionPayload{UserID: "user_1"})
		if err != nil {
			t.Fatalf("failed to encode: %v", err)
		}

		// Jump the codec's clock past the validity window.
		codec.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
		defer func() { codec.now = time.Now }()

		if codec.Decode(token) != nil {
			t.Error("expired token should decode to nil")
		}
	})

	t.Run("MissingExpiry", func(t *testing.T) {
		// Well-signed but carries no exp claim.
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"userId":      "user_1",
			"accessToken": "access-1",
		}).SignedString(codec.secret)
		if err != nil {
			t.Fatalf("failed to sign: %v", err)
		}

		if codec.Decode(token) != nil {
			t.Error("token without an expiry should decode to nil")
		}
	})
}

func TestSessionCookieLifecycle(t *testing.T) {
	codec := testCodec(t)

	t.Run("CreateSetsAttributes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		if err := codec.CreateSession(rec, "user_1", TokenSet{AccessToken: "access-1", RefreshToken: "refresh-1"}); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		cookies := rec.Result().Cookies()
		if len(cookies) != 1 {
			t.Fatalf("expected 1 cookie, got %d", len(cookies))
		}

		cookie := cookies[0]
		if cookie.Name != SessionCookie {
			t.Errorf("expected cookie name %s, got %s", SessionCookie, cookie.Name)
		}
		if !cookie.HttpOnly {
			t.Error("session cookie must be http-only")
		}
		if cookie.SameSite != http.SameSiteLaxMode {
			t.Error("session cookie must be SameSite=Lax")
		}
		if cookie.Path != "/" {
			t.Errorf("expected path /, got %s", cookie.Path)
		}
		if cookie.Secure {
			t.Error("secure flag should follow codec configuration")
		}
	})

	t.Run("UpdateKeepsRefreshToken", func(t *testing.T) {
		rec := httptest.NewRecorder()
		if err := codec.CreateSession(rec, "user_1", TokenSet{AccessToken: "access-1", RefreshToken: "refresh-1"}); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(rec.Result().Cookies()[0])

		rec2 := httptest.NewRecorder()
		if err := codec.UpdateSession(rec2, req, "access-2", ""); err != nil {
			t.Fatalf("failed to update session: %v", err)
		}

		updated := codec.Decode(rec2.Result().Cookies()[0].Value)
		if updated == nil {
			t.Fatal("updated session should decode")
		}
		if updated.AccessToken != "access-2" {
			t.Errorf("expected access-2, got %s", updated.AccessToken)
		}
		if updated.RefreshToken != "refresh-1" {
			t.Errorf("expected refresh-1 to survive, got %s", updated.RefreshToken)
		}
		if updated.UserID != "user_1" {
			t.Errorf("expected user_1, got %s", updated.UserID)
		}
	})

	t.Run("UpdateWithoutSessionFails", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		rec := httptest.NewRecorder()

		if err := codec.UpdateSession(rec, req, "access-2", ""); err == nil {
			t.Error("expected error updating a missing session")
		}
	})

	t.Run("DeleteExpiresCookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		codec.DeleteSession(rec)

		cookies := rec.Result().Cookies()
		if len(cookies) != 1 {
			t.Fatalf("expected 1 cookie, got %d", len(cookies))
		}
		if cookies[0].MaxAge >= 0 {
			t.Error("expected a negative MaxAge")
		}
		if cookies[0].Value != "" {
			t.Error("expected an empty value")
		}
	})
}

func TestMemoryStore(t *testing.T) {
	t.Run("SetKeepsRefreshWhenEmpty", func(t *testing.T) {
		store := NewMemoryStore("access-1", "refresh-1")
		store.Set(TokenSet{AccessToken: "access-2"})

		if store.Access() != "access-2" {
			t.Errorf("expected access-2, got %s", store.Access())
		}
		if store.Refresh() != "refresh-1" {
			t.Errorf("expected refresh-1, got %s", store.Refresh())
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := NewMemoryStore("access-1", "refresh-1")
		store.Clear()

		if store.Access() != "" || store.Refresh() != "" {
			t.Error("expected an empty store after Clear")
		}
	})
}
