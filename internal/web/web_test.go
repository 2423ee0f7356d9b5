package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/spotlite/internal/auth"
	"github.com/desertthunder/spotlite/internal/models"
	"github.com/desertthunder/spotlite/internal/services"
	"github.com/desertthunder/spotlite/internal/shared"
	itesting "github.com/desertthunder/spotlite/internal/testing"
)

func newTestApp(t *testing.T, mock *itesting.MockService) (*App, *auth.Codec) {
	t.Helper()

	logger := shared.NewLogger(io.Discard)
	codec, err := auth.NewCodec("test-secret", 7, false, logger)
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}

	app, err := NewApp(AppOpts{
		Codec:  codec,
		Logger: logger,
		Service: func(w http.ResponseWriter, r *http.Request) services.Service {
			return mock
		},
	})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}

	return app, codec
}

func sessionCookie(t *testing.T, codec *auth.Codec) *http.Cookie {
	t.Helper()

	token, err := codec.Encode(auth.SessionPayload{
		UserID:       "user_1",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	})
	if err != nil {
		t.Fatalf("failed to encode session: %v", err)
	}

	return &http.Cookie{Name: auth.SessionCookie, Value: token}
}

func TestViews(t *testing.T) {
	mock := &itesting.MockService{
		ProfileResult: &models.UserProfile{ID: "user_1", DisplayName: "Thunder"},
		TracksResult: []models.Track{
			{ID: "t1", Title: "Paranoid Android", Artist: "Radiohead", Album: "OK Computer", Duration: 387},
		},
		PlaylistsResult: []models.Playlist{
			{ID: "p1", Name: "Late Night", Owner: "user_1", TrackCount: 12},
		},
		AlbumsResult: []models.Album{
			{ID: "a1", Name: "In Rainbows", Artist: "Radiohead", ReleaseDate: "2007-10-10"},
		},
		CategoriesResult: []models.Category{
			{ID: "c1", Name: "Indie"},
		},
	}

	app, codec := newTestApp(t, mock)
	router := app.Router()

	t.Run("SongsRendersLibrary", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/songs", nil)
		req.AddCookie(sessionCookie(t, codec))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "Paranoid Android") {
			t.Error("expected track title in response body")
		}
		if !strings.Contains(body, "6:27") {
			t.Error("expected formatted duration in response body")
		}
	})

	t.Run("HomeRendersProfile", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(sessionCookie(t, codec))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Thunder") {
			t.Error("expected display name in response body")
		}
	})

	t.Run("BrowseRendersReleasesAndCategories", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/browse", nil)
		req.AddCookie(sessionCookie(t, codec))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "In Rainbows") {
			t.Error("expected new release in response body")
		}
		if !strings.Contains(body, "Indie") {
			t.Error("expected category name in response body")
		}
	})

	t.Run("SettingsRendersAccountAndTopTracks", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/settings?range=short", nil)
		req.AddCookie(sessionCookie(t, codec))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "Your account") {
			t.Error("expected account section in response body")
		}
		if !strings.Contains(body, "Paranoid Android") {
			t.Error("expected top track in response body")
		}
	})

	t.Run("PlaylistDetail", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/playlists/p1", nil)
		req.AddCookie(sessionCookie(t, codec))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Late Night") {
			t.Error("expected playlist name in response body")
		}
	})

	t.Run("SearchWithoutQueryRendersForm", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/search", nil)
		req.AddCookie(sessionCookie(t, codec))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}

func TestGateIntegration(t *testing.T) {
	app, codec := newTestApp(t, &itesting.MockService{})
	router := app.Router()

	t.Run("ProtectedPathWithoutSessionRedirectsToLogin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/songs", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("expected 307, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Errorf("expected redirect to /login, got %s", loc)
		}
	})

	t.Run("LoginWithSessionRedirectsHome", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/login", nil)
		req.AddCookie(sessionCookie(t, codec))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("expected 307, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/" {
			t.Errorf("expected redirect to /, got %s", loc)
		}
	})

	t.Run("LoginWithoutSessionRenders", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/login", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Log in with Spotify") {
			t.Error("expected login prompt in response body")
		}
	})

	t.Run("GarbageCookieTreatedAsAnonymous", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/songs", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "not-a-token"})
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("expected 307, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Errorf("expected redirect to /login, got %s", loc)
		}
	})

	t.Run("LogoutClearsSession", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/logout", nil)
		req.AddCookie(sessionCookie(t, codec))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}

		cleared := false
		for _, c := range rec.Result().Cookies() {
			if c.Name == auth.SessionCookie && c.MaxAge < 0 {
				cleared = true
			}
		}
		if !cleared {
			t.Error("expected session cookie to be expired")
		}
	})
}
