package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/spotlite/internal/models"
	"github.com/desertthunder/spotlite/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func sampleTrack(id string) models.Track {
	return models.Track{
		ID:       id,
		Title:    "Paranoid Android",
		Artist:   "Radiohead",
		Album:    "OK Computer",
		Duration: 387,
		ISRC:     "GBAYE9700170",
		AddedAt:  "2024-01-15T10:00:00Z",
	}
}

func TestAccountRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAccountRepository(db)
		account := models.NewAccount(0, "spotify_user_1", "Test Listener")

		if err := repo.Create(account); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}

		if account.ID() == "" {
			t.Error("account ID should be set after creation")
		}
		if account.Sequence() == 0 {
			t.Error("account sequence should be assigned on creation")
		}
	})

	t.Run("CreateRejectsMissingUserID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAccountRepository(db)
		account := models.NewAccount(0, "", "No User")

		if err := repo.Create(account); err == nil {
			t.Error("expected validation error for missing user_id")
		}
	})

	t.Run("GetByUserID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAccountRepository(db)
		account := models.NewAccount(0, "spotify_user_1", "Test Listener")
		expiry := time.Now().Add(time.Hour).Truncate(time.Second)
		account.SetTokens("access-1", "refresh-1", expiry)

		if err := repo.Create(account); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}

		retrieved, err := repo.GetByUserID("spotify_user_1")
		if err != nil {
			t.Fatalf("failed to get account: %v", err)
		}

		if retrieved.ID() != account.ID() {
			t.Errorf("expected ID %s, got %s", account.ID(), retrieved.ID())
		}
		if retrieved.AccessToken() != "access-1" {
			t.Errorf("expected access token access-1, got %s", retrieved.AccessToken())
		}
		if retrieved.RefreshToken() != "refresh-1" {
			t.Errorf("expected refresh token refresh-1, got %s", retrieved.RefreshToken())
		}
	})

	t.Run("UpdateTokens", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAccountRepository(db)
		account := models.NewAccount(0, "spotify_user_1", "Test Listener")
		account.SetTokens("access-1", "refresh-1", time.Now().Add(time.Hour))

		if err := repo.Create(account); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}

		// Refresh responses may omit the refresh token; the previous one survives.
		account.SetTokens("access-2", "", time.Now().Add(2*time.Hour))
		if err := repo.Update(account); err != nil {
			t.Fatalf("failed to update account: %v", err)
		}

		retrieved, err := repo.Get(account.ID())
		if err != nil {
			t.Fatalf("failed to get account: %v", err)
		}
		if retrieved.AccessToken() != "access-2" {
			t.Errorf("expected access token access-2, got %s", retrieved.AccessToken())
		}
		if retrieved.RefreshToken() != "refresh-1" {
			t.Errorf("expected refresh token refresh-1 to survive, got %s", retrieved.RefreshToken())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAccountRepository(db)
		account := models.NewAccount(0, "spotify_user_1", "Test Listener")

		if err := repo.Create(account); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}

		if err := repo.Delete(account.ID()); err != nil {
			t.Fatalf("failed to delete account: %v", err)
		}

		if _, err := repo.Get(account.ID()); err == nil {
			t.Error("expected error when getting deleted account")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAccountRepository(db)
		for _, userID := range []string{"user_a", "user_b"} {
			if err := repo.Create(models.NewAccount(0, userID, "")); err != nil {
				t.Fatalf("failed to create account %s: %v", userID, err)
			}
		}

		accounts, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list accounts: %v", err)
		}
		if len(accounts) != 2 {
			t.Errorf("expected 2 accounts, got %d", len(accounts))
		}

		filtered, err := repo.List(map[string]any{"user_id": "user_b"})
		if err != nil {
			t.Fatalf("failed to list filtered accounts: %v", err)
		}
		if len(filtered) != 1 || filtered[0].UserID() != "user_b" {
			t.Errorf("expected only user_b, got %d accounts", len(filtered))
		}
	})
}

func TestTrackRepository(t *testing.T) {
	t.Run("CreateAndGetByServiceID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		track := models.NewPersistedTrack(0, "track_1", sampleTrack("track_1"))

		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		retrieved, err := repo.GetByServiceID("track_1")
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if retrieved.Title() != "Paranoid Android" {
			t.Errorf("expected title Paranoid Android, got %s", retrieved.Title())
		}
		if retrieved.ISRC() != "GBAYE9700170" {
			t.Errorf("expected ISRC GBAYE9700170, got %s", retrieved.ISRC())
		}
	})

	t.Run("DuplicateServiceIDRejected", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		if err := repo.Create(models.NewPersistedTrack(0, "track_1", sampleTrack("track_1"))); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		err := repo.Create(models.NewPersistedTrack(0, "track_1", sampleTrack("track_1")))
		if err == nil {
			t.Error("expected UNIQUE constraint error for duplicate service_id")
		}
	})

	t.Run("ListByArtist", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		first := sampleTrack("track_1")
		second := sampleTrack("track_2")
		second.Artist = "Portishead"

		for _, tr := range []models.Track{first, second} {
			if err := repo.Create(models.NewPersistedTrack(0, tr.ID, tr)); err != nil {
				t.Fatalf("failed to create track %s: %v", tr.ID, err)
			}
		}

		tracks, err := repo.List(map[string]any{"artist": "Radiohead"})
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(tracks) != 1 || tracks[0].ServiceID() != "track_1" {
			t.Errorf("expected only track_1, got %d tracks", len(tracks))
		}
	})
}

func TestTrackCacheAdapter(t *testing.T) {
	t.Run("CacheTrackDeduplicates", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		cache := NewTrackCacheAdapter(repo)

		if err := cache.CacheTrack(sampleTrack("track_1")); err != nil {
			t.Fatalf("failed to cache track: %v", err)
		}
		if err := cache.CacheTrack(sampleTrack("track_1")); err != nil {
			t.Fatalf("re-caching the same track should be a no-op: %v", err)
		}

		tracks, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(tracks) != 1 {
			t.Errorf("expected 1 cached track, got %d", len(tracks))
		}
	})

	t.Run("CacheTrackRequiresServiceID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		cache := NewTrackCacheAdapter(NewTrackRepository(db))
		track := sampleTrack("")

		if err := cache.CacheTrack(track); err == nil {
			t.Error("expected error for track without a service ID")
		}
	})

	t.Run("CacheTracksBatch", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		cache := NewTrackCacheAdapter(repo)

		batch := []models.Track{sampleTrack("track_1"), sampleTrack("track_2"), sampleTrack("track_1")}
		if err := cache.CacheTracks(batch); err != nil {
			t.Fatalf("failed to cache batch: %v", err)
		}

		tracks, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(tracks) != 2 {
			t.Errorf("expected 2 distinct cached tracks, got %d", len(tracks))
		}
	})
}
