package repositories

import (
	"fmt"
	"strings"

	"github.com/desertthunder/spotlite/internal/models"
)

// TrackCacheAdapter fronts TrackRepository for library fetches.
//
// Provides automatic track caching with deduplication via the service_id constraint.
// Duplicate tracks are silently ignored (UNIQUE constraint violations).
type TrackCacheAdapter struct {
	repo *TrackRepository
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *TrackRepository) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo}
}

// CacheTrack caches a track fetched from the API.
// Returns nil if the track already exists (deduplication).
// Only returns errors for actual failures (not constraint violations).
func (a *TrackCacheAdapter) CacheTrack(track models.Track) error {
	if track.ID == "" {
		return fmt.Errorf("track is missing a service ID")
	}

	existing, err := a.repo.GetByServiceID(track.ID)
	if err == nil && existing != nil {
		return nil
	}

	persistedTrack := models.NewPersistedTrack(0, track.ID, track)

	err = a.repo.Create(persistedTrack)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache track: %w", err)
	}

	return nil
}

// CacheTracks caches a batch of tracks, stopping on the first hard failure.
func (a *TrackCacheAdapter) CacheTracks(tracks []models.Track) error {
	for _, track := range tracks {
		if err := a.CacheTrack(track); err != nil {
			return err
		}
	}
	return nil
}
