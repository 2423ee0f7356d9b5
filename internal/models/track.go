package models

import (
	"fmt"
	"time"
)

var _ Model = (*PersistedTrack)(nil)

// PersistedTrack is a library track cached in the local database.
//
// Rows are keyed by the remote service's track ID so repeated library fetches
// deduplicate via the UNIQUE constraint.
type PersistedTrack struct {
	id        string
	sequence  int
	serviceID string
	track     Track
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewPersistedTrack wraps a Track DTO for persistence.
func NewPersistedTrack(sequence int, serviceID string, track Track) *PersistedTrack {
	now := time.Now()
	return &PersistedTrack{
		sequence:  sequence,
		serviceID: serviceID,
		track:     track,
		createdAt: now,
		updatedAt: now,
	}
}

func (t *PersistedTrack) ID() string            { return t.id }
func (t *PersistedTrack) Sequence() int         { return t.sequence }
func (t *PersistedTrack) ServiceID() string     { return t.serviceID }
func (t *PersistedTrack) Title() string         { return t.track.Title }
func (t *PersistedTrack) Artist() string        { return t.track.Artist }
func (t *PersistedTrack) Album() string         { return t.track.Album }
func (t *PersistedTrack) Duration() int         { return t.track.Duration }
func (t *PersistedTrack) ISRC() string          { return t.track.ISRC }
func (t *PersistedTrack) AddedAt() string       { return t.track.AddedAt }
func (t *PersistedTrack) CreatedAt() time.Time  { return t.createdAt }
func (t *PersistedTrack) UpdatedAt() time.Time  { return t.updatedAt }
func (t *PersistedTrack) DeletedAt() *time.Time { return t.deletedAt }

// Track returns the wrapped DTO.
func (t *PersistedTrack) Track() Track { return t.track }

func (t *PersistedTrack) SetID(id string)           { t.id = id }
func (t *PersistedTrack) SetUpdatedAt(ts time.Time) { t.updatedAt = ts }
func (t *PersistedTrack) SetCreatedAt(ts time.Time) { t.createdAt = ts }
func (t *PersistedTrack) SetDeletedAt(ts *time.Time) {
	t.deletedAt = ts
}

// Validate checks that the track carries the remote ID and a title.
func (t *PersistedTrack) Validate() error {
	if t.serviceID == "" {
		return fmt.Errorf("track service_id is required")
	}
	if t.track.Title == "" {
		return fmt.Errorf("track title is required")
	}
	return nil
}
