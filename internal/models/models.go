// package models defines the data model for the spotlite web client
package models

import (
	"time"
)

// Model defines the base interface for all persistent models.
// Implementations include Account and PersistedTrack.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// UserProfile represents the signed-in user's Spotify profile.
type UserProfile struct {
	ID          string
	DisplayName string
	Email       string
	Country     string
	Product     string
	Followers   int
	ImageURL    string
}

// Track represents a music track flattened for views and caching.
type Track struct {
	ID       string
	Title    string
	Artist   string
	Album    string
	Duration int    // Duration in seconds
	ISRC     string // International Standard Recording Code
	AddedAt  string // When the track was saved to the library, if known
}

// Album represents an album flattened for views.
type Album struct {
	ID          string
	Name        string
	Artist      string
	ReleaseDate string
	TotalTracks int
	ImageURL    string
}

// Artist represents an artist flattened for views.
type Artist struct {
	ID        string
	Name      string
	Genres    []string
	Followers int
	ImageURL  string
}

// Category represents a browse category.
type Category struct {
	ID       string
	Name     string
	ImageURL string
}

// Playlist represents a playlist's metadata.
type Playlist struct {
	ID          string
	Name        string
	Description string
	Owner       string
	TrackCount  int
	Public      bool
	ImageURL    string
}
