// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/spotlite/internal/models"
	"github.com/desertthunder/spotlite/internal/services"
)

// MockService is a configurable test double for [services.Service].
//
// Zero value returns empty results for every call; assign the fields to
// script specific responses.
type MockService struct {
	ProfileResult    *models.UserProfile
	TracksResult     []models.Track
	AlbumsResult     []models.Album
	ArtistsResult    []models.Artist
	PlaylistsResult  []models.Playlist
	CategoriesResult []models.Category
	SearchResult     *services.SearchResults
	Err              error
}

var _ services.Service = (*MockService)(nil)

func (m *MockService) Profile(ctx context.Context) (*models.UserProfile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.ProfileResult != nil {
		return m.ProfileResult, nil
	}
	return &models.UserProfile{ID: "mock_user", DisplayName: "Mock User"}, nil
}

func (m *MockService) SavedTracks(ctx context.Context, limit, offset int) (*services.Page[models.Track], error) {
	return pageOf(m.TracksResult, limit, offset, m.Err)
}

func (m *MockService) SavedAlbums(ctx context.Context, limit, offset int) (*services.Page[models.Album], error) {
	return pageOf(m.AlbumsResult, limit, offset, m.Err)
}

func (m *MockService) FollowedArtists(ctx context.Context, limit, offset int) (*services.Page[models.Artist], error) {
	return pageOf(m.ArtistsResult, limit, offset, m.Err)
}

func (m *MockService) Playlists(ctx context.Context, limit, offset int) (*services.Page[models.Playlist], error) {
	return pageOf(m.PlaylistsResult, limit, offset, m.Err)
}

func (m *MockService) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.PlaylistsResult {
		if m.PlaylistsResult[i].ID == playlistID {
			return &m.PlaylistsResult[i], nil
		}
	}
	return nil, errors.New("playlist not found: " + playlistID)
}

func (m *MockService) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*services.Page[models.Track], error) {
	return pageOf(m.TracksResult, limit, offset, m.Err)
}

func (m *MockService) TopArtists(ctx context.Context, timeRange services.TimeRange) ([]models.Artist, error) {
	return m.ArtistsResult, m.Err
}

func (m *MockService) TopTracks(ctx context.Context, timeRange services.TimeRange) ([]models.Track, error) {
	return m.TracksResult, m.Err
}

func (m *MockService) RecentlyPlayed(ctx context.Context) ([]models.Track, error) {
	return m.TracksResult, m.Err
}

func (m *MockService) NowPlaying(ctx context.Context) (*models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.TracksResult) == 0 {
		return nil, nil
	}
	return &m.TracksResult[0], nil
}

func (m *MockService) NewReleases(ctx context.Context, limit, offset int) (*services.Page[models.Album], error) {
	return pageOf(m.AlbumsResult, limit, offset, m.Err)
}

func (m *MockService) BrowseCategories(ctx context.Context, limit, offset int) (*services.Page[models.Category], error) {
	return pageOf(m.CategoriesResult, limit, offset, m.Err)
}

func (m *MockService) Search(ctx context.Context, query string, limit, offset int) (*services.SearchResults, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.SearchResult != nil {
		return m.SearchResult, nil
	}
	return &services.SearchResults{}, nil
}

func (m *MockService) Name() string { return "mock" }

// pageOf slices items into a single Page the way a remote envelope would.
func pageOf[T any](items []T, limit, offset int, err error) (*services.Page[T], error) {
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = services.DefaultPageSize
	}

	page := &services.Page[T]{Total: len(items), Limit: limit, Offset: offset}
	if offset < len(items) {
		end := offset + limit
		if end > len(items) {
			end = len(items)
		}
		page.Items = items[offset:end]
	}
	return page, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// ScriptedRoundTripper serves a fixed sequence of responses and records the
// requests it saw. Useful for exercising retry behavior.
type ScriptedRoundTripper struct {
	responses []*http.Response
	Requests  []*http.Request
}

func NewScriptedRoundTripper(responses ...*http.Response) *ScriptedRoundTripper {
	return &ScriptedRoundTripper{responses: responses}
}

func (s *ScriptedRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	s.Requests = append(s.Requests, r)
	if len(s.responses) == 0 {
		return nil, errors.New("scripted responses exhausted")
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	return next, nil
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
