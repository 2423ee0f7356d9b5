// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/spotlite/internal/models"
	"github.com/desertthunder/spotlite/internal/shared"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// TimeRange selects the window for top artist/track rankings.
type TimeRange string

const (
	TimeRangeShort  TimeRange = "short_term"
	TimeRangeMedium TimeRange = "medium_term"
	TimeRangeLong   TimeRange = "long_term"
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	ExternalIDs externalIDs     `json:"external_ids"`
	Popularity  int             `json:"popularity"`
	URI         string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Genres    []string       `json:"genres"`
	Followers followers      `json:"followers"`
	Images    []SpotifyImage `json:"images"`
	URI       string         `json:"uri"`
}

// SpotifyCategory represents a browse category.
type SpotifyCategory struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Icons []SpotifyImage `json:"icons"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
	URI         string          `json:"uri"`
}

// Owner identifies a playlist's owner.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Owner       Owner               `json:"owner"`
	Public      bool                `json:"public"`
	Tracks      simplePlaylistTrack `json:"tracks"`
	Images      []SpotifyImage      `json:"images"`
	URI         string              `json:"uri"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifySavedAlbum represents an album saved in the user's library.
type SpotifySavedAlbum struct {
	AddedAt string       `json:"added_at"`
	Album   SpotifyAlbum `json:"album"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

type playHistoryItem struct {
	Track    SpotifyTrack `json:"track"`
	PlayedAt string       `json:"played_at"`
}

// envelope is Spotify's offset/limit pagination wrapper.
type envelope[T any] struct {
	Items    []T     `json:"items"`
	Total    int     `json:"total"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// SearchResults carries one page of matches per entity type.
type SearchResults struct {
	Tracks    []models.Track
	Artists   []models.Artist
	Albums    []models.Album
	Playlists []models.Playlist
}

// Service defines the read surface the views render from.
type Service interface {
	// Profile retrieves the authenticated user's profile.
	Profile(ctx context.Context) (*models.UserProfile, error)

	// SavedTracks retrieves one page of the user's saved tracks.
	SavedTracks(ctx context.Context, limit, offset int) (*Page[models.Track], error)

	// SavedAlbums retrieves one page of the user's saved albums.
	SavedAlbums(ctx context.Context, limit, offset int) (*Page[models.Album], error)

	// FollowedArtists retrieves one page of artists the user follows.
	FollowedArtists(ctx context.Context, limit, offset int) (*Page[models.Artist], error)

	// Playlists retrieves one page of the user's playlists.
	Playlists(ctx context.Context, limit, offset int) (*Page[models.Playlist], error)

	// Playlist retrieves a playlist's metadata by ID.
	Playlist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// PlaylistTracks retrieves one page of a playlist's tracks.
	PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*Page[models.Track], error)

	// TopArtists retrieves the user's top artists for the time range.
	TopArtists(ctx context.Context, timeRange TimeRange) ([]models.Artist, error)

	// TopTracks retrieves the user's top tracks for the time range.
	TopTracks(ctx context.Context, timeRange TimeRange) ([]models.Track, error)

	// RecentlyPlayed retrieves the user's playback history, newest first.
	RecentlyPlayed(ctx context.Context) ([]models.Track, error)

	// NowPlaying retrieves the currently playing track, or nil when playback is idle.
	NowPlaying(ctx context.Context) (*models.Track, error)

	// NewReleases retrieves one page of new album releases.
	NewReleases(ctx context.Context, limit, offset int) (*Page[models.Album], error)

	// BrowseCategories retrieves one page of browse categories.
	BrowseCategories(ctx context.Context, limit, offset int) (*Page[models.Category], error)

	// Search runs a combined track/artist/album/playlist search.
	Search(ctx context.Context, query string, limit, offset int) (*SearchResults, error)

	// Name returns the name of the backing service.
	Name() string
}

// SpotifyService implements [Service] against the Spotify Web API through an
// authenticated [Gateway].
type SpotifyService struct {
	gw      *Gateway
	baseURL string
}

var _ Service = (*SpotifyService)(nil)

// NewSpotifyService creates a SpotifyService over the given gateway.
// An empty baseURL selects the production API host.
func NewSpotifyService(gw *Gateway, baseURL string) *SpotifyService {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	return &SpotifyService{gw: gw, baseURL: baseURL}
}

func (s *SpotifyService) Name() string { return "Spotify" }

// get performs an authenticated GET and maps non-2xx statuses to sentinel errors.
func (s *SpotifyService) get(ctx context.Context, endpoint string) (*Response, error) {
	resp, err := s.gw.Get(ctx, s.baseURL+endpoint)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, shared.ErrNotAuthenticated
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	return resp, nil
}

// fetchJSON decodes an endpoint's 2xx body into T.
func fetchJSON[T any](ctx context.Context, s *SpotifyService, endpoint string) (*T, error) {
	resp, err := s.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var out T
	if err := resp.JSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// fetchPage decodes a paginated envelope and converts its items.
func fetchPage[R any, T any](ctx context.Context, s *SpotifyService, endpoint string, convert func(R) T) (*Page[T], error) {
	env, err := fetchJSON[envelope[R]](ctx, s, endpoint)
	if err != nil {
		return nil, err
	}
	return convertEnvelope(env, convert), nil
}

func convertEnvelope[R any, T any](env *envelope[R], convert func(R) T) *Page[T] {
	items := make([]T, 0, len(env.Items))
	for _, raw := range env.Items {
		items = append(items, convert(raw))
	}
	return &Page[T]{Items: items, Total: env.Total, Limit: env.Limit, Offset: env.Offset}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 50 {
		return 50
	}
	return limit
}

// Profile retrieves the current authenticated user's profile.
func (s *SpotifyService) Profile(ctx context.Context) (*models.UserProfile, error) {
	user, err := fetchJSON[SpotifyUser](ctx, s, "/me")
	if err != nil {
		return nil, err
	}

	return &models.UserProfile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Country:     user.Country,
		Product:     user.Product,
		Followers:   user.Followers.Total,
		ImageURL:    imageURL(user.Images),
	}, nil
}

// SavedTracks retrieves the user's saved tracks with pagination.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) (*Page[models.Track], error) {
	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", clampLimit(limit), offset)
	return fetchPage(ctx, s, endpoint, savedToTrack)
}

// SavedAlbums retrieves the user's saved albums with pagination.
func (s *SpotifyService) SavedAlbums(ctx context.Context, limit, offset int) (*Page[models.Album], error) {
	endpoint := fmt.Sprintf("/me/albums?limit=%d&offset=%d", clampLimit(limit), offset)
	return fetchPage(ctx, s, endpoint, func(sa SpotifySavedAlbum) models.Album {
		return toAlbum(sa.Album)
	})
}

// FollowedArtists retrieves artists the user follows with pagination.
func (s *SpotifyService) FollowedArtists(ctx context.Context, limit, offset int) (*Page[models.Artist], error) {
	endpoint := fmt.Sprintf("/me/following?type=artist&limit=%d&offset=%d", clampLimit(limit), offset)

	response, err := fetchJSON[struct {
		Artists envelope[SpotifyArtist] `json:"artists"`
	}](ctx, s, endpoint)
	if err != nil {
		return nil, err
	}

	return convertEnvelope(&response.Artists, toArtist), nil
}

// Playlists retrieves the current user's playlists with pagination.
func (s *SpotifyService) Playlists(ctx context.Context, limit, offset int) (*Page[models.Playlist], error) {
	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", clampLimit(limit), offset)
	return fetchPage(ctx, s, endpoint, simpleToPlaylist)
}

// Playlist retrieves a playlist's metadata by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))

	playlist, err := fetchJSON[SpotifySimplePlaylist](ctx, s, endpoint)
	if err != nil {
		return nil, err
	}

	converted := simpleToPlaylist(*playlist)
	return &converted, nil
}

// PlaylistTracks retrieves a playlist's tracks with pagination.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*Page[models.Track], error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", url.PathEscape(playlistID), clampLimit(limit), offset)
	return fetchPage(ctx, s, endpoint, func(pt SpotifyPlaylistTrack) models.Track {
		track := toTrack(pt.Track)
		track.AddedAt = pt.AddedAt
		return track
	})
}

// TopArtists retrieves the user's top artists for the given time range.
func (s *SpotifyService) TopArtists(ctx context.Context, timeRange TimeRange) ([]models.Artist, error) {
	page, err := fetchPage(ctx, s, fmt.Sprintf("/me/top/artists?time_range=%s", rangeOrDefault(timeRange)), toArtist)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// TopTracks retrieves the user's top tracks for the given time range.
func (s *SpotifyService) TopTracks(ctx context.Context, timeRange TimeRange) ([]models.Track, error) {
	page, err := fetchPage(ctx, s, fmt.Sprintf("/me/top/tracks?time_range=%s", rangeOrDefault(timeRange)), toTrack)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// RecentlyPlayed retrieves the user's playback history, newest first.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context) ([]models.Track, error) {
	response, err := fetchJSON[struct {
		Items []playHistoryItem `json:"items"`
	}](ctx, s, "/me/player/recently-played")
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Items))
	for _, item := range response.Items {
		track := toTrack(item.Track)
		track.AddedAt = item.PlayedAt
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// NowPlaying retrieves the currently playing track. A 204 from the API means
// playback is idle and yields (nil, nil).
func (s *SpotifyService) NowPlaying(ctx context.Context) (*models.Track, error) {
	resp, err := s.get(ctx, "/me/player/currently-playing")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNoContent || len(resp.Body) == 0 {
		return nil, nil
	}

	var playing struct {
		Item      *SpotifyTrack `json:"item"`
		IsPlaying bool          `json:"is_playing"`
	}
	if err := resp.JSON(&playing); err != nil {
		return nil, err
	}
	if playing.Item == nil || !playing.IsPlaying {
		return nil, nil
	}

	track := toTrack(*playing.Item)
	return &track, nil
}

// NewReleases retrieves new album releases with pagination.
func (s *SpotifyService) NewReleases(ctx context.Context, limit, offset int) (*Page[models.Album], error) {
	endpoint := fmt.Sprintf("/browse/new-releases?limit=%d&offset=%d", clampLimit(limit), offset)

	response, err := fetchJSON[struct {
		Albums envelope[SpotifyAlbum] `json:"albums"`
	}](ctx, s, endpoint)
	if err != nil {
		return nil, err
	}

	return convertEnvelope(&response.Albums, toAlbum), nil
}

// BrowseCategories retrieves browse categories with pagination.
func (s *SpotifyService) BrowseCategories(ctx context.Context, limit, offset int) (*Page[models.Category], error) {
	endpoint := fmt.Sprintf("/browse/categories?limit=%d&offset=%d", clampLimit(limit), offset)

	response, err := fetchJSON[struct {
		Categories envelope[SpotifyCategory] `json:"categories"`
	}](ctx, s, endpoint)
	if err != nil {
		return nil, err
	}

	return convertEnvelope(&response.Categories, toCategory), nil
}

// Search runs a combined search across tracks, artists, albums, and playlists.
func (s *SpotifyService) Search(ctx context.Context, query string, limit, offset int) (*SearchResults, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}

	params := url.Values{
		"q":      {query},
		"type":   {"track,artist,album,playlist"},
		"limit":  {fmt.Sprintf("%d", clampLimit(limit))},
		"offset": {fmt.Sprintf("%d", offset)},
	}

	response, err := fetchJSON[struct {
		Tracks    *envelope[SpotifyTrack]          `json:"tracks"`
		Artists   *envelope[SpotifyArtist]         `json:"artists"`
		Albums    *envelope[SpotifyAlbum]          `json:"albums"`
		Playlists *envelope[SpotifySimplePlaylist] `json:"playlists"`
	}](ctx, s, "/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	results := &SearchResults{}
	if response.Tracks != nil {
		results.Tracks = convertEnvelope(response.Tracks, toTrack).Items
	}
	if response.Artists != nil {
		results.Artists = convertEnvelope(response.Artists, toArtist).Items
	}
	if response.Albums != nil {
		results.Albums = convertEnvelope(response.Albums, toAlbum).Items
	}
	if response.Playlists != nil {
		results.Playlists = convertEnvelope(response.Playlists, simpleToPlaylist).Items
	}

	return results, nil
}

func rangeOrDefault(tr TimeRange) TimeRange {
	switch tr {
	case TimeRangeShort, TimeRangeMedium, TimeRangeLong:
		return tr
	default:
		return TimeRangeMedium
	}
}

func imageURL(images []SpotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func toTrack(st SpotifyTrack) models.Track {
	track := models.Track{
		ID:       st.ID,
		Title:    st.Name,
		Album:    st.Album.Name,
		Duration: st.DurationMS / 1000,
		ISRC:     st.ExternalIDs.ISRC,
	}
	if len(st.Artists) > 0 {
		track.Artist = st.Artists[0].Name
	}
	return track
}

func savedToTrack(st SpotifySavedTrack) models.Track {
	track := toTrack(st.Track)
	track.AddedAt = st.AddedAt
	return track
}

func toArtist(sa SpotifyArtist) models.Artist {
	return models.Artist{
		ID:        sa.ID,
		Name:      sa.Name,
		Genres:    sa.Genres,
		Followers: sa.Followers.Total,
		ImageURL:  imageURL(sa.Images),
	}
}

func toCategory(sc SpotifyCategory) models.Category {
	return models.Category{
		ID:       sc.ID,
		Name:     sc.Name,
		ImageURL: imageURL(sc.Icons),
	}
}

func toAlbum(sa SpotifyAlbum) models.Album {
	album := models.Album{
		ID:          sa.ID,
		Name:        sa.Name,
		ReleaseDate: sa.ReleaseDate,
		TotalTracks: sa.TotalTracks,
		ImageURL:    imageURL(sa.Images),
	}
	if len(sa.Artists) > 0 {
		album.Artist = sa.Artists[0].Name
	}
	return album
}

func simpleToPlaylist(sp SpotifySimplePlaylist) models.Playlist {
	return models.Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		Owner:       sp.Owner.DisplayName,
		TrackCount:  sp.Tracks.Total,
		Public:      sp.Public,
		ImageURL:    imageURL(sp.Images),
	}
}
