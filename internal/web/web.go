// Package web implements the server-rendered browser client.
//
// Each library view is a template rendered from a per-request
// [services.Service]. The service is rebuilt for every request from the
// session cookie: tokens come out of the cookie, and the gateway's refresh
// callbacks write the rotated pair straight back into it, so the cookie is
// the only session authority the web surface has.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotlite/internal/auth"
	"github.com/desertthunder/spotlite/internal/models"
	"github.com/desertthunder/spotlite/internal/repositories"
	"github.com/desertthunder/spotlite/internal/server"
	"github.com/desertthunder/spotlite/internal/services"
	"github.com/desertthunder/spotlite/internal/shared"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages that render inside the base layout, keyed by template file.
var pageFiles = []string{
	"login.html", "home.html", "songs.html", "albums.html",
	"artists.html", "playlists.html", "playlist.html", "browse.html",
	"search.html", "settings.html", "error.html",
}

// ServiceFactory builds the API service for one request. The ResponseWriter
// is captured so token refresh callbacks can rewrite the session cookie.
type ServiceFactory func(w http.ResponseWriter, r *http.Request) services.Service

// App wires the authentication surface and the library views into a router.
type App struct {
	codec      *auth.Codec
	exchanger  *auth.Exchanger
	logger     *log.Logger
	pages      map[string]*template.Template
	service    ServiceFactory
	cache      *repositories.TrackCacheAdapter
	apiBaseURL string
	secure     bool
}

// AppOpts configures an App.
type AppOpts struct {
	Codec      *auth.Codec
	Exchanger  *auth.Exchanger
	Logger     *log.Logger
	Service    ServiceFactory // overrides the session-backed default, used in tests
	Cache      *repositories.TrackCacheAdapter
	APIBaseURL string
	Secure     bool
}

// NewApp creates the web application. Codec is required; Exchanger may be nil
// when credentials are missing, in which case login renders an error.
func NewApp(opts AppOpts) (*App, error) {
	if opts.Codec == nil {
		return nil, fmt.Errorf("web app requires a session codec")
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	app := &App{
		codec:      opts.Codec,
		exchanger:  opts.Exchanger,
		logger:     opts.Logger,
		pages:      pages,
		service:    opts.Service,
		cache:      opts.Cache,
		apiBaseURL: opts.APIBaseURL,
		secure:     opts.Secure,
	}
	if app.service == nil {
		app.service = app.sessionService
	}

	return app, nil
}

func parsePages() (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"add": func(nums ...int) int {
			sum := 0
			for _, n := range nums {
				sum += n
			}
			return sum
		},
		"duration": func(seconds int) string { return shared.FormatDuration(seconds) },
		"join":     strings.Join,
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/base.html", "templates/pager.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// Router assembles the full route table behind the logging middleware and the
// session gate.
func (a *App) Router() *server.BasicRouter {
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(a.logger), server.AuthGate(a.codec, a.logger))

	router.Handler(server.NewAuthHandler(server.AuthHandlerOpts{
		Exchanger:   a.exchanger,
		Codec:       a.codec,
		Logger:      a.logger,
		APIBaseURL:  a.apiBaseURL,
		RenderError: a.renderLoginError,
		Secure:      a.secure,
	}))

	router.Handle("GET", "/{$}", http.HandlerFunc(a.home))
	router.Handle("GET", "/login", http.HandlerFunc(a.login))
	router.Handle("POST", "/logout", http.HandlerFunc(a.logout))
	router.Handle("GET", "/songs", http.HandlerFunc(a.songs))
	router.Handle("GET", "/albums", http.HandlerFunc(a.albums))
	router.Handle("GET", "/artists", http.HandlerFunc(a.artists))
	router.Handle("GET", "/playlists", http.HandlerFunc(a.playlists))
	router.Handle("GET", "/playlists/{id}", http.HandlerFunc(a.playlist))
	router.Handle("GET", "/browse", http.HandlerFunc(a.browse))
	router.Handle("GET", "/search", http.HandlerFunc(a.search))
	router.Handle("GET", "/settings", http.HandlerFunc(a.settings))

	return router
}

// sessionService is the default ServiceFactory: tokens from the session
// cookie, refresh results written back through it.
func (a *App) sessionService(w http.ResponseWriter, r *http.Request) services.Service {
	session := a.codec.ReadSession(r)
	if session == nil {
		return nil
	}

	store := auth.NewMemoryStore(session.AccessToken, session.RefreshToken)
	gw := services.NewGateway(services.GatewayOpts{
		Store:     store,
		Refresher: a.exchanger,
		Logger:    a.logger,
		Callbacks: services.Callbacks{
			OnTokenRefreshed: func(ts auth.TokenSet) {
				if err := a.codec.UpdateSession(w, r, ts.AccessToken, ts.RefreshToken); err != nil {
					a.logger.Error("failed to update session after refresh", "error", err)
				}
			},
			OnSessionExpired: func() {
				a.codec.DeleteSession(w)
			},
		},
	})

	return services.NewSpotifyService(gw, a.apiBaseURL)
}

// viewData carries the fields every page template can reach.
type viewData struct {
	Authenticated bool
	Path          string
	Offset        int
	Limit         int
	Total         int
}

func (v viewData) PrevOffset() int {
	prev := v.Offset - v.Limit
	if prev < 0 {
		prev = 0
	}
	return prev
}

func (v viewData) NextOffset() int { return v.Offset + v.Limit }

func (v viewData) HasNext() bool { return v.Offset+v.Limit < v.Total }

func (a *App) baseData(r *http.Request) viewData {
	session := a.codec.ReadSession(r)
	return viewData{
		Authenticated: session != nil && session.UserID != "",
		Path:          r.URL.Path,
		Limit:         services.DefaultPageSize,
	}
}

func (a *App) render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := a.pages[page]
	if !ok {
		a.logger.Error("unknown template", "page", page)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		a.logger.Error("failed to render template", "page", page, "error", err)
	}
}

// renderError shows the error page for a failed view fetch. Authentication
// failures bounce to the login page instead.
func (a *App) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, shared.ErrNotAuthenticated) {
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		return
	}

	a.logger.Error("view fetch failed", "path", r.URL.Path, "error", err)
	a.render(w, http.StatusBadGateway, "error.html", struct {
		viewData
		Message string
	}{a.baseData(r), "Spotify did not answer. Try again in a moment."})
}

type loginErrorData struct {
	viewData
	Error string
}

func (a *App) renderLoginError(w http.ResponseWriter, status int, message string) {
	a.render(w, status, "login.html", loginErrorData{viewData{Path: "/login"}, message})
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "login.html", loginErrorData{a.baseData(r), ""})
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	a.codec.DeleteSession(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (a *App) home(w http.ResponseWriter, r *http.Request) {
	svc := a.service(w, r)
	if svc == nil {
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		return
	}

	data := struct {
		viewData
		Profile    *models.UserProfile
		NowPlaying *models.Track
		Recent     []models.Track
		TopArtists []models.Artist
	}{viewData: a.baseData(r)}

	profile, err := svc.Profile(r.Context())
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	data.Profile = profile

	// Secondary sections degrade to empty rather than failing the page.
	if now, err := svc.NowPlaying(r.Context()); err == nil {
		data.NowPlaying = now
	}
	if recent, err := svc.RecentlyPlayed(r.Context()); err == nil {
		if len(recent) > 10 {
			recent = recent[:10]
		}
		data.Recent = recent
	}
	if artists, err := svc.TopArtists(r.Context(), services.TimeRangeMedium); err == nil {
		if len(artists) > 8 {
			artists = artists[:8]
		}
		data.TopArtists = artists
	}

	a.render(w, http.StatusOK, "home.html", data)
}

func (a *App) browse(w http.ResponseWriter, r *http.Request) {
	svc := a.service(w, r)
	if svc == nil {
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		return
	}

	data := struct {
		viewData
		NewReleases []models.Album
		Categories  []models.Category
	}{viewData: a.baseData(r)}

	releases, err := svc.NewReleases(r.Context(), 12, 0)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	data.NewReleases = releases.Items

	// Categories degrade to empty rather than failing the page.
	if categories, err := svc.BrowseCategories(r.Context(), services.DefaultPageSize, 0); err == nil {
		data.Categories = categories.Items
	}

	a.render(w, http.StatusOK, "browse.html", data)
}

// queryTimeRange maps the range query parameter onto the API's time ranges.
func queryTimeRange(r *http.Request) services.TimeRange {
	switch r.URL.Query().Get("range") {
	case "short":
		return services.TimeRangeShort
	case "long":
		return services.TimeRangeLong
	default:
		return services.TimeRangeMedium
	}
}

func (a *App) settings(w http.ResponseWriter, r *http.Request) {
	svc := a.service(w, r)
	if svc == nil {
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		return
	}

	data := struct {
		viewData
		Profile   *models.UserProfile
		Range     string
		TopTracks []models.Track
	}{viewData: a.baseData(r), Range: r.URL.Query().Get("range")}
	if data.Range == "" {
		data.Range = "medium"
	}

	profile, err := svc.Profile(r.Context())
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	data.Profile = profile

	if tracks, err := svc.TopTracks(r.Context(), queryTimeRange(r)); err == nil {
		if len(tracks) > 10 {
			tracks = tracks[:10]
		}
		data.TopTracks = tracks
	}

	a.render(w, http.StatusOK, "settings.html", data)
}

func (a *App) songs(w http.ResponseWriter, r *http.Request) {
	svc := a.service(w, r)
	if svc == nil {
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		return
	}

	offset := queryOffset(r)
	page, err := svc.SavedTracks(r.Context(), services.DefaultPageSize, offset)
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	if a.cache != nil {
		if err := a.cache.CacheTracks(page.Items); err != nil {
			a.logger.Warn("failed to cache tracks", "error", err)
		}
	}

	data := struct {
		viewData
		Tracks []models.Track
	}{a.pagedData(r, offset, page.Limit, page.Total), page.Items}

	a.render(w, http.StatusOK, "songs.html", data)
}

func (a *App) albums(w http.ResponseWriter, r *http.Request) {
	svc := a.service(w, r)
	if svc == nil {
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		return
	}

	offset := queryOffset(r)
	page, err := svc.SavedAlbums(r.Context(), services.DefaultPageSize, offset)
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	data := struct {
		viewData
		Albums []models.Album
	}{a.pagedData(r, offset, page.Limit, page.Total), page.Items}

	a.render(w, http.StatusOK, "albums.html", data)
}

func (a *App) artists(w http.ResponseWriter, r *http.Request) {
	svc := a.service(w, r)
	if svc == nil {
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		return
	}

	offset := queryOffset(r)
	page, err := svc.FollowedArtists(r.Context(), services.DefaultPageSize, offset)
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	data := struct {
		viewData
		Artists []models.Artist
	}{a.pagedData(r, offset, page.Limit, page.Total), page.Items}

	a.render(w, http.StatusOK, "artists.html", data)
}

func (a *App) playlists(w http.ResponseWriter, r *http.Request) {
	svc := a.service(w, r)
	if svc == nil {
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		return
	}

	offset := queryOffset(r)
	page, err := svc.Playlists(r.Context(), services.DefaultPageSize, offset)
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	data := struct {
		viewData
		Playlists []models.Playlist
	}{a.pagedData(r, offset, page.Limit, page.Total), page.Items}

	a.render(w, http.StatusOK, "playlists.html", data)
}

func (a *App) playlist(w http.ResponseWriter, r *http.Request) {
	svc := a.service(w, r)
	if svc == nil {
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		return
	}

	playlistID := r.PathValue("id")
	meta, err := svc.Playlist(r.Context(), playlistID)
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	offset := queryOffset(r)
	page, err := svc.PlaylistTracks(r.Context(), playlistID, services.DefaultPageSize, offset)
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	data := struct {
		viewData
		Playlist *models.Playlist
		Tracks   []models.Track
	}{a.pagedData(r, offset, page.Limit, page.Total), meta, page.Items}

	a.render(w, http.StatusOK, "playlist.html", data)
}

func (a *App) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	data := struct {
		viewData
		Query   string
		Results *services.SearchResults
		Empty   bool
	}{viewData: a.baseData(r), Query: query, Results: &services.SearchResults{}}

	if query == "" {
		a.render(w, http.StatusOK, "search.html", data)
		return
	}

	svc := a.service(w, r)
	if svc == nil {
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		return
	}

	results, err := svc.Search(r.Context(), query, 20, queryOffset(r))
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	data.Results = results
	data.Empty = len(results.Tracks) == 0 && len(results.Artists) == 0 &&
		len(results.Albums) == 0 && len(results.Playlists) == 0

	a.render(w, http.StatusOK, "search.html", data)
}

func (a *App) pagedData(r *http.Request, offset, limit, total int) viewData {
	data := a.baseData(r)
	data.Offset = offset
	if limit > 0 {
		data.Limit = limit
	}
	data.Total = total
	return data
}

func queryOffset(r *http.Request) int {
	raw := r.URL.Query().Get("offset")
	if raw == "" {
		return 0
	}
	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}
