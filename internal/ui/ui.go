package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotlite/internal/models"
	"github.com/desertthunder/spotlite/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MenuView ViewState = iota
	SectionView
	TrackListView
)

// sectionKind enumerates the browsable library sections.
type sectionKind int

const (
	sectionSongs sectionKind = iota
	sectionAlbums
	sectionArtists
	sectionPlaylists
	sectionRecent
)

type section struct {
	kind        sectionKind
	title       string
	description string
}

var sections = []section{
	{sectionSongs, "Songs", "Your saved tracks"},
	{sectionAlbums, "Albums", "Your saved albums"},
	{sectionArtists, "Artists", "Artists you follow"},
	{sectionPlaylists, "Playlists", "Your playlists"},
	{sectionRecent, "Recently Played", "Playback history"},
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	spotify services.Service

	width  int
	height int

	menu        list.Model
	sectionList list.Model
	trackList   list.Model
	current     section
	playlists   []models.Playlist

	loading bool
	err     error
	help    help.Model
	keys    keyMap
}

type sectionFetchedMsg struct {
	section section
	items   []list.Item
	err     error
}

type tracksFetchedMsg struct {
	playlist models.Playlist
	tracks   []models.Track
	err      error
}

// NewModel creates a new TUI model over the given service.
func NewModel(ctx context.Context, spotify services.Service) *Model {
	items := make([]list.Item, len(sections))
	for i, s := range sections {
		items[i] = sectionItem{section: s}
	}

	menu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	menu.Title = "Your Library"

	return &Model{
		ctx:     ctx,
		view:    MenuView,
		spotify: spotify,
		menu:    menu,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init is a no-op; the menu is static and sections load on demand.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.menu.SetSize(msg.Width-4, msg.Height-8)
		if m.sectionList.Width() == 0 {
			m.sectionList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case MenuView:
			return m.handleMenuKeys(msg)
		case SectionView:
			return m.handleSectionKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		}

	case sectionFetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.view = MenuView
			return m, nil
		}
		m.current = msg.section
		m.sectionList = list.New(msg.items, list.NewDefaultDelegate(), 0, 0)
		m.sectionList.Title = msg.section.title
		m.sectionList.SetSize(m.width-4, m.height-8)
		m.view = SectionView
		return m, nil

	case tracksFetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.view = SectionView
			return m, nil
		}
		items := make([]list.Item, len(msg.tracks))
		for i, track := range msg.tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", msg.playlist.Name)
		m.trackList.SetSize(m.width-4, m.height-8)
		m.view = TrackListView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.loading {
		return styles.help.Render("Loading...")
	}

	header := ""
	if m.err != nil {
		header = styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n"
	}

	switch m.view {
	case MenuView:
		return header + m.renderMenu()
	case SectionView:
		return header + m.renderSection()
	case TrackListView:
		return header + m.renderTrackList()
	default:
		return ""
	}
}

func (m *Model) handleMenuKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.menu.SelectedItem()
		if selected != nil {
			if s, ok := selected.(sectionItem); ok {
				m.err = nil
				m.loading = true
				return m, m.fetchSection(s.section)
			}
		}
	}

	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return m, cmd
}

func (m *Model) handleSectionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = MenuView
		m.err = nil
		return m, nil
	case "enter":
		if m.current.kind == sectionPlaylists {
			selected := m.sectionList.SelectedItem()
			if selected != nil {
				if pl, ok := selected.(playlistItem); ok {
					m.err = nil
					m.loading = true
					return m, m.fetchPlaylistTracks(pl.playlist)
				}
			}
		}
	}

	var cmd tea.Cmd
	m.sectionList, cmd = m.sectionList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = SectionView
		m.err = nil
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case MenuView:
		m.menu, cmd = m.menu.Update(msg)
	case SectionView:
		m.sectionList, cmd = m.sectionList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchSection(s section) tea.Cmd {
	return func() tea.Msg {
		items, err := m.loadSection(s)
		return sectionFetchedMsg{section: s, items: items, err: err}
	}
}

func (m *Model) loadSection(s section) ([]list.Item, error) {
	switch s.kind {
	case sectionSongs:
		page, err := m.spotify.SavedTracks(m.ctx, services.DefaultPageSize, 0)
		if err != nil {
			return nil, err
		}
		items := make([]list.Item, len(page.Items))
		for i, track := range page.Items {
			items[i] = trackItem{track: track}
		}
		return items, nil

	case sectionAlbums:
		page, err := m.spotify.SavedAlbums(m.ctx, services.DefaultPageSize, 0)
		if err != nil {
			return nil, err
		}
		items := make([]list.Item, len(page.Items))
		for i, album := range page.Items {
			items[i] = albumItem{album: album}
		}
		return items, nil

	case sectionArtists:
		page, err := m.spotify.FollowedArtists(m.ctx, services.DefaultPageSize, 0)
		if err != nil {
			return nil, err
		}
		items := make([]list.Item, len(page.Items))
		for i, artist := range page.Items {
			items[i] = artistItem{artist: artist}
		}
		return items, nil

	case sectionPlaylists:
		// Drain the whole collection so long playlist libraries scroll in one list.
		paginator := services.NewPaginator(func(ctx context.Context, limit, offset int) (*services.Page[models.Playlist], error) {
			return m.spotify.Playlists(ctx, limit, offset)
		}, services.DefaultPageSize, func(p models.Playlist) string { return p.ID })

		playlists, err := paginator.All(m.ctx)
		if err != nil {
			return nil, err
		}
		m.playlists = playlists
		items := make([]list.Item, len(playlists))
		for i, playlist := range playlists {
			items[i] = playlistItem{playlist: playlist}
		}
		return items, nil

	case sectionRecent:
		tracks, err := m.spotify.RecentlyPlayed(m.ctx)
		if err != nil {
			return nil, err
		}
		items := make([]list.Item, len(tracks))
		for i, track := range tracks {
			items[i] = trackItem{track: track}
		}
		return items, nil
	}

	return nil, fmt.Errorf("unknown section")
}

func (m *Model) fetchPlaylistTracks(playlist models.Playlist) tea.Cmd {
	return func() tea.Msg {
		paginator := services.NewPaginator(func(ctx context.Context, limit, offset int) (*services.Page[models.Track], error) {
			return m.spotify.PlaylistTracks(ctx, playlist.ID, limit, offset)
		}, services.DefaultPageSize, func(t models.Track) string { return t.ID })

		tracks, err := paginator.All(m.ctx)
		return tracksFetchedMsg{playlist: playlist, tracks: tracks, err: err}
	}
}

func (m *Model) renderMenu() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.menu.View(), helpView)
}

func (m *Model) renderSection() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	if m.current.kind == sectionPlaylists {
		helpKeys = append([]key.Binding{m.keys.enter}, helpKeys...)
	}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.sectionList.View(), helpView)
}

func (m *Model) renderTrackList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}
