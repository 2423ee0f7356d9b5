// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view browser over the authenticated library:
//  1. [MenuView] : Pick a library section (songs, albums, artists, playlists, recent)
//  2. [SectionView] : Scroll one section's items
//  3. [TrackListView] : Drill into a playlist's tracks
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving typed messages from async fetch commands.
// Every fetch goes through the same [services.Service] the web views render from, so the TUI exercises the identical token refresh path.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
