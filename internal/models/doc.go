// Package models defines domain entities and persistence interfaces for the spotlite client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing Spotify Web API data
//   - [UserProfile] : The signed-in user's profile
//   - [Track], [Album], [Artist] : Catalog metadata flattened for views
//   - [Playlist] : Basic playlist metadata
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [Account] : The signed-in user and their token pair (CLI/TUI surface)
//   - [PersistedTrack] : Cached library rows
//
// Persistent entities implement [Model] and are stored through [Repository] implementations
// in the repositories package.
package models
