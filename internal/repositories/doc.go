// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [AccountRepository] : Account persistence with Spotify user ID lookups and token storage
//   - [TrackRepository] : Library track caching keyed by the remote service's track ID
//   - [TrackCacheAdapter] : Dedup-on-write cache front for library fetches
//
// Sequence numbers provide stable, human-readable ordering (e.g., account #1, track #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
