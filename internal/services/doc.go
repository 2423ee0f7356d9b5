// Package services implements the data-fetching layer over the Spotify Web API.
//
// Three layers compose:
//
//   - [Gateway] wraps every outbound API call: it injects the bearer token,
//     rate-limits, and on a 401 performs a single transparent refresh-and-retry
//     before giving up and tearing the session down.
//   - [SpotifyService] is the endpoint catalog, decoding Spotify's response
//     envelopes into the flattened DTOs in the models package.
//   - [Paginator] composes repeated gateway calls into one logical unbounded
//     sequence over an offset/limit-paged collection.
package services
