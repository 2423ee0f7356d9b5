// Package auth implements the authenticated access layer for the Spotify Web API:
// the PKCE authorization-code flow, the token exchange and refresh grants, the
// signed-cookie session codec, and the client-side token store.
//
// The flow, end to end:
//
//  1. [GenerateVerifier] + [DeriveChallenge] produce the PKCE pair; the browser
//     is redirected to the authorize URL from [Exchanger.AuthURL].
//  2. The callback trades the authorization code via [Exchanger.Exchange],
//     which returns a [TokenSet].
//  3. [Codec.CreateSession] signs the session record into the `session` cookie;
//     a [TokenStore] caches the pair for outbound requests.
//  4. When an access token expires mid-request, [Exchanger.Refresh] rotates it;
//     refresh failure is signalled by a nil result, never an error, so callers
//     can tear the session down cleanly.
package auth
