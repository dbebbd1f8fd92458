// Package auth implements the Spotify authorization code flow with PKCE.
//
// # Flow
//
// [Authorizer.Begin] generates a verifier, state and challenge, persists the pending
// authorization through [SessionStore], and returns the provider URL the user must visit.
// The provider redirects back to the registered redirect URI, where the local callback
// server (or `riff auth callback <url>`) hands the URL to [CallbackHandler.Handle].
//
// # Callback states
//
// Each Handle call ends in exactly one terminal [State]:
//
//	error param present       -> ErrorFromProvider (pending authorization untouched)
//	no code param             -> NoCallback
//	missing/mismatched state  -> StateMismatch (no network I/O)
//	exchange failed           -> ExchangeFailed
//	token stored, user cached -> Success
//
// The callback URL is scrubbed through the [Navigator] before the exchange request is sent,
// so an authorization code is never replayed.
//
// # Tokens
//
// [TokenManager] is the only writer of the persisted token. Expired tokens are discarded on
// [TokenManager.Load]; refresh tokens are stored but never exchanged, so expiry requires a new
// login.
package auth
