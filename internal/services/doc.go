// Package services wraps the HTTP APIs riff talks to.
//
// # Spotify
//
// [SpotifyService] implements [Catalog] against the Spotify Web API. It does not hold a token:
// every request asks its [ClientSource] (the auth.TokenManager) for a bearer client, so an
// expired session surfaces as [shared.ErrNotAuthenticated] rather than a silent refresh.
// It also implements auth.ProfileFetcher for the post-login profile lookup.
//
// # OpenRouter
//
// [OpenRouter] implements [Completer] with the OpenAI chat completions client pointed at
// the OpenRouter base URL. [GeneratePrompt] and [RemixPrompt] build the prompts, and
// [ModelName] applies the ":online" web search suffix.
//
// # Suggestions
//
// [ParseSuggestions] extracts the JSON object from a model reply. Parsing is best effort:
// prose around the object is ignored and entries without a title are skipped.
//
// # Error Handling
//
//   - [shared.ErrNotAuthenticated] : no valid token, or Spotify returned 401
//   - [shared.ErrAPIRequest] : transport failure or non-2xx response ([StatusError])
//   - [shared.ErrPlaylistNotFound] : playlist ID not found
//   - [shared.ErrTrackNotFound] : search returned no items
//   - [shared.ErrInvalidResponse] : undecodable response or model reply
package services
