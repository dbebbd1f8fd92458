// Package tasks turns prompts into playlists with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] interface defines three operations:
//
//  1. [Engine.Generate] : new playlist from a description
//     - Sends the prompt to the language model
//     - Parses the suggested name, description and tracks
//     - Resolves each suggestion against the Spotify catalog
//
//  2. [Engine.Remix] : rework an existing playlist
//     - Requires a connected account
//     - Fetches the playlist and lists its first 20 tracks in the prompt
//
//  3. [Engine.Save] : create a private Spotify playlist from the draft
//     - Placeholder tracks are skipped
//     - The draft is reset once the tracks are added
//
// # Resolving
//
// Suggestions are searched with "track:<title> artist:<artist>", one result each. Searches share a
// rate limiter and run a few at a time; results keep suggestion order. Misses are reported in
// [GenerateResult.Missing]. Without a connected account each suggestion becomes a placeholder track
// whose ID starts with "temp-".
//
// The optional [TrackCacher] (repositories.TrackCache) short-circuits repeated searches. Cache
// errors are logged and ignored.
//
// # Progress Reporting
//
// [ProgressUpdate] carries phase, step counters, a message and optional data. Sends never block;
// updates are dropped when the channel is full.
package tasks
