// Package repositories implements SQLite persistence for drafts and the catalog search cache.
//
// Key Implementations:
//   - [DraftRepository] : the playlist being curated, with ordered, de-duplicated tracks
//   - [TrackCache] : search results keyed by normalized "title|artist" so repeated suggestions
//     skip the catalog
//
// Multi-statement writes run inside a single transaction through [inTx].
package repositories
