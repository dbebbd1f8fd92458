// Package models defines the domain entities for riff.
//
// The package contains two categories of types:
//
// 1. Value types exchanged with services
//   - [Track] : a catalog track (or a placeholder for an unresolved suggestion)
//   - [Suggestion] and [SuggestedPlaylist] : what the language model proposed
//   - [Playlist] : a playlist read from or created in the catalog
//
// 2. Persistent entities
//   - [Draft] : the playlist being curated before it is saved
//
// Persistent entities implement the [Model] interface; [Repository] describes their CRUD access.
package models
