// Package ui implements an interactive draft curator using bubbletea's Elm architecture.
//
// The TUI has four views:
//  1. [DraftView] : browse the draft's tracks, remove with d, save with s
//  2. [ConfirmView] : confirm the save; placeholder tracks are called out as skipped
//  3. [SavingView] : progress updates from the playlist engine
//  4. [ResultView] : the created playlist or the failure
//
// Removals are persisted immediately through [DraftStore]. A successful save resets the draft and
// persists the reset.
//
// [RenderNotice] styles login notices with the same palette for the CLI.
package ui
