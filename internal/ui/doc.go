// Package ui implements the duplicates review terminal interface using bubbletea's Elm architecture.
//
// The TUI walks one playlist through a removal workflow:
//  1. [LoadingView] : Spinner while the playlist is scanned for duplicates
//  2. [GroupListView] : Browse duplicate groups and toggle which to remove
//  3. [ConfirmView] : Confirm the backup-then-remove pass
//  4. [RemovingView] : Spinner while the backup is written and tracks removed
//  5. [ResultView] : Removed count and backup location, or the no-duplicates notice
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern; scan and removal run
// as commands so the event loop never blocks on the catalog.
// Every group starts selected, matching what the non-interactive remove command would do.
//
// Keyboard navigation uses vim-style bindings (j/k, space, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
// Callers should hand the engine a file logger before starting the program so nothing writes over the alt screen.
package ui
