// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a status browser for result publication:
//  1. [StatusListView] : Browse every result set (drafts, errors, published) with grade and issues
//  2. [DetailView] : Subject marks, summary and classification issues for one set
//  3. [ConfirmView] : Confirm publishing one set or the whole batch
//  4. [PublishingView] : Monitor real-time progress updates
//  5. [ResultView] : Display the batch report or the single publish outcome
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the Publisher, providing non-blocking status reporting during batch runs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, p, b, y/n, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
