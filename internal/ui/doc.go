// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI serves two entry points. The watch flow polls a running server for
// one job until it settles; the reverse pick flow walks a lookup result to a
// submitted download:
//  1. [CandidateListView] : Browse catalog matches for an extracted URL
//  2. [ConfirmView] : Confirm the selected match and delivery target
//  3. [WatchView] : Monitor stage, message, and progress while polling
//  4. [ResultView] : Display the terminal job record
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// All server access goes through [services.APIService]; polling is paced by
// [tea.Tick] so a slow server never stacks requests.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
