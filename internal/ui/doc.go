// Package ui implements terminal prompts and rendering using bubbletea's Elm architecture.
//
// [ConfirmModel] is a single-question prompt used for the pairing-code wait and the
// watchlist question. [Confirmer] wraps it in a [tasks.Confirmer] so the sync engine
// never touches the terminal directly.
//
// Rendering helpers colour pairing codes, progress updates and run summaries with a
// shared lipgloss [Palette]. Key bindings are listed with charmbracelet/bubbles/help.
package ui
