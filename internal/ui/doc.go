// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The checkout TUI shows a spinner with live progress while the payment
// window is open, then a result screen once the charge settles:
//  1. [RunningView] : Spinner plus the latest checkout progress message
//  2. [ResultView] : Final charge state, abandonment, or failure
//
// The [FlowModel] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the payment service, providing non-blocking status reporting while polling.
package ui
