// Package ui renders CLI output with [lipgloss] styles.
//
// Job results, reconciliation stats and run history are drawn as tables with
// lipgloss/table. Plain strings are returned so callers choose the writer.
package ui
