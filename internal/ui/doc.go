// Package ui provides helpers for formatting human-readable console output.
//
// ConsoleCommandEventLogger translates git and build tool lifecycle events into
// concise messages when the console log format is selected, while detailed
// fields continue to flow through the structured logger.
package ui
