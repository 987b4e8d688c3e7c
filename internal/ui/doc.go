// Package ui provides helpers for formatting human-readable console output.
//
// The helpers translate GitLab operation events into concise messages so that
// operators can follow a run while detailed telemetry continues to flow through
// structured loggers.
package ui
