// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - HTTP API and WebSocket playback sessions, Redis playback stream, SQL dataset sources
// 0.2.0 - Step/seek controls with full rebuild, pause that keeps arc progress, results table
// 0.1.0 - Initial release: terminal globe, stadium pins, animated arcs, headless summary
