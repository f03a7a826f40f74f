// Package settings persists the autopush settings blob and watches it for
// external edits.
//
// The blob holds a single key, intervalMinutes, merged over a default of 5
// on load and written back verbatim on every change. JSON is the native
// format; a .yaml or .yml extension switches the store to YAML.
package settings
