// Package history keeps a SQLite record of watering runs.
//
// Every cycle firing and every manual schedule batch becomes a Run with a
// generated ID, the items actually queued (after seasonal adjustment) and
// its outcome. The controller writes runs; the HTTP API lists them.
package history
