// Package persistence stores the controller state that must survive a
// restart: the cycle definitions, the hold and the operator settings.
//
// State is a single indented JSON document. Load also accepts JSON with
// comments and trailing commas so the file can be edited by hand.
// The store works on an afero.Fs, so tests run against an in-memory tree.
package persistence
