// Package projection computes the next automatic cycle start.
//
// Project scans every SpecificDays cycle and returns the single soonest
// start strictly after the effective current time. The effective time is
// pushed forward to the hold expiry while a timed hold is active, and an
// indefinite hold yields no start at all.
//
// The result names the cycle rather than pointing into the collection, so it
// stays valid across edits; callers resolve it with cycle.Set.Find.
package projection
