// Package hold implements the watering hold that suspends automatic cycles.
//
// A hold is set in whole days counted from local midnight of the day it is
// requested:
//
//   - Days > 0: cycles are suspended until midnight + Days*24h.
//   - Days < 0: cycles are suspended indefinitely (system off).
//   - Days == 0: no hold.
//
// A timed hold ends on its own once the current time passes the expiry
// epoch. Manual runs are never blocked by a hold.
package hold
