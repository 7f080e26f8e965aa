// Package controller ties the scheduling core together.
//
// Controller is the single owned context object. It holds the cycle
// collection, the hold, the seasonal adjustment, the live schedule and the
// cached projection of the next cycle start, and it is not safe for
// concurrent use. Runner owns a Controller, ticks it from one goroutine and
// serializes access from everything else.
//
// # Tick
//
// Each tick the controller:
//
//  1. runs exactly one deferred task, oldest first;
//  2. clears an expired hold;
//  3. fires the projected cycle if its start has passed and no hold is active,
//     then projects again;
//  4. advances the scheduler state machine.
//
// Requests that actuate zones or change the queue are deferred through the
// TaskQueue so actuation never happens in the requester's call stack.
//
// # Persistence
//
// Every successful change to cycles, hold or settings is saved through the
// CycleStore. A failed save is returned wrapped in ErrPersistence; the
// in-memory state stays authoritative.
package controller
