// Package cycle defines recurring watering plans.
//
// A Definition names a day-of-week pattern, a start time and an ordered list
// of schedule items. Definitions are keyed by name; names compare without
// regard to case. Set holds the ordered collection owned by the controller.
//
// Only the SpecificDays type is projected onto the calendar. Every2ndDay and
// Every3rdDay are accepted and stored but never fire automatically; Off keeps
// a definition around for manual runs.
//
// Validate reports every rule a candidate breaks. It is advisory: the caller
// decides whether to reject.
package cycle
