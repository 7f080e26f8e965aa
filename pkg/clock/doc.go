// Package clock supplies wall-clock time to the controller.
//
// All calendar arithmetic in the controller is done on Unix epoch seconds
// with the hour, minute, second and weekday taken from the location of the
// supplied time. Clock implementations therefore return times already in
// the controller's configured location.
//
// Monotonic wraps another Clock and guarantees that successive readings
// never move backwards, reporting each anomaly through a callback.
package clock
