// Package actuator drives the zone outputs.
//
// Actuator is the hardware boundary: it accepts a logical zone mask and
// reports the mask currently applied. Register is the in-process model of
// the 74HC595 shift register the valves hang off, including output polarity
// and the output-enable line.
//
// Driver sits between the scheduler and an Actuator. It implements
// schedule.Switch, writes an event for every change and tells its owner
// when the visible zone state changed.
package actuator
