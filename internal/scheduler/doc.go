// Package scheduler owns the repeating commit timer and the run-state flag
// that keeps commit cycles from overlapping.
//
// The timer is recreated by Reschedule whenever the configured interval
// changes. Timer ticks that arrive while a cycle is running are dropped
// silently; on-demand triggers that arrive while a cycle is running produce
// the "already running" notice instead. Neither path ever cancels a cycle
// that has already started.
package scheduler
