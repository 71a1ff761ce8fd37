// Package interval provides the interval timer actor. Once started it
// publishes a tick event, stamped by its clock, to its bus on every interval.
package interval
