// Package interval holds the time arithmetic shared by the scheduling core:
// durations, overlaps, business windows and the local wall-clock timestamp
// format used on the wire.
//
// Timestamps are exchanged as "2006-01-02T15:04:05" without a zone suffix and
// are always interpreted in the Calendar's location.
package interval
