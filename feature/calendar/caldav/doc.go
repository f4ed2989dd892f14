// Package caldav implements the read-only source side of calendar sync on top of
// emersion/go-webdav.
//
// Fetch issues one calendar-query REPORT for the VEVENTs overlapping the window,
// decodes every returned object with go-ical and expands recurring series with
// rrule-go. Each occurrence of a series gets its own uid, the series uid followed
// by the original occurrence start in UTC basic format, e.g.
//
//	standup@example.com/20240304T090000Z
//
// EXDATEs remove occurrences and RECURRENCE-ID overrides replace them. Windows
// timezone names sent by Exchange are mapped to IANA names before parsing, and
// all instants are returned in UTC. All-day events are pinned to midnight UTC of
// their calendar date.
//
// Objects without a UID use their CalDAV path as uid. An object that cannot be
// decoded fails the fetch with a parse FetchError rather than being skipped.
package caldav
