// Package feed assembles the calendar feed of a single user: task events
// from the entity store merged with the availability background computed by
// the availability projector. It also computes the composite fingerprint the
// feed cache uses to decide whether a stored feed is still current, and
// renders feeds as iCalendar documents.
package feed
