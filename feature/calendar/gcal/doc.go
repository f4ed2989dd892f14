// Package gcal implements the Google Calendar destination.
//
// Only events tagged with the calsync private extended properties are ever
// listed, updated or deleted. Events created by other tools or by hand are
// invisible to the reconciler.
//
// # Provenance
//
// Every event written by calsync carries these private extended properties:
//
//	calsync_source_uid   uid of the source occurrence
//	calsync_origin       origin tag of the source ("caldav")
//	calsync_hash         content hash at the time of the last write
//	calsync_last_synced  RFC 3339 timestamp of the last write
//
// # Authentication
//
// Either a JSON credentials file (service account or authorized user) or a
// previously stored OAuth2 token file can be configured.
package gcal
