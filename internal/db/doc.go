// Package db persists detection runs in sqlite.
//
// The schema is owned by the embedded golang-migrate migrations under
// migrations/. NewDB opens a database and brings it to the latest version;
// OpenDB only opens it, for the migrate subcommand.
//
// Dependency rule: db may import imaging and imaging/pipeline for the
// record types it stores. Nothing under imaging imports db.
package db
