// Package librarian turns published documentation pages into searchable
// records in a remote full-text index, and keeps that index consistent as
// source content changes or is removed. It crawls single tutorials,
// directories of prebuilt tutorial pages, and multi-page guides; extracts
// heading-delimited content sections; builds records with deterministic
// identifiers; and reconciles them against whatever the index currently
// holds for a root URL.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, http/, elastic/).
package librarian
