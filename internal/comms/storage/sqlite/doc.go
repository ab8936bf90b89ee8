// Package sqlite provides SQLite-backed communications persistence.
//
// The store is loaded once from the embedded schema plus a seed script and
// is read-only afterwards, so every method is a plain query with no locking
// discipline. Channel list methods resolve guest, property and reservation
// references with JOINs so callers receive fully attributed rows.
package sqlite
