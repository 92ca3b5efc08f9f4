// Package stores provides persistence layer implementations for Deckhand.
// The working set (docks, ingested resource records, provisioning records,
// roles, and audit events) lives in an in-memory document store built on
// go-memdb; a durable SQLite archive with WAL mode and embedded migrations
// sits behind the same record interface for history that must survive a
// restart.
package stores
