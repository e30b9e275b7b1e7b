// Package session houses concrete implementations of core.SessionStore and
// core.ContextStore. The interfaces themselves (and the Session struct) live
// in the core package to centralize domain contracts. Keeping only
// implementations here prevents higher level packages (engine, flows) from
// depending on concrete storage.
//
// Two backends are provided: a volatile in-memory store for tests and demo
// servers, and a SQLite-backed store for durable single-node deployments.
// Additional backends (Redis, Postgres, Firestore, etc.) can be added
// without changing any calling code; only the wiring layer decides which
// implementation to instantiate.
package session
