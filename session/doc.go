// Package session houses concrete implementations of core.SessionStore.
// The interface itself (and the Session struct) live in the core package so
// that the façade and CLI depend only on the contract.
//
// InMemoryStore is the process local default. Durable backends live in
// sub‑packages (see session/sqlite); only the wiring layer decides which
// implementation to instantiate.
package session
