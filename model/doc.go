// Package model defines the provider‑agnostic abstractions and concrete
// helpers for interacting with chat-completion models inside agentgraph.
//
// Core goals:
//   - Unify streaming + non‑streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic, Gemini) implement the Model interface from
// this package so the responder and graph stay decoupled from vendor SDKs.
package model
