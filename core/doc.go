// Package core provides the foundational domain types used by agentgraph:
//
//   - Message, the canonical role + content pair
//   - Normalize / NormalizeAll, the total conversion from every accepted
//     message shape (structured, mapping, text, attribute-bearing) into Message
//   - State / StateUpdate, the per-invocation conversation state and the
//     single-message update a node produces
//   - Session / SessionStore, conversation history persistence contracts
//
// The package keeps model providers, graph execution and persistence
// backends out of scope, exposing small interfaces so they can be swapped.
package core
