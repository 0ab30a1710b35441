// Package agent contains the responder: the unit of work that turns a
// loosely-typed conversation state into exactly one assistant reply.
//
// The responder:
//   - derives the history from the state (messages, else prompt/changeme,
//     else an empty user message) and normalizes it
//   - calls the configured model.Model when an API key is present, rendering
//     any failure as "[error calling model: <failure text>]"
//   - otherwise echoes the content of the latest user message
//
// Instruction wraps the optional system prompt. Static instructions are
// text/template strings rendered against the state.
//
// Graph execution and persistence live in the graph and session packages.
package agent
