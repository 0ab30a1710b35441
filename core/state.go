package core

// Well-known conversation state keys.
const (
	// KeyMessages holds the message history (single message or sequence).
	KeyMessages = "messages"
	// KeyPrompt is the first free-text fallback used when no history exists.
	KeyPrompt = "prompt"
	// KeyChangeme is a legacy scaffold fallback field kept for compatibility.
	KeyChangeme = "changeme"
)

// fallbackKeys are consulted in order when the state carries no history.
var fallbackKeys = []string{KeyPrompt, KeyChangeme}

// State is the loosely-typed conversation state handed to a graph node. It
// is built fresh for every invocation.
type State map[string]any

// StateUpdate is the result of a node invocation. Responders always produce
// exactly one message.
type StateUpdate struct {
	Messages []Message `json:"messages"`
}

// NewStateUpdate wraps a single reply message in an update.
func NewStateUpdate(m Message) StateUpdate {
	return StateUpdate{Messages: []Message{m}}
}

// Reply returns the first message of the update (zero Message if empty).
func (u StateUpdate) Reply() Message {
	if len(u.Messages) == 0 {
		return Message{}
	}
	return u.Messages[0]
}

// DeriveMessages returns the raw message history to normalize. When the
// history field is absent or empty, a single user message is derived from the
// first non-empty fallback field, or from the empty string.
func (s State) DeriveMessages() any {
	if history, ok := s[KeyMessages]; ok && !IsEmpty(history) {
		return history
	}

	for _, key := range fallbackKeys {
		if v, ok := s[key]; ok && !IsEmpty(v) {
			return HumanMessage(toText(v))
		}
	}

	return HumanMessage("")
}

// Messages derives and normalizes the state's history in one step.
func (s State) Messages() []Message {
	return NormalizeAll(s.DeriveMessages())
}

// Apply returns a copy of the state with the update's messages appended to
// the normalized history. The receiver is not modified.
func (s State) Apply(u StateUpdate) State {
	next := s.Clone()

	history := NormalizeAll(s[KeyMessages])
	merged := make([]Message, 0, len(history)+len(u.Messages))
	merged = append(merged, history...)
	merged = append(merged, u.Messages...)
	next[KeyMessages] = merged

	return next
}

// Clone returns a shallow copy of the state map.
func (s State) Clone() State {
	c := make(State, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}
