package core

import "github.com/google/uuid"

// Canonical conversation roles. Any other role tag is carried through
// normalization unchanged.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleDeveloper = "developer"
)

// roleTable maps the known role / message-type vocabularies onto the
// canonical chat roles.
var roleTable = map[string]string{
	"human":     RoleUser,
	"ai":        RoleAssistant,
	"system":    RoleSystem,
	"developer": RoleDeveloper,
}

// MapRole translates a raw role or type tag into its canonical role. Tags not
// present in the table are returned unchanged.
func MapRole(tag string) string {
	if role, ok := roleTable[tag]; ok {
		return role
	}
	return tag
}

// Message is the canonical role + text pair every accepted input shape is
// normalized into.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a user-role message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant-role message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewSystemMessage creates a system-role message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// Typed is implemented by structured message objects that carry a message
// type tag (human, ai, system, ...) alongside their content.
type Typed interface {
	MessageType() string
	MessageContent() any
}

// BaseMessage is the structured message form. Type holds a type tag such as
// "human" or "ai"; Content may hold any value and is rendered as text on
// normalization.
type BaseMessage struct {
	Type    string `json:"type"`
	Content any    `json:"content,omitempty"`
}

// MessageType implements Typed.
func (m BaseMessage) MessageType() string { return m.Type }

// MessageContent implements Typed.
func (m BaseMessage) MessageContent() any { return m.Content }

// HumanMessage creates a structured message of type "human".
func HumanMessage(content any) BaseMessage { return BaseMessage{Type: "human", Content: content} }

// AIMessage creates a structured message of type "ai".
func AIMessage(content any) BaseMessage { return BaseMessage{Type: "ai", Content: content} }

// SystemMessage creates a structured message of type "system".
func SystemMessage(content any) BaseMessage { return BaseMessage{Type: "system", Content: content} }

// DeveloperMessage creates a structured message of type "developer".
func DeveloperMessage(content any) BaseMessage {
	return BaseMessage{Type: "developer", Content: content}
}

// NewID generates a new unique identifier for sessions and responses.
func NewID() string { return uuid.NewString() }
