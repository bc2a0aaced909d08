package models

// Role is the author of a message sent to the completion backend
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DialogueRequest represents an incoming POST /dialogue body
type DialogueRequest struct {
	UserInput           string         `json:"user_input" validate:"required"`
	ConversationHistory []HistoryEntry `json:"conversation_history"`
}

// HistoryEntry is one prior turn supplied by the caller. Both keys are optional;
// use Message to apply the defaulting rules.
type HistoryEntry struct {
	Role    *string `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// NewHistoryEntry builds a fully populated entry.
func NewHistoryEntry(role Role, content string) HistoryEntry {
	r := string(role)
	return HistoryEntry{Role: &r, Content: &content}
}

// Message converts the entry, defaulting a missing role to "user" and missing
// content to the empty string.
func (h HistoryEntry) Message() Message {
	msg := Message{Role: RoleUser}
	if h.Role != nil {
		msg.Role = Role(*h.Role)
	}
	if h.Content != nil {
		msg.Content = *h.Content
	}
	return msg
}

// DialogueResponse represents the successful POST /dialogue response
type DialogueResponse struct {
	SocraticResponse string `json:"socratic_response"`
	ProcessedInput   string `json:"processed_input"` // e.g. "12 words, 3 sentences"
	TokensUsed       int    `json:"tokens_used"`
}

// Message represents a single message in the sequence sent upstream
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
