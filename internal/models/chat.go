package models

// Role identifies who authored a ChatMessage in the widget thread.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage represents a single bubble in the widget conversation.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Text    string `json:"text"`
	IsError bool   `json:"isError,omitempty"`
}

// AssistantRequest is the payload sent to the assistant endpoint.
type AssistantRequest struct {
	Message string `json:"message"`
	Page    string `json:"page,omitempty"`
}

// AssistantResponse is the reply relayed from the AI provider.
type AssistantResponse struct {
	Reply       string   `json:"reply"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Prompt roles understood by every provider adapter.
const (
	PromptRoleSystem = "system"
	PromptRoleUser   = "user"
)

// PromptMessage is one provider-agnostic message of an outbound prompt.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
