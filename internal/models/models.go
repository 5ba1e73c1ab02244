package models

// ChatMessage is one message of a chat completions conversation
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}
