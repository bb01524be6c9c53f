package domain

import "encoding/json"

// Message is a single chat entry sent by the client. Only Content is
// forwarded; Role and any other fields are accepted and ignored.
type Message struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

// ChatRequest is the inbound request body.
type ChatRequest struct {
	Messages []Message `json:"messages"`
}

// BackendPayload is the body posted to the chatbot backend.
type BackendPayload struct {
	Content string `json:"content"`
}

// ContentResponse is the client response shape when only the backend's
// content attribute is relayed.
type ContentResponse struct {
	Content json.RawMessage `json:"content"`
}

// BackendReply is a successful (2xx) backend response.
type BackendReply struct {
	StatusCode int
	Body       json.RawMessage
}
