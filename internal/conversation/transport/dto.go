// Package transport defines the request/response DTOs for the
// conversation HTTP API.
package transport

// ChatRequest is one inbound visitor message. SessionID comes from
// POST /chat/session; messages without one are rejected.
type ChatRequest struct {
	SessionID string `json:"sessionId" validate:"omitempty,max=64"`
	Message   string `json:"message" validate:"required,max=2000"`
}

// ListingResponse is one property shown to the visitor.
type ListingResponse struct {
	Title    string `json:"title"`
	Price    string `json:"price"`
	Location string `json:"location"`
	Link     string `json:"link"`
	Image    string `json:"image,omitempty"`
	Status   string `json:"status,omitempty"`
}

// ChatResponse is the assistant's reply for one turn.
type ChatResponse struct {
	SessionID string            `json:"sessionId"`
	Reply     string            `json:"reply"`
	Options   []string          `json:"options,omitempty"`
	Stage     string            `json:"stage"`
	Completed bool              `json:"completed"`
	Qualified *bool             `json:"qualified,omitempty"`
	Listings  []ListingResponse `json:"listings,omitempty"`
	SearchURL string            `json:"searchUrl,omitempty"`
}
