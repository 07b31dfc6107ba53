package domain

import "time"

// Turn is one utterance in the conversation transcript. Turns are audit
// data only; control decisions never read them back.
type Turn struct {
	Role string    `json:"role"` // "user" or "assistant"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Listing is one property returned by the search provider.
type Listing struct {
	Title    string `json:"title"`
	Price    string `json:"price"`
	Location string `json:"location"`
	Link     string `json:"link"`
	Image    string `json:"image,omitempty"`
	Status   string `json:"status,omitempty"`
}

// SearchOutcome caches the one search made per session. Immutable once set.
type SearchOutcome struct {
	Success bool      `json:"success"`
	Count   int       `json:"count"`
	Items   []Listing `json:"items"`
	URL     string    `json:"url,omitempty"`
}

// Session is one end-to-end conversation instance.
type Session struct {
	ID        string
	Stage     Stage
	Fields    Fields
	Search    *SearchOutcome
	Turns     []Turn
	Retries   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession starts a session at the greeting stage.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Stage:     StageGreeting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Record appends a turn to the transcript.
func (s *Session) Record(role, text string) {
	now := time.Now().UTC()
	s.Turns = append(s.Turns, Turn{Role: role, Text: text, At: now})
	s.UpdatedAt = now
}

// UserTurns counts inbound utterances so far.
func (s *Session) UserTurns() int {
	n := 0
	for _, t := range s.Turns {
		if t.Role == "user" {
			n++
		}
	}
	return n
}

// Terminal reports whether the session has reached an absorbing stage.
func (s *Session) Terminal() bool {
	return s.Stage.Terminal()
}

// PropertiesFound returns the cached search count, zero before search.
func (s *Session) PropertiesFound() int {
	if s.Search == nil {
		return 0
	}
	return s.Search.Count
}
