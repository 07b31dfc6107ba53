// Package service hosts conversation sessions: it serializes turns per
// session, drives the engine, records transcripts, and persists the lead
// when a session reaches a closing stage.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"realty_agent_backend/internal/conversation/domain"
	"realty_agent_backend/internal/conversation/engine"
	"realty_agent_backend/internal/conversation/qualify"
	"realty_agent_backend/internal/conversation/transport"
	"realty_agent_backend/internal/events"
	"realty_agent_backend/internal/leadstore"
	"realty_agent_backend/internal/transcript"
	"realty_agent_backend/platform/apperr"
	"realty_agent_backend/platform/config"
	"realty_agent_backend/platform/logger"
)

// handoffText closes a session out after repeated unparseable answers.
const handoffText = "I'm having trouble understanding you here. Our property expert can assist you much better directly. Thank you for your time!"

// Rephraser rewrites an assistant reply in a more natural voice. The
// caller falls back to the scripted text on any error.
type Rephraser interface {
	Rephrase(ctx context.Context, stage, text string) (string, error)
}

type sessionEntry struct {
	mu         sync.Mutex
	session    *domain.Session
	persisted  bool
	lastActive time.Time
}

// Service owns the in-memory session registry.
type Service struct {
	engine      *engine.Engine
	store       *leadstore.Store
	transcripts *transcript.Writer
	bus         events.Bus
	rephraser   Rephraser
	maxRetries  int
	log         *logger.Logger

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// New creates the conversation service. rephraser may be nil.
func New(eng *engine.Engine, store *leadstore.Store, transcripts *transcript.Writer, bus events.Bus, rephraser Rephraser, cfg config.ConversationConfig, log *logger.Logger) *Service {
	maxRetries := cfg.GetMaxRetries()
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Service{
		engine:      eng,
		store:       store,
		transcripts: transcripts,
		bus:         bus,
		rephraser:   rephraser,
		maxRetries:  maxRetries,
		log:         log,
		sessions:    make(map[string]*sessionEntry),
	}
}

// StartSession creates a fresh session and returns the opening prompt.
func (s *Service) StartSession(ctx context.Context) (transport.ChatResponse, error) {
	id := uuid.NewString()
	entry := &sessionEntry{session: domain.NewSession(id), lastActive: time.Now()}

	s.mu.Lock()
	s.sessions[id] = entry
	s.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	greeting := domain.MustFlow(domain.StageGreeting)
	text := s.polish(ctx, string(domain.StageGreeting), greeting.Question)
	entry.session.Record("assistant", text)
	s.recordTranscript(entry.session.ID, entry.session.Turns[len(entry.session.Turns)-1:])

	return transport.ChatResponse{
		SessionID: id,
		Reply:     text,
		Stage:     string(domain.StageGreeting),
	}, nil
}

// HandleMessage runs one conversation turn. Turns for the same session
// are processed strictly in arrival order.
func (s *Service) HandleMessage(ctx context.Context, req transport.ChatRequest) (transport.ChatResponse, error) {
	entry, err := s.getOrCreate(req.SessionID)
	if err != nil {
		return transport.ChatResponse{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.lastActive = time.Now()

	sess := entry.session
	log := s.log.WithSessionID(sess.ID)

	wasTerminal := sess.Terminal()
	hadSearch := sess.Search != nil
	turnsBefore := len(sess.Turns)

	reply := s.engine.Advance(ctx, sess, req.Message)
	if !sess.Terminal() && reply.Retries >= s.maxRetries {
		// maxRetries consecutive misses at one question end the session.
		sess.Stage = domain.StageThankYou
		sess.Record("assistant", handoffText)
		reply = engine.Reply{Text: handoffText, Stage: domain.StageThankYou, Retries: reply.Retries}
	}
	s.recordTranscript(sess.ID, sess.Turns[turnsBefore:])

	resp := transport.ChatResponse{
		SessionID: sess.ID,
		Reply:     reply.Text,
		Options:   reply.Options,
		Stage:     string(reply.Stage),
		Completed: sess.Terminal(),
	}
	if reply.Retries == 0 && !sess.Terminal() {
		resp.Reply = s.polish(ctx, resp.Stage, resp.Reply)
	}
	if !hadSearch && sess.Search != nil {
		resp.SearchURL = sess.Search.URL
		for _, item := range sess.Search.Items {
			resp.Listings = append(resp.Listings, transport.ListingResponse(item))
		}
	}

	if sess.Terminal() && !wasTerminal {
		verdict := s.persistLead(ctx, sess, entry)
		resp.Qualified = &verdict.Qualified
		log.Info("conversation completed",
			"stage", string(sess.Stage),
			"qualified", verdict.Qualified,
			"properties_found", verdict.PropertiesFound,
		)
	}
	return resp, nil
}

// Transcript returns the recorded turns for a session.
func (s *Service) Transcript(sessionID string) ([]domain.Turn, error) {
	return s.transcripts.Read(sessionID)
}

// PruneIdle drops sessions inactive for longer than maxIdle. Sessions
// that closed have already persisted their lead; abandoned ones are
// saved with whatever was captured before eviction.
func (s *Service) PruneIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	stale := make(map[string]*sessionEntry)
	for id, entry := range s.sessions {
		stale[id] = entry
	}
	s.mu.Unlock()

	pruned := 0
	for id, entry := range stale {
		entry.mu.Lock()
		if entry.lastActive.After(cutoff) {
			entry.mu.Unlock()
			continue
		}
		if !entry.persisted && entry.session.UserTurns() > 0 {
			s.persistLead(ctx, entry.session, entry)
		}
		entry.mu.Unlock()

		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		pruned++
	}
	return pruned
}

func (s *Service) getOrCreate(sessionID string) (*sessionEntry, error) {
	if sessionID == "" {
		return nil, apperr.Validation("sessionId is required; call /chat/session first")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		if _, err := uuid.Parse(sessionID); err != nil {
			return nil, apperr.NotFound("unknown session")
		}
		// Session ids survive process restarts on the client side;
		// accept a well-formed id and restart the flow for it.
		entry = &sessionEntry{session: domain.NewSession(sessionID), lastActive: time.Now()}
		s.sessions[sessionID] = entry
	}
	return entry, nil
}

// persistLead evaluates the session and writes the lead. Contact details
// are dropped when the visitor declined a callback.
func (s *Service) persistLead(ctx context.Context, sess *domain.Session, entry *sessionEntry) qualify.Verdict {
	verdict := qualify.Evaluate(sess.Fields.ConsentGranted(), sess.PropertiesFound())

	lead := leadstore.Lead{
		SessionID:        sess.ID,
		Location:         sess.Fields.Location,
		PropertyCategory: sess.Fields.PropertyCategory,
		PropertyType:     sess.Fields.PropertyType,
		Bedroom:          sess.Fields.Bedroom,
		ProjectStatus:    sess.Fields.ProjectStatus,
		Possession:       sess.Fields.Possession,
		Budget:           sess.Fields.Budget,
		PropertiesFound:  verdict.PropertiesFound,
		Consent:          verdict.ConsentGranted,
		Qualified:        verdict.Qualified,
		CreatedAt:        sess.CreatedAt,
	}
	if verdict.ConsentGranted {
		lead.Name = sess.Fields.Name
		lead.Phone = sess.Fields.Phone
		lead.Email = sess.Fields.Email
	}
	if sess.Search != nil {
		lead.SearchURL = sess.Search.URL
	}

	if err := s.store.Save(ctx, lead); err != nil {
		s.log.StoreError("persist_lead", err)
	} else {
		entry.persisted = true
	}
	s.publish(ctx, events.ConversationCompleted{
		BaseEvent: events.NewBaseEvent(),
		SessionID: sess.ID,
		Stage:     string(sess.Stage),
		Qualified: verdict.Qualified,
		Turns:     len(sess.Turns),
	})
	return verdict
}

// polish runs the optional rephraser with a short deadline, keeping the
// scripted text on any failure.
func (s *Service) polish(ctx context.Context, stage, text string) string {
	if s.rephraser == nil {
		return text
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	out, err := s.rephraser.Rephrase(ctx, stage, text)
	if err != nil || out == "" {
		if err != nil {
			s.log.Warn("rephrase failed, using scripted reply", "stage", stage, "error", err)
		}
		return text
	}
	return out
}

func (s *Service) recordTranscript(sessionID string, turns []domain.Turn) {
	for _, turn := range turns {
		if err := s.transcripts.Append(sessionID, turn); err != nil {
			s.log.Warn("transcript append failed", "session_id", sessionID, "error", err)
		}
	}
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, e)
	}
}
