// Package engine drives the conversation stage graph: it merges
// extracted fields into the session, applies the skip and branch rules,
// triggers the one search side effect, and renders each stage's reply.
package engine

import (
	"context"
	"strconv"
	"strings"

	"realty_agent_backend/internal/conversation/domain"
	"realty_agent_backend/internal/conversation/extract"
	"realty_agent_backend/internal/search"
	"realty_agent_backend/platform/logger"
)

const clarifyPrefix = "Sorry, I didn't quite catch that. "

// Reply is what the host delivers back to the caller after one turn.
type Reply struct {
	Text    string
	Options []string
	Stage   domain.Stage
	Retries int
}

// Engine advances sessions through the flow table. It is stateless
// across sessions; all per-conversation state lives on the Session.
type Engine struct {
	provider search.Provider
	log      *logger.Logger
}

// New creates the conversation engine.
func New(provider search.Provider, log *logger.Logger) *Engine {
	return &Engine{provider: provider, log: log}
}

// Advance processes one inbound utterance and returns the rendered
// reply plus the updated stage. Terminal sessions absorb further
// utterances: the closing message is repeated and nothing mutates.
func (e *Engine) Advance(ctx context.Context, s *domain.Session, utterance string) Reply {
	s.Record("user", utterance)

	if s.Terminal() {
		text := render(domain.MustFlow(s.Stage).Question, s)
		s.Record("assistant", text)
		return Reply{Text: text, Stage: s.Stage, Retries: s.Retries}
	}

	cur := domain.MustFlow(s.Stage)
	ext := e.interpret(cur, utterance)
	captured := s.Fields.Merge(ext)

	if cur.Field != "" && !s.Fields.Has(cur.Field) {
		return e.reask(s, cur, utterance)
	}
	s.Retries = 0

	next := e.nextStage(cur, s)
	next = probeForward(next, s)

	var prefix string
	if preferenceCount(captured) >= 2 {
		prefix = acknowledgment(captured, s)
	}

	if next == domain.StageSearchAndShow {
		prefix += e.runSearch(ctx, s)
		next = domain.MustFlow(domain.StageSearchAndShow).Next
	}

	dest := domain.MustFlow(next)
	e.log.StageTransition(s.ID, string(s.Stage), string(next))
	s.Stage = next

	text := prefix + render(dest.Question, s)
	s.Record("assistant", text)
	return Reply{
		Text:    text,
		Options: optionsFor(dest, &s.Fields),
		Stage:   next,
		Retries: s.Retries,
	}
}

// interpret runs the detector battery and then the stage-targeted
// fallbacks for the field the current stage is asking about.
func (e *Engine) interpret(cur domain.Descriptor, utterance string) domain.Fields {
	ext := extract.Battery(utterance)

	switch cur.Field {
	case domain.FieldNameKey:
		if fieldsFound(ext) == 0 {
			if name := extract.ExtractName(utterance); name != "" {
				ext.Name = domain.Str(name)
			}
		}
	case domain.FieldConsent:
		// Branch rule: only an affirmative routes forward; anything
		// else, including an unparseable answer, counts as declined.
		v, ok := extract.MatchYesNo(utterance)
		consent := ok && v
		ext.Consent = domain.BoolPtr(consent)
	case domain.FieldPropertyCategory:
		if ext.PropertyCategory == nil {
			if m := extract.MatchOption(utterance, []string{domain.CategoryResidential, domain.CategoryCommercial}, 0.6); m != "" {
				ext.PropertyCategory = domain.Str(m)
			}
		}
	case domain.FieldBudget:
		if ext.Budget == nil && containsDigit(utterance) {
			// Keep the caller's own words when no unit was recognized.
			ext.Budget = domain.Str(strings.TrimSpace(utterance))
		}
	}

	return ext
}

func (e *Engine) reask(s *domain.Session, cur domain.Descriptor, utterance string) Reply {
	firstGreeting := cur.Stage == domain.StageGreeting && s.UserTurns() == 1
	prefix := ""
	if !firstGreeting {
		s.Retries++
		prefix = clarifyPrefix
	}

	text := prefix + render(cur.Question, s)
	s.Record("assistant", text)
	return Reply{
		Text:    text,
		Options: optionsFor(cur, &s.Fields),
		Stage:   cur.Stage,
		Retries: s.Retries,
	}
}

// nextStage applies the consent fork; every other stage follows its
// static edge.
func (e *Engine) nextStage(cur domain.Descriptor, s *domain.Session) domain.Stage {
	if cur.Stage == domain.StageConsentAfterSearch {
		if s.Fields.ConsentGranted() {
			return domain.StageBudget
		}
		return domain.StageThankYou
	}
	return cur.Next
}

// probeForward walks the default-next chain, bypassing question stages
// whose field is already known, extract-only stages, and stages whose
// SkipIf fires. Control stages stop the probe.
func probeForward(next domain.Stage, s *domain.Session) domain.Stage {
	for {
		d := domain.MustFlow(next)
		if d.Control {
			return next
		}
		if d.ExtractOnly || s.Fields.Has(d.Field) || (d.SkipIf != nil && d.SkipIf(&s.Fields)) {
			next = d.Next
			continue
		}
		return next
	}
}

// runSearch performs the one side-effecting transition. The provider is
// timeout-bounded; failure shows up as a zero-result outcome.
func (e *Engine) runSearch(ctx context.Context, s *domain.Session) string {
	if s.Search == nil {
		outcome := e.provider.Search(ctx, search.Query{
			Location:      deref(s.Fields.Location),
			PropertyType:  deref(s.Fields.PropertyType),
			Category:      deref(s.Fields.PropertyCategory),
			Bedroom:       deref(s.Fields.Bedroom),
			ProjectStatus: deref(s.Fields.ProjectStatus),
			Possession:    deref(s.Fields.Possession),
		})
		s.Search = &outcome
		e.log.Info("property search completed",
			"session_id", s.ID,
			"success", outcome.Success,
			"count", outcome.Count,
		)
	}

	if s.Search.Count > 0 {
		return "Great news! I found " + strconv.Itoa(s.Search.Count) + " matching properties in " +
			deref(s.Fields.Location) + ". "
	}
	return "I couldn't find exact matches right now, but our property expert can help you find the perfect fit. "
}

// acknowledgment names the preference values a rich utterance supplied.
func acknowledgment(captured []domain.FieldName, s *domain.Session) string {
	var values []string
	for _, name := range captured {
		if !isPreference(name) {
			continue
		}
		if v := s.Fields.Value(name); v != "" {
			values = append(values, v)
		}
	}
	if len(values) < 2 {
		return ""
	}
	return "Got it: " + strings.Join(values, ", ") + ". "
}

func preferenceCount(captured []domain.FieldName) int {
	n := 0
	for _, name := range captured {
		if isPreference(name) {
			n++
		}
	}
	return n
}

func isPreference(name domain.FieldName) bool {
	switch name {
	case domain.FieldLocation, domain.FieldPropertyCategory, domain.FieldPropertyType,
		domain.FieldBedroom, domain.FieldProjectStatus, domain.FieldPossession,
		domain.FieldBudget:
		return true
	}
	return false
}

// optionsFor returns the quick replies for a stage. Property type
// options depend on the collected category.
func optionsFor(d domain.Descriptor, f *domain.Fields) []string {
	if d.Stage == domain.StagePropertyType {
		if f.IsCommercial() {
			return []string{"Office Space", "Shop", "Commercial Plot", "Showrooms"}
		}
		return []string{"Apartments", "Villas", "Residential Plots", "Independent Floor", "Residential Studio"}
	}
	return d.Options
}

// render substitutes {placeholder} tokens from the collected fields.
func render(question string, s *domain.Session) string {
	name := deref(s.Fields.Name)
	if name == "" {
		name = "there"
	}
	location := deref(s.Fields.Location)
	if location == "" {
		location = "your city"
	}
	r := strings.NewReplacer(
		"{name}", name,
		"{location}", location,
	)
	return r.Replace(question)
}

func fieldsFound(f domain.Fields) int {
	n := 0
	for _, name := range []domain.FieldName{
		domain.FieldLocation, domain.FieldPropertyCategory, domain.FieldPropertyType,
		domain.FieldBedroom, domain.FieldProjectStatus, domain.FieldPossession,
		domain.FieldBudget, domain.FieldPhone, domain.FieldEmail,
	} {
		if f.Has(name) {
			n++
		}
	}
	return n
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
