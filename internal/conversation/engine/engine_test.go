package engine

import (
	"context"
	"strings"
	"testing"

	"realty_agent_backend/internal/conversation/domain"
	"realty_agent_backend/internal/search"
	"realty_agent_backend/platform/logger"
)

type stubProvider struct {
	outcome domain.SearchOutcome
	queries []search.Query
}

func (p *stubProvider) Search(_ context.Context, q search.Query) domain.SearchOutcome {
	p.queries = append(p.queries, q)
	return p.outcome
}

func newTestEngine(outcome domain.SearchOutcome) (*Engine, *stubProvider) {
	provider := &stubProvider{outcome: outcome}
	return New(provider, logger.New("development")), provider
}

func foundOutcome(count int) domain.SearchOutcome {
	items := make([]domain.Listing, count)
	for i := range items {
		items[i] = domain.Listing{Title: "Listing", Price: "80 Lakhs", Location: "Noida"}
	}
	return domain.SearchOutcome{Success: true, Count: count, Items: items, URL: "https://example.test/properties?city=10"}
}

func TestAdvance_RichUtteranceCollapsesProbing(t *testing.T) {
	eng, provider := newTestEngine(foundOutcome(5))
	s := domain.NewSession("sess-rich")
	ctx := context.Background()

	reply := eng.Advance(ctx, s, "I am Rahul")
	if reply.Stage != domain.StageLocation {
		t.Fatalf("expected location stage after name, got %s", reply.Stage)
	}
	if !strings.Contains(reply.Text, "Rahul") {
		t.Fatalf("expected personalized location question, got %q", reply.Text)
	}

	reply = eng.Advance(ctx, s, "Looking for a 3 bhk apartment in noida, ready to move")
	if reply.Stage != domain.StageConsentAfterSearch {
		t.Fatalf("expected consent stage after rich utterance, got %s", reply.Stage)
	}
	if len(provider.queries) != 1 {
		t.Fatalf("expected exactly one search, got %d", len(provider.queries))
	}
	if provider.queries[0].Location != "Noida" || provider.queries[0].Bedroom != "3 BHK" {
		t.Fatalf("unexpected search query: %+v", provider.queries[0])
	}
	if !strings.HasPrefix(reply.Text, "Got it: ") {
		t.Fatalf("expected acknowledgment prefix, got %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "found 5 matching properties in Noida") {
		t.Fatalf("expected search summary, got %q", reply.Text)
	}
	if len(reply.Options) != 2 || reply.Options[0] != "Yes" {
		t.Fatalf("expected Yes/No options, got %v", reply.Options)
	}

	reply = eng.Advance(ctx, s, "yes please")
	if reply.Stage != domain.StageBudget {
		t.Fatalf("expected budget stage after consent, got %s", reply.Stage)
	}

	reply = eng.Advance(ctx, s, "75 lakhs")
	if reply.Stage != domain.StagePhone {
		t.Fatalf("expected phone stage, got %s", reply.Stage)
	}
	reply = eng.Advance(ctx, s, "9876543210")
	if reply.Stage != domain.StageEmail {
		t.Fatalf("expected email stage, got %s", reply.Stage)
	}
	reply = eng.Advance(ctx, s, "rahul@gmail.com")
	if reply.Stage != domain.StageComplete {
		t.Fatalf("expected complete stage, got %s", reply.Stage)
	}
	if !strings.Contains(reply.Text, "Noida") {
		t.Fatalf("expected closing message to name the city, got %q", reply.Text)
	}
	if !s.Terminal() {
		t.Fatalf("expected terminal session")
	}
	if *s.Fields.Budget != "75 Lakhs" || *s.Fields.Phone != "9876543210" || *s.Fields.Email != "rahul@gmail.com" {
		t.Fatalf("unexpected collected fields: %+v", s.Fields)
	}
}

func TestAdvance_TerminalStageAbsorbs(t *testing.T) {
	eng, provider := newTestEngine(foundOutcome(2))
	s := domain.NewSession("sess-terminal")
	s.Stage = domain.StageComplete
	s.Fields.Location = domain.Str("Pune")

	first := eng.Advance(context.Background(), s, "ok thanks")
	second := eng.Advance(context.Background(), s, "anything else")

	if first.Stage != domain.StageComplete || second.Stage != domain.StageComplete {
		t.Fatalf("expected complete stage to absorb, got %s then %s", first.Stage, second.Stage)
	}
	if first.Text != second.Text {
		t.Fatalf("expected repeated closing message, got %q then %q", first.Text, second.Text)
	}
	if len(provider.queries) != 0 {
		t.Fatalf("terminal turns must not trigger searches, got %d", len(provider.queries))
	}
}

func TestAdvance_DeclinedConsentEndsWithThankYou(t *testing.T) {
	eng, _ := newTestEngine(foundOutcome(3))
	s := domain.NewSession("sess-decline")
	ctx := context.Background()

	eng.Advance(ctx, s, "Priya")
	eng.Advance(ctx, s, "2 bhk flat in pune")
	if s.Stage != domain.StageConsentAfterSearch {
		t.Fatalf("expected consent stage, got %s", s.Stage)
	}

	reply := eng.Advance(ctx, s, "no thanks")
	if reply.Stage != domain.StageThankYou {
		t.Fatalf("expected thank_you after decline, got %s", reply.Stage)
	}
	if s.Fields.ConsentGranted() {
		t.Fatalf("expected consent declined")
	}
	if s.Fields.Phone != nil {
		t.Fatalf("declined flow must not collect a phone")
	}
}

func TestAdvance_UnparseableConsentCountsAsDeclined(t *testing.T) {
	eng, _ := newTestEngine(foundOutcome(3))
	s := domain.NewSession("sess-mumble")
	ctx := context.Background()

	eng.Advance(ctx, s, "Amit")
	eng.Advance(ctx, s, "3 bhk apartment in lucknow")
	reply := eng.Advance(ctx, s, "hmm whatever")

	if reply.Stage != domain.StageThankYou {
		t.Fatalf("expected thank_you for unparseable consent, got %s", reply.Stage)
	}
}

func TestAdvance_CommercialSkipsBedroom(t *testing.T) {
	eng, provider := newTestEngine(foundOutcome(4))
	s := domain.NewSession("sess-commercial")
	ctx := context.Background()

	eng.Advance(ctx, s, "Vikram")
	eng.Advance(ctx, s, "gurgaon")
	reply := eng.Advance(ctx, s, "commercial")
	if reply.Stage != domain.StagePropertyType {
		t.Fatalf("expected property type stage, got %s", reply.Stage)
	}
	if reply.Options[0] != "Office Space" {
		t.Fatalf("expected commercial type options, got %v", reply.Options)
	}

	reply = eng.Advance(ctx, s, "office space")
	if reply.Stage != domain.StageConsentAfterSearch {
		t.Fatalf("expected bedroom to be skipped for commercial, got %s", reply.Stage)
	}
	if s.Fields.Bedroom != nil {
		t.Fatalf("commercial flow must not record bedrooms")
	}
	if provider.queries[0].Category != "Commercial" {
		t.Fatalf("expected commercial search, got %+v", provider.queries[0])
	}
}

func TestAdvance_ZeroResultsStillReachesConsent(t *testing.T) {
	eng, _ := newTestEngine(domain.SearchOutcome{Success: true, Count: 0, Items: []domain.Listing{}})
	s := domain.NewSession("sess-zero")
	ctx := context.Background()

	eng.Advance(ctx, s, "Neha")
	reply := eng.Advance(ctx, s, "4 bhk villa in dehradun")

	if reply.Stage != domain.StageConsentAfterSearch {
		t.Fatalf("expected consent stage on zero results, got %s", reply.Stage)
	}
	if !strings.Contains(reply.Text, "property expert can help") {
		t.Fatalf("expected the no-results line, got %q", reply.Text)
	}
}

func TestAdvance_GreetingSalutationDoesNotBurnRetry(t *testing.T) {
	eng, _ := newTestEngine(foundOutcome(1))
	s := domain.NewSession("sess-hi")
	ctx := context.Background()

	reply := eng.Advance(ctx, s, "hello")
	if reply.Stage != domain.StageGreeting || reply.Retries != 0 {
		t.Fatalf("first salutation must not count as a retry, got stage=%s retries=%d", reply.Stage, reply.Retries)
	}
	if strings.HasPrefix(reply.Text, "Sorry") {
		t.Fatalf("first greeting repeat must not apologize, got %q", reply.Text)
	}

	reply = eng.Advance(ctx, s, "good morning")
	if reply.Retries != 1 {
		t.Fatalf("second failed greeting should count, got retries=%d", reply.Retries)
	}
	if !strings.HasPrefix(reply.Text, "Sorry") {
		t.Fatalf("expected clarification prefix, got %q", reply.Text)
	}
}

func TestAdvance_RetryCounterResetsOnCapture(t *testing.T) {
	eng, _ := newTestEngine(foundOutcome(1))
	s := domain.NewSession("sess-retry")
	ctx := context.Background()

	eng.Advance(ctx, s, "Rohan")
	reply := eng.Advance(ctx, s, "qwerty asdf")
	if reply.Stage != domain.StageLocation || reply.Retries != 1 {
		t.Fatalf("expected re-ask with retry 1, got stage=%s retries=%d", reply.Stage, reply.Retries)
	}
	reply = eng.Advance(ctx, s, "zxcv uiop")
	if reply.Retries != 2 {
		t.Fatalf("expected retry 2, got %d", reply.Retries)
	}

	reply = eng.Advance(ctx, s, "pune")
	if reply.Stage != domain.StagePropertyCategory {
		t.Fatalf("expected category stage after capture, got %s", reply.Stage)
	}
	if reply.Retries != 0 || s.Retries != 0 {
		t.Fatalf("expected retry counter reset, got %d", reply.Retries)
	}
}

func TestAdvance_BudgetKeepsRawWordsWithoutUnit(t *testing.T) {
	eng, _ := newTestEngine(foundOutcome(2))
	s := domain.NewSession("sess-budget")
	s.Stage = domain.StageBudget
	s.Fields.Name = domain.Str("Rahul")
	s.Fields.Location = domain.Str("Noida")

	reply := eng.Advance(context.Background(), s, "around 80")
	if reply.Stage != domain.StagePhone {
		t.Fatalf("expected phone stage, got %s", reply.Stage)
	}
	if s.Fields.Budget == nil || *s.Fields.Budget != "around 80" {
		t.Fatalf("expected raw budget words, got %v", s.Fields.Budget)
	}
}

func TestAdvance_KnownFieldsAreNotReasked(t *testing.T) {
	eng, _ := newTestEngine(foundOutcome(3))
	s := domain.NewSession("sess-known")
	ctx := context.Background()

	eng.Advance(ctx, s, "Kiran")
	reply := eng.Advance(ctx, s, "a 2 bhk in thane")

	// Category and type were not mentioned, so the probe must stop at
	// the first genuinely unknown question stage.
	if reply.Stage != domain.StagePropertyCategory {
		t.Fatalf("expected category stage, got %s", reply.Stage)
	}

	reply = eng.Advance(ctx, s, "residential")
	if reply.Stage != domain.StagePropertyType {
		t.Fatalf("expected type stage, got %s", reply.Stage)
	}

	// Bedroom is already known; answering the type must jump to search.
	reply = eng.Advance(ctx, s, "apartment")
	if reply.Stage != domain.StageConsentAfterSearch {
		t.Fatalf("expected bedroom skip for known field, got %s", reply.Stage)
	}
}
