package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"college-helpdesk-backend/internal/session"
	"college-helpdesk-backend/models"
)

type fakeRetriever struct {
	loaded bool
	hits   []models.ScoredChunk
	err    error
}

func (f *fakeRetriever) Search(context.Context, string, int) ([]models.ScoredChunk, error) {
	return f.hits, f.err
}

func (f *fakeRetriever) Loaded() bool { return f.loaded }

type fakeGenerator struct {
	answer     string
	err        error
	lastPrompt string
	lastQuery  string
	calls      int
}

func (f *fakeGenerator) GenerateAnswer(_ context.Context, systemPrompt, query string) (string, error) {
	f.calls++
	f.lastPrompt = systemPrompt
	f.lastQuery = query
	return f.answer, f.err
}

func hit(text string, distance float64) models.ScoredChunk {
	return models.ScoredChunk{
		Chunk:    models.DocumentChunk{ChunkID: "c", Text: text},
		Distance: distance,
	}
}

func newTestOrchestrator(llm Generator, index Retriever, hasKey bool) (*Orchestrator, *session.Store) {
	sessions := session.NewStore(2*time.Minute, 40)
	o := NewOrchestrator(llm, index, sessions, hasKey, 10, 1.65, 10, 30*time.Second)
	return o, sessions
}

func TestRespondWithoutAPIKey(t *testing.T) {
	o, _ := newTestOrchestrator(nil, &fakeRetriever{}, false)

	resp := o.Respond(context.Background(), "hello", "s1")
	if resp.Answer != apologyNoAPIKey {
		t.Errorf("answer = %q", resp.Answer)
	}
	if resp.Version != Version {
		t.Errorf("version = %q", resp.Version)
	}
}

func TestRespondWithoutKnowledgeBase(t *testing.T) {
	o, _ := newTestOrchestrator(&fakeGenerator{}, &fakeRetriever{loaded: false}, true)

	resp := o.Respond(context.Background(), "what are the fees", "s1")
	if resp.Answer != apologyNoDocs {
		t.Errorf("answer = %q", resp.Answer)
	}
}

func TestRespondWithoutLLM(t *testing.T) {
	o, _ := newTestOrchestrator(nil, &fakeRetriever{loaded: true}, true)

	resp := o.Respond(context.Background(), "what are the fees", "s1")
	if resp.Answer != apologyNoLLM {
		t.Errorf("answer = %q", resp.Answer)
	}
}

func TestGreetingShortCircuit(t *testing.T) {
	gen := &fakeGenerator{answer: "should not be used"}
	// All hits past the gate, so no context survives.
	index := &fakeRetriever{loaded: true, hits: []models.ScoredChunk{hit("far away", 2.5)}}
	o, sessions := newTestOrchestrator(gen, index, true)

	resp := o.Respond(context.Background(), "hi", "s1")
	if resp.Answer != greetingAnswer {
		t.Errorf("answer = %q", resp.Answer)
	}
	if gen.calls != 0 {
		t.Error("LLM called for a greeting")
	}
	if h := sessions.History("s1", 10); !strings.Contains(h, "User: hi") {
		t.Errorf("greeting not recorded in history: %q", h)
	}
}

func TestGreetingRequiresShortQuery(t *testing.T) {
	gen := &fakeGenerator{answer: "real answer"}
	index := &fakeRetriever{loaded: true, hits: nil}
	o, _ := newTestOrchestrator(gen, index, true)

	// Contains "hi" but too long for the short-circuit.
	resp := o.Respond(context.Background(), "hi, tell me about hostel fees please", "s1")
	if resp.Answer != "real answer" {
		t.Errorf("answer = %q", resp.Answer)
	}
	if gen.calls != 1 {
		t.Errorf("LLM calls = %d", gen.calls)
	}
}

func TestRelevanceGateFiltersContext(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	index := &fakeRetriever{loaded: true, hits: []models.ScoredChunk{
		hit("close chunk", 0.4),
		hit("borderline chunk", 1.64),
		hit("rejected chunk", 1.66),
	}}
	o, _ := newTestOrchestrator(gen, index, true)

	o.Respond(context.Background(), "tell me about courses", "s1")

	if !strings.Contains(gen.lastPrompt, "close chunk") {
		t.Error("relevant chunk missing from prompt")
	}
	if !strings.Contains(gen.lastPrompt, "borderline chunk") {
		t.Error("chunk just under the gate missing from prompt")
	}
	if strings.Contains(gen.lastPrompt, "rejected chunk") {
		t.Error("chunk past the gate leaked into prompt")
	}
}

func TestGenerationErrorBecomesAgentError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	index := &fakeRetriever{loaded: true, hits: []models.ScoredChunk{hit("ctx", 0.1)}}
	o, sessions := newTestOrchestrator(gen, index, true)

	resp := o.Respond(context.Background(), "tell me about courses", "s1")
	if !strings.HasPrefix(resp.Answer, "Agent error: ") {
		t.Errorf("answer = %q", resp.Answer)
	}
	if !strings.Contains(resp.Answer, "quota exceeded") {
		t.Errorf("cause missing from answer: %q", resp.Answer)
	}
	if h := sessions.History("s1", 10); h != "" {
		t.Errorf("failed turn recorded in history: %q", h)
	}
}

func TestHistoryFlowsIntoPrompt(t *testing.T) {
	gen := &fakeGenerator{answer: "second answer"}
	index := &fakeRetriever{loaded: true, hits: []models.ScoredChunk{hit("ctx", 0.1)}}
	o, _ := newTestOrchestrator(gen, index, true)

	gen.answer = "first answer"
	o.Respond(context.Background(), "what courses exist", "s1")
	gen.answer = "second answer"
	o.Respond(context.Background(), "and the fees", "s1")

	if !strings.Contains(gen.lastPrompt, "Recent Conversation History:") {
		t.Error("history section missing from prompt")
	}
	if !strings.Contains(gen.lastPrompt, "User: what courses exist") {
		t.Error("previous user turn missing from prompt")
	}
	if !strings.Contains(gen.lastPrompt, "Bot: first answer") {
		t.Error("previous bot turn missing from prompt")
	}
}

func TestPromptCarriesAdmissionDirective(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	index := &fakeRetriever{loaded: true, hits: []models.ScoredChunk{hit("ctx", 0.1)}}
	o, _ := newTestOrchestrator(gen, index, true)

	o.Respond(context.Background(), "tell me about admissions", "s1")

	if !strings.Contains(gen.lastPrompt, "[ADMISSION_BUTTON]") {
		t.Error("admission button directive missing from prompt")
	}
	if gen.lastQuery != "tell me about admissions" {
		t.Errorf("query passed to LLM = %q", gen.lastQuery)
	}
}

func TestSearchErrorBecomesAgentError(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	index := &fakeRetriever{loaded: true, err: errors.New("embedding backend down")}
	o, _ := newTestOrchestrator(gen, index, true)

	resp := o.Respond(context.Background(), "anything", "s1")
	if !strings.HasPrefix(resp.Answer, "Agent error: ") {
		t.Errorf("answer = %q", resp.Answer)
	}
}
