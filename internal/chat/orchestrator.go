package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"college-helpdesk-backend/internal/session"
	"college-helpdesk-backend/models"
)

const Version = "10.0-Smart"

const (
	apologyNoAPIKey = "I'm sorry, I'm having trouble connecting to my AI services. Please check the API config."
	apologyNoDocs   = "Hello! I don't have any college documents to study yet. Please upload a PDF in the Admin section so I can help you better."
	apologyNoLLM    = "I'm having trouble connecting to my AI core. Please check your API key."

	greetingAnswer = "Vanakam! 👋 I am your MIET AI Agent. I'm here to answer your questions about courses, admissions, fees, and campus life. Would you like to start your admission process today?"
)

var greetings = []string{"hi", "hello", "hey", "vanakam", "namaste"}

const systemTemplate = `You are the MIET AI Student Support Agent, a helpful, intelligent, and friendly assistant for M.I.E.T.Arts & Science College.

YOUR GOAL: Provide accurate, helpful, and "human-like" answers to student queries based on the provided college documents.

FORMATTING RULES (STRICT):
1. **SENTENCE CASE**: Always use proper sentence case. Use bold for emphasis and italic for secondary details.
2. **CLEAN LAYOUT**: Use bullet points and numbered lists for all technical data, course lists, or fee structures. Avoid large blocks of text.
3. **THREE-COLOR THEME STRATEGY (MODERN UI)**:
   - Use **MIET Navy** (#003366) for Primary Headers (Main topics).
   - Use **Gold/Amber** for Key Highlights or Action Items.
   - Use *Neutral Gray* for fine print or context.
   (Note: Represent these using semantic markdown structures like ` + "`### Header`, `**Bold**`, and `*Italic*`" + `).
4. **MD WRAPPING**: Use Markdown tables for data comparisons if applicable.

ADMISSION FLOW (CRITICAL):
1. If the user asks about admissions, courses, or fees, answer clearly in structured points first.
2. THEN, always ask: "Would you like to apply for admission now?"
3. IF confirmed, provide the exact tag: **[ADMISSION_BUTTON]**.

Context from College Documents:
%s`

// Generator produces an answer from a system prompt and a user query.
type Generator interface {
	GenerateAnswer(ctx context.Context, systemPrompt, query string) (string, error)
}

// Retriever finds the chunks closest to a query. Loaded reports whether
// any knowledge base exists at all.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error)
	Loaded() bool
}

// Orchestrator wires retrieval, session memory, and the LLM into the
// chat endpoint's behavior.
type Orchestrator struct {
	llm       Generator
	index     Retriever
	sessions  *session.Store
	hasAPIKey bool

	topK          int
	threshold     float64
	historyWindow int
	timeout       time.Duration
}

func NewOrchestrator(llm Generator, index Retriever, sessions *session.Store, hasAPIKey bool, topK int, threshold float64, historyWindow int, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		llm:           llm,
		index:         index,
		sessions:      sessions,
		hasAPIKey:     hasAPIKey,
		topK:          topK,
		threshold:     threshold,
		historyWindow: historyWindow,
		timeout:       timeout,
	}
}

// Respond answers a single chat turn. Failures come back as apologetic
// answers rather than errors so the frontend always has something to show.
func (o *Orchestrator) Respond(ctx context.Context, query, sessionID string) models.ChatResponse {
	query = strings.TrimSpace(query)

	if !o.hasAPIKey {
		return models.ChatResponse{Answer: apologyNoAPIKey, Version: Version}
	}

	o.sessions.Sweep()

	if !o.index.Loaded() {
		return models.ChatResponse{Answer: apologyNoDocs, Version: Version}
	}
	if o.llm == nil {
		return models.ChatResponse{Answer: apologyNoLLM, Version: Version}
	}

	o.sessions.Touch(sessionID)

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	hits, err := o.index.Search(ctx, query, o.topK)
	if err != nil {
		return models.ChatResponse{Answer: fmt.Sprintf("Agent error: %v", err), Version: Version}
	}

	var kept []string
	for _, hit := range hits {
		if hit.Distance < o.threshold {
			kept = append(kept, hit.Chunk.Text)
		}
	}
	contextText := strings.Join(kept, "\n\n")

	// Short greetings with no document match get a canned welcome
	// instead of an LLM round trip.
	if contextText == "" && len(query) < 5 && isGreeting(query) {
		o.sessions.AppendTurn(sessionID, query, greetingAnswer)
		return models.ChatResponse{Answer: greetingAnswer, Version: Version}
	}

	prompt := fmt.Sprintf(systemTemplate, contextText)
	if history := o.sessions.History(sessionID, o.historyWindow); history != "" {
		prompt += "\n\nRecent Conversation History:\n" + history
	}

	answer, err := o.llm.GenerateAnswer(ctx, prompt, query)
	if err != nil {
		slog.Error("chat generation failed", "session_id", sessionID, "error", err)
		return models.ChatResponse{Answer: fmt.Sprintf("Agent error: %v", err), Version: Version}
	}

	o.sessions.AppendTurn(sessionID, query, answer)
	return models.ChatResponse{Answer: answer, Version: Version}
}

func isGreeting(query string) bool {
	lower := strings.ToLower(query)
	for _, g := range greetings {
		if strings.Contains(lower, g) {
			return true
		}
	}
	return false
}
