package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"college-helpdesk-backend/models"
)

const optionsQuery = "list of courses and departments"

const optionsTemplate = `You are a data extractor for MIET College. Based on the context, extract categories and courses.
Return ONLY a JSON object: {"categories": ["..."], "courses": {"Cat1": ["Course A"]}}

Context:
%s`

// minimalOptions is served when no knowledge base exists yet.
var minimalOptions = models.AdmissionOptions{
	Categories: []string{"Undergraduate (UG)", "Postgraduate (PG)"},
	Courses: map[string][]string{
		"Undergraduate (UG)": {"Computer Science", "Physics", "Chemistry", "Mathematics"},
		"Postgraduate (PG)":  {"M.Sc Computer Science", "M.Sc Mathematics"},
	},
}

// fallbackOptions is the full catalog used when extraction fails.
var fallbackOptions = models.AdmissionOptions{
	Categories: []string{"Undergraduate (UG)", "Postgraduate (PG)", "Research Programs"},
	Courses: map[string][]string{
		"Undergraduate (UG)": {
			"B.A. English", "B.Com", "B.Com (Computer Applications)", "B.B.A",
			"B.Sc Physics", "B.Sc Mathematics", "B.Sc Computer Science",
			"B.Sc Data Science", "B.Sc Biochemistry", "B.Sc Microbiology", "B.C.A",
		},
		"Postgraduate (PG)": {
			"M.A. English", "M.Com", "M.Sc Computer Science",
			"M.Sc Biochemistry", "M.C.A",
		},
		"Research Programs": {
			"Ph.D. in Commerce (Full-time)", "Ph.D. in Commerce (Part-time)",
		},
	},
}

// AdmissionOptions builds the category/course catalog for the admission
// form by asking the LLM to structure whatever the knowledge base says
// about courses. Every failure degrades to a static catalog.
func (o *Orchestrator) AdmissionOptions(ctx context.Context, searchK int, timeout time.Duration) models.AdmissionOptions {
	if !o.hasAPIKey || o.llm == nil || !o.index.Loaded() {
		return minimalOptions
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// No relevance gate here: a sparse knowledge base should still
	// contribute whatever course info it has.
	hits, err := o.index.Search(ctx, optionsQuery, searchK)
	if err != nil {
		return minimalOptions
	}

	var parts []string
	for _, hit := range hits {
		parts = append(parts, hit.Chunk.Text)
	}

	raw, err := o.llm.GenerateAnswer(ctx,
		fmt.Sprintf(optionsTemplate, strings.Join(parts, "\n\n")),
		"Extract the admission categories and courses as JSON.")
	if err != nil {
		slog.Warn("admission options extraction failed", "error", err)
		return fallbackOptions
	}

	opts, err := parseOptionsJSON(raw)
	if err != nil {
		slog.Warn("admission options response not parseable", "error", err)
		return fallbackOptions
	}
	return opts
}

// parseOptionsJSON tolerates markdown fences around the JSON payload.
func parseOptionsJSON(raw string) (models.AdmissionOptions, error) {
	content := strings.TrimSpace(raw)
	if idx := strings.Index(content, "```json"); idx >= 0 {
		content = content[idx+len("```json"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	} else if idx := strings.Index(content, "```"); idx >= 0 {
		content = content[idx+3:]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	}

	var opts models.AdmissionOptions
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &opts); err != nil {
		return models.AdmissionOptions{}, err
	}
	if len(opts.Categories) == 0 || len(opts.Courses) == 0 {
		return models.AdmissionOptions{}, errors.New("extracted catalog is empty")
	}
	return opts, nil
}
