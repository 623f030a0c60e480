package recipe

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"grocery-planner/internal/llm"
	"grocery-planner/internal/shared"
)

//go:embed extractor_prompt.md
var extractorPrompt string

var extractorTmpl = template.Must(template.New("extractor").Parse(extractorPrompt))

// Source is raw recipe content (usually HTML) to be structured.
type Source struct {
	ID        string
	Title     string
	HTML      string
	UpdatedAt string
}

// Extract asks the LLM to turn raw recipe content into a Recipe with structured
// ingredients. The returned meta is populated even when decoding fails.
func Extract(ctx context.Context, textGen llm.TextGenerator, src Source) (Recipe, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: "Extractor"}

	var buf bytes.Buffer
	if err := extractorTmpl.Execute(&buf, src); err != nil {
		return Recipe{}, meta, fmt.Errorf("failed to build extractor prompt: %w", err)
	}

	llmResp, err := textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return Recipe{}, meta, fmt.Errorf("failed to get LLM response: %w", err)
	}
	meta.Usage = llmResp.Usage
	meta.Latency = time.Since(start)

	var rec Recipe
	if err := json.Unmarshal([]byte(stripCodeFence(llmResp.Content)), &rec); err != nil {
		return Recipe{}, meta, fmt.Errorf("failed to unmarshal LLM response: %w", err)
	}
	if rec.IngredientsMalformed {
		return Recipe{}, meta, fmt.Errorf("LLM response has no ingredient list")
	}

	rec.ID = src.ID
	if rec.Title == "" {
		rec.Title = src.Title
	}
	rec.UpdatedAt = src.UpdatedAt
	return rec, meta, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
