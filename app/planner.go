package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"adinsight/ports"
)

// Task is one analytical step derived from the user's query.
type Task struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Priority       string   `json:"priority"`
	RequiredInputs []string `json:"required_inputs"`
}

// Plan is the decomposed query.
type Plan struct {
	Query string `json:"query"`
	Tasks []Task `json:"tasks"`
}

// Planner decomposes a natural-language query into analysis tasks. The
// language model is optional; the deterministic decomposition always exists
// and is used whenever the model is absent or returns something unusable.
type Planner struct {
	llm       ports.TextCompletion
	maxTokens int
}

// NewPlanner creates a planner. llm may be nil.
func NewPlanner(llm ports.TextCompletion, maxTokens int) *Planner {
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &Planner{llm: llm, maxTokens: maxTokens}
}

// Decompose produces the plan for a query.
func (p *Planner) Decompose(ctx context.Context, query string) Plan {
	if p.llm != nil {
		prompt := fmt.Sprintf(
			"Decompose the following advertising-performance question into a JSON plan "+
				"{\"query\": string, \"tasks\": [{\"id\", \"title\", \"description\", \"priority\", \"required_inputs\"}]}.\n\n"+
				"User Query:\n%s\n\nReturn ONLY JSON.", query)
		if text, err := p.llm.Complete(ctx, prompt, p.maxTokens); err == nil {
			if plan, ok := parsePlan(text); ok {
				return plan
			}
		}
	}
	return fallbackPlan(query)
}

// parsePlan extracts a JSON plan from model output, tolerating leading prose.
func parsePlan(text string) (Plan, bool) {
	var plan Plan
	if err := json.Unmarshal([]byte(text), &plan); err == nil && len(plan.Tasks) > 0 {
		return plan, true
	}
	if idx := strings.Index(text, "{"); idx >= 0 {
		if err := json.Unmarshal([]byte(text[idx:]), &plan); err == nil && len(plan.Tasks) > 0 {
			return plan, true
		}
	}
	return Plan{}, false
}

func fallbackPlan(query string) Plan {
	return Plan{
		Query: query,
		Tasks: []Task{
			{ID: "t1", Title: "load_and_filter_data", Description: "Load dataset and filter past N days.", Priority: "high", RequiredInputs: []string{"df_recent"}},
			{ID: "t2", Title: "audience_breakdown", Description: "Analyze ROAS/CTR by audience.", Priority: "high", RequiredInputs: []string{"by_audience"}},
			{ID: "t3", Title: "platform_analysis", Description: "Analyze performance across platforms.", Priority: "medium", RequiredInputs: []string{"by_platform"}},
			{ID: "t4", Title: "creative_performance", Description: "Identify low CTR creatives.", Priority: "high", RequiredInputs: []string{"low_ctr_creatives"}},
			{ID: "t5", Title: "generate_insights", Description: "Create hypotheses explaining ROAS changes.", Priority: "high", RequiredInputs: []string{"summary"}},
		},
	}
}
