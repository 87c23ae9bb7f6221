package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sells-group/lead-enrichment/internal/model"
	"github.com/sells-group/lead-enrichment/pkg/anthropic"
)

const (
	defaultInsightModel = "claude-haiku-4-5-20251001"
	insightMaxTokens    = 500
	insightTemperature  = 0.7
	insightSystemPrompt = "You are a professional B2B lead researcher. Provide accurate, actionable insights about leads."
	insightPromptHeader = "Based on the following lead information, provide insights about:\n" +
		"1. Their likely responsibilities and decision-making authority\n" +
		"2. Potential pain points in their role\n" +
		"3. Best communication approach\n" +
		"4. Relevant topics for engagement\n"
)

// AIAdapter generates researcher-style insights for a lead. It has no
// precondition; it works with whatever identity fields are present.
type AIAdapter struct {
	client anthropic.Client
	model  string
}

// NewAIAdapter creates the AI insight adapter. An empty model selects the
// default.
func NewAIAdapter(client anthropic.Client, insightModel string) *AIAdapter {
	if insightModel == "" {
		insightModel = defaultInsightModel
	}
	return &AIAdapter{client: client, model: insightModel}
}

func (a *AIAdapter) Name() model.Kind {
	return model.KindAI
}

// aiResult is the payload stored under the "ai" kind.
type aiResult struct {
	Insights string `json:"insights"`
	Model    string `json:"model"`
}

func (a *AIAdapter) Enrich(ctx context.Context, lead model.LeadSnapshot) Outcome {
	if a.client == nil {
		return Failure("Anthropic API key not configured")
	}

	temp := insightTemperature
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   insightMaxTokens,
		System:      []anthropic.SystemBlock{{Text: insightSystemPrompt}},
		Messages:    []anthropic.Message{{Role: "user", Content: buildInsightPrompt(lead)}},
		Temperature: &temp,
	})
	if err != nil {
		return Failure(err.Error())
	}

	insights := resp.Text()
	if insights == "" {
		return Failure("model returned no insight text")
	}

	resp.Usage.LogCost(resp.Model, "lead_insights")

	payload, _ := json.Marshal(aiResult{
		Insights: insights,
		Model:    resp.Model,
	})
	return Success(payload, nil)
}

func buildInsightPrompt(lead model.LeadSnapshot) string {
	var info []string
	if lead.FirstName != "" && lead.LastName != "" {
		info = append(info, fmt.Sprintf("Name: %s %s", lead.FirstName, lead.LastName))
	}
	if lead.Title != "" {
		info = append(info, "Title: "+lead.Title)
	}
	if lead.Company != "" {
		info = append(info, "Company: "+lead.Company)
	}
	if lead.LinkedInURL != "" {
		info = append(info, "LinkedIn: "+lead.LinkedInURL)
	}

	return insightPromptHeader +
		"\nLead Information:\n" + strings.Join(info, "\n") +
		"\n\nProvide concise, actionable insights."
}
