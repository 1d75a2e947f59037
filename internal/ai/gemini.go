package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-2.0-flash"

// GeminiAdvisor implements Advisor using Google's Gemini models.
type GeminiAdvisor struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiAdvisor initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiAdvisor(ctx context.Context, apiKey, modelName string) (*GeminiAdvisor, error) {
	if apiKey == "" {
		return nil, ErrAdvisorUnavailable
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = defaultModel
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	// Set a low temperature for stable, structured output.
	model.SetTemperature(0.2)

	return &GeminiAdvisor{
		client: client,
		model:  model,
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiAdvisor) Close() {
	p.client.Close()
}

// ProposeOrder asks the model for a visit order and a theme. Any answer that
// is not a permutation of the day's stops is reported as unavailable.
func (p *GeminiAdvisor) ProposeOrder(ctx context.Context, day DayBrief) (*OrderHint, error) {
	if len(day.Stops) == 0 {
		return nil, ErrAdvisorUnavailable
	}

	resp, err := p.model.GenerateContent(ctx, genai.Text(buildPrompt(day)))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini: %w", ErrAdvisorUnavailable)
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}
	return parseHint(responseText.String(), day)
}

func parseHint(raw string, day DayBrief) (*OrderHint, error) {
	cleanJSON := cleanJSONString(raw)

	var hint OrderHint
	if err := json.Unmarshal([]byte(cleanJSON), &hint); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}
	if !hint.Valid(day) {
		return nil, fmt.Errorf("order is not a permutation of the day's stops: %w", ErrAdvisorUnavailable)
	}
	hint.Theme = strings.TrimSpace(hint.Theme)
	return &hint, nil
}

// buildPrompt constructs the instructions for the model.
func buildPrompt(day DayBrief) string {
	var stops strings.Builder
	for _, s := range day.Stops {
		must := ""
		if s.MustSee {
			must = " [must-see]"
		}
		fmt.Fprintf(&stops, "- id=%s | %s | %s | %.5f,%.5f | %d min%s\n",
			s.ID, s.Name, s.Category, s.Lat, s.Lng, int(s.Duration().Minutes()), must)
	}
	kind := "city day"
	if day.DayTrip {
		kind = "day trip out of town"
	}

	return fmt.Sprintf(`Role: You are the route planner of a travel itinerary service.
Context:
- Day %d (%s), a %s.
- Stops, currently in walking order:
%s
RULES:
1. Return every id exactly once. Do not invent, drop or rename ids.
2. Keep the walk short: only change the order when it clearly improves the day (opening times, morning/evening fit, must-see first).
3. "theme" is a title of at most 6 words describing the day, no emoji.

Output JSON Schema:
{
  "order": ["id", ...],
  "theme": "string"
}
`, day.DayNumber, day.Date, kind, stops.String())
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
