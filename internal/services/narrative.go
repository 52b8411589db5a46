package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/Projectworkpls/Observer/internal/config"
	"github.com/Projectworkpls/Observer/internal/domain"
)

var narrativeSections = []string{
	"1. Daily Activities Overview",
	"2. Learning Reflections",
	"3. Thinking Process Assessment",
	"4. Communication Assessment",
	"5. Behavioral Assessment",
	"6. Observer Comments",
	"7. Summary for Parents",
}

// NarrativeService synthesizes the multi-section observer report with
// Gemini. Unlike the other adapters it never returns an error: a
// failed generation degrades to the error text so the run still ends
// in a document the user can see.
type NarrativeService struct {
	apiKey string
	model  string
}

func NewNarrativeService(cfg config.Config) *NarrativeService {
	return &NarrativeService{
		apiKey: cfg.GoogleAPIKey,
		model:  cfg.GeminiModel,
	}
}

func (s *NarrativeService) Generate(ctx context.Context, text string, meta domain.SessionMetadata) domain.Narrative {
	body, err := s.generateBody(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("narrative generation degraded")
		return domain.Narrative{
			Text:     fmt.Sprintf("Error generating report: %v", err),
			Degraded: true,
			Cause:    err.Error(),
		}
	}

	return domain.Narrative{Text: composeReport(body, meta)}
}

func (s *NarrativeService) generateBody(ctx context.Context, text string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(s.apiKey))
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(s.model)
	resp, err := model.GenerateContent(ctx, genai.Text(narrativePrompt(text)))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	body := responseText(resp)
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("gemini returned an empty report")
	}

	return body, nil
}

// narrativePrompt asks for exactly the seven numbered sections, and
// for the literal phrase "Not enough information" wherever the source
// text does not support a judgement.
func narrativePrompt(text string) string {
	var b strings.Builder
	b.WriteString("Based on this text from a student observation session, write a structured report with exactly these numbered sections:\n\n")
	for _, section := range narrativeSections {
		b.WriteString(section)
		b.WriteString("\n")
	}
	b.WriteString(`
Formatting rules:
- Use the numbered section titles above as headings, exactly as written.
- Inside sections, use "* " bullets for lists and "*Label:* value" for rated items.
- In section 3 rate these six axes: Curiosity, Problem Solving, Creativity, Logical Reasoning, Focus & Attention, Independence.
- In section 4 rate these four axes: Clarity of Expression, Vocabulary Usage, Listening & Responding, Confidence in Speaking.
- In section 5 rate these two axes: Engagement, Cooperation.
- If an item cannot be determined from the text, write exactly "Not enough information". Do not infer or invent.

Observation text:
`)
	b.WriteString(text)
	return b.String()
}

// composeReport wraps the generated body with the fixed metadata
// header and footer. The header names come from the session metadata,
// never from the extracted text.
func composeReport(body string, meta domain.SessionMetadata) string {
	return fmt.Sprintf(`Date: %s
Student Name: %s
Observer Name: %s
Session Duration: %s - %s

%s

Name of Observer: %s
`, meta.SessionDate, meta.StudentName, meta.ObserverName, meta.SessionStart, meta.SessionEnd, body, meta.ObserverName)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return b.String()
}
