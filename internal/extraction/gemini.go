package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"bizcard/internal/models"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements Service on the Gemini API using structured JSON output.
type Gemini struct {
	models  generator
	model   string
	timeout time.Duration
	log     *slog.Logger
}

// NewGemini creates a client for the Gemini API.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration, log *slog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gemini client")
	}
	return newGemini(client.Models, model, timeout, log), nil
}

func newGemini(g generator, model string, timeout time.Duration, log *slog.Logger) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = slog.Default()
	}
	return &Gemini{models: g, model: model, timeout: timeout, log: log}
}

func bilingualSchema(description string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeObject,
		Description: description,
		Properties: map[string]*genai.Schema{
			"en": {Type: genai.TypeString, Description: "The value in English."},
			"zh": {Type: genai.TypeString, Description: "The value in Traditional Chinese."},
		},
		Required: []string{"en", "zh"},
	}
}

var extractionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name":        bilingualSchema("Full name of the person on the card."),
		"title":       bilingualSchema("Job title or position of the person."),
		"companyName": bilingualSchema("Name of the company on the card."),
		"address":     bilingualSchema("Full address printed on the card."),
		"phone":       {Type: genai.TypeString, Description: "Contact phone number."},
		"email":       {Type: genai.TypeString, Description: "Contact email address."},
		"companyDescription": {
			Type:        genai.TypeString,
			Description: "English summary of the company's business and background from public information.",
		},
	},
	Required:         []string{"name", "title", "companyName", "address", "phone", "email", "companyDescription"},
	PropertyOrdering: []string{"name", "title", "companyName", "phone", "email", "address", "companyDescription"},
}

// Extract analyses the front image and, when present, the back image.
func (g *Gemini) Extract(ctx context.Context, front models.Image, back *models.Image) (models.Extraction, error) {
	if front.Empty() {
		return models.Extraction{}, fail("extract", errors.New("front image is required"))
	}

	parts := []*genai.Part{
		{Text: analyzePrompt},
		{Text: "Front:"},
		{InlineData: &genai.Blob{Data: front.Data, MIMEType: front.MIMEType}},
	}
	if back != nil && !back.Empty() {
		parts = append(parts,
			&genai.Part{Text: "Back:"},
			&genai.Part{InlineData: &genai.Blob{Data: back.Data, MIMEType: back.MIMEType}},
		)
	}

	text, err := g.generate(ctx, parts, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   extractionSchema,
	})
	if err != nil {
		return models.Extraction{}, fail("extract", err)
	}

	result, err := parseExtraction(text)
	if err != nil {
		g.log.Debug("unusable extraction response", slog.String("response", text))
		return models.Extraction{}, fail("extract", err)
	}
	return result, nil
}

// Search asks the model to find cards matching query within cardDetails.
func (g *Gemini) Search(ctx context.Context, query, cardDetails string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fail("search", errors.New("query is required"))
	}
	parts := []*genai.Part{{Text: fmt.Sprintf(searchPrompt, query, cardDetails)}}
	text, err := g.generate(ctx, parts, nil)
	if err != nil {
		return "", fail("search", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fail("search", errors.New("empty response"))
	}
	return text, nil
}

func (g *Gemini) generate(ctx context.Context, parts []*genai.Part, config *genai.GenerateContentConfig) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	started := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, []*genai.Content{{Role: "user", Parts: parts}}, config)
	if err != nil {
		return "", errors.Wrap(err, "generate content")
	}
	g.log.Debug("gemini call", slog.String("model", g.model), slog.Duration("took", time.Since(started)))
	return responseText(resp), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range cand.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

func parseExtraction(text string) (models.Extraction, error) {
	text = stripFence(text)
	if text == "" {
		return models.Extraction{}, errors.New("empty response")
	}
	var out models.Extraction
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return models.Extraction{}, errors.Wrap(err, "invalid response JSON")
	}
	out.Name = out.Name.Trim()
	out.Title = out.Title.Trim()
	out.CompanyName = out.CompanyName.Trim()
	out.Address = out.Address.Trim()
	out.Phone = strings.TrimSpace(out.Phone)
	out.Email = strings.TrimSpace(out.Email)
	out.CompanyDescription = strings.TrimSpace(out.CompanyDescription)
	if !out.HasContactData() {
		return models.Extraction{}, ErrNoContactData
	}
	return out, nil
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
