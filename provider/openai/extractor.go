package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/engramhq/engram/config"
	"github.com/engramhq/engram/errors"
	"github.com/engramhq/engram/extraction"
	"github.com/sashabaranov/go-openai"
)

type (
	// Extractor asks a chat model for entities and relations as JSON.
	Extractor struct {
		client *openai.Client
		config *config.OpenAIConfig
	}

	// Wire structs keep confidence optional so an omitted value can default
	// to 1.0 instead of 0.
	wireEntity struct {
		Name       string         `json:"name"`
		Type       string         `json:"type"`
		Confidence *float64       `json:"confidence"`
		Properties map[string]any `json:"properties"`
	}

	wireRelation struct {
		Source     string   `json:"source"`
		Target     string   `json:"target"`
		Type       string   `json:"type"`
		Confidence *float64 `json:"confidence"`
	}

	wireExtraction struct {
		Entities  []wireEntity   `json:"entities"`
		Relations []wireRelation `json:"relations"`
	}
)

var (
	_ extraction.Provider = (*Extractor)(nil)
)

const extractionSystemPrompt = `You extract a knowledge graph from text.
Respond with a single JSON object of the form:
{"entities": [{"name": "...", "type": "...", "confidence": 0.0-1.0, "properties": {}}],
 "relations": [{"source": "<entity name>", "target": "<entity name>", "type": "...", "confidence": 0.0-1.0}]}
Every relation's source and target must be names from the entities list.
Do not invent facts that are not in the text.`

func NewExtractor(conf *config.OpenAIConfig) *Extractor {
	if conf == nil {
		conf = config.NewOpenAIConfig()
	}
	return &Extractor{
		client: newClient(conf),
		config: conf,
	}
}

func (e *Extractor) ExtractEntitiesAndRelations(ctx context.Context, text string, opts extraction.ProviderOptions) (*extraction.Extraction, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.config.ExtractionModel,
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildExtractionPrompt(text, opts)},
		},
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrProvider, "extraction request failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.Wrapf(errors.ErrProvider, "extraction returned no choices")
	}

	return parseExtraction(resp.Choices[0].Message.Content)
}

func buildExtractionPrompt(text string, opts extraction.ProviderOptions) string {
	var sb strings.Builder
	if len(opts.EntityTypes) > 0 {
		fmt.Fprintf(&sb, "Only extract entities of these types: %s.\n", strings.Join(opts.EntityTypes, ", "))
	}
	if len(opts.RelationTypes) > 0 {
		fmt.Fprintf(&sb, "Only extract relations of these types: %s.\n", strings.Join(opts.RelationTypes, ", "))
	}
	sb.WriteString("Text:\n")
	sb.WriteString(text)
	return sb.String()
}

// parseExtraction tolerates markdown code fences around the JSON body, which
// some models emit despite the response format hint.
func parseExtraction(content string) (*extraction.Extraction, error) {
	content = strings.TrimSpace(content)
	if after, ok := strings.CutPrefix(content, "```json"); ok {
		content = after
	} else if after, ok := strings.CutPrefix(content, "```"); ok {
		content = after
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")

	var wire wireExtraction
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return nil, errors.Wrapf(errors.ErrProvider, "malformed extraction response: %v", err)
	}

	result := &extraction.Extraction{
		Entities:  make([]extraction.RawEntity, 0, len(wire.Entities)),
		Relations: make([]extraction.RawRelation, 0, len(wire.Relations)),
	}
	for _, we := range wire.Entities {
		if we.Name == "" {
			continue
		}
		result.Entities = append(result.Entities, extraction.RawEntity{
			Name:       we.Name,
			Type:       we.Type,
			Confidence: confidenceOrOne(we.Confidence),
			Properties: we.Properties,
		})
	}
	for _, wr := range wire.Relations {
		if wr.Source == "" || wr.Target == "" {
			continue
		}
		result.Relations = append(result.Relations, extraction.RawRelation{
			Source:     wr.Source,
			Target:     wr.Target,
			Type:       wr.Type,
			Confidence: confidenceOrOne(wr.Confidence),
		})
	}
	return result, nil
}

func confidenceOrOne(c *float64) float64 {
	if c == nil {
		return 1.0
	}
	return *c
}
