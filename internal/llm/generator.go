package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jonathan/resume-tailor/internal/schemas"
	"github.com/jonathan/resume-tailor/internal/types"
)

// Generator produces schema-validated structured output from a role-tagged
// conversation. The conversation must end with a user message; a leading
// system message becomes the system instruction.
type Generator interface {
	GenerateStructured(ctx context.Context, tier ModelTier, messages []types.Message, schemaName string, out any) error
}

// GeminiClient implements Generator using Google Gemini chat sessions
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini-backed generator
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultConfig()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, config: config}, nil
}

// GenerateStructured sends the conversation to the model for the given tier,
// validates the JSON response against the named schema, and decodes it into out.
func (c *GeminiClient) GenerateStructured(ctx context.Context, tier ModelTier, messages []types.Message, schemaName string, out any) error {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return &GenerationError{Schema: schemaName, Message: fmt.Sprintf("no model configured for tier %s", tier)}
	}

	system, history, last, err := splitConversation(messages)
	if err != nil {
		return &GenerationError{Schema: schemaName, Message: err.Error()}
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(0.1) // Low temperature for consistent output
	model.ResponseMIMEType = "application/json"
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return &GenerationError{Schema: schemaName, Message: "provider request failed", Cause: err}
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return &GenerationError{Schema: schemaName, Message: "empty response", Cause: err}
	}
	raw := []byte(cleanJSONBlock(text))

	if err := schemas.Validate(schemaName, raw); err != nil {
		return &GenerationError{Schema: schemaName, Message: "response failed schema validation", Cause: err}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &GenerationError{Schema: schemaName, Message: "response could not be decoded", Cause: err}
	}
	return nil
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// splitConversation separates a message log into the system instruction, the
// chat history, and the final user message that drives the request.
func splitConversation(messages []types.Message) (system string, history []*genai.Content, last string, err error) {
	if len(messages) == 0 {
		return "", nil, "", fmt.Errorf("conversation is empty")
	}

	rest := messages
	if rest[0].Role == types.RoleSystem {
		system = rest[0].Content
		rest = rest[1:]
	}

	if len(rest) == 0 || rest[len(rest)-1].Role != types.RoleUser {
		return "", nil, "", fmt.Errorf("conversation must end with a user message")
	}
	last = rest[len(rest)-1].Content
	rest = rest[:len(rest)-1]

	history = make([]*genai.Content, 0, len(rest))
	for _, m := range rest {
		role := "user"
		if m.Role == types.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return system, history, last, nil
}

// extractTextFromResponse extracts text from a Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}

// cleanJSONBlock removes markdown code block wrappers from JSON
func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
