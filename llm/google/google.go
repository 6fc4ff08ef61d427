// Package google adapts Google's Gemini API to llm.ChatModel.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/kestrelai/toolsearch/llm"
)

// ChatModel wraps the Gemini generative-ai-go client.
type ChatModel struct {
	apiKey    string
	modelName string
}

func (m *ChatModel) ModelName() string { return m.modelName }

// NewChatModel creates a ChatModel for the given Gemini model name. An
// empty modelName defaults to "gemini-2.5-flash".
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &ChatModel{apiKey: apiKey, modelName: modelName}
}

func (m *ChatModel) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec) (llm.ChatOut, error) {
	if ctx.Err() != nil {
		return llm.ChatOut{}, ctx.Err()
	}
	if m.apiKey == "" {
		return llm.ChatOut{}, errors.New("google: API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(m.apiKey))
	if err != nil {
		return llm.ChatOut{}, fmt.Errorf("google: create client: %w", err)
	}
	defer client.Close()

	genModel := client.GenerativeModel(m.modelName)
	if sys := systemPrompt(messages); sys != "" {
		genModel.SystemInstruction = genai.NewUserContent(genai.Text(sys))
	}
	if len(tools) > 0 {
		genModel.Tools = convertTools(tools)
	}

	resp, err := genModel.GenerateContent(ctx, convertMessages(messages)...)
	if err != nil {
		var safetyErr *SafetyFilterError
		if errors.As(err, &safetyErr) {
			return llm.ChatOut{}, safetyErr
		}
		return llm.ChatOut{}, fmt.Errorf("google: %w", err)
	}

	return convertResponse(resp), nil
}

func systemPrompt(messages []llm.Message) string {
	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			return msg.Content
		}
	}
	return ""
}

func convertMessages(messages []llm.Message) []genai.Part {
	var parts []genai.Part
	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			continue
		}
		if msg.Content != "" {
			parts = append(parts, genai.Text(msg.Content))
		}
	}
	return parts
}

func convertTools(tools []llm.ToolSpec) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		decls[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertSchema(t.Schema),
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func convertSchema(schema map[string]interface{}) *genai.Schema {
	if schema == nil {
		return nil
	}
	result := &genai.Schema{Type: genai.TypeObject}

	if props, ok := schema["properties"].(map[string]interface{}); ok {
		properties := make(map[string]*genai.Schema, len(props))
		for key, val := range props {
			propMap, ok := val.(map[string]interface{})
			if !ok {
				continue
			}
			propSchema := &genai.Schema{}
			if typeStr, ok := propMap["type"].(string); ok {
				propSchema.Type = convertType(typeStr)
			}
			if desc, ok := propMap["description"].(string); ok {
				propSchema.Description = desc
			}
			properties[key] = propSchema
		}
		result.Properties = properties
	}

	switch required := schema["required"].(type) {
	case []string:
		result.Required = required
	case []interface{}:
		reqStrs := make([]string, 0, len(required))
		for _, v := range required {
			if s, ok := v.(string); ok {
				reqStrs = append(reqStrs, s)
			}
		}
		result.Required = reqStrs
	}

	return result
}

func convertType(typeStr string) genai.Type {
	switch typeStr {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

func convertResponse(resp *genai.GenerateContentResponse) llm.ChatOut {
	out := llm.ChatOut{}
	if resp.UsageMetadata != nil {
		out.Usage = llm.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += string(p)
		case genai.FunctionCall:
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				Name:  p.Name,
				Input: p.Args,
			})
		}
	}

	return out
}

// SafetyFilterError reports that Gemini blocked a response on safety grounds.
type SafetyFilterError struct {
	Category string
}

func (e *SafetyFilterError) Error() string {
	return "content blocked by safety filter: " + e.Category
}
