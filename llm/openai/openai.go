// Package openai adapts the Chat Completions API to llm.ChatModel.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/kestrelai/toolsearch/llm"
)

// ChatModel wraps an openai-go client.
type ChatModel struct {
	client *openai.Client
	model  string
}

func (m *ChatModel) ModelName() string { return m.model }

// NewChatModel creates a ChatModel for the given model name, e.g. "gpt-4o".
func NewChatModel(apiKey, model string) (*ChatModel, error) {
	if apiKey == "" {
		return nil, errors.New("openai: API key cannot be empty")
	}
	if model == "" {
		return nil, errors.New("openai: model cannot be empty")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &ChatModel{client: &client, model: model}, nil
}

func (m *ChatModel) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec) (llm.ChatOut, error) {
	if ctx.Err() != nil {
		return llm.ChatOut{}, ctx.Err()
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.model),
		Messages: convertMessages(messages),
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.ChatOut{}, fmt.Errorf("openai: %w", err)
	}
	if len(completion.Choices) == 0 {
		return llm.ChatOut{}, errors.New("openai: empty response")
	}

	return convertResponse(completion), nil
}

func convertMessages(messages []llm.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case llm.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case llm.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		case llm.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		}
	}
	return out
}

func convertTools(tools []llm.ToolSpec) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  shared.FunctionParameters(t.Schema),
			},
		})
	}
	return out
}

func convertResponse(completion *openai.ChatCompletion) llm.ChatOut {
	choice := completion.Choices[0]
	out := llm.ChatOut{
		Text: choice.Message.Content,
		Usage: llm.Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}

	for _, call := range choice.Message.ToolCalls {
		var input map[string]interface{}
		if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
			input = nil
		}
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			ID:    call.ID,
			Name:  call.Function.Name,
			Input: input,
		})
	}

	return out
}
