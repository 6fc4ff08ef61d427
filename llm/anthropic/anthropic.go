// Package anthropic adapts Anthropic's Messages API to llm.ChatModel.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kestrelai/toolsearch/llm"
)

// ChatModel wraps an anthropic-sdk-go client.
type ChatModel struct {
	client *anthropic.Client
	model  string
}

func (m *ChatModel) ModelName() string { return m.model }

// NewChatModel creates a ChatModel for the given Claude model name, e.g.
// "claude-3-5-sonnet-20241022".
func NewChatModel(apiKey, model string) *ChatModel {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &ChatModel{client: &client, model: model}
}

func (m *ChatModel) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec) (llm.ChatOut, error) {
	if ctx.Err() != nil {
		return llm.ChatOut{}, ctx.Err()
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: 4096,
		Messages:  convertMessages(messages),
	}
	if sys := systemPrompt(messages); sys != "" {
		params.System = []anthropic.TextBlockParam{{Text: sys}}
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return llm.ChatOut{}, fmt.Errorf("anthropic: %w", err)
	}

	return convertResponse(resp), nil
}

func systemPrompt(messages []llm.Message) string {
	var sb strings.Builder
	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(msg.Content)
		}
	}
	return sb.String()
}

func convertMessages(messages []llm.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			// folded into params.System by the caller
		case llm.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case llm.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		case llm.RoleTool:
			out = append(out, anthropic.NewUserMessage(anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false)))
		}
	}
	return out
}

func convertTools(tools []llm.ToolSpec) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := anthropic.ToolInputSchemaParam{}
		if props, ok := t.Schema["properties"]; ok {
			schema.Properties = props
		}
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: schema,
			},
		})
	}
	return out
}

func convertResponse(message *anthropic.Message) llm.ChatOut {
	out := llm.ChatOut{
		Usage: llm.Usage{
			InputTokens:  int(message.Usage.InputTokens),
			OutputTokens: int(message.Usage.OutputTokens),
		},
	}

	for _, block := range message.Content {
		switch block.Type {
		case "text":
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += block.Text
		case "tool_use":
			var input map[string]interface{}
			if err := json.Unmarshal(block.Input, &input); err != nil {
				input = nil
			}
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:    block.ID,
				Name:  block.Name,
				Input: input,
			})
		}
	}

	return out
}
