package toolsearch

import "github.com/kestrelai/toolsearch/tool"

// ToolDefinition is an external, immutable description of a callable tool.
type ToolDefinition struct {
	Name        string
	Description string
	Schema      map[string]interface{}
}

// ToolCallback binds a ToolDefinition to its invocable implementation. The
// interceptor's before/after hooks only advertise it to the LLM;
// Interceptor.Run, standing in for the surrounding chat framework, invokes
// it when the model calls it.
type ToolCallback struct {
	Definition ToolDefinition
	Impl       tool.Tool
}

// ToolReference is a lightweight, transient search result.
type ToolReference struct {
	ToolName       string
	Summary        string
	RelevanceScore float64
}
