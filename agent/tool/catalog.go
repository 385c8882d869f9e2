package tool

import (
	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
	schemax "github.com/tanpawarit/storage-chat-agent/agent/schema"
)

const (
	ToolSetLocalStorage      = "setLocalStorage"
	ToolGetLocalStorage      = "getLocalStorage"
	ToolContinueConversation = "continueConversation"
)

// Catalog declares the callable tools. Key enums come from the registry so a
// new storage key needs no change here.
func Catalog(registry *schemax.Registry) []contractx.ToolDefinition {
	keys := registry.Keys()

	return []contractx.ToolDefinition{
		{
			Name:        ToolSetLocalStorage,
			Description: "Store a value in localStorage under the specified key",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"key": map[string]any{
						"type":        "string",
						"enum":        keys,
						"description": "The storage key to use",
					},
					"value": map[string]any{
						"type":        "string",
						"description": "The value to store (will be normalized based on key type)",
					},
				},
				"required": []string{"key", "value"},
			},
		},
		{
			Name:        ToolGetLocalStorage,
			Description: "Retrieve a value from localStorage for the specified key",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"key": map[string]any{
						"type":        "string",
						"enum":        keys,
						"description": "The storage key to read from",
					},
				},
				"required": []string{"key"},
			},
		},
		{
			Name:        ToolContinueConversation,
			Description: "Continue the conversation after executing localStorage operations",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
				"required":   []string{},
			},
		},
	}
}

func IsKnown(name string) bool {
	switch name {
	case ToolSetLocalStorage, ToolGetLocalStorage, ToolContinueConversation:
		return true
	default:
		return false
	}
}
