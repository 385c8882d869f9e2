package llm

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
)

type ModelInfo struct {
	ID          string
	Name        string
	Description string
	Provider    string
}

const DefaultModel = "gemini-2.0-flash-lite"

var AvailableModels = []ModelInfo{
	{ID: "gemini-2.0-flash-lite", Name: "Gemini 2.0 Flash Lite", Description: "Fast, lightweight model for quick responses", Provider: "Google"},
	{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Description: "Advanced fast response model with improved capabilities", Provider: "Google"},
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Description: "Best for fast performance on everyday tasks. Enhanced speed and efficiency.", Provider: "Google"},
	{ID: "gemma-3", Name: "Gemma 3", Description: "Open source model with enhanced performance", Provider: "Google"},
	{ID: "gemma-3n", Name: "Gemma 3n", Description: "Nano version of Gemma 3 for efficient processing", Provider: "Google"},
	{ID: "gemini-2.5-flash-lite-preview-06-17", Name: "Gemini 2.5 Flash-Lite Preview 06-17", Description: "Preview version of the next-generation lightweight model", Provider: "Google"},
	{ID: "gemini-1.5-flash-latest", Name: "Gemini 1.5 Flash", Description: "Latest version of the fast response model", Provider: "Google"},
}

func LookupModel(id string) (ModelInfo, bool) {
	id = strings.TrimSpace(id)
	for _, m := range AvailableModels {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

func ValidateModel(id string) error {
	if strings.TrimSpace(id) == "" {
		return contractx.ErrMissingModel
	}
	if _, ok := LookupModel(id); !ok {
		return fmt.Errorf("%w: %q", contractx.ErrUnknownModel, id)
	}
	return nil
}
