package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	schemax "github.com/tanpawarit/storage-chat-agent/agent/schema"
	toolx "github.com/tanpawarit/storage-chat-agent/agent/tool"
)

var (
	//go:embed template/instructions.txt
	instructionsRaw string

	instructionsTmpl = template.Must(template.New("instructions").
				Funcs(template.FuncMap{"join": strings.Join}).
				Parse(instructionsRaw))
)

type instructionsData struct {
	Get      string
	Set      string
	Continue string
	Keys     []string
	Entries  []schemax.Entry
}

// Instructions renders the system prompt for the given registry. Tool names
// and key notes are filled from the same sources the catalog uses.
func Instructions(registry *schemax.Registry) (string, error) {
	var buf bytes.Buffer
	err := instructionsTmpl.Execute(&buf, instructionsData{
		Get:      toolx.ToolGetLocalStorage,
		Set:      toolx.ToolSetLocalStorage,
		Continue: toolx.ToolContinueConversation,
		Keys:     registry.Keys(),
		Entries:  registry.Entries(),
	})
	if err != nil {
		return "", fmt.Errorf("render instructions: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func MustInstructions(registry *schemax.Registry) string {
	s, err := Instructions(registry)
	if err != nil {
		panic(err)
	}
	return s
}
