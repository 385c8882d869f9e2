package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/storage-chat-agent/agent/agents/orchestrator"
	"github.com/tanpawarit/storage-chat-agent/agent/gateway"
	"github.com/tanpawarit/storage-chat-agent/agent/kv"
	llmx "github.com/tanpawarit/storage-chat-agent/agent/llm"
	"github.com/tanpawarit/storage-chat-agent/agent/prompt"
	schemax "github.com/tanpawarit/storage-chat-agent/agent/schema"
	statex "github.com/tanpawarit/storage-chat-agent/agent/state"
	toolx "github.com/tanpawarit/storage-chat-agent/agent/tool"
	configx "github.com/tanpawarit/storage-chat-agent/pkg/config"
)

// app holds the wired components behind the CLI commands.
type app struct {
	llmCfg  llmx.Config
	chatCfg orchestrator.Config

	registry *schemax.Registry
	store    kv.Store
	settings *llmx.Settings
	orch     *orchestrator.Orchestrator
}

func openStore(ctx context.Context) (kv.Store, error) {
	storageCfg, err := configx.New[kv.Config]("STORAGE")
	if err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}
	store, err := kv.Open(ctx, *storageCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", storageCfg.Driver, err)
	}
	return store, nil
}

// newApp loads configuration and wires the conversation. A non-empty
// sessionFile overrides CHAT_SESSION_FILE.
func newApp(ctx context.Context, sessionFile string) (*app, error) {
	llmCfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		return nil, fmt.Errorf("load llm config: %w", err)
	}
	chatCfg, err := configx.New[orchestrator.Config]("CHAT")
	if err != nil {
		return nil, fmt.Errorf("load chat config: %w", err)
	}
	if sessionFile != "" {
		chatCfg.SessionFile = sessionFile
	}

	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	settings := llmx.NewSettings(llmCfg.APIKey, llmCfg.Model)
	settings.AllowAnyModel = llmCfg.AllowAnyModel

	a := &app{
		llmCfg:   *llmCfg,
		chatCfg:  *chatCfg,
		registry: schemax.Default,
		store:    store,
		settings: settings,
	}
	if err := a.wire(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	gw, err := gateway.New(a.llmCfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	executor, err := toolx.NewExecutor(a.registry, a.store)
	if err != nil {
		return fmt.Errorf("create executor: %w", err)
	}

	instructions, err := prompt.Instructions(a.registry)
	if err != nil {
		return fmt.Errorf("render instructions: %w", err)
	}
	session := statex.NewSession(instructions, time.Now())

	if path := a.chatCfg.SessionFile; path != "" {
		snap, ok, err := statex.LoadTranscript(path)
		if err != nil {
			return err
		}
		if ok {
			if err := session.Restore(snap); err != nil {
				return err
			}
			if snap.Model != "" {
				if err := a.settings.SetModel(snap.Model); err != nil {
					log.Warn().Err(err).Str("model", snap.Model).Msg("ignoring saved model")
				}
			}
			log.Info().Str("session_file", path).Int("entries", session.Len()).Msg("session resumed")
		}
	}

	orch, err := orchestrator.New(session, gw, executor, a.settings, a.registry, a.chatCfg)
	if err != nil {
		return err
	}
	a.orch = orch
	return nil
}

// save writes the conversation to path, or to the configured session file
// when path is empty.
func (a *app) save(path string) (string, error) {
	if path == "" {
		path = a.chatCfg.SessionFile
	}
	if path == "" {
		return "", fmt.Errorf("no session file configured")
	}
	snap := a.orch.Session().Snapshot()
	snap.Model = a.settings.Model()
	return path, statex.SaveTranscript(path, snap)
}

func (a *app) Close() error {
	return a.store.Close()
}
