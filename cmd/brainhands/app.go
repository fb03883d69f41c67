package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ashutoshrp06/brainhands/internal/agent"
	"github.com/ashutoshrp06/brainhands/internal/brain"
	"github.com/ashutoshrp06/brainhands/internal/compat"
	"github.com/ashutoshrp06/brainhands/internal/config"
	"github.com/ashutoshrp06/brainhands/internal/executor"
	"github.com/ashutoshrp06/brainhands/internal/finance"
	"github.com/ashutoshrp06/brainhands/internal/functions"
	"github.com/ashutoshrp06/brainhands/internal/history"
	"github.com/ashutoshrp06/brainhands/internal/llm"
	"github.com/ashutoshrp06/brainhands/internal/ollama"
	"github.com/ashutoshrp06/brainhands/internal/tools"
	"github.com/ashutoshrp06/brainhands/internal/types"
	"go.uber.org/zap"
)

// app is the fully wired runtime shared by every command.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	catalogue *functions.Registry
	generator llm.Generator
	ollama    *ollama.Client
	hands     *executor.Executor
	agent     *agent.Executor
	shim      *compat.Shim
	ledger    *finance.Ledger
	history   *history.Store
}

// newApp builds the Brain, the Hands, the agent loop and the legacy shim
// from cfg, and opens the SQLite stores.
func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	catalogue, err := loadCatalogue(cfg.Tools.CatalogPath)
	if err != nil {
		return nil, err
	}
	a.catalogue = catalogue

	timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	switch cfg.LLM.Provider {
	case "ollama":
		a.ollama = ollama.NewClient(ollama.Config{
			BaseURL:     cfg.LLM.Endpoint,
			Model:       cfg.LLM.Model,
			Timeout:     timeout,
			Temperature: cfg.LLM.Temperature,
		})
		a.generator = a.ollama
	default:
		a.generator = llm.NewClient(llm.ClientConfig{
			Endpoint:    cfg.LLM.Endpoint,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Timeout:     timeout,
			Temperature: float32(cfg.LLM.Temperature),
			MaxTokens:   cfg.LLM.MaxTokens,
		})
	}

	persona := llm.Persona{Name: cfg.Persona.Name, Instructions: cfg.Persona.Instructions}
	a.hands = executor.NewExecutor(catalogue, tools.DefaultChain(tools.Options{}), logger)

	a.agent, err = agent.New(agent.Config{
		Brain:                brain.New(brain.Config{Generator: a.generator, Persona: persona, Logger: logger}),
		Hands:                a.hands,
		Catalogue:            catalogue,
		Logger:               logger,
		DefaultMaxIterations: cfg.Agent.MaxIterations,
		MaxIterationsCeiling: cfg.Agent.MaxIterationsCeiling,
		SessionTimeout:       time.Duration(cfg.Agent.SessionTimeoutMs) * time.Millisecond,
		BrainTimeout:         time.Duration(cfg.Agent.BrainTimeoutMs) * time.Millisecond,
		LoopWindow:           cfg.Agent.LoopWindow,
		FailureThreshold:     cfg.Agent.FailureThreshold,
		CompletionLookback:   cfg.Agent.CompletionLookback,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build agent: %w", err)
	}

	a.shim = compat.New(compat.Config{
		Agent:         a.agent,
		Generator:     a.generator,
		Hands:         a.hands,
		Catalogue:     catalogue,
		Persona:       persona,
		MaxIterations: cfg.Agent.MaxIterations,
		Logger:        logger,
	})

	if err := os.MkdirAll(cfg.Storage.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	if a.ledger, err = finance.Open(cfg.Storage.LedgerPath(), logger); err != nil {
		return nil, err
	}
	if a.history, err = history.Open(cfg.Storage.HistoryPath()); err != nil {
		a.ledger.Close()
		return nil, err
	}

	logger.Debug("Runtime ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.Int("tools", len(catalogue.All())),
		zap.String("storage", cfg.Storage.Dir))
	return a, nil
}

func loadCatalogue(path string) (*functions.Registry, error) {
	if path == "" {
		return functions.Default()
	}
	reg, err := functions.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tool catalogue %s: %w", path, err)
	}
	return reg, nil
}

// Close releases the stores and flushes the logger.
func (a *app) Close() {
	if a.history != nil {
		a.history.Close()
	}
	if a.ledger != nil {
		a.ledger.Close()
	}
	_ = a.logger.Sync()
}

// apiKey returns the key sent with every request. Local providers do not
// check it, but the agent requires one.
func (a *app) apiKey() string {
	if a.cfg.LLM.APIKey != "" {
		return a.cfg.LLM.APIKey
	}
	if a.cfg.LLM.Provider == "ollama" {
		return "ollama"
	}
	return ""
}

// executionContext is the per-request context for direct agent calls.
func (a *app) executionContext() *types.ExecutionContext {
	return &types.ExecutionContext{
		APIKey:       a.apiKey(),
		ModelName:    a.cfg.LLM.Model,
		AllowedTools: types.NewToolSet(a.cfg.Tools.Allowed...),
		SearchAPIKey: a.cfg.Tools.TavilyAPIKey,
		Finance:      a.ledger,
	}
}

// conversation starts a transcript-backed multi-turn conversation.
func (a *app) conversation() *agent.Conversation {
	return agent.NewConversation(a.agent, a.executionContext(), a.history)
}

// allowedToolNames lists the enabled catalogue tools.
func (a *app) allowedToolNames() []string {
	var names []string
	for _, d := range a.catalogue.ListTools(types.NewToolSet(a.cfg.Tools.Allowed...)) {
		if !types.IsTerminalTool(d.AgentID) {
			names = append(names, d.AgentID)
		}
	}
	return names
}

// ping checks that a local model server is reachable.
func (a *app) ping(ctx context.Context) error {
	if a.ollama == nil {
		return nil
	}
	_, err := a.ollama.ListModels(ctx)
	return err
}
