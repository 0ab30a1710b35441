// Package agentgraph provides a high-level façade over the conversation graph
// and its services (model provider, web search, session store and logging).
// Most applications interact with this package by:
//  1. Creating an AgentGraph via New() (optionally overriding config, model,
//     searcher or session store)
//  2. Invoking the graph with a loosely-typed state (Invoke) or continuing a
//     persisted conversation (Chat)
//
// Without an API key for the configured provider the graph echoes the latest
// user message, so every default is safe for local development and testing.
package agentgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/config"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/model/anthropic"
	"github.com/hupe1980/agentgraph/model/gemini"
	"github.com/hupe1980/agentgraph/model/openai"
	"github.com/hupe1980/agentgraph/session"
	"github.com/hupe1980/agentgraph/session/sqlite"
	"github.com/hupe1980/agentgraph/tool"
)

// Options configures the AgentGraph instance.
type Options struct {
	// Config is the runtime configuration. Nil loads it from the environment.
	Config *config.Config

	// Model overrides the provider model built from Config. Like a built
	// model it is only called when the provider's API key is present.
	Model model.Model

	// ForceLive calls Model even without an API key.
	ForceLive bool

	// Searcher overrides the web searcher. Setting it enables the search node.
	Searcher tool.Searcher

	// SessionStore defaults to sqlite when Config.SessionDB is set and to an
	// in-memory store otherwise.
	SessionStore core.SessionStore

	// OnPartial receives streamed chunks when Config.Stream is enabled.
	OnPartial func(chunk string)

	// Logger (defaults to a structured logger built from Config.Log)
	Logger logging.Logger
}

// AgentGraph is the high-level façade aggregating the graph and services.
type AgentGraph struct {
	cfg       config.Config
	graph     *graph.Graph
	responder *agent.Responder
	sessions  core.SessionStore
	logger    logging.Logger
	closers   []io.Closer
}

// New creates a new AgentGraph. Any unset service is derived from the
// configuration.
func New(optFns ...func(o *Options)) (*AgentGraph, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	var cfg config.Config
	if opts.Config != nil {
		cfg = *opts.Config
	} else {
		loaded, err := config.FromEnv()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(cfg.Log)
	}

	a := &AgentGraph{cfg: cfg, logger: logger}

	llm := opts.Model
	live := llm != nil && (cfg.APIKeyPresent() || opts.ForceLive)
	if llm == nil && cfg.APIKeyPresent() {
		m, err := NewModel(context.Background(), cfg)
		if err != nil {
			// A client that cannot be built counts as unavailable.
			logger.Warn("agentgraph.model.unavailable", "provider", cfg.Provider, "error", err.Error())
		} else {
			llm, live = m, true
			if c, ok := m.(io.Closer); ok {
				a.closers = append(a.closers, c)
			}
		}
	}

	instruction := agent.Instruction{}
	if cfg.Instructions != "" {
		instruction = agent.NewInstructionFromText(cfg.Instructions)
	}

	modelName := cfg.Model
	if modelName == "" && llm != nil {
		modelName = llm.Info().Name
	}

	a.responder = agent.NewResponder(llm, func(o *agent.ResponderOptions) {
		o.ModelName = modelName
		o.APIKeyPresent = live
		o.Instruction = instruction
		o.MaxTokens = cfg.MaxTokens
		o.Stream = cfg.Stream
		o.OnPartial = opts.OnPartial
		o.Logger = logger
	})

	searcher := opts.Searcher
	if searcher == nil && cfg.Search.Enabled {
		searcher = tool.NewWebSearch(func(o *tool.WebSearchOptions) {
			o.BraveAPIKey = cfg.Search.BraveAPIKey
			o.MaxResults = cfg.Search.MaxResults
			o.Logger = logger
		})
	}

	graphOpts := func(o *graph.Options) { o.Logger = logger }
	if searcher != nil {
		a.graph = graph.NewWithSearch(a.responder, searcher, graphOpts)
	} else {
		a.graph = graph.New(a.responder, graphOpts)
	}

	a.sessions = opts.SessionStore
	if a.sessions == nil {
		if cfg.SessionDB != "" {
			store, err := sqlite.Open(cfg.SessionDB)
			if err != nil {
				a.Close() //nolint:errcheck
				return nil, fmt.Errorf("open session db: %w", err)
			}
			a.sessions = store
			a.closers = append(a.closers, store)
		} else {
			a.sessions = session.NewInMemoryStore()
		}
	}

	logger.Debug("agentgraph.ready",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"live", a.responder.Live(),
		"nodes", a.graph.Nodes(),
	)

	return a, nil
}

// NewLogger builds the structured logger described by a log config.
func NewLogger(cfg config.LogConfig) *logging.StructuredLogger {
	level, _ := logging.ParseLevel(cfg.Level)
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Format,
		Output:    os.Stderr,
		Component: "agentgraph",
	})
}

// NewModel builds the provider model selected by cfg.
func NewModel(ctx context.Context, cfg config.Config) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.APIKey = cfg.OpenAIKey
			o.BaseURL = cfg.BaseURL
			o.MaxCompletionTokens = cfg.MaxTokens
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.APIKey = cfg.AnthropicKey
			o.BaseURL = cfg.BaseURL
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
		}), nil
	case config.ProviderGemini:
		m, err := gemini.NewModel(ctx, func(o *gemini.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.APIKey = cfg.GeminiKey
			if cfg.MaxTokens > 0 {
				o.MaxTokens = int32(cfg.MaxTokens)
			}
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Provider)
	}
}

// Config returns the effective configuration.
func (a *AgentGraph) Config() config.Config { return a.cfg }

// Graph returns the compiled conversation graph.
func (a *AgentGraph) Graph() *graph.Graph { return a.graph }

// Live reports whether replies come from a model rather than echo.
func (a *AgentGraph) Live() bool { return a.responder.Live() }

// Sessions returns the session store.
func (a *AgentGraph) Sessions() core.SessionStore { return a.sessions }

// Invoke runs the graph once for a loosely-typed state.
func (a *AgentGraph) Invoke(ctx context.Context, state core.State) (core.StateUpdate, error) {
	return a.graph.Invoke(ctx, state)
}

// Chat continues the conversation stored under sessionID with a new user
// message, persists both the message and the reply, and returns the reply.
func (a *AgentGraph) Chat(ctx context.Context, sessionID, text string) (core.Message, error) {
	if sessionID == "" {
		return core.Message{}, errors.New("session id must not be empty")
	}

	var history []core.Message

	sess, err := a.sessions.Get(ctx, sessionID)
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
	case err != nil:
		return core.Message{}, fmt.Errorf("load session %s: %w", sessionID, err)
	default:
		history = sess.History()
	}

	user := core.NewUserMessage(text)
	history = append(history, user)

	a.logger.Debug("agentgraph.chat.turn", "session_id", sessionID, "history", len(history))

	update, err := a.graph.Invoke(ctx, core.State{core.KeyMessages: history})
	if err != nil {
		return core.Message{}, err
	}

	msgs := append([]core.Message{user}, update.Messages...)
	if err := a.sessions.Append(ctx, sessionID, msgs...); err != nil {
		return core.Message{}, fmt.Errorf("save session %s: %w", sessionID, err)
	}

	return update.Reply(), nil
}

// Close releases model clients and durable stores opened by New.
func (a *AgentGraph) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
