package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
)

// DefaultModelName is requested from the model when no name is configured.
const DefaultModelName = "gpt-5"

// Outcome is the typed result of a model call: either generated content or
// the failure that prevented it.
type Outcome struct {
	Content string
	Err     error
}

// Failed reports whether the call failed.
func (o Outcome) Failed() bool { return o.Err != nil }

// Text renders the outcome as reply content. Failures become the literal
// diagnostic "[error calling model: <failure text>]".
func (o Outcome) Text() string {
	if o.Err != nil {
		return fmt.Sprintf("[error calling model: %s]", o.Err.Error())
	}
	return o.Content
}

// ResponderOptions configures a Responder instance.
//
// Use functional options with NewResponder to override defaults.
type ResponderOptions struct {
	// ModelName is sent with every request. Defaults to gpt-5.
	ModelName string
	// APIKeyPresent gates live model use; without it the responder echoes.
	APIKeyPresent bool
	// Instruction is an optional system prompt prepended on the model path.
	Instruction Instruction
	// MaxTokens caps completion length (0 leaves the provider default).
	MaxTokens int64
	// Stream requests incremental output; chunks go to OnPartial.
	Stream    bool
	OnPartial func(chunk string)
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// modelCallLogger is implemented by loggers offering a dedicated model call
// record (logging.StructuredLogger).
type modelCallLogger interface {
	LogModelCall(model string, dur time.Duration, success bool, err error)
}

// Responder normalizes a conversation state and produces exactly one reply
// message, either from a chat-completion model or by echoing the latest user
// message. It holds no per-call state and is safe for concurrent use.
type Responder struct {
	llm           model.Model
	modelName     string
	apiKeyPresent bool
	instruction   Instruction
	maxTokens     int64
	stream        bool
	onPartial     func(string)
	logger        logging.Logger
}

// NewResponder creates a Responder. llm may be nil, in which case the
// responder always echoes.
func NewResponder(llm model.Model, optFns ...func(o *ResponderOptions)) *Responder {
	opts := ResponderOptions{
		ModelName: DefaultModelName,
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.ModelName == "" {
		opts.ModelName = DefaultModelName
	}

	return &Responder{
		llm:           llm,
		modelName:     opts.ModelName,
		apiKeyPresent: opts.APIKeyPresent,
		instruction:   opts.Instruction,
		maxTokens:     opts.MaxTokens,
		stream:        opts.Stream,
		onPartial:     opts.OnPartial,
		logger:        logging.OrNoOp(opts.Logger),
	}
}

// Live reports whether Respond will call the model.
func (r *Responder) Live() bool { return r.apiKeyPresent && r.llm != nil }

// Respond derives and normalizes the state's messages and returns an update
// carrying one assistant message. It never fails: model errors are rendered
// into the reply content.
func (r *Responder) Respond(ctx context.Context, state core.State) core.StateUpdate {
	msgs := state.Messages()

	if !r.Live() {
		r.logger.Debug("responder.echo", "messages", len(msgs))
		return core.NewStateUpdate(core.NewAssistantMessage(Echo(msgs)))
	}

	outcome := r.Complete(ctx, state, msgs)

	return core.NewStateUpdate(core.NewAssistantMessage(outcome.Text()))
}

// Complete performs the model call for already normalized messages.
func (r *Responder) Complete(ctx context.Context, state core.State, msgs []core.Message) Outcome {
	start := time.Now()

	outcome := r.complete(ctx, state, msgs)

	if l, ok := r.logger.(modelCallLogger); ok {
		l.LogModelCall(r.modelName, time.Since(start), !outcome.Failed(), outcome.Err)
	} else if outcome.Failed() {
		r.logger.Warn("responder.model.error", "model", r.modelName, "error", outcome.Err.Error())
	} else {
		r.logger.Debug("responder.model.done", "model", r.modelName, "duration", time.Since(start))
	}

	return outcome
}

func (r *Responder) complete(ctx context.Context, state core.State, msgs []core.Message) Outcome {
	var instructions string
	if !r.instruction.IsZero() {
		text, err := r.instruction.Resolve(state)
		if err != nil {
			return Outcome{Err: fmt.Errorf("resolve instructions: %w", err)}
		}
		instructions = text
	}

	req := model.Request{
		Model:        r.modelName,
		Instructions: instructions,
		Messages:     msgs,
		MaxTokens:    r.maxTokens,
		Stream:       r.stream,
	}

	var onPartial func(model.Response)
	if r.stream && r.onPartial != nil {
		onPartial = func(resp model.Response) { r.onPartial(resp.Message.Content) }
	}

	respCh, errCh := r.llm.Generate(ctx, req)

	resp, err := model.Collect(ctx, respCh, errCh, onPartial)
	if err != nil {
		return Outcome{Err: err}
	}

	return Outcome{Content: resp.Message.Content}
}

// Echo returns the content of the most recent user-role message, or "" when
// there is none.
func Echo(msgs []core.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == core.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
